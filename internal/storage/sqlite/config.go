package sqlite

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a file path or URI, e.g. "cricket.db" or
	// "file:cricket.db?mode=rwc". ":memory:" works for tests.
	DSN string

	// BusyTimeout is how long a statement waits on a locked database.
	// Zero means 5s.
	BusyTimeout time.Duration

	Logger logrus.FieldLogger
}
