// Package sqlite is the default storage backend: a file-backed SQLite
// database through the pure-Go modernc.org/sqlite driver (kind "sqlite").
//
// The repository holds a single connection so that PRAGMAs apply to every
// statement and ":memory:" databases survive between calls.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
	"github.com/MemphisMeng/cricket-report-sub000/internal/logging"
	"github.com/MemphisMeng/cricket-report-sub000/internal/storage"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	*storage.SQLDB
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository opens cfg.DSN with the modernc driver.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	db, err := Open(ctx, DriverName, cfg)
	if err != nil {
		return nil, err
	}
	return &Repository{SQLDB: db}, nil
}

// Open opens a SQLite database through driver, pins it to one connection and
// applies the connection PRAGMAs. It is shared by every SQLite-flavored
// backend.
func Open(ctx context.Context, driver string, cfg Config) (*storage.SQLDB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", driver)
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", driver, err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %s: %w", driver, p, err)
		}
	}

	return &storage.SQLDB{
		DB:     db,
		Label:  driver,
		Log:    log,
		Flavor: ddl.SQLite,
	}, nil
}
