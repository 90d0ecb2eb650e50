// Package logging builds the process logger. Components accept a
// logrus.FieldLogger and attach run_id, stage and table fields to it.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config selects the logger's level and output format.
type Config struct {
	// Level is any logrus level name ("debug", "info", "warn", ...).
	Level string
	// Format is "text" (default) or "json".
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a configured *logrus.Logger.
func New(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("logging: unknown format %q (want text or json)", cfg.Format)
	}
	return log, nil
}

// Discard returns a logger that drops everything. Used by tests and by
// library callers that did not supply one.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
