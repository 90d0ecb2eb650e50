// Package sqlite3 registers the cgo SQLite driver github.com/mattn/go-sqlite3
// as storage kind "sqlite3". It behaves like the default "sqlite" kind and
// exists for environments that already link the C library.
package sqlite3

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MemphisMeng/cricket-report-sub000/internal/storage"
	"github.com/MemphisMeng/cricket-report-sub000/internal/storage/sqlite"
)

// DriverName is the database/sql driver registered by mattn/go-sqlite3.
const DriverName = "sqlite3"

// Repository is a storage.Repository over the cgo driver.
type Repository struct {
	*storage.SQLDB
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository opens cfg.DSN with the cgo driver.
func NewRepository(ctx context.Context, cfg sqlite.Config) (*Repository, error) {
	db, err := sqlite.Open(ctx, DriverName, cfg)
	if err != nil {
		return nil, err
	}
	return &Repository{SQLDB: db}, nil
}

func init() {
	storage.Register("sqlite3", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := NewRepository(ctx, sqlite.Config{
			DSN:         cfg.DSN,
			BusyTimeout: cfg.BusyTimeout,
			Logger:      cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
