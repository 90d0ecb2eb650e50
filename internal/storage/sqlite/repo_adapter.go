package sqlite

import (
	"context"

	"github.com/MemphisMeng/cricket-report-sub000/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := newRepository(ctx, Config{
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
