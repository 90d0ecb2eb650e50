// Package postgres implements storage kind "postgres" on a pgx v5 pool.
// Bound statements use $n placeholders; literal statements (no args) go
// through pgx's simple protocol.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
	"github.com/MemphisMeng/cricket-report-sub000/internal/logging"
	"github.com/MemphisMeng/cricket-report-sub000/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN      string // connection string for pgxpool
	MaxConns int32  // pool size; zero keeps the pgxpool default
	Logger   logrus.FieldLogger
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository parses cfg.DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", describe(err))
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Repository{pool: pool, log: log}, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return ddl.Postgres }

// Exec implements storage.Repository.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", describe(err))
	}
	return nil
}

// ExecTx implements storage.Repository.
func (r *Repository) ExecTx(ctx context.Context, stmts []storage.Statement) (int64, error) {
	if len(stmts) == 0 {
		return 0, nil
	}

	var affected int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		progress := storage.NewProgress(r.log)
		for i, st := range stmts {
			tag, err := tx.Exec(ctx, st.SQL, st.Args...)
			if err != nil {
				return fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), describe(err))
			}
			affected += tag.RowsAffected()
			progress.Add(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("postgres: %w", err)
	}
	return affected, nil
}

// Count implements storage.Repository.
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	q, err := ddl.BuildCountSQL(table)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count %s: %w", table, describe(err))
	}
	return n, nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// describe folds the server's detail and SQLSTATE into the message while
// keeping the original error reachable through errors.As.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (detail: %s, sqlstate %s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}
