// Package storage is the execution sink: a backend-agnostic Repository that
// applies generated SQL to the destination store, plus a kind-keyed factory.
//
// Backends register themselves from init(); importing
// internal/storage/all enables every built-in kind:
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "cricket.db"})
//	if err != nil { ... }
//	defer repo.Close()
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
	"github.com/MemphisMeng/cricket-report-sub000/internal/logging"
)

// Statement is one SQL statement plus its bound arguments. Args is empty for
// literal statements. Rows is the number of table rows the statement writes
// and only feeds progress reporting.
type Statement struct {
	SQL  string
	Args []any
	Rows int64
}

// Repository applies SQL to a destination store. Errors carry the store's
// own message.
type Repository interface {
	// Exec runs one statement outside any explicit transaction.
	Exec(ctx context.Context, sql string) error
	// ExecTx runs stmts in order inside a single transaction and returns the
	// total rows affected. Any failure rolls back every statement.
	ExecTx(ctx context.Context, stmts []Statement) (int64, error)
	// Count returns the number of rows in table.
	Count(ctx context.Context, table string) (int64, error)
	// Dialect reports the placeholder style the backend expects.
	Dialect() ddl.Dialect
	Close() error
}

// Config is the backend-agnostic connection configuration.
type Config struct {
	// Kind selects the backend: "sqlite", "sqlite3" or "postgres".
	Kind string
	// DSN is a file path for the SQLite kinds or a connection URL for
	// postgres.
	DSN string
	// BusyTimeout applies to the SQLite kinds.
	BusyTimeout time.Duration
	// MaxConns caps the postgres pool. SQLite always uses one connection.
	MaxConns int32
	Logger   logrus.FieldLogger
}

// Factory opens a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind, replacing any previous
// registration. Called from backend init functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository of cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %s)", cfg.Kind, strings.Join(ListKinds(), ", "))
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("storage: %s: DSN must not be empty", kind)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	cfg.Kind = kind
	return f(ctx, cfg)
}
