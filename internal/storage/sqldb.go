package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
)

// SQLDB implements Repository over database/sql. The SQLite backends embed
// it and only differ in driver and connection setup.
type SQLDB struct {
	DB    *sql.DB
	Label string
	Log   logrus.FieldLogger
	// Flavor is returned by Dialect.
	Flavor ddl.Dialect
}

// Dialect implements Repository.
func (s *SQLDB) Dialect() ddl.Dialect { return s.Flavor }

// Exec runs a single statement. Blank SQL is a no-op.
func (s *SQLDB) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := s.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: exec: %w", s.Label, err)
	}
	return nil
}

// ExecTx runs stmts in one transaction.
func (s *SQLDB) ExecTx(ctx context.Context, stmts []Statement) (int64, error) {
	if len(stmts) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", s.Label, err)
	}

	progress := NewProgress(s.Log)
	var affected int64
	for i, st := range stmts {
		res, err := tx.ExecContext(ctx, st.SQL, st.Args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: statement %d of %d: %w", s.Label, i+1, len(stmts), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = st.Rows
		}
		affected += n
		progress.Add(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", s.Label, err)
	}
	return affected, nil
}

// Count returns SELECT COUNT(*) for table.
func (s *SQLDB) Count(ctx context.Context, table string) (int64, error) {
	q, err := ddl.BuildCountSQL(table)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.DB.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count %s: %w", s.Label, table, err)
	}
	return n, nil
}

// Close closes the pool.
func (s *SQLDB) Close() error {
	return s.DB.Close()
}
