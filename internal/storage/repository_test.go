package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
)

// fakeRepo is a minimal Repository implementation for tests.
type fakeRepo struct {
	closed bool
}

func (f *fakeRepo) Exec(context.Context, string) error { return nil }
func (f *fakeRepo) ExecTx(_ context.Context, stmts []Statement) (int64, error) {
	return int64(len(stmts)), nil
}
func (f *fakeRepo) Count(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeRepo) Dialect() ddl.Dialect                       { return ddl.SQLite }
func (f *fakeRepo) Close() error                               { f.closed = true; return nil }

func TestRegisterAndNew(t *testing.T) {
	t.Parallel()

	var got Config
	Register("fake-new", func(ctx context.Context, cfg Config) (Repository, error) {
		got = cfg
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: " Fake-New ", DSN: "mem"})
	require.NoError(t, err)
	require.NotNil(t, repo)

	assert.Equal(t, "fake-new", got.Kind)
	assert.NotNil(t, got.Logger)
	assert.Contains(t, ListKinds(), "fake-new")

	require.NoError(t, repo.Close())
	assert.True(t, repo.(*fakeRepo).closed)
}

func TestNew_UnsupportedKind(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "mssql", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported kind "mssql"`)
}

func TestNew_EmptyDSN(t *testing.T) {
	t.Parallel()

	Register("fake-dsn", func(ctx context.Context, cfg Config) (Repository, error) {
		t.Fatal("factory must not be called without a DSN")
		return nil, nil
	})
	_, err := New(context.Background(), Config{Kind: "fake-dsn"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN must not be empty")
}
