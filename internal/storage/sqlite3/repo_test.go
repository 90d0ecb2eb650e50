package sqlite3

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MemphisMeng/cricket-report-sub000/internal/ddl"
	"github.com/MemphisMeng/cricket-report-sub000/internal/schema"
	"github.com/MemphisMeng/cricket-report-sub000/internal/storage"
)

func TestFactory_CreateInsertCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite3", DSN: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	defer repo.Close()

	def := schema.MustLookup(schema.Innings)
	create, err := ddl.BuildCreateTableSQL(def)
	require.NoError(t, err)
	require.NoError(t, repo.Exec(ctx, create))
	require.NoError(t, repo.Exec(ctx, create))

	rows := []ddl.Row{
		{"game_id": "1", "innings_order": int64(1), "team": "India"},
		{"game_id": "1", "innings_order": int64(2), "team": "Pakistan", "declared": int64(1)},
	}
	q, err := ddl.BuildInsertPlaceholders(repo.Dialect(), def.FQN, def.ColumnNames(), len(rows))
	require.NoError(t, err)
	args, err := ddl.BindArgs(rows, def.ColumnNames())
	require.NoError(t, err)

	n, err := repo.ExecTx(ctx, []storage.Statement{{SQL: q, Args: args, Rows: int64(len(rows))}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := repo.Count(ctx, def.FQN)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
