package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	type tc struct {
		name        string
		prepare     func(t *testing.T) string
		canceled    bool
		wantErrIs   error
		wantContent string
	}

	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "all_female_json.zip")
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	cases := []tc{
		{
			name:        "reads content",
			prepare:     func(t *testing.T) string { return writeFile(t, "PK archive") },
			wantContent: "PK archive",
		},
		{
			name:      "missing file wraps not-exist",
			prepare:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.zip") },
			wantErrIs: os.ErrNotExist,
		},
		{
			name:      "canceled context short-circuits",
			prepare:   func(t *testing.T) string { return writeFile(t, "ignored") },
			canceled:  true,
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			if c.canceled {
				cancel()
			} else {
				defer cancel()
			}

			src := NewLocal(c.prepare(t))
			rc, err := src.Open(ctx)
			if c.wantErrIs != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, c.wantErrIs), "got %v", err)
				assert.Nil(t, rc)
				return
			}
			require.NoError(t, err)
			defer rc.Close()

			_, isReaderAt := rc.(io.ReaderAt)
			assert.True(t, isReaderAt)

			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, c.wantContent, string(got))
			assert.True(t, src.Exists())
		})
	}
}

func TestLocalExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.False(t, NewLocal(filepath.Join(dir, "nope.zip")).Exists())
	assert.False(t, NewLocal(dir).Exists(), "directories are not archives")
}
