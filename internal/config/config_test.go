package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource/cricsheet"
	"github.com/MemphisMeng/cricket-report-sub000/internal/normalize"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "cricketdb", cfg.Job)
	assert.Equal(t, cricsheet.FemaleURL, cfg.Source.FemaleURL)
	assert.Equal(t, cricsheet.MaleURL, cfg.Source.MaleURL)
	assert.Equal(t, "sqlite", cfg.Storage.Kind)
	assert.Equal(t, ModeBind, cfg.Runtime.Mode)
	assert.Equal(t, 500, cfg.Runtime.BatchSize)
	assert.Equal(t, normalize.KeepFirst, cfg.Runtime.DedupePolicy)
	assert.Equal(t, MetricsNone, cfg.Metrics.Backend)

	// Only the DSN is missing from a usable default.
	issues := Validate(*cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "storage.dsn", issues[0].Path)
}

func TestSourcePartitions(t *testing.T) {
	s := Source{FemaleURL: "http://f", MaleURL: "http://m", MalePath: "/tmp/m.zip"}

	got := s.Partitions()
	require.Len(t, got, 2)
	assert.Equal(t, cricsheet.Partition{Gender: normalize.Female, URL: "http://f"}, got[0])
	assert.Equal(t, cricsheet.Partition{Gender: normalize.Male, URL: "http://m", LocalPath: "/tmp/m.zip"}, got[1])
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")

	cfg, err := Load(context.Background(), filepath.Join("testdata", "nightly.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Job)
	assert.Equal(t, "/var/cache/cricketdb", cfg.Source.CacheDir)
	assert.Equal(t, 2*time.Minute, cfg.Source.Timeout)
	assert.Equal(t, 5, cfg.Source.Retries)
	assert.Equal(t, "postgres", cfg.Storage.Kind)
	assert.Equal(t, int32(8), cfg.Storage.MaxConns)
	assert.Equal(t, ModeLiteral, cfg.Runtime.Mode)
	assert.Equal(t, 250, cfg.Runtime.BatchSize)
	assert.Equal(t, normalize.MostComplete, cfg.Runtime.DedupePolicy)
	assert.Equal(t, MetricsPromPush, cfg.Metrics.Backend)
	assert.Equal(t, "json", cfg.Log.Format)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, cricsheet.FemaleURL, cfg.Source.FemaleURL)
	assert.Equal(t, 5*time.Second, cfg.Storage.BusyTimeout)

	assert.Empty(t, Validate(*cfg))
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", filepath.Join("testdata", "nightly.yaml"))

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "nightly", cfg.Job)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")
	t.Setenv("CRICKETDB_JOB", "adhoc")
	t.Setenv("CRICKETDB_RUNTIME__BATCH_SIZE", "50")
	t.Setenv("CRICKETDB_SOURCE__OFFLINE", "true")
	t.Setenv("CRICKETDB_STORAGE__DSN", "/tmp/cricket.db")

	cfg, err := Load(context.Background(), filepath.Join("testdata", "nightly.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "adhoc", cfg.Job)
	assert.Equal(t, 50, cfg.Runtime.BatchSize)
	assert.True(t, cfg.Source.Offline)
	assert.Equal(t, "/tmp/cricket.db", cfg.Storage.DSN)
	assert.Equal(t, ModeLiteral, cfg.Runtime.Mode)
	assert.False(t, cfg.Source.InsecureSkipVerify)
}

func TestLoad_InsecureSkipVerifyFromEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")
	t.Setenv("CRICKETDB_SOURCE__INSECURE_SKIP_VERIFY", "true")

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, cfg.Source.InsecureSkipVerify)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadYAML(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("job: [unterminated"), 0o600))

	_, err := Load(context.Background(), path)
	require.Error(t, err)
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "runtime.batch_size", envKey("CRICKETDB_RUNTIME__BATCH_SIZE"))
	assert.Equal(t, "job", envKey("CRICKETDB_JOB"))
	assert.Equal(t, "", envKey("CRICKETDB_CONFIG"))
}
