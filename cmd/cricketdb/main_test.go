package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MemphisMeng/cricket-report-sub000/internal/schema"
	"github.com/MemphisMeng/cricket-report-sub000/internal/storage/sqlite"
)

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	p := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o600))
	return p
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()

	for _, name := range []string{
		"db", "config", "storage", "mode", "batch-size", "dedupe-policy", "dump-sql",
		"cache-dir", "offline", "female-archive", "male-archive", "timeout",
		"metrics-backend", "pushgateway-url", "statsd-addr", "log-format", "verbose", "validate",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "v", cmd.Flags().Lookup("verbose").Shorthand)
}

func TestExecute_UsageErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"missing db", nil, `required flag(s) "db" not set`},
		{"unknown flag", []string{"--db", "x.db", "--nope"}, "unknown flag"},
		{"positional arg", []string{"--db", "x.db", "extra"}, "unknown command"},
		{"bad mode", []string{"--db", "x.db", "--mode", "copy"}, "runtime.mode"},
		{"bad storage", []string{"--db", "x.db", "--storage", "mssql"}, "storage.kind"},
		{"prompush without gateway", []string{"--db", "x.db", "--metrics-backend", "prompush"}, "metrics.gateway"},
		{"missing config file", []string{"--db", "x.db", "--config", "/nonexistent/cricketdb.yaml"}, "config: load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr, tt.stderr)
		})
	}
}

func TestExecute_ValidateOnly(t *testing.T) {
	code, stdout, stderr := runCLI(t, "--db", "cricket.db", "--validate")
	assert.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "configuration is valid\n", stdout)
}

func TestExecute_LocalArchives(t *testing.T) {
	female := writeArchive(t, map[string]string{
		"11.json": `{"info":{"teams":["A","B"],"registry":{"people":{"P One":"p1","Both":"bb"}}},
			"innings":[{"team":"A"},{"team":"B"}]}`,
		"README.txt": "ignored",
	})
	male := writeArchive(t, map[string]string{
		"22.json":  `{"info":{"teams":["C","D"],"registry":{"people":{"P Two":"p2","Both":"bb"}}},"innings":[{"team":"C"},{"team":"D"}]}`,
		"bad.json": `{"info":`,
	})
	dir := t.TempDir()
	db := filepath.Join(dir, "cricket.db")
	dump := filepath.Join(dir, "load.sql")

	code, stdout, stderr := runCLI(t,
		"--db", db, "--offline",
		"--female-archive", female, "--male-archive", male,
		"--dump-sql", dump,
	)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "loaded 2 matches, 4 innings, 3 players into sqlite (1 malformed, 0 duplicate documents skipped)")

	repo, err := sqlite.NewRepository(context.Background(), sqlite.Config{DSN: db})
	require.NoError(t, err)
	defer repo.Close()
	for table, want := range map[string]int64{
		schema.MatchResults:   2,
		schema.Innings:        4,
		schema.PlayerUniverse: 3,
	} {
		n, err := repo.Count(context.Background(), table)
		require.NoError(t, err)
		assert.Equal(t, want, n, table)
	}

	sql, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Contains(t, string(sql), `CREATE TABLE IF NOT EXISTS "match_results"`)
	assert.Contains(t, string(sql), `INSERT INTO "innings"`)
}

func TestExecute_StageFailureExitsOne(t *testing.T) {
	dir := t.TempDir()

	code, _, stderr := runCLI(t,
		"--db", filepath.Join(dir, "cricket.db"),
		"--offline", "--cache-dir", filepath.Join(dir, "empty-cache"),
	)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "pipeline: DOWNLOAD failed")
	assert.Contains(t, stderr, "offline and no cached archive")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(failure(assert.AnError)))
	assert.Equal(t, exitUsage, exitCode(usageErr("bad %s", "flag")))
	assert.Equal(t, exitUsage, exitCode(assert.AnError))
}
