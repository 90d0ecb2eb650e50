package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path and a Message containing msgSubstr.
func hasIssue(issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	cfg := *Default()
	cfg.Storage.DSN = "cricket.db"
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(validConfig()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		substr string
	}{
		{"empty job", func(c *Config) { c.Job = " " }, SeverityError, "job", "must not be empty"},
		{"partition without url or path", func(c *Config) { c.Source.MaleURL = "" }, SeverityError, "source.male_url", "male partition"},
		{"offline without cache", func(c *Config) { c.Source.Offline = true }, SeverityError, "source.offline", "cache_dir"},
		{"zero timeout", func(c *Config) { c.Source.Timeout = 0 }, SeverityError, "source.timeout", "> 0"},
		{"insecure tls", func(c *Config) { c.Source.InsecureSkipVerify = true }, SeverityWarning, "source.insecure_skip_verify", "disabled"},
		{"negative retries", func(c *Config) { c.Source.Retries = -1 }, SeverityError, "source.retries", ">= 0"},
		{"unknown storage kind", func(c *Config) { c.Storage.Kind = "mssql" }, SeverityError, "storage.kind", "unsupported"},
		{"empty dsn", func(c *Config) { c.Storage.DSN = "" }, SeverityError, "storage.dsn", "must not be empty"},
		{"negative busy timeout", func(c *Config) { c.Storage.BusyTimeout = -1 }, SeverityError, "storage.busy_timeout", ">= 0"},
		{"negative max conns", func(c *Config) { c.Storage.MaxConns = -2 }, SeverityError, "storage.max_conns", ">= 0"},
		{"postgres with sqlite file", func(c *Config) { c.Storage.Kind = "postgres" }, SeverityWarning, "storage.dsn", "SQLite"},
		{"unknown mode", func(c *Config) { c.Runtime.Mode = "copy" }, SeverityError, "runtime.mode", "unknown mode"},
		{"zero batch", func(c *Config) { c.Runtime.BatchSize = 0 }, SeverityError, "runtime.batch_size", "> 0"},
		{"huge batch", func(c *Config) { c.Runtime.BatchSize = 5000 }, SeverityWarning, "runtime.batch_size", "parameter limit"},
		{"unknown policy", func(c *Config) { c.Runtime.DedupePolicy = "newest" }, SeverityError, "runtime.dedupe_policy", "unknown dedupe policy"},
		{"unknown metrics backend", func(c *Config) { c.Metrics.Backend = "statsd" }, SeverityError, "metrics.backend", "unknown metrics backend"},
		{"prompush without gateway", func(c *Config) { c.Metrics.Backend = MetricsPromPush }, SeverityError, "metrics.gateway", "gateway URL"},
		{"datadog without addr", func(c *Config) { c.Metrics.Backend = MetricsDatadog }, SeverityError, "metrics.addr", "DogStatsD"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, SeverityError, "log.level", "loud"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, SeverityError, "log.format", "want text or json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			issues := Validate(cfg)
			assert.True(t, hasIssue(issues, tt.sev, tt.path, tt.substr), "issues: %+v", issues)
		})
	}
}

func TestValidate_OfflineWithLocalPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Offline = true
	cfg.Source.FemalePath = "f.zip"
	cfg.Source.MalePath = "m.zip"

	assert.Empty(t, Validate(cfg))
}

func TestErr(t *testing.T) {
	assert.NoError(t, Err(nil))
	assert.NoError(t, Err([]Issue{{Severity: SeverityWarning, Path: "x", Message: "meh"}}))

	err := Err([]Issue{
		{Severity: SeverityWarning, Path: "runtime.batch_size", Message: "large"},
		{Severity: SeverityError, Path: "storage.dsn", Message: "dsn must not be empty"},
	})
	require.Error(t, err)
	assert.Equal(t, "error at storage.dsn: dsn must not be empty", err.Error())
}
