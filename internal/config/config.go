// Package config defines the run configuration for cricketdb and how it is
// loaded.
//
// Values are layered, lowest precedence first:
//
//  1. Default()
//  2. a YAML file (--config, or CRICKETDB_CONFIG)
//  3. a .env file in the working directory, if present
//  4. environment variables prefixed CRICKETDB_
//  5. command-line flags, applied by the caller after Load
//
// Nested keys use a double underscore in environment variables, e.g.
// CRICKETDB_RUNTIME__BATCH_SIZE=200 sets runtime.batch_size.
//
// Example file:
//
//	job: nightly
//	source:
//	  cache_dir: /var/cache/cricketdb
//	storage:
//	  kind: postgres
//	  dsn: postgres://etl@localhost/cricket
//	runtime:
//	  mode: bind
//	  batch_size: 500
package config

import (
	"time"

	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource/cricsheet"
	"github.com/MemphisMeng/cricket-report-sub000/internal/normalize"
)

// Execution modes for generated DML.
const (
	ModeBind    = "bind"
	ModeLiteral = "literal"
)

// Metrics backends.
const (
	MetricsNone     = "none"
	MetricsPromPush = "prompush"
	MetricsDatadog  = "datadog"
)

// Config is the full run configuration.
type Config struct {
	// Job labels metrics and log lines for this run.
	Job     string  `koanf:"job"`
	Source  Source  `koanf:"source"`
	Storage Storage `koanf:"storage"`
	Runtime Runtime `koanf:"runtime"`
	Metrics Metrics `koanf:"metrics"`
	Log     Log     `koanf:"log"`
}

// Source configures where the archives come from.
type Source struct {
	FemaleURL string `koanf:"female_url"`
	MaleURL   string `koanf:"male_url"`

	// FemalePath and MalePath read a local zip instead of downloading.
	FemalePath string `koanf:"female_path"`
	MalePath   string `koanf:"male_path"`

	// CacheDir keeps downloaded archives; Offline reuses them without
	// touching the network.
	CacheDir string `koanf:"cache_dir"`
	Offline  bool   `koanf:"offline"`

	// Timeout bounds the whole DOWNLOAD stage.
	Timeout   time.Duration `koanf:"timeout"`
	Retries   int           `koanf:"retries"`
	UserAgent string        `koanf:"user_agent"`

	// InsecureSkipVerify disables TLS certificate checks for mirrors with
	// self-signed certificates.
	InsecureSkipVerify bool `koanf:"insecure_skip_verify"`
}

// Storage selects and configures the destination store.
type Storage struct {
	// Kind is one of "sqlite", "sqlite3" or "postgres".
	Kind        string        `koanf:"kind"`
	DSN         string        `koanf:"dsn"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
	MaxConns    int32         `koanf:"max_conns"`
}

// Runtime controls SQL generation.
type Runtime struct {
	// Mode is ModeBind or ModeLiteral.
	Mode string `koanf:"mode"`
	// BatchSize is the number of rows per INSERT statement.
	BatchSize int `koanf:"batch_size"`
	// DedupePolicy picks which copy of a repeated match, and which identity of
	// a repeated player id, is loaded.
	DedupePolicy string `koanf:"dedupe_policy"`
	// DumpSQL, when set, also writes the generated SQL to this file.
	DumpSQL string `koanf:"dump_sql"`
}

// Metrics selects a metrics backend.
type Metrics struct {
	Backend string `koanf:"backend"`
	// Gateway is the Pushgateway base URL for prompush.
	Gateway string `koanf:"gateway"`
	// Addr is the DogStatsD address for datadog.
	Addr      string   `koanf:"addr"`
	Namespace string   `koanf:"namespace"`
	Tags      []string `koanf:"tags"`
}

// Log configures the logger.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns a Config that downloads both archives into a SQLite file
// once DSN is set.
func Default() *Config {
	return &Config{
		Job: "cricketdb",
		Source: Source{
			FemaleURL: cricsheet.FemaleURL,
			MaleURL:   cricsheet.MaleURL,
			Timeout:   10 * time.Minute,
			Retries:   3,
			UserAgent: "cricketdb/1.0",
		},
		Storage: Storage{
			Kind:        "sqlite",
			BusyTimeout: 5 * time.Second,
			MaxConns:    4,
		},
		Runtime: Runtime{
			Mode:         ModeBind,
			BatchSize:    500,
			DedupePolicy: normalize.KeepFirst,
		},
		Metrics: Metrics{
			Backend:   MetricsNone,
			Namespace: "cricketdb.",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Partitions returns the archive partitions described by s, female first.
func (s Source) Partitions() []cricsheet.Partition {
	return []cricsheet.Partition{
		{Gender: normalize.Female, URL: s.FemaleURL, LocalPath: s.FemalePath},
		{Gender: normalize.Male, URL: s.MaleURL, LocalPath: s.MalePath},
	}
}
