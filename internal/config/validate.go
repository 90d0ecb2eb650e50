package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/MemphisMeng/cricket-report-sub000/internal/normalize"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is logged but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is the dotted config key, e.g.
// "storage.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

var (
	storageKinds   = []string{"postgres", "sqlite", "sqlite3"}
	modes          = []string{ModeBind, ModeLiteral}
	dedupePolicies = []string{normalize.KeepFirst, normalize.KeepLast, normalize.MostComplete}
	metricBackends = []string{MetricsNone, MetricsPromPush, MetricsDatadog}
	logFormats     = []string{"text", "json"}
)

// maxBatchSize keeps bound statements under SQLite's host parameter limit
// for the widest table.
const maxBatchSize = 1000

// Validate lints cfg and returns every issue found. It does not mutate cfg.
func Validate(cfg Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateSource(cfg.Source)...)
	issues = append(issues, validateStorage(cfg.Storage)...)
	issues = append(issues, validateRuntime(cfg.Runtime)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateLog(cfg.Log)...)
	return issues
}

// Err joins the error-severity issues into one error, or returns nil.
func Err(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

func validateSource(s Source) []Issue {
	var issues []Issue

	for _, p := range []struct{ gender, url, path string }{
		{normalize.Female, s.FemaleURL, s.FemalePath},
		{normalize.Male, s.MaleURL, s.MalePath},
	} {
		if strings.TrimSpace(p.url) == "" && strings.TrimSpace(p.path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source." + p.gender + "_url",
				Message:  fmt.Sprintf("%s partition needs a URL or a local path", p.gender),
			})
		}
	}

	if s.Offline && s.CacheDir == "" && (s.FemalePath == "" || s.MalePath == "") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.offline",
			Message:  "offline mode needs source.cache_dir or a local path for every partition",
		})
	}
	if s.Timeout <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.timeout",
			Message:  "timeout must be > 0",
		})
	}
	if s.Retries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.retries",
			Message:  "retries must be >= 0",
		})
	}
	if s.InsecureSkipVerify {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.insecure_skip_verify",
			Message:  "TLS certificate verification is disabled",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if !oneOf(kind, storageKinds) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q (want one of %s)", s.Kind, strings.Join(storageKinds, ", ")),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "dsn must not be empty",
		})
	}
	if s.BusyTimeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.busy_timeout",
			Message:  "busy_timeout must be >= 0",
		})
	}
	if s.MaxConns < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.max_conns",
			Message:  "max_conns must be >= 0",
		})
	}
	if kind == "postgres" && strings.HasSuffix(strings.ToLower(s.DSN), ".db") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.dsn",
			Message:  "dsn looks like a SQLite file but storage.kind is postgres",
		})
	}
	return issues
}

func validateRuntime(r Runtime) []Issue {
	var issues []Issue

	if !oneOf(r.Mode, modes) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.mode",
			Message:  fmt.Sprintf("unknown mode %q (want bind or literal)", r.Mode),
		})
	}
	switch {
	case r.BatchSize <= 0:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must be > 0",
		})
	case r.BatchSize > maxBatchSize:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size %d is above %d; bind mode caps each statement at the driver parameter limit", r.BatchSize, maxBatchSize),
		})
	}
	if !oneOf(r.DedupePolicy, dedupePolicies) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.dedupe_policy",
			Message:  fmt.Sprintf("unknown dedupe policy %q (want one of %s)", r.DedupePolicy, strings.Join(dedupePolicies, ", ")),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	backend := m.Backend
	if backend == "" {
		backend = MetricsNone
	}
	if !oneOf(backend, metricBackends) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want one of %s)", m.Backend, strings.Join(metricBackends, ", ")),
		})
		return issues
	}

	switch backend {
	case MetricsPromPush:
		if m.Gateway == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.gateway",
				Message:  "prompush backend requires a gateway URL",
			})
		}
	case MetricsDatadog:
		if m.Addr == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.addr",
				Message:  "datadog backend requires a DogStatsD address",
			})
		}
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue

	if _, err := logrus.ParseLevel(strings.TrimSpace(l.Level)); l.Level != "" && err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.level",
			Message:  err.Error(),
		})
	}
	if l.Format != "" && !oneOf(strings.ToLower(l.Format), logFormats) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q (want text or json)", l.Format),
		})
	}
	return issues
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
