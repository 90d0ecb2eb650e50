package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/MemphisMeng/cricket-report-sub000/internal/config"
	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource/cricsheet"
	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource/httpds"
	"github.com/MemphisMeng/cricket-report-sub000/internal/logging"
	"github.com/MemphisMeng/cricket-report-sub000/internal/metrics"
	"github.com/MemphisMeng/cricket-report-sub000/internal/metrics/datadog"
	"github.com/MemphisMeng/cricket-report-sub000/internal/metrics/prompush"
	"github.com/MemphisMeng/cricket-report-sub000/internal/pipeline"
	"github.com/MemphisMeng/cricket-report-sub000/internal/storage"

	// Register every storage backend; --storage picks one.
	_ "github.com/MemphisMeng/cricket-report-sub000/internal/storage/all"
)

// options holds the command-line flags. Flags only override the loaded
// config when set explicitly.
type options struct {
	configPath     string
	db             string
	storageKind    string
	mode           string
	batchSize      int
	dedupePolicy   string
	dumpSQL        string
	cacheDir       string
	offline        bool
	femaleArchive  string
	maleArchive    string
	timeout        time.Duration
	metricsBackend string
	pushGateway    string
	statsdAddr     string
	logFormat      string
	verbose        bool
	validateOnly   bool
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "cricketdb: %v\n", err)
	}
	return exitCode(err)
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cricketdb --db <destination>",
		Short: "Load Cricsheet match archives into a relational store",
		Long: `Download the female and male Cricsheet JSON archives, normalize every
match and load three tables in order: match_results, innings and
player_universe. Every run is a full refresh of those tables.

Exit status is 0 on success, 1 when a pipeline stage fails and 2 on usage or
configuration errors.

Example:
  cricketdb --db cricket.db
  cricketdb --db cricket.db --cache-dir ~/.cache/cricketdb --offline
  cricketdb --db postgres://etl@localhost/cricket --storage postgres`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.db, "db", "", "destination: SQLite file path or postgres URL (required)")
	f.StringVar(&opts.configPath, "config", "", "YAML config file (default $CRICKETDB_CONFIG)")
	f.StringVar(&opts.storageKind, "storage", "", "storage backend: sqlite, sqlite3 or postgres")
	f.StringVar(&opts.mode, "mode", "", "DML mode: bind or literal")
	f.IntVar(&opts.batchSize, "batch-size", 0, "rows per INSERT statement")
	f.StringVar(&opts.dedupePolicy, "dedupe-policy", "", "copy kept for repeated matches and players: keep-first, keep-last or most-complete")
	f.StringVar(&opts.dumpSQL, "dump-sql", "", "also write the generated SQL to this file")
	f.StringVar(&opts.cacheDir, "cache-dir", "", "keep downloaded archives in this directory")
	f.BoolVar(&opts.offline, "offline", false, "do not download; use --cache-dir or local archives")
	f.StringVar(&opts.femaleArchive, "female-archive", "", "read the female partition from this local zip")
	f.StringVar(&opts.maleArchive, "male-archive", "", "read the male partition from this local zip")
	f.DurationVar(&opts.timeout, "timeout", 0, "bound on the whole download stage")
	f.StringVar(&opts.metricsBackend, "metrics-backend", "", "metrics backend: none, prompush or datadog")
	f.StringVar(&opts.pushGateway, "pushgateway-url", "", "Pushgateway base URL for prompush")
	f.StringVar(&opts.statsdAddr, "statsd-addr", "", "DogStatsD address for datadog")
	f.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	f.BoolVar(&opts.validateOnly, "validate", false, "validate the configuration and exit")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// applyFlags copies explicitly set flags onto cfg.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	f := cmd.Flags()
	cfg.Storage.DSN = opts.db
	if f.Changed("storage") {
		cfg.Storage.Kind = opts.storageKind
	}
	if f.Changed("mode") {
		cfg.Runtime.Mode = opts.mode
	}
	if f.Changed("batch-size") {
		cfg.Runtime.BatchSize = opts.batchSize
	}
	if f.Changed("dedupe-policy") {
		cfg.Runtime.DedupePolicy = opts.dedupePolicy
	}
	if f.Changed("dump-sql") {
		cfg.Runtime.DumpSQL = opts.dumpSQL
	}
	if f.Changed("cache-dir") {
		cfg.Source.CacheDir = opts.cacheDir
	}
	if f.Changed("offline") {
		cfg.Source.Offline = opts.offline
	}
	if f.Changed("female-archive") {
		cfg.Source.FemalePath = opts.femaleArchive
	}
	if f.Changed("male-archive") {
		cfg.Source.MalePath = opts.maleArchive
	}
	if f.Changed("timeout") {
		cfg.Source.Timeout = opts.timeout
	}
	if f.Changed("metrics-backend") {
		cfg.Metrics.Backend = opts.metricsBackend
	}
	if f.Changed("pushgateway-url") {
		cfg.Metrics.Gateway = opts.pushGateway
	}
	if f.Changed("statsd-addr") {
		cfg.Metrics.Addr = opts.statsdAddr
	}
	if f.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
}

func run(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := config.Load(ctx, opts.configPath)
	if err != nil {
		return usageErr("%w", err)
	}
	applyFlags(cmd, opts, cfg)

	issues := config.Validate(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if err := config.Err(issues); err != nil {
		return usageErr("invalid configuration")
	}
	if opts.validateOnly {
		fmt.Fprintln(stdout, "configuration is valid")
		return nil
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr})
	if err != nil {
		return usageErr("%w", err)
	}

	flush, err := setupMetrics(cfg, log)
	if err != nil {
		return usageErr("%w", err)
	}
	defer flush()

	repo, err := storage.New(ctx, storage.Config{
		Kind:        cfg.Storage.Kind,
		DSN:         cfg.Storage.DSN,
		BusyTimeout: cfg.Storage.BusyTimeout,
		MaxConns:    cfg.Storage.MaxConns,
		Logger:      log,
	})
	if err != nil {
		return failure(err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.WithError(err).Warn("close storage")
		}
	}()

	var dump io.Writer
	if cfg.Runtime.DumpSQL != "" {
		f, err := os.Create(cfg.Runtime.DumpSQL)
		if err != nil {
			return failure(fmt.Errorf("dump sql: %w", err))
		}
		defer f.Close()
		dump = f
	}

	fetcher := cricsheet.NewFetcher(cricsheet.Options{
		CacheDir: cfg.Source.CacheDir,
		Offline:  cfg.Source.Offline,
		Client: httpds.NewClient(httpds.Config{
			Timeout:            cfg.Source.Timeout,
			MaxRetries:         cfg.Source.Retries,
			UserAgent:          cfg.Source.UserAgent,
			InsecureSkipVerify: cfg.Source.InsecureSkipVerify,
		}),
		Logger: log,
	})

	sum, err := pipeline.New(repo, fetcher, pipeline.Options{
		Job:             cfg.Job,
		Partitions:      cfg.Source.Partitions(),
		DownloadTimeout: cfg.Source.Timeout,
		Mode:            cfg.Runtime.Mode,
		BatchSize:       cfg.Runtime.BatchSize,
		DedupePolicy:    cfg.Runtime.DedupePolicy,
		DumpSQL:         dump,
		Logger:          log,
	}).Run(ctx)
	if err != nil {
		return failure(err)
	}

	fmt.Fprintf(stdout, "loaded %d matches, %d innings, %d players into %s (%d malformed, %d duplicate documents skipped) in %s\n",
		sum.Matches, sum.Innings, sum.Players, cfg.Storage.Kind,
		sum.Skipped, sum.Duplicates, sum.Elapsed.Truncate(time.Millisecond))
	return nil
}

// setupMetrics installs the configured backend and returns a func that
// flushes it and restores the previous one.
func setupMetrics(cfg *config.Config, log logrus.FieldLogger) (func(), error) {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case config.MetricsPromPush:
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.Gateway)
	case config.MetricsDatadog:
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.Addr,
			Namespace:  cfg.Metrics.Namespace,
			GlobalTags: cfg.Metrics.Tags,
		})
	default:
		log.Debug("metrics disabled")
		return func() {}, nil
	}
	if err != nil {
		return nil, err
	}

	log.WithField("backend", cfg.Metrics.Backend).Info("metrics enabled")
	prev := metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.WithError(err).Warn("metrics flush failed")
		}
		metrics.SetBackend(prev)
	}, nil
}
