// Package pipeline runs one full-refresh ingestion: download both archives,
// normalize every match, then create and load the tables in registry order.
//
//	DOWNLOAD -> NORMALIZE -> BUILD_DDL -> CREATE_TABLES -> BUILD_DML -> INSERT -> DONE
//
// Each stage runs once. The first failure stops the run and is returned as a
// *StageError naming the stage (and table, where one applies).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MemphisMeng/cricket-report-sub000/internal/config"
	"github.com/MemphisMeng/cricket-report-sub000/internal/datasource/cricsheet"
	"github.com/MemphisMeng/cricket-report-sub000/internal/logging"
	"github.com/MemphisMeng/cricket-report-sub000/internal/metrics"
	"github.com/MemphisMeng/cricket-report-sub000/internal/storage"
)

// Fetcher retrieves archive partitions. *cricsheet.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, parts []cricsheet.Partition) ([]cricsheet.Batch, error)
}

// Options configures a Runner. Zero values fall back to config.Default().
type Options struct {
	Job        string
	Partitions []cricsheet.Partition
	// DownloadTimeout bounds the whole DOWNLOAD stage; zero means no bound
	// beyond ctx.
	DownloadTimeout time.Duration
	// Mode is config.ModeBind or config.ModeLiteral.
	Mode         string
	BatchSize    int
	DedupePolicy string
	// DumpSQL, when non-nil, receives the DDL and literal DML of the run.
	DumpSQL io.Writer
	Logger  logrus.FieldLogger
	// RunID tags logs; a random UUID is used when empty.
	RunID string
}

// Summary reports a successful run.
type Summary struct {
	RunID      string
	Matches    int
	Innings    int
	Players    int
	Skipped    int
	Duplicates int
	// Inserted is the row count of each table after loading.
	Inserted map[string]int64
	Elapsed  time.Duration
}

// Runner executes runs against one repository.
type Runner struct {
	repo    storage.Repository
	fetcher Fetcher
	opts    Options
}

// New returns a Runner. repo and fetcher are required.
func New(repo storage.Repository, fetcher Fetcher, opts Options) *Runner {
	def := config.Default()
	if opts.Job == "" {
		opts.Job = def.Job
	}
	if opts.Partitions == nil {
		opts.Partitions = def.Source.Partitions()
	}
	if opts.Mode == "" {
		opts.Mode = def.Runtime.Mode
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.Runtime.BatchSize
	}
	if opts.DedupePolicy == "" {
		opts.DedupePolicy = def.Runtime.DedupePolicy
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Runner{repo: repo, fetcher: fetcher, opts: opts}
}

// run carries the state handed from one stage to the next.
type run struct {
	id      string
	log     logrus.FieldLogger
	batches []cricsheet.Batch
	tables  []*tablePlan
	summary *Summary
}

// Run performs one ingestion.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	id := r.opts.RunID
	if id == "" {
		id = uuid.NewString()
	}
	st := &run{
		id:      id,
		log:     r.opts.Logger.WithField("run_id", id),
		summary: &Summary{RunID: id, Inserted: map[string]int64{}},
	}
	start := time.Now()

	st.log.WithFields(logrus.Fields{
		"job":     r.opts.Job,
		"mode":    r.opts.Mode,
		"dialect": r.repo.Dialect().String(),
	}).Info("run started")

	steps := []struct {
		stage Stage
		fn    func(context.Context, *run) error
	}{
		{StageDownload, r.download},
		{StageNormalize, r.normalize},
		{StageBuildDDL, r.buildDDL},
		{StageCreateTables, r.createTables},
		{StageBuildDML, r.buildDML},
		{StageInsert, r.insert},
	}
	for _, s := range steps {
		if err := r.stage(ctx, st, s.stage, s.fn); err != nil {
			return nil, err
		}
	}

	st.summary.Elapsed = time.Since(start)
	metrics.RecordStage(r.opts.Job, string(StageDone), nil, st.summary.Elapsed)
	st.log.WithFields(logrus.Fields{
		"stage":      StageDone,
		"matches":    st.summary.Matches,
		"innings":    st.summary.Innings,
		"players":    st.summary.Players,
		"skipped":    st.summary.Skipped,
		"duplicates": st.summary.Duplicates,
		"inserted":   st.summary.Inserted,
		"elapsed":    st.summary.Elapsed.Truncate(time.Millisecond).String(),
	}).Info("run complete")
	return st.summary, nil
}

// stage wraps fn with banners, metrics and StageError tagging.
func (r *Runner) stage(ctx context.Context, st *run, s Stage, fn func(context.Context, *run) error) error {
	log := st.log.WithField("stage", s)
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: s, Err: err}
	}

	log.Info("stage started")
	start := time.Now()
	err := fn(ctx, st)
	elapsed := time.Since(start)
	metrics.RecordStage(r.opts.Job, string(s), err, elapsed)

	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			se.Stage = s
		} else {
			se = &StageError{Stage: s, Err: err}
		}
		fields := logrus.Fields{"elapsed": elapsed.Truncate(time.Millisecond).String()}
		if se.Table != "" {
			fields["table"] = se.Table
		}
		log.WithFields(fields).WithError(se.Err).Error("stage failed")
		return se
	}
	log.WithField("elapsed", elapsed.Truncate(time.Millisecond).String()).Info("stage finished")
	return nil
}

func (r *Runner) download(ctx context.Context, st *run) error {
	dctx := ctx
	if r.opts.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, r.opts.DownloadTimeout)
		defer cancel()
	}

	batches, err := r.fetcher.Fetch(dctx, r.opts.Partitions)
	if err != nil {
		if ctx.Err() == nil && errors.Is(dctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %w", ErrDownloadTimeout, r.opts.DownloadTimeout, err)
		}
		return err
	}

	for _, b := range batches {
		st.log.WithFields(logrus.Fields{
			"partition": b.Gender,
			"source":    b.Source,
			"documents": len(b.Documents),
		}).Info("partition fetched")
	}
	st.batches = batches
	return nil
}

func (r *Runner) createTables(ctx context.Context, st *run) error {
	for _, t := range st.tables {
		if err := r.repo.Exec(ctx, t.create); err != nil {
			return tableErr(t.def.FQN, err)
		}
		st.log.WithField("table", t.def.FQN).Debug("table ensured")
	}
	return nil
}

func (r *Runner) insert(ctx context.Context, st *run) error {
	for _, t := range st.tables {
		log := st.log.WithField("table", t.def.FQN)

		if _, err := r.repo.ExecTx(ctx, t.stmts); err != nil {
			return tableErr(t.def.FQN, err)
		}
		n, err := r.repo.Count(ctx, t.def.FQN)
		if err != nil {
			return tableErr(t.def.FQN, err)
		}
		if n != int64(len(t.rows)) {
			return tableErr(t.def.FQN, fmt.Errorf("expected %d rows after load, found %d", len(t.rows), n))
		}

		st.summary.Inserted[t.def.FQN] = n
		metrics.RecordRows(r.opts.Job, t.def.FQN, n)
		metrics.RecordStatements(r.opts.Job, t.def.FQN, int64(t.inserts))
		log.WithField("rows", n).Info("table loaded")
	}
	return nil
}
