package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/debug"
	"github.com/domicilios-tipovia/internal/normalize"
)

// DefaultPreviewLimit is the number of changed plans kept for display.
const DefaultPreviewLimit = 10

// Options controls one run.
type Options struct {
	DryRun       bool
	Backup       bool
	PreviewLimit int
	BatchSize    int
}

// Result summarizes a run. It is returned alongside an error too, holding
// whatever was done before the failure.
type Result struct {
	RunID      string                   `json:"run_id"`
	DryRun     bool                     `json:"dry_run"`
	Scanned    int                      `json:"scanned"`
	Changed    int                      `json:"changed"`
	Committed  int                      `json:"committed"`
	Batches    int                      `json:"batches"`
	Preview    []normalize.MutationPlan `json:"preview"`
	Backup     *BackupSnapshot          `json:"backup,omitempty"`
	ChangeSet  *ChangeSet               `json:"-"`
	Export     *ExportSummary           `json:"export,omitempty"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
}

// Runner executes backup, scan-and-mutate and export in that order on a
// single goroutine.
type Runner struct {
	planner  *normalize.Planner
	source   RecordSource
	sink     Sink
	backup   BackupCreator
	exporter Exporter
	opts     Options
	logger   *zap.Logger
}

// NewRunner creates a runner reading from source and writing to sink.
// sink may be nil for dry runs.
func NewRunner(planner *normalize.Planner, source RecordSource, sink Sink, opts Options, logger *zap.Logger) *Runner {
	if opts.PreviewLimit < 0 {
		opts.PreviewLimit = 0
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		planner: planner,
		source:  source,
		sink:    sink,
		opts:    opts,
		logger:  logger.Named("pipeline"),
	}
}

// WithBackup sets the backup step, used when Options.Backup is true.
func (r *Runner) WithBackup(b BackupCreator) *Runner {
	r.backup = b
	return r
}

// WithExporter sets the export step run after the mutation phase.
func (r *Runner) WithExporter(e Exporter) *Runner {
	r.exporter = e
	return r
}

// Run executes the pipeline. Committed batches stay committed whatever
// happens later; the in-flight batch is rolled back on any error.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		DryRun:    r.opts.DryRun,
		ChangeSet: NewChangeSet(),
		StartedAt: time.Now(),
	}
	defer func() { res.FinishedAt = time.Now() }()

	logger := r.logger.With(zap.String("run_id", res.RunID), zap.Bool("dry_run", r.opts.DryRun))
	logger.Info("run started", zap.Int("batch_size", r.opts.BatchSize))

	if r.source == nil || r.planner == nil {
		return res, fmt.Errorf("%w: runner needs a planner and a record source", ErrValidation)
	}
	if !r.opts.DryRun && r.sink == nil {
		return res, fmt.Errorf("%w: runner needs a sink outside dry-run", ErrValidation)
	}

	if err := r.runBackup(ctx, res, logger); err != nil {
		return res, err
	}

	if err := r.mutate(ctx, res, logger); err != nil {
		logger.Error("mutation phase aborted",
			zap.Int("scanned", res.Scanned),
			zap.Int("committed", res.Committed),
			zap.Error(err),
		)
		return res, err
	}

	if r.exporter != nil {
		done := debug.Timing(logger, "export")
		summary, err := r.exporter.Export(ctx, res.ChangeSet)
		done()
		if err != nil {
			return res, err
		}
		res.Export = summary
	}

	logger.Info("run finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("changed", res.Changed),
		zap.Int("committed", res.Committed),
	)
	return res, nil
}

func (r *Runner) runBackup(ctx context.Context, res *Result, logger *zap.Logger) error {
	if !r.opts.Backup {
		return nil
	}
	if r.opts.DryRun {
		logger.Info("backup skipped in dry-run")
		return nil
	}
	if r.backup == nil {
		return fmt.Errorf("%w: backup requested but no backup step configured", ErrValidation)
	}

	done := debug.Timing(logger, "backup")
	defer done()

	snap, err := r.backup.CreateBackup(ctx)
	if err != nil {
		return fmt.Errorf("%w: create backup: %w", ErrValidation, err)
	}
	res.Backup = snap
	logger.Info("backup created", zap.String("table", snap.Name), zap.Int64("rows", snap.RowCount))
	return nil
}

func (r *Runner) mutate(ctx context.Context, res *Result, logger *zap.Logger) error {
	done := debug.Timing(logger, "scan and mutate")
	defer done()

	committer := NewCommitter(r.sink, r.opts.BatchSize, r.opts.DryRun, logger)
	defer func() {
		res.Committed = committer.Committed()
		res.Batches = committer.Batches()
	}()

	it := r.source.Scan()
	for it.Next(ctx) {
		if err := ctx.Err(); err != nil {
			committer.Discard()
			return fmt.Errorf("run cancelled after %d records: %w", res.Scanned, err)
		}

		plan := r.planner.Plan(it.Record())
		res.Scanned++
		if !plan.Changed {
			continue
		}

		res.Changed++
		res.ChangeSet.Add(plan.ID)
		if len(res.Preview) < r.opts.PreviewLimit {
			res.Preview = append(res.Preview, plan)
		}

		if err := committer.Add(ctx, plan); err != nil {
			return err
		}
	}

	if err := it.Err(); err != nil {
		committer.Discard()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("run cancelled after %d records: %w", res.Scanned, ctxErr)
		}
		return fmt.Errorf("%w: scan: %w", ErrStorage, err)
	}

	return committer.Flush()
}
