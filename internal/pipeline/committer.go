package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/normalize"
)

// DefaultBatchSize is the number of updates per committed transaction.
const DefaultBatchSize = 5000

// Committer groups changed plans into batches of at most batchSize updates
// and commits each batch atomically. In dry-run mode it never opens a batch.
type Committer struct {
	sink      Sink
	batchSize int
	dryRun    bool
	logger    *zap.Logger

	batch     Batch
	pending   int
	committed int
	batches   int
}

// NewCommitter creates a committer over sink.
func NewCommitter(sink Sink, batchSize int, dryRun bool, logger *zap.Logger) *Committer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Committer{
		sink:      sink,
		batchSize: batchSize,
		dryRun:    dryRun,
		logger:    logger.Named("committer"),
	}
}

// Add queues plan. Unchanged plans and every plan in dry-run mode are
// ignored. A full batch is committed before Add returns. On error the
// in-flight batch has already been discarded.
func (c *Committer) Add(ctx context.Context, plan normalize.MutationPlan) error {
	if !plan.Changed || c.dryRun {
		return nil
	}

	if c.batch == nil {
		if c.sink == nil {
			return fmt.Errorf("%w: no sink configured", ErrValidation)
		}
		batch, err := c.sink.Begin(ctx)
		if err != nil {
			return fmt.Errorf("%w: begin batch %d: %w", ErrStorage, c.batches+1, err)
		}
		c.batch = batch
	}

	if err := c.batch.Apply(ctx, plan); err != nil {
		c.Discard()
		return fmt.Errorf("%w: update record %s: %w", ErrStorage, plan.ID, err)
	}
	c.pending++

	if c.pending >= c.batchSize {
		return c.Flush()
	}
	return nil
}

// Flush commits the in-flight batch, if any.
func (c *Committer) Flush() error {
	if c.batch == nil {
		return nil
	}

	batch, n := c.batch, c.pending
	c.batch, c.pending = nil, 0

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("%w: commit batch %d (%d updates): %w", ErrStorage, c.batches+1, n, err)
	}

	c.committed += n
	c.batches++
	c.logger.Info("batch committed",
		zap.Int("batch", c.batches),
		zap.Int("updates", n),
		zap.Int("total", c.committed),
	)
	return nil
}

// Discard rolls back the in-flight batch, if any.
func (c *Committer) Discard() {
	if c.batch == nil {
		return
	}
	if err := c.batch.Rollback(); err != nil {
		c.logger.Warn("rollback of in-flight batch failed", zap.Error(err))
	}
	c.logger.Warn("in-flight batch discarded", zap.Int("updates", c.pending))
	c.batch, c.pending = nil, 0
}

// Committed returns the number of updates made durable so far.
func (c *Committer) Committed() int {
	return c.committed
}

// Batches returns the number of committed batches.
func (c *Committer) Batches() int {
	return c.batches
}
