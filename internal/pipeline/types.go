package pipeline

import (
	"context"
	"time"

	"github.com/domicilios-tipovia/internal/normalize"
)

// RecordIterator is a forward-only, pull-based sequence of records.
// Next advances and reports whether a record is available; after it returns
// false, Err reports the error that stopped the iteration, if any.
type RecordIterator interface {
	Next(ctx context.Context) bool
	Record() normalize.AddressRecord
	Err() error
}

// RecordSource starts a new scan from the beginning of the ordered set.
type RecordSource interface {
	Scan() RecordIterator
}

// Sink opens write batches against the store.
type Sink interface {
	Begin(ctx context.Context) (Batch, error)
}

// Batch is one atomic unit of updates. After Commit or Rollback the batch
// must not be used again.
type Batch interface {
	Apply(ctx context.Context, plan normalize.MutationPlan) error
	Commit() error
	Rollback() error
}

// BackupSnapshot describes a copy of the source table taken before a run.
type BackupSnapshot struct {
	SourceTable string    `json:"source_table"`
	Name        string    `json:"name"`
	RowCount    int64     `json:"row_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// BackupCreator snapshots the source table.
type BackupCreator interface {
	CreateBackup(ctx context.Context) (*BackupSnapshot, error)
}

// ExportSummary describes a finished export.
type ExportSummary struct {
	Path    string `json:"path"`
	Mode    string `json:"mode"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// Exporter writes the post-run view of the store.
type Exporter interface {
	Export(ctx context.Context, changes *ChangeSet) (*ExportSummary, error)
}
