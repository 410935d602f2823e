package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/domicilios-tipovia/internal/normalize"
)

// sliceSource serves records from memory. onNext, when set, runs before the
// i-th record is returned.
type sliceSource struct {
	records []normalize.AddressRecord
	failAt  int
	onNext  func(i int)
}

func (s *sliceSource) Scan() RecordIterator {
	return &sliceIterator{src: s, pos: -1}
}

type sliceIterator struct {
	src *sliceSource
	pos int
	err error
}

func (it *sliceIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	it.pos++
	if it.src.failAt > 0 && it.pos == it.src.failAt {
		it.err = errors.New("connection reset")
		return false
	}
	if it.pos >= len(it.src.records) {
		return false
	}
	if it.src.onNext != nil {
		it.src.onNext(it.pos)
	}
	return true
}

func (it *sliceIterator) Record() normalize.AddressRecord { return it.src.records[it.pos] }
func (it *sliceIterator) Err() error                      { return it.err }

// memorySink keeps committed plans and can fail the n-th Apply overall.
type memorySink struct {
	persisted  []normalize.MutationPlan
	begun      int
	rolledBack int
	applied    int
	failApply  int
	failCommit bool
	events     *[]string
}

func (s *memorySink) Begin(ctx context.Context) (Batch, error) {
	s.begun++
	if s.events != nil {
		*s.events = append(*s.events, "begin")
	}
	return &memoryBatch{sink: s}, nil
}

type memoryBatch struct {
	sink    *memorySink
	pending []normalize.MutationPlan
}

func (b *memoryBatch) Apply(ctx context.Context, plan normalize.MutationPlan) error {
	b.sink.applied++
	if b.sink.failApply > 0 && b.sink.applied == b.sink.failApply {
		return fmt.Errorf("deadlock detected")
	}
	b.pending = append(b.pending, plan)
	return nil
}

func (b *memoryBatch) Commit() error {
	if b.sink.failCommit {
		return errors.New("could not serialize access")
	}
	b.sink.persisted = append(b.sink.persisted, b.pending...)
	b.pending = nil
	return nil
}

func (b *memoryBatch) Rollback() error {
	b.sink.rolledBack++
	b.pending = nil
	return nil
}

type fakeBackup struct {
	err    error
	called int
	events *[]string
}

func (f *fakeBackup) CreateBackup(ctx context.Context) (*BackupSnapshot, error) {
	f.called++
	if f.events != nil {
		*f.events = append(*f.events, "backup")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &BackupSnapshot{SourceTable: "public.domicilios", Name: "domicilios_backup_20240101_000000", RowCount: 3}, nil
}

type fakeExporter struct {
	got []string
	err error
}

func (f *fakeExporter) Export(ctx context.Context, changes *ChangeSet) (*ExportSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = changes.IDs()
	return &ExportSummary{Path: "out.csv", Mode: "changed", Rows: changes.Len()}, nil
}

// dirtyRecords returns n records that all need a change.
func dirtyRecords(n int) []normalize.AddressRecord {
	out := make([]normalize.AddressRecord, n)
	for i := range out {
		out[i] = normalize.AddressRecord{
			ID:         fmt.Sprint(i + 1),
			TypeVia:    "Calle",
			StreetName: fmt.Sprintf("Av. Número %d", i+1),
		}
	}
	return out
}
