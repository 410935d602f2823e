package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/pipeline"
)

// Mode selects which rows are exported.
type Mode string

const (
	// ModeAll exports every row matching the run's filter.
	ModeAll Mode = "all"
	// ModeChanged exports only rows recorded in the change set.
	ModeChanged Mode = "changed"
)

// ParseMode validates an export mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAll, ModeChanged:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown export mode %q (want all or changed)", pipeline.ErrValidation, s)
	}
}

// RowSource yields whole rows as text in primary-key order. A nil ids means
// every row; otherwise only the listed keys. limit > 0 caps the row count.
type RowSource interface {
	Columns(ctx context.Context) ([]string, error)
	EachRow(ctx context.Context, ids []string, limit int, fn func([]string) error) error
}

// Options configures an export.
type Options struct {
	Mode  Mode
	Path  string
	Limit int
}

// Exporter writes the post-run contents of the table to a fully quoted
// delimited file.
type Exporter struct {
	src    RowSource
	opts   Options
	logger *zap.Logger
}

// New creates an exporter reading from src.
func New(src RowSource, opts Options, logger *zap.Logger) *Exporter {
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{src: src, opts: opts, logger: logger.Named("export")}
}

// DefaultPath is the timestamped output name used when none is given.
func DefaultPath(table string, now time.Time) string {
	return fmt.Sprintf("%s_limpio_%s.csv", table, now.Format("20060102_150405"))
}

// Export writes the file. The output appears at its final path only once it
// is complete.
func (e *Exporter) Export(ctx context.Context, changes *pipeline.ChangeSet) (*pipeline.ExportSummary, error) {
	if e.opts.Path == "" {
		return nil, fmt.Errorf("%w: export path is empty", pipeline.ErrValidation)
	}

	columns, err := e.src.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read columns: %w", pipeline.ErrStorage, err)
	}

	var ids []string
	skipRows := false
	if e.opts.Mode == ModeChanged {
		ids = changes.IDs()
		if len(ids) == 0 {
			e.logger.Warn("change set is empty, writing header only", zap.String("path", e.opts.Path))
			skipRows = true
		}
	}

	summary := &pipeline.ExportSummary{Path: e.opts.Path, Mode: string(e.opts.Mode), Columns: len(columns)}

	err = writeAtomic(e.opts.Path, func(w *Writer) error {
		if err := w.Write(columns); err != nil {
			return err
		}
		if skipRows {
			return nil
		}
		return e.src.EachRow(ctx, ids, e.opts.Limit, func(record []string) error {
			summary.Rows++
			return w.Write(record)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: export to %s: %w", pipeline.ErrStorage, e.opts.Path, err)
	}

	e.logger.Info("export written",
		zap.String("path", summary.Path),
		zap.String("mode", summary.Mode),
		zap.Int("rows", summary.Rows),
	)
	return summary, nil
}

// WriteFile writes header and records to path atomically with every field
// quoted.
func WriteFile(path string, header []string, records [][]string) error {
	return writeAtomic(path, func(w *Writer) error {
		if err := w.Write(header); err != nil {
			return err
		}
		for _, r := range records {
			if err := w.Write(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeAtomic fills a temporary file next to path and renames it into place.
func writeAtomic(path string, fill func(*Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := NewWriter(tmp)
	if err = fill(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
