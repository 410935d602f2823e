package flatfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/debug"
	"github.com/domicilios-tipovia/internal/export"
	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// Options configures one file run.
type Options struct {
	Input            string
	Output           string
	Comma            rune
	Encoding         string
	FallbackEncoding string
	Preview          int
}

// Result summarizes a file run.
type Result struct {
	Input    string
	Output   string
	Encoding string
	Rows     int
	Changed  int
	Preview  []normalize.MutationPlan
}

// DefaultOutput is <dir>/<stem>_limpio_<timestamp>.csv next to input.
func DefaultOutput(input string, now time.Time) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), fmt.Sprintf("%s_limpio_%s.csv", stem, now.Format("20060102_150405")))
}

// Process reads the whole input, normalizes both street columns of every
// row and writes a fully quoted UTF-8 copy. Other columns pass through.
func Process(planner *normalize.Planner, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("flatfile")

	if opts.Input == "" {
		return nil, fmt.Errorf("%w: input path is required", pipeline.ErrValidation)
	}
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if opts.Output == "" {
		opts.Output = DefaultOutput(opts.Input, time.Now())
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", pipeline.ErrValidation, opts.Input, err)
	}

	text, used, err := Decode(data, opts.Encoding, opts.FallbackEncoding)
	if err != nil {
		return nil, err
	}
	if used != opts.Encoding && opts.Encoding != "" {
		logger.Warn("primary encoding failed, used fallback",
			zap.String("primary", opts.Encoding), zap.String("fallback", used))
	}

	header, records, err := readRecords(text, opts.Comma)
	if err != nil {
		return nil, err
	}

	cols, err := MapColumns(header)
	if err != nil {
		return nil, err
	}
	debug.Output(logger, "columns: %s=%d %s=%d of %d", header[cols.TypeVia], cols.TypeVia, header[cols.StreetName], cols.StreetName, len(header))

	res := &Result{Input: opts.Input, Output: opts.Output, Encoding: used, Rows: len(records)}
	for i, rec := range records {
		plan := planner.Plan(normalize.AddressRecord{
			ID:         strconv.Itoa(i + 1),
			TypeVia:    rec[cols.TypeVia],
			StreetName: rec[cols.StreetName],
		})
		rec[cols.TypeVia] = plan.NewType
		rec[cols.StreetName] = plan.NewName

		if plan.Changed {
			res.Changed++
		}
		if i < opts.Preview {
			res.Preview = append(res.Preview, plan)
		}
	}

	if err := export.WriteFile(opts.Output, header, records); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", pipeline.ErrStorage, opts.Output, err)
	}

	logger.Info("file processed",
		zap.String("input", opts.Input),
		zap.String("output", opts.Output),
		zap.String("encoding", used),
		zap.Int("rows", res.Rows),
		zap.Int("changed", res.Changed),
	)
	return res, nil
}

func readRecords(text string, comma rune) ([]string, [][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: file is empty", pipeline.ErrValidation)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: header: %w", pipeline.ErrValidation, err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", pipeline.ErrValidation, err)
	}
	return header, records, nil
}
