package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// DefaultWindow is the number of rows fetched per round trip.
const DefaultWindow = 5000

// Scanner reads (id, type, name) triples in primary-key order, one window at
// a time. Each window is a separate keyset query, so commits made between
// windows do not disturb it.
type Scanner struct {
	q      sqlx.QueryerContext
	table  *Table
	window int
	logger *zap.Logger
}

// NewScanner creates a scanner over table. q is the pool in real runs and
// the read-only snapshot transaction in dry runs.
func NewScanner(q sqlx.QueryerContext, table *Table, window int, logger *zap.Logger) *Scanner {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{q: q, table: table, window: window, logger: logger.Named("scanner")}
}

// Scan starts a new pass from the first key.
func (s *Scanner) Scan() pipeline.RecordIterator {
	return &scanIterator{scanner: s, pos: -1}
}

type addressRow struct {
	ID         string         `db:"id"`
	TypeVia    sql.NullString `db:"tipo_via"`
	StreetName sql.NullString `db:"calle"`
}

type scanIterator struct {
	scanner *Scanner
	buf     []normalize.AddressRecord
	pos     int
	lastID  string
	started bool
	done    bool
	windows int
	err     error
}

func (it *scanIterator) Next(ctx context.Context) bool {
	if it.pos+1 < len(it.buf) {
		it.pos++
		return true
	}
	if it.done || it.err != nil {
		return false
	}

	if err := it.fetch(ctx); err != nil {
		it.err = err
		return false
	}
	if len(it.buf) == 0 {
		it.done = true
		return false
	}
	it.pos = 0
	return true
}

func (it *scanIterator) Record() normalize.AddressRecord {
	return it.buf[it.pos]
}

func (it *scanIterator) Err() error {
	return it.err
}

func (it *scanIterator) fetch(ctx context.Context) error {
	s := it.scanner
	query := s.table.scanSQL(it.started, s.window)

	var args []interface{}
	if it.started {
		args = append(args, it.lastID)
	}

	rows, err := s.q.QueryxContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("window %d: %w", it.windows+1, err)
	}
	defer rows.Close()

	buf := it.buf[:0]
	for rows.Next() {
		var row addressRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("window %d: %w", it.windows+1, err)
		}
		buf = append(buf, normalize.AddressRecord{
			ID:             row.ID,
			TypeVia:        row.TypeVia.String,
			StreetName:     row.StreetName.String,
			TypeViaNull:    !row.TypeVia.Valid,
			StreetNameNull: !row.StreetName.Valid,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("window %d: %w", it.windows+1, err)
	}

	it.buf = buf
	it.started = true
	it.windows++
	if len(buf) < s.window {
		it.done = true
	}
	if len(buf) > 0 {
		it.lastID = buf[len(buf)-1].ID
	}

	s.logger.Debug("window fetched", zap.Int("window", it.windows), zap.Int("rows", len(buf)), zap.String("last_id", it.lastID))
	return nil
}
