package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RowReader streams whole rows of the target table, every value rendered as
// text, for export.
type RowReader struct {
	q      sqlx.QueryerContext
	table  *Table
	window int
}

// NewRowReader creates a reader over table. q is the pool in real runs and
// the read-only snapshot transaction in dry runs.
func NewRowReader(q sqlx.QueryerContext, table *Table, window int) *RowReader {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RowReader{q: q, table: table, window: window}
}

// Columns returns the table's columns in ordinal order.
func (r *RowReader) Columns(ctx context.Context) ([]string, error) {
	return r.table.ColumnNames(), nil
}

// EachRow calls fn for each row in primary-key order. A nil ids visits every
// row matching the filter; otherwise only rows whose key is in ids, which must
// already be in key order. limit > 0 caps the number of rows. NULL values are
// passed as empty strings.
func (r *RowReader) EachRow(ctx context.Context, ids []string, limit int, fn func([]string) error) error {
	if ids == nil {
		return r.eachPage(ctx, limit, fn)
	}
	return r.eachID(ctx, ids, limit, fn)
}

func (r *RowReader) eachPage(ctx context.Context, limit int, fn func([]string) error) error {
	var (
		emitted int
		lastKey string
		after   bool
	)
	for {
		n := r.window
		if limit > 0 && limit-emitted < n {
			n = limit - emitted
		}
		if n <= 0 {
			return nil
		}

		var args []interface{}
		if after {
			args = append(args, lastKey)
		}

		got, key, err := r.page(ctx, r.table.exportPageSQL(after, n), args, n, fn)
		if err != nil {
			return err
		}
		emitted += got
		if got < n {
			return nil
		}
		lastKey, after = key, true
	}
}

func (r *RowReader) eachID(ctx context.Context, ids []string, limit int, fn func([]string) error) error {
	var emitted int
	for start := 0; start < len(ids); start += r.window {
		end := start + r.window
		if end > len(ids) {
			end = len(ids)
		}

		want := end - start
		if limit > 0 && limit-emitted < want {
			want = limit - emitted
		}
		if want <= 0 {
			return nil
		}

		arr, err := idArray(ids[start:end])
		if err != nil {
			return fmt.Errorf("failed to encode ids: %w", err)
		}

		got, _, err := r.page(ctx, r.table.exportIDsSQL(), []interface{}{arr}, want, fn)
		if err != nil {
			return err
		}
		emitted += got
	}
	return nil
}

// page runs query and feeds at most want rows to fn. It returns the number of
// rows fed and the key of the last one.
func (r *RowReader) page(ctx context.Context, query string, args []interface{}, want int, fn func([]string) error) (int, string, error) {
	rows, err := r.q.QueryxContext(ctx, query, args...)
	if err != nil {
		return 0, "", fmt.Errorf("failed to query %s: %w", r.table.Qualified(), err)
	}
	defer rows.Close()

	width := len(r.table.Columns) + 1
	vals := make([]sql.NullString, width)
	ptrs := make([]interface{}, width)
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var (
		count   int
		lastKey string
	)
	for count < want && rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, lastKey, fmt.Errorf("failed to scan row: %w", err)
		}
		record := make([]string, width-1)
		for i := 1; i < width; i++ {
			record[i-1] = vals[i].String
		}
		lastKey = vals[0].String
		if err := fn(record); err != nil {
			return count, lastKey, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, lastKey, fmt.Errorf("failed to read rows: %w", err)
	}
	return count, lastKey, nil
}

// CountRows returns the number of rows matching the table's filter.
func CountRows(ctx context.Context, q sqlx.QueryerContext, table *Table) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, table.countSQL()); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table.Qualified(), err)
	}
	return n, nil
}
