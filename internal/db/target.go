package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/domicilios-tipovia/internal/config"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// Column is one attribute of the target table.
type Column struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

// Table is a resolved target: the configured names plus the live column list
// and the SQL type of the primary key.
type Table struct {
	Schema     string
	Name       string
	PrimaryKey string
	TypeColumn string
	NameColumn string
	Filter     string

	Columns []Column
	PKType  string
}

const columnsQuery = `
	SELECT a.attname AS name, format_type(a.atttypid, a.atttypmod) AS type
	FROM pg_attribute a
	WHERE a.attrelid = to_regclass($1)
	  AND a.attnum > 0
	  AND NOT a.attisdropped
	ORDER BY a.attnum`

// ResolveTable reads the column list of the configured table and checks that
// the primary key and both street columns exist. Problems are returned as
// pipeline.ErrValidation.
func ResolveTable(ctx context.Context, q sqlx.QueryerContext, cfg config.TargetConfig) (*Table, error) {
	t := &Table{
		Schema:     cfg.Schema,
		Name:       cfg.Table,
		PrimaryKey: cfg.PrimaryKey,
		TypeColumn: cfg.TypeColumn,
		NameColumn: cfg.NameColumn,
		Filter:     strings.TrimSpace(cfg.Filter),
	}

	if err := sqlx.SelectContext(ctx, q, &t.Columns, columnsQuery, t.Qualified()); err != nil {
		return nil, fmt.Errorf("%w: failed to read columns of %s: %w", pipeline.ErrStorage, t.Qualified(), err)
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%w: table %s not found", pipeline.ErrValidation, t.Qualified())
	}

	var missing []string
	for _, want := range []string{t.PrimaryKey, t.TypeColumn, t.NameColumn} {
		col, ok := t.column(want)
		if !ok {
			missing = append(missing, want)
			continue
		}
		if want == t.PrimaryKey {
			t.PKType = col.Type
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: table %s lacks column(s) %s; found: %s",
			pipeline.ErrValidation, t.Qualified(), strings.Join(missing, ", "), strings.Join(t.ColumnNames(), ", "))
	}

	return t, nil
}

func (t *Table) column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Qualified returns the quoted schema-qualified table name.
func (t *Table) Qualified() string {
	return qualify(t.Schema, t.Name)
}

func qualify(schema, name string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
}

func (t *Table) pk() string { return pq.QuoteIdentifier(t.PrimaryKey) }

// pkParam casts a text parameter to the primary key type so ids travel as
// text through either driver.
func (t *Table) pkParam(n int) string {
	return fmt.Sprintf("($%d::text)::%s", n, t.PKType)
}

// pkArrayParam is pkParam for an array literal of ids.
func (t *Table) pkArrayParam(n int) string {
	return fmt.Sprintf("($%d::text)::%s[]", n, t.PKType)
}

// where joins the configured filter with extra conditions.
func (t *Table) where(conds ...string) string {
	var parts []string
	if t.Filter != "" {
		parts = append(parts, "("+t.Filter+")")
	}
	for _, c := range conds {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// scanSQL selects one window of (id, type, name) after the last seen key.
func (t *Table) scanSQL(after bool, window int) string {
	var cond string
	if after {
		cond = t.pk() + " > " + t.pkParam(1)
	}
	return fmt.Sprintf("SELECT %s::text AS id, %s::text AS tipo_via, %s::text AS calle FROM %s%s ORDER BY %s LIMIT %d",
		t.pk(), pq.QuoteIdentifier(t.TypeColumn), pq.QuoteIdentifier(t.NameColumn),
		t.Qualified(), t.where(cond), t.pk(), window)
}

// updateSQL rewrites both street columns of one row.
func (t *Table) updateSQL() string {
	return fmt.Sprintf("UPDATE %s SET %s = $1, %s = $2 WHERE %s = %s",
		t.Qualified(), pq.QuoteIdentifier(t.TypeColumn), pq.QuoteIdentifier(t.NameColumn),
		t.pk(), t.pkParam(3))
}

// exportSelect lists the key followed by every column rendered as text.
func (t *Table) exportSelect() string {
	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, t.pk()+"::text")
	for _, c := range t.Columns {
		cols = append(cols, pq.QuoteIdentifier(c.Name)+"::text")
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + t.Qualified()
}

// exportPageSQL selects one keyset page of full rows.
func (t *Table) exportPageSQL(after bool, window int) string {
	var cond string
	if after {
		cond = t.pk() + " > " + t.pkParam(1)
	}
	return fmt.Sprintf("%s%s ORDER BY %s LIMIT %d", t.exportSelect(), t.where(cond), t.pk(), window)
}

// exportIDsSQL selects full rows for a chunk of ids. The filter is not
// applied: ids already come from a filtered scan, and the filter may refer to
// columns the run has just rewritten.
func (t *Table) exportIDsSQL() string {
	return fmt.Sprintf("%s WHERE %s = ANY(%s) ORDER BY %s",
		t.exportSelect(), t.pk(), t.pkArrayParam(1), t.pk())
}

func (t *Table) countSQL() string {
	return "SELECT count(*) FROM " + t.Qualified() + t.where()
}

// idArray renders ids as a PostgreSQL array literal.
func idArray(ids []string) (string, error) {
	v, err := pq.StringArray(ids).Value()
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}
