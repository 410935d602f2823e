package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// Updater is the PostgreSQL sink: every batch is one transaction with a
// prepared two-column UPDATE.
type Updater struct {
	db    *sqlx.DB
	table *Table
}

// NewUpdater creates an updater for table.
func NewUpdater(db *sqlx.DB, table *Table) *Updater {
	return &Updater{db: db, table: table}
}

// Begin opens a transaction and prepares the update statement in it.
func (u *Updater) Begin(ctx context.Context) (pipeline.Batch, error) {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, u.table.updateSQL())
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to prepare update: %w", err)
	}

	return &updateBatch{tx: tx, stmt: stmt}, nil
}

type updateBatch struct {
	tx   *sqlx.Tx
	stmt *sqlx.Stmt
}

func (b *updateBatch) Apply(ctx context.Context, plan normalize.MutationPlan) error {
	res, err := b.stmt.ExecContext(ctx,
		storedValue(plan.NewType, plan.OldTypeNull),
		storedValue(plan.NewName, plan.OldNameNull),
		plan.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("expected 1 row for id %s, updated %d", plan.ID, n)
	}
	return nil
}

func (b *updateBatch) Commit() error {
	return errors.Join(b.stmt.Close(), b.tx.Commit())
}

func (b *updateBatch) Rollback() error {
	_ = b.stmt.Close()
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// storedValue keeps an untouched NULL as NULL instead of writing "".
func storedValue(v string, wasNull bool) sql.NullString {
	if v == "" && wasNull {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
