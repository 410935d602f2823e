package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/pipeline"
)

// backupTimeLayout is appended to the source table name.
const backupTimeLayout = "20060102_150405"

// maxIdentifierLen is PostgreSQL's NAMEDATALEN-1.
const maxIdentifierLen = 63

// Backup copies the source table to a timestamped sibling table.
type Backup struct {
	db     *sqlx.DB
	table  *Table
	now    func() time.Time
	logger *zap.Logger
}

// NewBackup creates a backup step for table.
func NewBackup(db *sqlx.DB, table *Table, logger *zap.Logger) *Backup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backup{db: db, table: table, now: time.Now, logger: logger.Named("backup")}
}

// BackupName returns the name of the copy taken at ts.
func BackupName(table string, ts time.Time) string {
	suffix := "_backup_" + ts.Format(backupTimeLayout)
	if len(table)+len(suffix) > maxIdentifierLen {
		table = table[:maxIdentifierLen-len(suffix)]
	}
	return table + suffix
}

// CreateBackup copies the whole table and counts the copy in one
// transaction, committed before it returns.
func (b *Backup) CreateBackup(ctx context.Context) (*pipeline.BackupSnapshot, error) {
	created := b.now()
	name := BackupName(b.table.Name, created)
	dest := qualify(b.table.Schema, name)

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin backup transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s AS TABLE %s", dest, b.table.Qualified())); err != nil {
		return nil, fmt.Errorf("failed to copy %s to %s: %w", b.table.Qualified(), dest, err)
	}

	var count int64
	if err := tx.GetContext(ctx, &count, "SELECT count(*) FROM "+dest); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", dest, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit backup: %w", err)
	}

	b.logger.Info("backup table created", zap.String("table", name), zap.Int64("rows", count))

	return &pipeline.BackupSnapshot{
		SourceTable: b.table.Schema + "." + b.table.Name,
		Name:        b.table.Schema + "." + name,
		RowCount:    count,
		CreatedAt:   created,
	}, nil
}
