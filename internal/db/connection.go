package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/config"
)

// Connection holds the database connection
type Connection struct {
	DB     *sqlx.DB
	logger *zap.Logger
}

// NewConnection opens and pings a connection pool using cfg.Driver
// ("postgres" for lib/pq, "pgx" for pgx's database/sql driver).
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Connection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("db")

	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	logger.Debug("connecting", zap.String("driver", driver), zap.String("dsn", cfg.Redacted()))

	db, err := sqlx.ConnectContext(ctx, driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Connection{DB: db, logger: logger}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}

// ReadOnlySnapshot opens the repeatable-read, read-only transaction a dry run
// reads through. The caller must roll it back.
func (c *Connection) ReadOnlySnapshot(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := c.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open read-only snapshot: %w", err)
	}
	c.logger.Debug("read-only snapshot opened")
	return tx, nil
}

// ServerVersion returns the server's version string.
func (c *Connection) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.DB.GetContext(ctx, &version, "SHOW server_version"); err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return version, nil
}
