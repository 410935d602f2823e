package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/audit"
	"github.com/domicilios-tipovia/internal/db"
	"github.com/domicilios-tipovia/internal/export"
	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

type dbOptions struct {
	dryRun   bool
	noExport bool
	output   string
	report   string
}

// createDBCmd creates the database pipeline command
func createDBCmd() *cobra.Command {
	var opts dbOptions

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Normalize street types in a PostgreSQL table",
		Long: `Scans the target table in primary-key order, plans the canonical
(tipo_via, calle) pair of every row and commits the changed rows in batches.
Optionally backs the table up first and exports the result afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	addConnectionFlags(f)
	f.BoolVar(&opts.dryRun, "dry-run", false, "plan and preview without writing; reads run in a read-only snapshot")
	f.BoolVar(&cfg.Run.Backup, "backup", cfg.Run.Backup, "copy the table to <table>_backup_<timestamp> before updating")
	f.IntVar(&cfg.Run.PreviewLimit, "preview", cfg.Run.PreviewLimit, "number of changed rows to show")
	f.IntVar(&cfg.Run.BatchSize, "batch-commit", cfg.Run.BatchSize, "rows per committed transaction")
	f.IntVar(&cfg.Run.Window, "window", cfg.Run.Window, "rows fetched per scan query")
	f.StringVar(&cfg.Run.ExportMode, "export", cfg.Run.ExportMode, "rows exported after the run: all or changed")
	f.BoolVar(&opts.noExport, "no-export", false, "skip the CSV export after the run")
	f.StringVar(&opts.output, "output", "", "export path (default <table>_limpio_<timestamp>.csv)")
	f.IntVar(&cfg.Run.ExportLimit, "limit", cfg.Run.ExportLimit, "maximum rows to export (0 = no limit)")
	f.StringVar(&opts.report, "report", "", "write a JSON run report to this path")

	return cmd
}

// addConnectionFlags binds the connection and target flags to cfg
func addConnectionFlags(f *pflag.FlagSet) {
	f.StringVar(&cfg.Database.Host, "host", cfg.Database.Host, "database host")
	f.IntVar(&cfg.Database.Port, "port", cfg.Database.Port, "database port")
	f.StringVar(&cfg.Database.User, "user", cfg.Database.User, "database user")
	f.StringVar(&cfg.Database.Password, "password", cfg.Database.Password, "database password (prefer PGPASSWORD)")
	f.StringVar(&cfg.Database.Name, "dbname", cfg.Database.Name, "database name")
	f.StringVar(&cfg.Database.SSLMode, "sslmode", cfg.Database.SSLMode, "disable, require, verify-ca or verify-full")
	f.StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "database/sql driver: postgres (lib/pq) or pgx")

	f.StringVar(&cfg.Target.Schema, "schema", cfg.Target.Schema, "schema of the target table")
	f.StringVar(&cfg.Target.Table, "table", cfg.Target.Table, "target table")
	f.StringVar(&cfg.Target.PrimaryKey, "pk", cfg.Target.PrimaryKey, "primary key column")
	f.StringVar(&cfg.Target.TypeColumn, "type-column", cfg.Target.TypeColumn, "street type column")
	f.StringVar(&cfg.Target.NameColumn, "name-column", cfg.Target.NameColumn, "street name column")
	f.StringVar(&cfg.Target.Filter, "where", cfg.Target.Filter, "SQL predicate restricting the rows worked on")
}

// connect validates the connection settings and opens the pool
func connect(ctx context.Context) (*db.Connection, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	conn, err := db.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrStorage, err)
	}
	return conn, nil
}

func runDB(ctx context.Context, out io.Writer, opts dbOptions) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	exportOpts, exporting, err := exportOptions(cfg.Target.Table, opts, time.Now())
	if err != nil {
		return err
	}

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	table, err := db.ResolveTable(ctx, conn.DB, cfg.Target)
	if err != nil {
		return err
	}

	// Reads go through the pool, or through one read-only snapshot in dry-run
	var reader sqlx.QueryerContext = conn.DB
	var sink pipeline.Sink
	if opts.dryRun {
		tx, err := conn.ReadOnlySnapshot(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", pipeline.ErrStorage, err)
		}
		defer func() {
			if err := tx.Rollback(); err != nil {
				logger.Warn("snapshot rollback failed", zap.Error(err))
			}
		}()
		reader = tx
	} else {
		sink = db.NewUpdater(conn.DB, table)
	}

	planner := normalize.NewPlanner(normalize.DefaultRules())
	runner := pipeline.NewRunner(planner, db.NewScanner(reader, table, cfg.Run.Window, logger), sink, pipeline.Options{
		DryRun:       opts.dryRun,
		Backup:       cfg.Run.Backup,
		PreviewLimit: cfg.Run.PreviewLimit,
		BatchSize:    cfg.Run.BatchSize,
	}, logger)

	if cfg.Run.Backup {
		runner.WithBackup(db.NewBackup(conn.DB, table, logger))
	}
	if exporting {
		rows := db.NewRowReader(reader, table, cfg.Run.Window)
		runner.WithExporter(export.New(rows, exportOpts, logger))
	}

	res, runErr := runner.Run(ctx)

	if opts.report != "" {
		if err := audit.FromResult(table.Qualified(), res, runErr).WriteFile(opts.report); err != nil {
			logger.Warn("run report not written", zap.Error(err))
		}
	}

	if runErr != nil {
		printRunFailure(out, res)
		return runErr
	}

	printPlans(out, res.Preview)
	printRunSummary(out, res)
	return nil
}

// exportOptions resolves the post-run export; every run exports unless --no-export is given
func exportOptions(table string, opts dbOptions, now time.Time) (export.Options, bool, error) {
	if opts.noExport {
		return export.Options{}, false, nil
	}

	mode, err := export.ParseMode(cfg.Run.ExportMode)
	if err != nil {
		return export.Options{}, false, err
	}

	path := opts.output
	if path == "" {
		path = export.DefaultPath(table, now)
	}
	return export.Options{Mode: mode, Path: path, Limit: cfg.Run.ExportLimit}, true, nil
}
