package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/domicilios-tipovia/internal/db"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity and count the target rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			conn, err := connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			version, err := conn.ServerVersion(ctx)
			if err != nil {
				return fmt.Errorf("%w: %w", pipeline.ErrStorage, err)
			}
			fmt.Fprintf(out, "Database connection successful! (PostgreSQL %s)\n", version)

			table, err := db.ResolveTable(ctx, conn.DB, cfg.Target)
			if err != nil {
				return err
			}
			count, err := db.CountRows(ctx, conn.DB, table)
			if err != nil {
				return fmt.Errorf("%w: %w", pipeline.ErrStorage, err)
			}

			fmt.Fprintf(out, "Target %s: %d rows", table.Qualified(), count)
			if table.Filter != "" {
				fmt.Fprintf(out, " matching %q", table.Filter)
			}
			fmt.Fprintf(out, " (primary key %s %s)\n", table.PrimaryKey, table.PKType)
			return nil
		},
	}

	addConnectionFlags(cmd.Flags())
	return cmd
}
