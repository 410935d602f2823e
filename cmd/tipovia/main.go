package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domicilios-tipovia/internal/config"
	"github.com/domicilios-tipovia/internal/logging"
	"github.com/domicilios-tipovia/internal/pipeline"
)

var (
	// Runtime configuration, loaded from the environment and overridden by flags
	cfg *config.Config

	// Process-wide logger, built once flags are parsed
	logger = zap.NewNop()
)

func main() {
	// Load environment configuration
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.YellowString("warning:"), err)
	}
	cfg = config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := createRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(exitCode(err))
	}
}

// createRootCmd creates the root command with every subcommand attached
func createRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tipovia",
		Short: "Street type normalization for address data",
		Long: `Moves the street type (Av., Blvd, Priv., ...) out of the street name into
its own column and rewrites both to a canonical form, in a PostgreSQL table
or a delimited file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateLog(); err != nil {
				return err
			}
			l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format: console or json")

	// Add subcommands
	rootCmd.AddCommand(createDBCmd())
	rootCmd.AddCommand(createFileCmd())
	rootCmd.AddCommand(createRulesCmd())
	rootCmd.AddCommand(createCheckCmd())
	rootCmd.AddCommand(createPingCmd())

	return rootCmd
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		return 2
	case errors.Is(err, pipeline.ErrDecode):
		return 3
	case errors.Is(err, pipeline.ErrStorage):
		return 4
	default:
		return 1
	}
}
