package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// createRulesCmd creates the command printing the rule table
func createRulesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the street type rules in precedence order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeRules(cmd.OutOrStdout(), normalize.DefaultRules().Rules(), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, yaml or json")
	return cmd
}

func writeRules(w io.Writer, rules []normalize.TypeRule, format string) error {
	switch strings.ToLower(format) {
	case "table":
		printRules(w, rules)
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rules); err != nil {
			return fmt.Errorf("failed to encode rules: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rules); err != nil {
			return fmt.Errorf("failed to encode rules: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q (want table, yaml or json)", pipeline.ErrValidation, format)
	}
}
