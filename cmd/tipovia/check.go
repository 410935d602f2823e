package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// createCheckCmd creates a command planning a single pair
func createCheckCmd() *cobra.Command {
	var typeVia, streetName string

	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Show how one (tipo_via, calle) pair would be normalized",
		Example: `  tipovia check --type "Calle" --name "Av. Reforma"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("type") && !cmd.Flags().Changed("name") {
				return fmt.Errorf("%w: --type or --name is required", pipeline.ErrValidation)
			}

			plan := normalize.NewPlanner(normalize.DefaultRules()).PlanPair(typeVia, streetName)
			printPlans(cmd.OutOrStdout(), []normalize.MutationPlan{plan})
			if !plan.Changed {
				fmt.Fprintln(cmd.OutOrStdout(), "already normalized")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typeVia, "type", "", "street type value")
	cmd.Flags().StringVar(&streetName, "name", "", "street name value")
	return cmd
}
