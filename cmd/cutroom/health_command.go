package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the generation service connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, err := ctx.generator()
			if err != nil {
				return err
			}
			if err := generator.HealthCheck(cmd.Context()); err != nil {
				return fmt.Errorf("generation service unhealthy: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Generation service reachable")
			return nil
		},
	}
}
