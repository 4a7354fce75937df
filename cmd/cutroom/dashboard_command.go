package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutroom/internal/phases"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the production overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			snapshot, err := ctx.dashboard.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, snapshot)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d episodes: %d finished, %d in production\n\n",
				snapshot.TotalEpisodes, snapshot.Finished, snapshot.InProduction)

			statuses := phases.ActiveStatuses()
			headers := make([]string, 0, len(statuses)+1)
			headers = append(headers, "Phase")
			for _, status := range statuses {
				headers = append(headers, string(status))
			}
			rightAligned := make([]int, 0, len(statuses))
			for i := range statuses {
				rightAligned = append(rightAligned, i+1)
			}

			rows := make([][]string, 0, ctx.registry.Count())
			for _, phase := range ctx.registry.Phases() {
				row := make([]string, 0, len(headers))
				row = append(row, phase.Name)
				for _, status := range statuses {
					row = append(row, fmt.Sprintf("%d", snapshot.Occupancy[phase.ID][status]))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(headers, rows, rightAligned...))

			if len(snapshot.Bottlenecks) > 0 {
				fmt.Fprintln(out, "\nWaiting on review:")
				for _, bottleneck := range snapshot.Bottlenecks {
					fmt.Fprintf(out, "  %s: %d episode(s)\n", bottleneck.PhaseName, bottleneck.ReviewCount)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
