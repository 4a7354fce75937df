package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/workflow"
)

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	episodeCmd := &cobra.Command{
		Use:   "episode",
		Short: "Manage episodes",
	}
	episodeCmd.AddCommand(newEpisodeCreateCommand(ctx))
	episodeCmd.AddCommand(newEpisodeShowCommand(ctx))
	episodeCmd.AddCommand(newEpisodeUpdateCommand(ctx))
	episodeCmd.AddCommand(newEpisodeDeleteCommand(ctx))
	return episodeCmd
}

func newEpisodeCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		projectID   string
		number      int
		topic       string
		description string
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an episode with a fresh workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			episode, err := ctx.episodes.Create(cmd.Context(), projectID, args[0], number, topic, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created episode %d %q (%s), starting phase: %s\n",
				episode.EpisodeNumber, episode.Title, episode.ID, episode.Workflow.CurrentPhase)
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project the episode belongs to (required)")
	cmd.Flags().IntVarP(&number, "number", "n", 1, "Episode number within the project")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Episode topic")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Episode description")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newEpisodeShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <episode-id>",
		Short: "Show an episode and its workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			episode, err := ctx.episodes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			summary, err := ctx.machine.Status(cmd.Context(), episode.ID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"episode": episode, "workflow": summary})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Episode %d: %s (%s)\n", episode.EpisodeNumber, episode.Title, episode.ID)
			if episode.Topic != "" {
				fmt.Fprintf(out, "Topic: %s\n", episode.Topic)
			}
			fmt.Fprintln(out, renderWorkflowSummary(summary))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderWorkflowSummary(summary workflow.Summary) string {
	rows := make([][]string, 0, len(summary.Phases))
	for _, phase := range summary.Phases {
		marker := ""
		if phase.Current {
			marker = "*"
		}
		notes := make([]string, 0, len(phase.Notes))
		for _, note := range phase.Notes {
			notes = append(notes, note.Text)
		}
		rows = append(rows, []string{
			marker,
			fmt.Sprintf("%d", phase.Order),
			phase.Name,
			string(phase.Status),
			strings.Join(notes, "; "),
		})
	}
	rendered := renderTable([]string{"", "#", "Phase", "Status", "Notes"}, rows, 1)
	return fmt.Sprintf("%s\nProgress: %d%% (%d/%d phases approved)",
		rendered, summary.ProgressPercent, summary.CompletedCount, summary.TotalCount)
}

func newEpisodeUpdateCommand(ctx *commandContext) *cobra.Command {
	var title, topic, description string
	cmd := &cobra.Command{
		Use:   "update <episode-id>",
		Short: "Update an episode's title, topic, or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			episode, err := ctx.episodes.Update(cmd.Context(), args[0], title, topic, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated episode %s\n", episode.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "New topic")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newEpisodeDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <episode-id>",
		Short: "Delete an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			if err := ctx.episodes.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted episode %s\n", args[0])
			return nil
		},
	}
}
