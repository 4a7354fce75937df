package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage documentary projects",
	}
	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))
	projectCmd.AddCommand(newProjectUpdateCommand(ctx))
	projectCmd.AddCommand(newProjectDeleteCommand(ctx))
	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			project, err := ctx.projects.Create(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", project.Title, project.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			list, err := ctx.projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects yet. Create one with `cutroom project create`.")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, project := range list {
				episodeCount := ""
				if eps, err := ctx.episodes.ByProject(cmd.Context(), project.ID); err == nil {
					episodeCount = fmt.Sprintf("%d", len(eps))
				}
				rows = append(rows, []string{project.ID, project.Title, project.Status, episodeCount})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Title", "Status", "Episodes"}, rows, 3))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project and its episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			project, err := ctx.projects.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			list, err := ctx.episodes.ByProject(cmd.Context(), project.ID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"project": project, "episodes": list})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", project.Title, project.Status)
			if project.Description != "" {
				fmt.Fprintln(out, project.Description)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No episodes yet.")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, episode := range list {
				phase := ""
				if episode.Workflow != nil {
					phase = string(episode.Workflow.CurrentPhase)
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", episode.EpisodeNumber),
					episode.ID,
					episode.Title,
					phase,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "ID", "Title", "Phase"}, rows, 0))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newProjectUpdateCommand(ctx *commandContext) *cobra.Command {
	var title, description, status string
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update a project's title, description, or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			project, err := ctx.projects.Update(cmd.Context(), args[0], title, description, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", project.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status (active or archived)")
	return cmd
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			if err := ctx.projects.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}
}
