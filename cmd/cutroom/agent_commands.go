package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cutroom/internal/agents"
)

func newAgentCommand(ctx *commandContext) *cobra.Command {
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect the agent roster and task history",
	}
	agentCmd.AddCommand(newAgentRosterCommand())
	agentCmd.AddCommand(newAgentTasksCommand(ctx))
	agentCmd.AddCommand(newAgentShowCommand(ctx))
	return agentCmd
}

func newAgentRosterCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "roster",
		Short:       "List the agent roles",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(agents.Kinds()))
			for _, kind := range agents.Kinds() {
				rows = append(rows, []string{string(kind), kind.DisplayName(), kind.Responsibilities()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Kind", "Role", "Responsibilities"}, rows))
			return nil
		},
	}
}

func newAgentTasksCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tasks <episode-id>",
		Short: "List an episode's agent tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			tasks, err := ctx.tracker.ByEpisode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No agent tasks recorded for this episode.")
				return nil
			}
			rows := make([][]string, 0, len(tasks))
			for _, task := range tasks {
				duration := ""
				if d := task.Duration(); d > 0 {
					duration = d.Round(10 * time.Millisecond).String()
				}
				rows = append(rows, []string{
					task.ID,
					string(task.AgentKind),
					task.TaskType,
					string(task.Status),
					duration,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Agent", "Task", "Status", "Duration"}, rows, 4))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newAgentShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one agent task with its input and output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			task, err := ctx.tracker.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, task)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task %s: %s / %s (%s)\n", task.ID, task.AgentKind, task.TaskType, task.Status)
			if task.Error != "" {
				fmt.Fprintf(out, "Error: %s\n", task.Error)
			}
			if task.Output != "" {
				fmt.Fprintf(out, "\n%s\n", task.Output)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
