package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutroom/internal/phases"
)

func newWorkflowCommand(ctx *commandContext) *cobra.Command {
	workflowCmd := &cobra.Command{
		Use:   "workflow",
		Short: "Drive the per-episode phase workflow",
	}
	workflowCmd.AddCommand(newWorkflowStatusCommand(ctx))
	workflowCmd.AddCommand(newWorkflowApproveCommand(ctx))
	workflowCmd.AddCommand(newWorkflowRejectCommand(ctx))
	workflowCmd.AddCommand(newWorkflowSetCommand(ctx))
	return workflowCmd
}

func newWorkflowStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <episode-id>",
		Short: "Show an episode's workflow progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			summary, err := ctx.machine.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderWorkflowSummary(summary))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newWorkflowApproveCommand(ctx *commandContext) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "approve <episode-id>",
		Short: "Approve the current phase and advance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			w, err := ctx.machine.ApproveCurrent(cmd.Context(), args[0], note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved. Current phase is now %s.\n", w.CurrentPhase)
			return nil
		},
	}
	cmd.Flags().StringVarP(&note, "note", "m", "", "Review note to attach")
	return cmd
}

func newWorkflowRejectCommand(ctx *commandContext) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "reject <episode-id>",
		Short: "Reject the current phase (a note is required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			w, err := ctx.machine.RequestRevision(cmd.Context(), args[0], note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s. Resume work with `cutroom workflow set %s %s in_progress`.\n",
				w.CurrentPhase, args[0], w.CurrentPhase)
			return nil
		},
	}
	cmd.Flags().StringVarP(&note, "note", "m", "", "Why the phase was rejected (required)")
	_ = cmd.MarkFlagRequired("note")
	return cmd
}

func newWorkflowSetCommand(ctx *commandContext) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "set <episode-id> <phase> <status>",
		Short: "Set one phase's status directly",
		Long: "Set one phase's status directly. Valid phases: research, archive, script, voiceover, assembly. " +
			"Valid statuses: pending, in_progress, review, approved, rejected.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			status, ok := phases.ParseStatus(args[2])
			if !ok {
				return fmt.Errorf("unknown status %q", args[2])
			}
			w, err := ctx.machine.SetPhaseStatus(cmd.Context(), args[0], phases.ID(args[1]), status, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s. Current phase is %s.\n", args[1], status, w.CurrentPhase)
			return nil
		},
	}
	cmd.Flags().StringVarP(&note, "note", "m", "", "Note to attach")
	return cmd
}
