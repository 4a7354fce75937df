package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/assist"
)

func newAssistCommand(ctx *commandContext) *cobra.Command {
	assistCmd := &cobra.Command{
		Use:   "assist",
		Short: "One-off AI helpers for producers",
	}
	assistCmd.AddCommand(newAssistResearchCommand(ctx))
	assistCmd.AddCommand(newAssistInterviewCommand(ctx))
	assistCmd.AddCommand(newAssistOutlineCommand(ctx))
	assistCmd.AddCommand(newAssistShotsCommand(ctx))
	assistCmd.AddCommand(newAssistExpandCommand(ctx))
	return assistCmd
}

func (c *commandContext) assistService() (*assist.Service, error) {
	if err := c.ensureServices(); err != nil {
		return nil, err
	}
	generator, err := c.generator()
	if err != nil {
		return nil, err
	}
	return assist.NewService(generator, c.logger), nil
}

func newAssistResearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "research <topic...>",
		Short: "Produce a quick research brief",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.assistService()
			if err != nil {
				return err
			}
			out, err := svc.Research(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newAssistInterviewCommand(ctx *commandContext) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "interview <topic...>",
		Short: "Draft interview questions for a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.assistService()
			if err != nil {
				return err
			}
			out, err := svc.InterviewQuestions(cmd.Context(), subject, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Interview subject (required)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newAssistOutlineCommand(ctx *commandContext) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "outline <topic...>",
		Short: "Sketch a three-act episode outline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.assistService()
			if err != nil {
				return err
			}
			out, err := svc.EpisodeOutline(cmd.Context(), title, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Working title for the episode")
	return cmd
}

func newAssistShotsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shots <scene...>",
		Short: "Suggest visual treatments for a scene",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.assistService()
			if err != nil {
				return err
			}
			out, err := svc.ShotIdeas(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newAssistExpandCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "expand <premise...>",
		Short: "Expand a premise into a full episode description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.assistService()
			if err != nil {
				return err
			}
			out, err := svc.ExpandTopic(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
