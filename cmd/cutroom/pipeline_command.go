package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cutroom/internal/pipeline"
)

func newPipelineCommand(ctx *commandContext) *cobra.Command {
	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the agent production pipeline",
	}
	pipelineCmd.AddCommand(newPipelineRunCommand(ctx))
	return pipelineCmd
}

func newPipelineRunCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON         bool
		researchFile   string
		archiveFile    string
		interviewsFile string
		styleFile      string
	)
	cmd := &cobra.Command{
		Use:   "run <episode-id>",
		Short: "Generate a script draft for an episode",
		Long: "Run the full production pass: research, archive, and interview specialists work " +
			"concurrently, the script writer synthesizes their output into a v1 draft, and the " +
			"fact checker reviews it. Failed agent calls are not retried.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			episode, err := ctx.episodes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if episode.Topic == "" {
				return fmt.Errorf("episode %s has no topic; set one with `cutroom episode update %s --topic ...`", episode.ID, episode.ID)
			}
			generator, err := ctx.generator()
			if err != nil {
				return err
			}

			inputs := pipeline.Inputs{
				EpisodeID:   episode.ID,
				Title:       episode.Title,
				Topic:       episode.Topic,
				Description: episode.Description,
			}
			if inputs.ResearchDocuments, err = readMaterial(researchFile); err != nil {
				return err
			}
			if inputs.ArchiveIndex, err = readMaterial(archiveFile); err != nil {
				return err
			}
			if inputs.InterviewTranscripts, err = readMaterial(interviewsFile); err != nil {
				return err
			}
			if inputs.StyleGuide, err = readMaterial(styleFile); err != nil {
				return err
			}

			var result *pipeline.Result
			err = ctx.withExclusiveLock(func() error {
				orch := pipeline.New(generator, ctx.tracker, ctx.scripts, ctx.pipelineOptions(), ctx.logger)
				var runErr error
				result, runErr = orch.Run(cmd.Context(), inputs)
				return runErr
			})
			if err != nil {
				if result != nil && !asJSON {
					printRunSteps(cmd, result)
				}
				return err
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			printRunSteps(cmd, result)
			out := cmd.OutOrStdout()
			if result.ScriptVersion != nil {
				fmt.Fprintf(out, "Draft saved as version %d (%s), %d words.\n",
					result.ScriptVersion.VersionNumber, result.ScriptVersion.VersionType, result.ScriptVersion.WordCount)
			}
			if result.Degraded {
				fmt.Fprintln(out, "Warning: one or more agent steps failed; review the draft carefully.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the full run result as JSON")
	cmd.Flags().StringVar(&researchFile, "research", "", "File with existing research to feed the research specialist")
	cmd.Flags().StringVar(&archiveFile, "archive", "", "File with a clip index to feed the archive specialist")
	cmd.Flags().StringVar(&interviewsFile, "interviews", "", "File with interview transcripts to feed the interview producer")
	cmd.Flags().StringVar(&styleFile, "style-guide", "", "File with the series style guide, applied at synthesis")
	return cmd
}

func readMaterial(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read material file: %w", err)
	}
	return string(data), nil
}

func printRunSteps(cmd *cobra.Command, result *pipeline.Result) {
	rows := make([][]string, 0, len(result.Steps))
	for _, step := range result.Steps {
		detail := ""
		if step.Error != "" {
			detail = step.Error
		}
		rows = append(rows, []string{
			string(step.Agent),
			step.TaskType,
			string(step.Status),
			detail,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Agent", "Task", "Status", "Detail"}, rows))
}
