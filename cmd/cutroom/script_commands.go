package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cutroom/internal/scripts"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "Manage script versions",
	}
	scriptCmd.AddCommand(newScriptListCommand(ctx))
	scriptCmd.AddCommand(newScriptShowCommand(ctx))
	scriptCmd.AddCommand(newScriptAddCommand(ctx))
	scriptCmd.AddCommand(newScriptLockCommand(ctx))
	return scriptCmd
}

func newScriptListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list <episode-id>",
		Short: "List an episode's script versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			versions, err := ctx.scripts.ByEpisode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, versions)
			}
			if len(versions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No script versions yet. Run the pipeline or add one with `cutroom script add`.")
				return nil
			}
			rows := make([][]string, 0, len(versions))
			for _, version := range versions {
				locked := ""
				if version.Locked {
					locked = "locked"
				}
				rows = append(rows, []string{
					fmt.Sprintf("v%d", version.VersionNumber),
					version.ID,
					string(version.VersionType),
					version.Author,
					fmt.Sprintf("%d", version.WordCount),
					locked,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Ver", "ID", "Type", "Author", "Words", ""}, rows, 4))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newScriptShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <version-id>",
		Short: "Print one script version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			version, err := ctx.scripts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, version)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version %d (%s), %d words\n", version.VersionNumber, version.VersionType, version.WordCount)
			if version.ChangeNotes != "" {
				fmt.Fprintf(out, "Notes: %s\n", version.ChangeNotes)
			}
			fmt.Fprintf(out, "\n%s\n", version.Content)
			if version.FactCheck != "" {
				fmt.Fprintf(out, "\nFact check:\n%s\n", version.FactCheck)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newScriptAddCommand(ctx *commandContext) *cobra.Command {
	var (
		versionType string
		author      string
		notes       string
		fromFile    string
	)
	cmd := &cobra.Command{
		Use:   "add <episode-id> [content]",
		Short: "Add a script version by hand",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			content := ""
			if len(args) == 2 {
				content = args[1]
			}
			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("read script file: %w", err)
				}
				content = string(data)
			}
			if content == "" {
				return fmt.Errorf("provide the script content as an argument or with --file")
			}
			vt, err := scripts.ParseVersionType(versionType)
			if err != nil {
				return fmt.Errorf("version type %q: %w", versionType, err)
			}
			version, err := ctx.scripts.Create(cmd.Context(), args[0], scripts.Draft{
				VersionType: vt,
				Content:     content,
				Author:      author,
				ChangeNotes: notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created version %d (%s), %d words\n",
				version.VersionNumber, version.VersionType, version.WordCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&versionType, "type", string(scripts.VersionRevised), "Version type (v1_initial, v2_revised, v3_polished, v4_final)")
	cmd.Flags().StringVar(&author, "author", "", "Author name")
	cmd.Flags().StringVarP(&notes, "notes", "m", "", "Change notes")
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read script content from a file")
	return cmd
}

func newScriptLockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <version-id>",
		Short: "Lock a version against further edits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			version, err := ctx.scripts.Lock(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Locked version %d\n", version.VersionNumber)
			return nil
		},
	}
}
