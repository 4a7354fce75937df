package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a sample project with episodes",
		Long:  "Create a sample space-race documentary project with three episodes, for exploring the workflow without setting anything up.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureServices(); err != nil {
				return err
			}
			return ctx.withExclusiveLock(func() error {
				project, err := ctx.projects.Create(cmd.Context(), "The Space Race",
					"A documentary series on the race to the Moon, from Sputnik to Apollo 17.")
				if err != nil {
					return err
				}

				seeds := []struct {
					title       string
					topic       string
					description string
				}{
					{
						title:       "Sputnik's Shadow",
						topic:       "the launch of Sputnik and the birth of the space race",
						description: "October 1957: a beeping sphere changes the Cold War overnight.",
					},
					{
						title:       "One Giant Leap",
						topic:       "the Apollo 11 moon landing",
						description: "From the launch at Cape Kennedy to the first steps at Tranquility Base.",
					},
					{
						title:       "The Last Men on the Moon",
						topic:       "Apollo 17 and the end of the lunar program",
						description: "Why humanity stopped going, told by the people who were last there.",
					},
				}
				for i, seed := range seeds {
					episode, err := ctx.episodes.Create(cmd.Context(), project.ID, seed.title, i+1, seed.topic, seed.description)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created episode %d: %s (%s)\n", i+1, seed.title, episode.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded project %q (%s) with %d episodes.\n", project.Title, project.ID, len(seeds))
				return nil
			})
		},
	}
}
