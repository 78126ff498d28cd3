package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ndump/internal/config"
	"ndump/internal/organizer"
	"ndump/internal/queue"
	"ndump/internal/services"
)

// newOrganizeCommand drains transcoded items into the library without
// starting the full pipeline.
func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "organize",
		Short: "Move transcoded dumps into the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				handler := organizer.New(cfg, ctx.logger())
				out := cmd.OutOrStdout()

				var moved, parked int
				for {
					item, err := store.ClaimNext(cmd.Context(), queue.StatusTranscoded, queue.StatusOrganizing)
					if err != nil {
						return err
					}
					if item == nil {
						break
					}

					stageErr := handler.Prepare(cmd.Context(), item)
					if stageErr == nil {
						stageErr = handler.Execute(cmd.Context(), item)
					}
					if stageErr != nil {
						parked++
						if services.NeedsReview(stageErr) {
							item.SetReview(stageErr.Error())
						} else {
							item.SetFailed(stageErr.Error())
						}
						fmt.Fprintf(out, "Could not organize %s: %v\n", item.DisplayName, stageErr)
					} else {
						moved++
						fmt.Fprintf(out, "Moved %s -> %s\n", item.DisplayName, item.FinalFile)
					}
					if err := store.Update(cmd.Context(), item); err != nil {
						return err
					}
				}

				fmt.Fprintf(out, "Organized %d item(s), %d need attention\n", moved, parked)
				return nil
			})
		},
	}
}
