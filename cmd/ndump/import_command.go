package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ndump/internal/catalog"
	"ndump/internal/config"
	"ndump/internal/cuesheets"
	"ndump/internal/identification"
	"ndump/internal/ingest"
	"ndump/internal/organizer"
	"ndump/internal/queue"
	"ndump/internal/transcode"
	"ndump/internal/workflow"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var removeSource bool
	var process bool

	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Stage dump files or archives into the processing queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				if removeSource {
					cfg.Import.RemoveSource = true
				}

				importer := ingest.New(cfg, store, ctx.logger())
				bar := newImportBar()
				progress := func(path string) {
					if bar != nil {
						bar.Describe(filepath.Base(path))
						_ = bar.Add(1)
					}
				}

				result, err := importer.Import(cmd.Context(), args, progress)
				if bar != nil {
					_ = bar.Finish()
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Enqueued %d dump(s)\n", len(result.Enqueued))
				for _, item := range result.Enqueued {
					fmt.Fprintf(out, "  %s (item %d)\n", item.DisplayName, item.ID)
				}
				if len(result.Skipped) > 0 {
					fmt.Fprintf(out, "Skipped %d input(s)\n", len(result.Skipped))
					for _, skip := range result.Skipped {
						fmt.Fprintf(out, "  %s: %s\n", skip.Path, skip.Reason)
					}
				}
				if !process || len(result.Enqueued) == 0 {
					return nil
				}
				return processQueue(cmd, ctx, cfg, store)
			})
		},
	}

	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "Delete source files after successful staging")
	cmd.Flags().BoolVar(&process, "process", false, "Run the full pipeline on the imported dumps before exiting")
	return cmd
}

// processQueue runs the pipeline until nothing is pending or in flight.
func processQueue(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, store *queue.Store) error {
	lock, err := workflow.AcquireInstanceLock(cfg)
	if err != nil {
		return err
	}
	defer lock.Release()

	logger := ctx.logger()
	var catalogStore *catalog.Store
	var cueStore *cuesheets.Store
	if cfg.Catalog.Enabled {
		catalogStore, err = catalog.Open(cfg)
		if err != nil {
			return err
		}
		defer catalogStore.Close()
		cueStore, err = cuesheets.Open(cfg)
		if err != nil {
			return err
		}
		defer cueStore.Close()
	}

	manager := workflow.NewManager(cfg, store, workflow.StageSet{
		Identifier: identification.New(cfg, catalogStore, cueStore, logger),
		Transcoder: transcode.New(cfg, logger),
		Organizer:  organizer.New(cfg, logger),
	}, logger)
	if err := manager.Start(cmd.Context()); err != nil {
		return err
	}
	defer manager.Stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Processing imported dumps")
	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(time.Second):
		}
		summary, err := store.Health(cmd.Context())
		if err != nil {
			return err
		}
		if summary.Drained() {
			fmt.Fprintf(out, "Done: %d completed, %d failed, %d awaiting review\n",
				summary.Completed, summary.Failed, summary.Review)
			return nil
		}
	}
}

// newImportBar returns a spinner when stdout is a terminal, nil otherwise.
// The file count is unknown up front because directories expand during import.
func newImportBar() *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
