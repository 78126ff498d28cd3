package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ndump/internal/catalog"
	"ndump/internal/cuesheets"
	"ndump/internal/identification"
	"ndump/internal/organizer"
	"ndump/internal/queue"
	"ndump/internal/transcode"
	"ndump/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger()

			lock, err := workflow.AcquireInstanceLock(cfg)
			if err != nil {
				return err
			}
			defer lock.Release()

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

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

			report, err := manager.Health(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, health := range report.Stages {
				if !health.Ready {
					fmt.Fprintf(out, "warning: %s not ready: %s\n", health.Name, health.Detail)
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := manager.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(out, "Processing queue with %d transcode worker(s); press Ctrl-C to stop\n",
				cfg.Transcode.Workers)

			<-runCtx.Done()
			fmt.Fprintln(out, "Shutting down, waiting for in-flight stages")
			manager.Stop()
			return nil
		},
	}
}
