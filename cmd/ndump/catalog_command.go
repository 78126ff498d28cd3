package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ndump/internal/catalog"
	"ndump/internal/consoles"
	"ndump/internal/cuesheets"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the Redump and No-Intro release catalogs",
	}

	catalogCmd.AddCommand(newCatalogUpdateCommand(ctx))
	catalogCmd.AddCommand(newCatalogStatusCommand(ctx))

	return catalogCmd
}

func newCatalogUpdateCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh console DATs and cuesheet bundles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Catalog.Enabled {
				return fmt.Errorf("catalog support is disabled in the configuration")
			}
			logger := ctx.logger()

			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			updater := catalog.NewUpdater(store, cfg, logger)
			if err := updater.Update(cmd.Context(), force); err != nil {
				return err
			}

			cueStore, err := cuesheets.Open(cfg)
			if err != nil {
				return err
			}
			defer cueStore.Close()

			if err := cuesheets.NewUpdater(cueStore, cfg, logger).Update(cmd.Context(), force); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Catalog update complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Refresh even if catalogs are fresh")
	return cmd
}

func newCatalogStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-console catalog entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, "Catalog is empty; run 'ndump catalog update'")
				return nil
			}
			rows := make([][]string, 0, len(counts))
			for _, console := range consoles.All() {
				count, ok := counts[console]
				if !ok {
					continue
				}
				rows = append(rows, []string{console.FormalName(), fmt.Sprintf("%d", count)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Console", "Releases"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
