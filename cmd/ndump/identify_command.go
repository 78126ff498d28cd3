package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ndump/internal/catalog"
	"ndump/internal/fileutil"
	"ndump/internal/sniff"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <file>",
		Short: "Classify a dump file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			format, err := sniff.File(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if !format.Known() {
				fmt.Fprintln(out, "Format: unknown")
				return nil
			}
			fmt.Fprintf(out, "Format:  %s\n", format.Name)
			fmt.Fprintf(out, "Console: %s\n", format.Console.FormalName())
			fmt.Fprintf(out, "Kind:    %s\n", format.Kind)
			if format.NeedsTranscode() {
				fmt.Fprintf(out, "Target:  %s\n", format.Target)
			} else {
				fmt.Fprintln(out, "Target:  none (archival format)")
			}

			if !cfg.Catalog.Enabled {
				return nil
			}
			digest, err := fileutil.SHA1File(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "SHA-1:   %s\n", digest)

			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			info, err := store.Lookup(cmd.Context(), digest)
			if err != nil {
				return err
			}
			if info == nil {
				fmt.Fprintln(out, "Catalog: no match")
				return nil
			}
			fmt.Fprintf(out, "Catalog: %s [%s]\n", info.ROMName, info.Console.FormalName())
			return nil
		},
	}
}
