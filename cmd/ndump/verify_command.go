package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ndump/internal/catalog"
	"ndump/internal/cuesheets"
	"ndump/internal/fileutil"
	"ndump/internal/services/chdman"
	"ndump/internal/services/dolphin"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>...",
		Short: "Verify raw dumps and CHD/RVZ containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			chd := chdman.NewCLI(chdman.WithBinary(cfg.ChdmanBinary()))
			rvz := dolphin.NewCLI(dolphin.WithBinary(cfg.DolphinToolBinary()))

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

			out := cmd.OutOrStdout()
			var failures int
			for _, path := range args {
				switch strings.ToLower(filepath.Ext(path)) {
				case ".chd":
					if err := chd.Verify(cmd.Context(), path); err != nil {
						failures++
						fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
						continue
					}
					info, err := chd.Info(cmd.Context(), path)
					if err != nil {
						failures++
						fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
						continue
					}
					fmt.Fprintf(out, "OK   %s (%s, sha1 %s)\n",
						path, humanize.Bytes(uint64(info.CHDSizeBytes)), info.SHA1)
				case ".rvz", ".wia":
					digest, err := rvz.VerifySHA1(cmd.Context(), path)
					if err != nil {
						failures++
						fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
						continue
					}
					fmt.Fprintf(out, "OK   %s (sha1 %s)\n", path, digest)
				case ".cue":
					detail, err := verifyCue(cmd.Context(), cueStore, path)
					if err != nil {
						failures++
						fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
						continue
					}
					fmt.Fprintf(out, "OK   %s (%s)\n", path, detail)
				case ".bin", ".iso":
					if catalogStore == nil {
						fmt.Fprintf(out, "SKIP %s: catalog support disabled\n", path)
						continue
					}
					detail, err := verifyRawDump(cmd.Context(), catalogStore, path)
					if err != nil {
						failures++
						fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
						continue
					}
					fmt.Fprintf(out, "OK   %s (%s)\n", path, detail)
				default:
					failures++
					fmt.Fprintf(out, "SKIP %s: not a supported dump or container format\n", path)
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d file(s) failed verification", failures)
			}
			return nil
		},
	}
}

// verifyCue checks a cuesheet's structure and track files, then matches its
// neutralized hash against the cuesheet database when one is available.
func verifyCue(ctx context.Context, cueStore *cuesheets.Store, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if err := cuesheets.Validate(text); err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	for _, name := range cuesheets.TrackFilenames(text) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return "", fmt.Errorf("referenced track %s is missing", name)
		}
	}
	if cueStore == nil {
		return "tracks present; catalog support disabled", nil
	}
	match, err := cueStore.MatchCue(ctx, text)
	if err != nil {
		return "", err
	}
	if match == nil {
		return "", errors.New("cuesheet matches no known release")
	}
	return fmt.Sprintf("%s [%s]", match.GameName, match.Console.FormalName()), nil
}

// verifyRawDump hashes a bin or iso and looks it up in the catalog.
func verifyRawDump(ctx context.Context, store *catalog.Store, path string) (string, error) {
	digest, err := fileutil.SHA1File(path)
	if err != nil {
		return "", err
	}
	info, err := store.Lookup(ctx, digest)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", fmt.Errorf("sha1 %s matches no catalog entry", digest)
	}
	return fmt.Sprintf("%s [%s]", info.ROMName, info.Console.FormalName()), nil
}
