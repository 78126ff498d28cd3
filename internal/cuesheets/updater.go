package cuesheets

import (
	"context"
	"log/slog"
	"time"

	"ndump/internal/config"
	"ndump/internal/consoles"
	"ndump/internal/logging"
)

// BundleFetcher downloads a console's cue bundle.
type BundleFetcher interface {
	FetchBundle(ctx context.Context, console consoles.Console) (map[string]string, error)
}

// Updater refreshes cue bundles for the configured consoles, honoring the
// same staleness interval as the DAT catalogs.
type Updater struct {
	// Bundles may be swapped for a fake in tests.
	Bundles BundleFetcher

	store    *Store
	cfg      *config.Config
	logger   *slog.Logger
	interval time.Duration
}

// NewUpdater wires an updater with the production bundle client.
func NewUpdater(store *Store, cfg *config.Config, logger *slog.Logger) *Updater {
	return &Updater{
		Bundles:  NewBundleClient(),
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "cuesheets"),
		interval: time.Duration(cfg.Catalog.UpdateIntervalDays) * 24 * time.Hour,
	}
}

// Update fetches cue bundles for consoles whose stored bundle is stale or
// missing. Force refreshes regardless of age. A failed download is logged and
// skipped so one unreachable bundle does not block the rest.
func (u *Updater) Update(ctx context.Context, force bool) error {
	for _, name := range u.cfg.Catalog.Consoles {
		console, ok := consoles.Parse(name)
		if !ok {
			continue
		}
		if _, ok := console.RedumpCueSlug(); !ok {
			continue
		}
		if !force {
			fetched, err := u.store.FetchedAt(ctx, console)
			if err != nil {
				return err
			}
			if !fetched.IsZero() && time.Since(fetched) < u.interval {
				u.logger.Debug("cue bundle fresh",
					logging.FieldConsole, string(console),
					"fetched_at", fetched)
				continue
			}
		}

		cues, err := u.Bundles.FetchBundle(ctx, console)
		if err != nil {
			u.logger.Warn("cue bundle fetch failed",
				logging.FieldConsole, string(console),
				logging.Error(err))
			continue
		}
		if err := u.store.ImportBundle(ctx, console, cues); err != nil {
			return err
		}
		u.logger.Info("cue bundle imported",
			logging.FieldConsole, string(console),
			"cues", len(cues))
	}
	return nil
}
