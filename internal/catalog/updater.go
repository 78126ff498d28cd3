package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ndump/internal/config"
	"ndump/internal/consoles"
	"ndump/internal/logging"
)

// Fetcher retrieves a console's DAT from an upstream source.
type Fetcher interface {
	FetchDAT(ctx context.Context, console consoles.Console) (*DATFile, error)
}

// Updater refreshes stale console DATs from Redump and No-Intro.
type Updater struct {
	// Redump and NoIntro may be swapped for fakes in tests.
	Redump  Fetcher
	NoIntro Fetcher

	store    *Store
	cfg      *config.Config
	logger   *slog.Logger
	interval time.Duration
}

// NewUpdater wires an updater with production fetchers.
func NewUpdater(store *Store, cfg *config.Config, logger *slog.Logger) *Updater {
	return &Updater{
		Redump:   NewRedumpClient(),
		NoIntro:  NewNoIntroClient(),
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "catalog"),
		interval: time.Duration(cfg.Catalog.UpdateIntervalDays) * 24 * time.Hour,
	}
}

// Update refreshes DATs for all configured consoles that are stale or missing.
// Force refreshes regardless of age. Individual console failures are logged
// and skipped so one unreachable source does not block the rest.
func (u *Updater) Update(ctx context.Context, force bool) error {
	var failures int
	for _, name := range u.cfg.Catalog.Consoles {
		console, ok := consoles.Parse(name)
		if !ok {
			u.logger.Warn("skipping unknown console", logging.FieldConsole, name)
			continue
		}
		if err := u.updateConsole(ctx, console, force); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			u.logger.Error("catalog update failed",
				logging.FieldConsole, string(console),
				logging.Error(err))
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d console catalog(s) failed to update", failures)
	}
	return nil
}

func (u *Updater) updateConsole(ctx context.Context, console consoles.Console, force bool) error {
	if !force {
		fetched, err := u.store.FetchedAt(ctx, console)
		if err != nil {
			return err
		}
		if !fetched.IsZero() && time.Since(fetched) < u.interval {
			u.logger.Debug("catalog fresh", logging.FieldConsole, string(console))
			return nil
		}
	}

	fetcher, err := u.fetcherFor(console)
	if err != nil {
		return err
	}

	u.logger.Info("updating catalog", logging.FieldConsole, string(console))
	dat, err := fetcher.FetchDAT(ctx, console)
	if err != nil {
		return err
	}
	if err := u.store.Import(ctx, console, dat); err != nil {
		return err
	}
	u.logger.Info("catalog updated",
		logging.FieldConsole, string(console),
		"games", len(dat.Games),
		"dat_version", dat.Version)
	return nil
}

func (u *Updater) fetcherFor(console consoles.Console) (Fetcher, error) {
	if _, ok := console.RedumpSlug(); ok {
		return u.Redump, nil
	}
	if _, ok := console.NoIntroName(); ok {
		return u.NoIntro, nil
	}
	return nil, fmt.Errorf("no dat source for console %s", console)
}
