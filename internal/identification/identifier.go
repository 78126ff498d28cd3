package identification

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ndump/internal/catalog"
	"ndump/internal/config"
	"ndump/internal/cuesheets"
	"ndump/internal/logging"
	"ndump/internal/queue"
	"ndump/internal/services"
	"ndump/internal/sniff"
	"ndump/internal/stage"
)

// Identifier is the stage handler that classifies staged dumps.
type Identifier struct {
	cfg     *config.Config
	catalog *catalog.Store
	cues    *cuesheets.Store
	logger  *slog.Logger
}

// New constructs the identification stage. The catalog and cuesheet stores
// are optional; without them identification relies on signatures alone.
func New(cfg *config.Config, catalogStore *catalog.Store, cueStore *cuesheets.Store, logger *slog.Logger) *Identifier {
	return &Identifier{
		cfg:     cfg,
		catalog: catalogStore,
		cues:    cueStore,
		logger:  logging.NewComponentLogger(logger, "identification"),
	}
}

// Prepare resets progress before identification begins.
func (i *Identifier) Prepare(_ context.Context, item *queue.Item) error {
	item.SetProgress("Identifying", "Inspecting dump format", 0)
	return nil
}

// Execute sniffs the staged file, refines the result against the hash
// catalog, and records console, format, and preferred release name.
func (i *Identifier) Execute(ctx context.Context, item *queue.Item) error {
	format, err := sniff.File(item.StagedPath)
	if err != nil {
		return services.Wrap(services.ErrUnreadableSource, "identification", "sniff",
			"Staged file could not be read", err)
	}
	if !format.Known() {
		return services.Wrap(services.ErrUnknownFormat, "identification", "sniff",
			fmt.Sprintf("No known dump format matches %q", item.DisplayName), nil)
	}

	item.FormatName = format.Name
	item.TranscodeTarget = string(format.Target)
	console := format.Console

	if info, lookupErr := i.lookupCatalog(ctx, item.SHA1); lookupErr != nil {
		return lookupErr
	} else if info != nil {
		// A catalog hash match pins both console and release name even when
		// the signature was ambiguous about platform.
		console = info.Console
		item.PreferredName = info.GameName
	}

	if item.PreferredName == "" && format.Kind == sniff.KindCueSheet {
		match, matchErr := i.matchCue(ctx, item.StagedPath)
		if matchErr != nil {
			return matchErr
		}
		if match != nil {
			console = match.Console
			item.PreferredName = match.GameName
		}
	}

	if item.PreferredName == "" {
		item.PreferredName = item.DisplayName
	}
	item.Console = string(console)
	item.Status = queue.StatusIdentified
	item.SetProgress("Identified", fmt.Sprintf("%s (%s)", item.PreferredName, console.FormalName()), 100)

	i.logger.Info("dump identified",
		logging.FieldItemID, item.ID,
		logging.FieldConsole, string(console),
		"format", format.Name,
		"preferred_name", item.PreferredName)
	return nil
}

func (i *Identifier) lookupCatalog(ctx context.Context, sha1 string) (*catalog.ROMInfo, error) {
	if i.catalog == nil || sha1 == "" {
		return nil, nil
	}
	info, err := i.catalog.Lookup(ctx, sha1)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "identification", "catalog lookup",
			"Catalog database query failed", err)
	}
	return info, nil
}

func (i *Identifier) matchCue(ctx context.Context, path string) (*cuesheets.Match, error) {
	if i.cues == nil {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrUnreadableSource, "identification", "read cue",
			"Staged cuesheet could not be read", err)
	}
	match, err := i.cues.MatchCue(ctx, string(data))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "identification", "cue lookup",
			"Cuesheet database query failed", err)
	}
	return match, nil
}

// HealthCheck verifies the staging directory is accessible.
func (i *Identifier) HealthCheck(_ context.Context) stage.Health {
	if _, err := os.Stat(i.cfg.Paths.StagingDir); err != nil {
		return stage.Unhealthy("identification", fmt.Sprintf("staging dir: %v", err))
	}
	return stage.Healthy("identification")
}

var _ stage.Handler = (*Identifier)(nil)
