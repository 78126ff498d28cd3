package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ndump/internal/config"
	"ndump/internal/consoles"
	"ndump/internal/cuesheets"
	"ndump/internal/fileutil"
	"ndump/internal/logging"
	"ndump/internal/queue"
	"ndump/internal/services"
	"ndump/internal/stage"
	"ndump/internal/textutil"
)

// Organizer moves verified transcodes into the final library location.
type Organizer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs the organizer stage handler.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	return &Organizer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "organizer"),
	}
}

// Prepare resets progress before organization begins.
func (o *Organizer) Prepare(_ context.Context, item *queue.Item) error {
	item.SetProgress("Organizing", "Placing dump in library", 0)
	return nil
}

// Execute moves the transcoded file to library/<console>/<name><ext>,
// applying the configured collision policy. Existing library files are never
// overwritten.
func (o *Organizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)

	if item.TranscodedFile == "" {
		return services.Wrap(services.ErrConfiguration, "organizing", "validate inputs",
			"No transcoded file present; run transcoding before organizing", nil)
	}
	console, ok := consoles.Parse(item.Console)
	if !ok {
		return services.Wrap(services.ErrUnknownFormat, "organizing", "resolve console",
			fmt.Sprintf("Item has no recognized console (%q)", item.Console), nil)
	}

	destPath, err := o.resolveDestination(item, console)
	if err != nil {
		return err
	}
	if destPath == "" {
		// Collision resolved as a skip: the library copy wins, the staged
		// transcode is discarded.
		o.cleanupStaged(item)
		item.Status = queue.StatusCompleted
		item.SetProgress("Completed", "Already in library", 100)
		logger.Info("duplicate skipped",
			logging.FieldItemID, item.ID,
			logging.String("library_file", item.FinalFile))
		return nil
	}

	if err := fileutil.MoveFile(item.TranscodedFile, destPath); err != nil {
		return services.Wrap(services.ErrTransient, "organizing", "move file",
			fmt.Sprintf("Could not move %s into the library", filepath.Base(item.TranscodedFile)), err)
	}

	item.FinalFile = destPath
	o.cleanupStaged(item)
	item.Status = queue.StatusCompleted
	item.SetProgress("Completed", filepath.Base(destPath), 100)
	logger.Info("dump organized",
		logging.FieldItemID, item.ID,
		logging.FieldConsole, string(console),
		logging.String("final_file", destPath))
	return nil
}

// resolveDestination computes the library path, applying the collision
// policy. An empty path with nil error means the item deduplicated against
// an identical library file.
func (o *Organizer) resolveDestination(item *queue.Item, console consoles.Console) (string, error) {
	name := item.PreferredName
	if name == "" {
		name = item.DisplayName
	}
	name = textutil.SanitizeFileName(name)
	ext := filepath.Ext(item.TranscodedFile)

	dir := filepath.Join(o.cfg.Paths.LibraryDir, console.FormalName())
	candidate := filepath.Join(dir, name+ext)

	existing, err := os.Stat(candidate)
	if errors.Is(err, os.ErrNotExist) {
		return candidate, nil
	}
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "organizing", "stat destination",
			"Could not inspect library destination", err)
	}
	if existing.IsDir() {
		return "", services.Wrap(services.ErrDestinationCollision, "organizing", "resolve destination",
			fmt.Sprintf("Library destination %s is a directory", candidate), nil)
	}

	// Identical contents mean the dump is already archived.
	same, err := sameFile(candidate, item.TranscodedFile)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "organizing", "compare destination",
			"Could not compare against the existing library file", err)
	}
	if same {
		item.FinalFile = candidate
		return "", nil
	}

	switch o.cfg.Import.CollisionPolicy {
	case config.CollisionSkip:
		return "", services.Wrap(services.ErrDestinationCollision, "organizing", "resolve destination",
			fmt.Sprintf("Library already contains a different %s", filepath.Base(candidate)), nil)
	case config.CollisionRename:
		for i := 2; ; i++ {
			renamed := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, i, ext))
			if _, err := os.Stat(renamed); errors.Is(err, os.ErrNotExist) {
				return renamed, nil
			} else if err != nil {
				return "", services.Wrap(services.ErrTransient, "organizing", "stat destination",
					"Could not inspect library destination", err)
			}
		}
	default:
		return "", services.Wrap(services.ErrConfiguration, "organizing", "resolve destination",
			fmt.Sprintf("Unknown collision policy %q", o.cfg.Import.CollisionPolicy), nil)
	}
}

// cleanupStaged removes the staged source once the item has a settled
// library outcome. Cuesheet items also drop their staged track files. The
// transcoded file is only removed when it still sits in staging
// (dedupe-skip case).
func (o *Organizer) cleanupStaged(item *queue.Item) {
	if item.StagedPath != "" && item.StagedPath != item.FinalFile {
		for _, track := range stagedTracks(item.StagedPath) {
			if err := os.Remove(track); err != nil && !os.IsNotExist(err) {
				o.logger.Warn("staged track not removed",
					logging.String("path", track), logging.Error(err))
			}
		}
		if err := os.Remove(item.StagedPath); err != nil && !os.IsNotExist(err) {
			o.logger.Warn("staged file not removed",
				logging.String("path", item.StagedPath), logging.Error(err))
		}
	}
	if item.TranscodedFile != "" && item.TranscodedFile != item.StagedPath && item.TranscodedFile != item.FinalFile {
		if err := os.Remove(item.TranscodedFile); err != nil && !os.IsNotExist(err) {
			o.logger.Warn("transcoded file not removed",
				logging.String("path", item.TranscodedFile), logging.Error(err))
		}
	}
}

// stagedTracks lists the track files a staged cue or GDI sheet references,
// resolved beside the sheet. Other staged files have no companions.
func stagedTracks(stagedPath string) []string {
	var parse func(string) []string
	switch strings.ToLower(filepath.Ext(stagedPath)) {
	case ".cue":
		parse = cuesheets.TrackFilenames
	case ".gdi":
		parse = cuesheets.GDITrackFilenames
	default:
		return nil
	}
	data, err := os.ReadFile(stagedPath)
	if err != nil {
		return nil
	}
	dir := filepath.Dir(stagedPath)
	var tracks []string
	for _, name := range parse(string(data)) {
		tracks = append(tracks, filepath.Join(dir, filepath.Base(name)))
	}
	return tracks
}

func sameFile(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}
	hashA, err := fileutil.SHA1File(a)
	if err != nil {
		return false, err
	}
	hashB, err := fileutil.SHA1File(b)
	if err != nil {
		return false, err
	}
	return hashA == hashB, nil
}

// HealthCheck verifies the library root is writable.
func (o *Organizer) HealthCheck(_ context.Context) stage.Health {
	if err := os.MkdirAll(o.cfg.Paths.LibraryDir, 0o755); err != nil {
		return stage.Unhealthy("organizer", fmt.Sprintf("library dir: %v", err))
	}
	return stage.Healthy("organizer")
}

var _ stage.Handler = (*Organizer)(nil)
