package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"ndump/internal/archive"
	"ndump/internal/config"
	"ndump/internal/cuesheets"
	"ndump/internal/logging"
	"ndump/internal/queue"
	"ndump/internal/services"
	"ndump/internal/sniff"
)

// Skipped records one input that was not enqueued and why.
type Skipped struct {
	Path   string
	Reason string
}

// Result summarizes an import batch.
type Result struct {
	Enqueued []*queue.Item
	Skipped  []Skipped
}

// Progress receives a short description of the input currently being staged.
type Progress func(path string)

// Importer stages dump files into the staging directory and enqueues them.
type Importer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// New constructs an importer.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Importer {
	return &Importer{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "ingest"),
	}
}

// Import walks the given paths, stages every dump it finds, and enqueues one
// queue item per dump. Directories are walked recursively. A failure on one
// input is recorded and does not abort the batch.
func (im *Importer) Import(ctx context.Context, paths []string, progress Progress) (*Result, error) {
	files, skipped, err := collectFiles(paths)
	if err != nil {
		return nil, err
	}

	result := &Result{Skipped: skipped}
	consumed := trackFilesReferencedByCues(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if consumed[path] {
			continue
		}
		if progress != nil {
			progress(path)
		}
		if err := im.importFile(ctx, path, result); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			im.logger.Warn("input skipped",
				"path", path,
				logging.Error(err))
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: err.Error()})
		}
	}
	return result, nil
}

func collectFiles(paths []string) ([]string, []Skipped, error) {
	var files []string
	var skipped []Skipped
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			skipped = append(skipped, Skipped{Path: path, Reason: err.Error()})
			continue
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !d.IsDir() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("walk %s: %w", path, err)
		}
	}
	sort.Strings(files)
	return files, skipped, nil
}

// trackFilesReferencedByCues marks files that belong to a cue or GDI sheet in
// the same directory, so they are staged with the sheet instead of enqueued
// as standalone dumps.
func trackFilesReferencedByCues(files []string) map[string]bool {
	consumed := make(map[string]bool)
	for _, path := range files {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".cue" && ext != ".gdi" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		dir := filepath.Dir(path)
		for _, name := range referencedFiles(ext, string(data)) {
			consumed[filepath.Join(dir, name)] = true
		}
	}
	return consumed
}

func referencedFiles(ext, text string) []string {
	if ext == ".cue" {
		return cuesheets.TrackFilenames(text)
	}
	return cuesheets.GDITrackFilenames(text)
}

func (im *Importer) importFile(ctx context.Context, path string, result *Result) error {
	reader, err := archive.Open(path)
	if err != nil {
		if errors.Is(err, archive.ErrUnsupported) {
			return services.Wrap(services.ErrUnsupportedArchive, "ingest", "open archive",
				"Archive is corrupt or uses an unsupported format", err)
		}
		return services.Wrap(services.ErrUnreadableSource, "ingest", "open input",
			"Input file could not be opened", err)
	}
	defer reader.Close()

	isArchive := archive.IsArchivePath(path)
	entries := reader.Entries()
	var consumed map[string]bool
	if isArchive {
		consumed = trackEntriesReferencedBySheets(entries)
	}

	var enqueued int
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if consumed[entryKey(entry.Name)] {
			continue
		}
		if isArchive && im.skipArchiveEntry(entry, result) {
			continue
		}
		item, err := im.stageAndEnqueue(ctx, path, entry, entries)
		if err != nil {
			if !isArchive {
				return err
			}
			// One bad entry inside an archive does not fail the rest.
			result.Skipped = append(result.Skipped, Skipped{
				Path:   path + "!" + entry.Name,
				Reason: err.Error(),
			})
			continue
		}
		if item != nil {
			result.Enqueued = append(result.Enqueued, item)
			enqueued++
		}
	}

	if enqueued > 0 && im.cfg.Import.RemoveSource {
		if err := os.Remove(path); err != nil {
			im.logger.Warn("source removal failed", "path", path, logging.Error(err))
		}
	}
	return nil
}

// skipArchiveEntry filters out archive entries that are clearly not dumps
// (docs, screenshots, empty padding) before paying to decompress them.
func (im *Importer) skipArchiveEntry(entry archive.Entry, result *Result) bool {
	switch strings.ToLower(filepath.Ext(entry.Name)) {
	case ".txt", ".nfo", ".sfv", ".md", ".jpg", ".png", ".html":
		return true
	}
	if max := im.cfg.Import.MaxArchiveEntryGiB; max > 0 && entry.Size > int64(max)<<30 {
		result.Skipped = append(result.Skipped, Skipped{
			Path:   entry.Name,
			Reason: fmt.Sprintf("entry exceeds %d GiB limit", max),
		})
		return true
	}
	return false
}

// stageAndEnqueue copies one entry into the staging directory, hashing it on
// the way, and enqueues it. Returns (nil, nil) when the entry is a duplicate
// of an item already queued.
func (im *Importer) stageAndEnqueue(ctx context.Context, sourcePath string, entry archive.Entry, siblings []archive.Entry) (*queue.Item, error) {
	stagedPath, digest, size, err := im.stageEntry(entry)
	if err != nil {
		return nil, err
	}

	existing, err := im.store.FindBySHA1(ctx, digest)
	if err != nil {
		_ = os.Remove(stagedPath)
		return nil, err
	}
	if existing != nil {
		_ = os.Remove(stagedPath)
		im.logger.Info("duplicate dump skipped",
			"path", sourcePath,
			"entry", entry.Name,
			logging.FieldItemID, existing.ID)
		return nil, nil
	}

	switch strings.ToLower(filepath.Ext(stagedPath)) {
	case ".cue", ".gdi":
		if err := im.stageSheetTracks(sourcePath, entry, stagedPath, siblings); err != nil {
			_ = os.Remove(stagedPath)
			return nil, err
		}
	}

	displayName := strings.TrimSuffix(filepath.Base(entry.Name), filepath.Ext(entry.Name))
	item, err := im.store.NewItem(ctx, sourcePath, stagedPath, displayName, digest, size)
	if err != nil {
		_ = os.Remove(stagedPath)
		return nil, err
	}
	im.logger.Info("dump enqueued",
		logging.FieldItemID, item.ID,
		"path", sourcePath,
		"entry", entry.Name,
		"size_bytes", size)
	return item, nil
}

// stageEntry streams the entry into the staging directory while computing its
// SHA-1 in the same pass.
func (im *Importer) stageEntry(entry archive.Entry) (string, string, int64, error) {
	if err := os.MkdirAll(im.cfg.Paths.StagingDir, 0o755); err != nil {
		return "", "", 0, fmt.Errorf("create staging dir: %w", err)
	}

	src, err := entry.Open()
	if err != nil {
		return "", "", 0, services.Wrap(services.ErrUnreadableSource, "ingest", "open entry",
			"Entry could not be read", err)
	}
	defer src.Close()

	stagedPath := uniqueStagingPath(im.cfg.Paths.StagingDir, filepath.Base(entry.Name))
	dst, err := os.Create(stagedPath)
	if err != nil {
		return "", "", 0, fmt.Errorf("create staged file: %w", err)
	}

	hasher := sha1.New()
	size, err := io.Copy(dst, io.TeeReader(src, hasher))
	closeErr := dst.Close()
	if err != nil {
		_ = os.Remove(stagedPath)
		return "", "", 0, services.Wrap(services.ErrUnreadableSource, "ingest", "stage entry",
			"Entry could not be fully read", err)
	}
	if closeErr != nil {
		_ = os.Remove(stagedPath)
		return "", "", 0, fmt.Errorf("close staged file: %w", closeErr)
	}

	return stagedPath, hex.EncodeToString(hasher.Sum(nil)), size, nil
}

// stageSheetTracks copies a cue or GDI sheet's referenced track files next to
// the staged sheet so the transcoder can feed chdman a complete dump. Tracks
// packed in the same archive as the sheet are staged from the archive's own
// entries; for plain sheets they come from the directory holding the source.
func (im *Importer) stageSheetTracks(sourcePath string, sheet archive.Entry, stagedSheetPath string, siblings []archive.Entry) error {
	data, err := os.ReadFile(stagedSheetPath)
	if err != nil {
		return fmt.Errorf("read staged sheet: %w", err)
	}

	byKey := make(map[string]archive.Entry, len(siblings))
	for _, sibling := range siblings {
		byKey[entryKey(sibling.Name)] = sibling
	}
	sheetDir := path.Dir(slashPath(sheet.Name))

	ext := strings.ToLower(filepath.Ext(stagedSheetPath))
	stagedDir := filepath.Dir(stagedSheetPath)
	for _, name := range referencedFiles(ext, string(data)) {
		dst := filepath.Join(stagedDir, filepath.Base(name))
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if sibling, ok := byKey[entryKey(path.Join(sheetDir, slashPath(name)))]; ok {
			if err := copyEntry(sibling, dst); err != nil {
				return services.Wrap(services.ErrUnreadableSource, "ingest", "stage track",
					fmt.Sprintf("Track file %s could not be extracted from the archive", name), err)
			}
			continue
		}
		src := filepath.Join(filepath.Dir(sourcePath), name)
		if err := copyFile(src, dst); err != nil {
			return services.Wrap(services.ErrUnreadableSource, "ingest", "stage track",
				fmt.Sprintf("Track file %s referenced by the sheet is missing or unreadable", name), err)
		}
	}
	return nil
}

// trackEntriesReferencedBySheets marks archive entries that belong to a cue
// or GDI sheet inside the same container, so they are staged with the sheet
// instead of enqueued as standalone dumps.
func trackEntriesReferencedBySheets(entries []archive.Entry) map[string]bool {
	consumed := make(map[string]bool)
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name))
		if ext != ".cue" && ext != ".gdi" {
			continue
		}
		text, err := readEntryText(entry)
		if err != nil {
			continue
		}
		dir := path.Dir(slashPath(entry.Name))
		for _, name := range referencedFiles(ext, text) {
			consumed[entryKey(path.Join(dir, slashPath(name)))] = true
		}
	}
	return consumed
}

// entryKey normalizes an entry path for sibling lookups. Archives written on
// Windows mix separators, and Redump sheets sometimes differ from the zip
// directory in case only.
func entryKey(name string) string {
	return strings.ToLower(path.Clean(slashPath(name)))
}

func slashPath(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}

// readEntryText reads a sheet-sized entry. The cap keeps a mislabeled track
// file from being slurped into memory.
func readEntryText(entry archive.Entry) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, 1<<20))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func copyEntry(entry archive.Entry, dst string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// uniqueStagingPath avoids clobbering a previously staged file of the same
// name by appending a numeric suffix.
func uniqueStagingPath(dir, base string) string {
	candidate := filepath.Join(dir, base)
	if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
		return candidate
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 2; ; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// SniffStaged classifies a staged file. Split out so the identify command can
// reuse it without a queue.
func SniffStaged(path string) (sniff.Format, error) {
	return sniff.File(path)
}
