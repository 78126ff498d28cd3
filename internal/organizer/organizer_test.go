package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ndump/internal/logging"
	"ndump/internal/organizer"
	"ndump/internal/queue"
	"ndump/internal/services"
	"ndump/internal/testsupport"
)

func writeStaging(t *testing.T, path, contents string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestExecuteMovesIntoLibrary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organizer.New(cfg, logging.NewNop())

	transcoded := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "Game (USA).chd"), "chd bytes")
	staged := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "game.iso"), "iso bytes")

	item := &queue.Item{
		ID:             1,
		StagedPath:     staged,
		DisplayName:    "game",
		PreferredName:  "Game (USA)",
		Console:        "ps2",
		TranscodedFile: transcoded,
		Status:         queue.StatusOrganizing,
	}
	if err := org.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := filepath.Join(cfg.Paths.LibraryDir, "PlayStation 2", "Game (USA).chd")
	if item.FinalFile != want {
		t.Fatalf("final file = %q, want %q", item.FinalFile, want)
	}
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want completed", item.Status)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "chd bytes" {
		t.Fatalf("library file: %v (%q)", err, data)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("expected staged source removed, stat err=%v", err)
	}
}

func TestExecuteRemovesStagedCueTracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organizer.New(cfg, logging.NewNop())

	cue := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "disc.cue"),
		"FILE \"disc.bin\" BINARY\n  TRACK 01 MODE2/2352\n    INDEX 01 00:00:00\n")
	track := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "disc.bin"), "track data")
	transcoded := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "Disc (USA).chd"), "chd bytes")

	item := &queue.Item{
		ID:             2,
		StagedPath:     cue,
		DisplayName:    "disc",
		PreferredName:  "Disc (USA)",
		Console:        "psx",
		TranscodedFile: transcoded,
		Status:         queue.StatusOrganizing,
	}
	if err := org.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, path := range []string{cue, track} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", path, err)
		}
	}
}

func TestExecuteRemovesStagedGDITracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organizer.New(cfg, logging.NewNop())

	gdi := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "disc.gdi"),
		"2\n1 0 4 2352 \"track01.bin\" 0\n2 756 0 2352 \"track02.raw\" 0\n")
	track1 := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "track01.bin"), "sector data")
	track2 := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "track02.raw"), "sector data")
	transcoded := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "Disc (USA).chd"), "chd bytes")

	item := &queue.Item{
		ID:             8,
		StagedPath:     gdi,
		DisplayName:    "disc",
		PreferredName:  "Disc (USA)",
		Console:        "dc",
		TranscodedFile: transcoded,
		Status:         queue.StatusOrganizing,
	}
	if err := org.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, path := range []string{gdi, track1, track2} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", path, err)
		}
	}
}

func TestExecuteDeduplicatesIdenticalFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organizer.New(cfg, logging.NewNop())

	existing := writeStaging(t, filepath.Join(cfg.Paths.LibraryDir, "Game Boy Advance", "Cart (USA).rvz"), "same bytes")
	transcoded := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "Cart (USA).rvz"), "same bytes")

	item := &queue.Item{
		ID:             3,
		StagedPath:     transcoded,
		DisplayName:    "cart",
		PreferredName:  "Cart (USA)",
		Console:        "gba",
		TranscodedFile: transcoded,
		Status:         queue.StatusOrganizing,
	}
	if err := org.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.FinalFile != existing {
		t.Fatalf("final file = %q, want existing %q", item.FinalFile, existing)
	}
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want completed", item.Status)
	}
	if _, err := os.Stat(transcoded); !os.IsNotExist(err) {
		t.Fatalf("expected staged duplicate removed, stat err=%v", err)
	}
}

func TestExecuteCollisionRenameAppendsSuffix(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCollisionPolicy("rename"))
	org := organizer.New(cfg, logging.NewNop())

	writeStaging(t, filepath.Join(cfg.Paths.LibraryDir, "PlayStation 2", "Game (USA).chd"), "old bytes")
	transcoded := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "Game (USA).chd"), "new bytes")

	item := &queue.Item{
		ID:             4,
		StagedPath:     transcoded,
		DisplayName:    "game",
		PreferredName:  "Game (USA)",
		Console:        "ps2",
		TranscodedFile: transcoded,
		Status:         queue.StatusOrganizing,
	}
	if err := org.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := filepath.Join(cfg.Paths.LibraryDir, "PlayStation 2", "Game (USA) (2).chd")
	if item.FinalFile != want {
		t.Fatalf("final file = %q, want %q", item.FinalFile, want)
	}
	old, err := os.ReadFile(filepath.Join(cfg.Paths.LibraryDir, "PlayStation 2", "Game (USA).chd"))
	if err != nil || string(old) != "old bytes" {
		t.Fatalf("original library file disturbed: %v (%q)", err, old)
	}
}

func TestExecuteCollisionSkipParksForReview(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCollisionPolicy("skip"))
	org := organizer.New(cfg, logging.NewNop())

	writeStaging(t, filepath.Join(cfg.Paths.LibraryDir, "PlayStation 2", "Game (USA).chd"), "old bytes")
	transcoded := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "Game (USA).chd"), "new bytes")

	item := &queue.Item{
		ID:             5,
		StagedPath:     transcoded,
		DisplayName:    "game",
		PreferredName:  "Game (USA)",
		Console:        "ps2",
		TranscodedFile: transcoded,
		Status:         queue.StatusOrganizing,
	}
	err := org.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrDestinationCollision) {
		t.Fatalf("expected ErrDestinationCollision, got %v", err)
	}
	if !services.NeedsReview(err) {
		t.Fatal("collisions should park for review")
	}
	if _, statErr := os.Stat(transcoded); statErr != nil {
		t.Fatalf("staged transcode should survive a skip: %v", statErr)
	}
}

func TestExecuteRequiresTranscodedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organizer.New(cfg, logging.NewNop())

	item := &queue.Item{ID: 6, DisplayName: "game", Console: "ps2", Status: queue.StatusOrganizing}
	err := org.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestExecuteUnknownConsole(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organizer.New(cfg, logging.NewNop())

	transcoded := writeStaging(t, filepath.Join(cfg.Paths.StagingDir, "mystery.chd"), "bytes")
	item := &queue.Item{
		ID:             7,
		StagedPath:     transcoded,
		DisplayName:    "mystery",
		Console:        "",
		TranscodedFile: transcoded,
		Status:         queue.StatusOrganizing,
	}
	err := org.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org := organizer.New(cfg, logging.NewNop())
	if health := org.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}
}
