package cuesheets_test

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ndump/internal/consoles"
	"ndump/internal/cuesheets"
	"ndump/internal/testsupport"
)

const sampleCue = `FILE "Disc Game (Europe) (Track 1).bin" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
FILE "Disc Game (Europe) (Track 2).bin" BINARY
  TRACK 02 AUDIO
    PREGAP 00:02:00
    INDEX 01 00:00:00
`

func TestTrackFilenames(t *testing.T) {
	names := cuesheets.TrackFilenames(sampleCue)
	want := []string{
		"Disc Game (Europe) (Track 1).bin",
		"Disc Game (Europe) (Track 2).bin",
	}
	if len(names) != len(want) {
		t.Fatalf("expected %d files, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("file %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestNeutralizeMasksStems(t *testing.T) {
	neutral := cuesheets.Neutralize(sampleCue)
	if bytes.Contains([]byte(neutral), []byte("Disc Game")) {
		t.Fatalf("expected stems masked, got:\n%s", neutral)
	}
	if !bytes.Contains([]byte(neutral), []byte(`FILE "$.bin" BINARY`)) {
		t.Fatalf("expected masked FILE line, got:\n%s", neutral)
	}
	if !bytes.Contains([]byte(neutral), []byte("PREGAP 00:02:00")) {
		t.Fatalf("expected PREGAP preserved, got:\n%s", neutral)
	}
}

func TestNeutralizeStableAcrossRenames(t *testing.T) {
	renamed := `REM dumped with some tool
FILE "my_rip_t1.bin" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
FILE "my_rip_t2.bin" BINARY
  TRACK 02 AUDIO
    PREGAP 00:02:00
    INDEX 01 00:00:00
`
	if cuesheets.SHA1(sampleCue) != cuesheets.SHA1(renamed) {
		t.Fatal("expected identical hashes for renamed track files")
	}
}

func TestValidate(t *testing.T) {
	if err := cuesheets.Validate(sampleCue); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := cuesheets.Validate("REM nothing here"); err == nil {
		t.Fatal("expected error for empty cuesheet")
	}
	missingIndex := `FILE "$.bin" BINARY
  TRACK 01 MODE1/2352
  TRACK 02 AUDIO
    INDEX 01 00:00:00
`
	if err := cuesheets.Validate(missingIndex); err == nil {
		t.Fatal("expected error for track without index")
	}
}

func TestStoreImportAndMatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := cuesheets.Open(cfg)
	if err != nil {
		t.Fatalf("cuesheets.Open: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	err = store.ImportBundle(ctx, consoles.PSX, map[string]string{
		"Disc Game (Europe)": sampleCue,
	})
	if err != nil {
		t.Fatalf("ImportBundle: %v", err)
	}

	candidate := `FILE "renamed1.bin" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
FILE "renamed2.bin" BINARY
  TRACK 02 AUDIO
    PREGAP 00:02:00
    INDEX 01 00:00:00
`
	match, err := store.MatchCue(ctx, candidate)
	if err != nil {
		t.Fatalf("MatchCue: %v", err)
	}
	if match == nil {
		t.Fatal("expected cue match")
	}
	if match.Console != consoles.PSX || match.GameName != "Disc Game (Europe)" {
		t.Fatalf("unexpected match %+v", match)
	}

	miss, err := store.MatchCue(ctx, `FILE "x.bin" BINARY
  TRACK 01 AUDIO
    INDEX 01 00:00:00
`)
	if err != nil {
		t.Fatalf("MatchCue: %v", err)
	}
	if miss != nil {
		t.Fatalf("expected no match, got %+v", miss)
	}
}

func TestBundleClientFetchBundle(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("Disc Game (Europe).cue")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(sampleCue)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cues/psx/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	client := cuesheets.NewBundleClient()
	client.BaseURL = server.URL

	cues, err := client.FetchBundle(context.Background(), consoles.PSX)
	if err != nil {
		t.Fatalf("FetchBundle: %v", err)
	}
	if cues["Disc Game (Europe)"] != sampleCue {
		t.Fatalf("unexpected bundle contents: %v", cues)
	}
}

func TestBundleClientRejectsDVDConsole(t *testing.T) {
	client := cuesheets.NewBundleClient()
	if _, err := client.FetchBundle(context.Background(), consoles.PS2); err == nil {
		t.Fatal("expected error for console without a cue bundle")
	}
}
