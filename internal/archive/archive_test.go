package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
)

func writeZipFixture(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip fixture: %v", err)
	}
}

func readEntry(t *testing.T, entry Entry) []byte {
	t.Helper()
	rc, err := entry.Open()
	if err != nil {
		t.Fatalf("open entry %s: %v", entry.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry %s: %v", entry.Name, err)
	}
	return data
}

func TestOpenPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.iso")
	payload := []byte("plain payload")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer reader.Close()

	entries := reader.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "game.iso" {
		t.Fatalf("expected entry name game.iso, got %s", entries[0].Name)
	}
	if entries[0].Size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), entries[0].Size)
	}
	if got := readEntry(t, entries[0]); !bytes.Equal(got, payload) {
		t.Fatalf("entry contents mismatch: %q", got)
	}
}

func TestOpenZipArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.zip")
	writeZipFixture(t, path, map[string][]byte{
		"Game (USA).iso": []byte("iso data"),
		"readme.txt":     []byte("notes"),
	})

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer reader.Close()

	entries := reader.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	byName := make(map[string][]byte)
	for _, entry := range entries {
		byName[entry.Name] = readEntry(t, entry)
	}
	if !bytes.Equal(byName["Game (USA).iso"], []byte("iso data")) {
		t.Fatalf("iso entry contents mismatch: %q", byName["Game (USA).iso"])
	}
	if !bytes.Equal(byName["readme.txt"], []byte("notes")) {
		t.Fatalf("readme entry contents mismatch: %q", byName["readme.txt"])
	}
}

func TestZipEntriesReopenable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.zip")
	writeZipFixture(t, path, map[string][]byte{"track.bin": []byte("raw sectors")})

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer reader.Close()

	entry := reader.Entries()[0]
	first := readEntry(t, entry)
	second := readEntry(t, entry)
	if !bytes.Equal(first, second) {
		t.Fatal("expected identical contents across reopens")
	}
}

func TestOpenCorruptZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.zip")
	if err := os.WriteFile(path, []byte("this is not a zip file"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestOpenLZ4Frame(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Game (Europe).iso.lz4")
	payload := bytes.Repeat([]byte("sector data "), 512)

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("write lz4 payload: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close lz4 writer: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write lz4 fixture: %v", err)
	}

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer reader.Close()

	entries := reader.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "Game (Europe).iso" {
		t.Fatalf("expected inner name Game (Europe).iso, got %s", entries[0].Name)
	}
	if got := readEntry(t, entries[0]); !bytes.Equal(got, payload) {
		t.Fatalf("decompressed contents mismatch (%d bytes)", len(got))
	}
}

func TestOpenCorruptLZ4(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.lz4")
	if err := os.WriteFile(path, []byte("no frame magic here"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestOpenDirectoryRejected(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(dir); err == nil {
		t.Fatal("expected error opening a directory")
	}
}

func TestIsArchivePath(t *testing.T) {
	cases := map[string]bool{
		"dump.zip":      true,
		"dump.7Z":       true,
		"game.iso.lz4":  true,
		"game.iso":      false,
		"track 01.bin":  false,
		"cuesheet.cue":  false,
		"archive.tar":   false,
	}
	for path, want := range cases {
		if got := IsArchivePath(path); got != want {
			t.Errorf("IsArchivePath(%q) = %v, want %v", path, got, want)
		}
	}
}
