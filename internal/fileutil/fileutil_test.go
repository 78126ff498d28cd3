package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"ndump/internal/fileutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	writeFile(t, src, "payload bytes")

	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload bytes" {
		t.Fatalf("destination content = %q", data)
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := fileutil.CopyFileVerified(filepath.Join(dir, "absent"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.iso")
	dst := filepath.Join(dir, "sub", "dst.iso")
	writeFile(t, src, "disc image")

	if err := fileutil.MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source should be gone after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "disc image" {
		t.Fatalf("destination = %q, %v", data, err)
	}
}

func TestMoveFileRefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.iso")
	dst := filepath.Join(dir, "dst.iso")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	if err := fileutil.MoveFile(src, dst); err == nil {
		t.Fatal("expected error for existing destination")
	}
	// Neither file lost.
	if data, _ := os.ReadFile(dst); string(data) != "old" {
		t.Fatalf("destination was clobbered: %q", data)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source missing after refused move: %v", err)
	}
}
