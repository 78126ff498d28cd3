package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ndump/internal/config"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config")
	}
	if cfg.Transcode.Workers != 2 {
		t.Fatalf("default workers = %d", cfg.Transcode.Workers)
	}
	if cfg.Import.CollisionPolicy != "rename" {
		t.Fatalf("default collision policy = %q", cfg.Import.CollisionPolicy)
	}
	if !filepath.IsAbs(cfg.Paths.StagingDir) {
		t.Fatalf("staging dir not expanded: %q", cfg.Paths.StagingDir)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"
library_dir = "` + filepath.Join(dir, "library") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
data_dir = "` + filepath.Join(dir, "data") + `"

[import]
collision_policy = "SKIP"

[transcode]
workers = 4
chd_codecs = ["CDZS", "cdfl"]

[catalog]
consoles = ["psx", "GC"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Import.CollisionPolicy != "skip" {
		t.Fatalf("collision policy not normalized: %q", cfg.Import.CollisionPolicy)
	}
	if cfg.Transcode.Workers != 4 {
		t.Fatalf("workers = %d", cfg.Transcode.Workers)
	}
	if got := strings.Join(cfg.Transcode.CHDCodecs, ","); got != "cdzs,cdfl" {
		t.Fatalf("chd codecs = %q", got)
	}
	if got := strings.Join(cfg.Catalog.Consoles, ","); got != "psx,gc" {
		t.Fatalf("catalog consoles = %q", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []string{
		"[import]\ncollision_policy = \"overwrite\"\n",
		"[transcode]\nchd_codecs = [\"mp3\"]\n",
		"[transcode]\nrvz_codec = \"brotli\"\n",
		"[catalog]\nconsoles = [\"atari2600\"]\n",
		"[logging]\nformat = \"xml\"\n",
	}
	for _, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, _, _, err := config.Load(path); err == nil {
			t.Fatalf("expected validation error for config:\n%s", content)
		}
	}
}

func TestStagingMustDifferFromLibrary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + dir + `"
library_dir = "` + dir + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error when staging and library dirs match")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.LibraryDir = filepath.Join(dir, "library")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.DataDir = filepath.Join(dir, "data")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, d := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Paths.DataDir, cfg.Paths.LibraryDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", d, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[transcode]") {
		t.Fatal("sample config missing transcode section")
	}
}
