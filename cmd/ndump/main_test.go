package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	contents := fmt.Sprintf(`[paths]
staging_dir = %q
library_dir = %q
log_dir = %q
data_dir = %q

[catalog]
enabled = false

[logging]
format = "console"
level = "error"
`,
		filepath.Join(base, "staging"),
		filepath.Join(base, "library"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "data"),
	)
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestQueueListEmpty(t *testing.T) {
	configPath := writeTestConfig(t)
	out, err := runCommand(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestImportThenList(t *testing.T) {
	configPath := writeTestConfig(t)

	dumpDir := t.TempDir()
	dumpPath := filepath.Join(dumpDir, "homebrew.gba")
	if err := os.WriteFile(dumpPath, bytes.Repeat([]byte{0x42}, 512), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}

	out, err := runCommand(t, configPath, "import", dumpPath)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Enqueued 1 dump(s)") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out, err = runCommand(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "homebrew") || !strings.Contains(out, "pending") {
		t.Fatalf("expected pending item in listing, got: %q", out)
	}
}

func TestQueueHealthCounts(t *testing.T) {
	configPath := writeTestConfig(t)
	out, err := runCommand(t, configPath, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	if !strings.Contains(out, "Total:      0") {
		t.Fatalf("unexpected health output: %q", out)
	}
}

func TestQueueClear(t *testing.T) {
	configPath := writeTestConfig(t)

	dumpDir := t.TempDir()
	dumpPath := filepath.Join(dumpDir, "cart.gba")
	if err := os.WriteFile(dumpPath, bytes.Repeat([]byte{0x13}, 256), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	if _, err := runCommand(t, configPath, "import", dumpPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, err := runCommand(t, configPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 item(s)") {
		t.Fatalf("unexpected clear output: %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "ndump.toml")

	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config written: %v", err)
	}

	configPath := writeTestConfig(t)
	out, err := runCommand(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "collision_policy:   rename") {
		t.Fatalf("unexpected show output: %q", out)
	}
}

func TestVerifyCueChecksTrackFiles(t *testing.T) {
	configPath := writeTestConfig(t)

	dir := t.TempDir()
	cuePath := filepath.Join(dir, "Disc Game.cue")
	cueText := `FILE "Disc Game (Track 1).bin" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
`
	if err := os.WriteFile(cuePath, []byte(cueText), 0o644); err != nil {
		t.Fatalf("write cue: %v", err)
	}

	// The referenced track does not exist yet, so verification must fail.
	out, err := runCommand(t, configPath, "verify", cuePath)
	if err == nil {
		t.Fatalf("expected verification failure, got: %q", out)
	}
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "Disc Game (Track 1).bin") {
		t.Fatalf("unexpected verify output: %q", out)
	}

	trackPath := filepath.Join(dir, "Disc Game (Track 1).bin")
	if err := os.WriteFile(trackPath, []byte("raw sector data"), 0o644); err != nil {
		t.Fatalf("write track: %v", err)
	}
	out, err = runCommand(t, configPath, "verify", cuePath)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK") {
		t.Fatalf("expected OK once tracks exist, got: %q", out)
	}
}

func TestIdentifyUnknownFile(t *testing.T) {
	configPath := writeTestConfig(t)

	dumpDir := t.TempDir()
	path := filepath.Join(dumpDir, "mystery.bin")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x00}, 1024), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	out, err := runCommand(t, configPath, "identify", path)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !strings.Contains(out, "Format: unknown") {
		t.Fatalf("unexpected identify output: %q", out)
	}
}
