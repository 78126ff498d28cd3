package dolphin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Client defines dolphin-tool conversion behaviour.
type Client interface {
	ConvertToRVZ(ctx context.Context, inputPath, outputPath string) error
	VerifySHA1(ctx context.Context, path string) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithCompression sets the RVZ codec and level.
func WithCompression(codec string, level int) Option {
	return func(c *CLI) {
		if codec != "" {
			c.codec = codec
		}
		if level > 0 {
			c.level = level
		}
	}
}

// WithBlockSize sets the RVZ block size in bytes.
func WithBlockSize(size int) Option {
	return func(c *CLI) {
		if size > 0 {
			c.blockSize = size
		}
	}
}

// CLI wraps the dolphin-tool command-line utility shipped with Dolphin.
type CLI struct {
	binary    string
	codec     string
	level     int
	blockSize int
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{
		binary:    "dolphin-tool",
		codec:     "zstd",
		level:     5,
		blockSize: 131072,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// ConvertToRVZ converts a GameCube or Wii ISO into an RVZ image.
func (c *CLI) ConvertToRVZ(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	args := []string{
		"convert",
		"-i", inputPath,
		"-o", outputPath,
		"-f", "rvz",
		"-c", c.codec,
		"-l", strconv.Itoa(c.level),
		"-b", strconv.Itoa(c.blockSize),
	}
	output, err := c.run(ctx, args)
	if err != nil {
		return fmt.Errorf("dolphin-tool convert: %w: %s", err, lastLine(output))
	}
	return nil
}

// VerifySHA1 computes the decompressed SHA-1 digest of a disc image.
// dolphin-tool prints the bare hex digest on stdout.
func (c *CLI) VerifySHA1(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", errors.New("path required")
	}

	args := []string{"verify", "-i", path, "-a", "sha1"}
	output, err := c.run(ctx, args)
	if err != nil {
		return "", fmt.Errorf("dolphin-tool verify: %w: %s", err, lastLine(output))
	}

	digest := strings.ToLower(strings.TrimSpace(output))
	if !isHexDigest(digest) {
		return "", fmt.Errorf("dolphin-tool verify returned unexpected output: %s", lastLine(output))
	}
	return digest, nil
}

func (c *CLI) run(ctx context.Context, args []string) (string, error) {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

func isHexDigest(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return "no output"
}

var _ Client = (*CLI)(nil)
