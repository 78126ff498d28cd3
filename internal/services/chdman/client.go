package chdman

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Client defines chdman compression behaviour.
type Client interface {
	CreateCD(ctx context.Context, cuePath, chdPath string) error
	CreateDVD(ctx context.Context, isoPath, chdPath string) error
	ExtractCD(ctx context.Context, chdPath, cuePath string) error
	Verify(ctx context.Context, chdPath string) error
	Info(ctx context.Context, chdPath string) (*Info, error)
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

// WithCodecs overrides the compression codec chain passed via -c.
func WithCodecs(codecs []string) Option {
	return func(c *CLI) {
		if len(codecs) > 0 {
			c.codecs = append([]string(nil), codecs...)
		}
	}
}

// WithHunkSize overrides the hunk size passed via -hs. Zero keeps chdman's default.
func WithHunkSize(size int) Option {
	return func(c *CLI) {
		if size > 0 {
			c.hunkSize = size
		}
	}
}

// CLI wraps the chdman command-line tool from MAME.
type CLI struct {
	binary   string
	codecs   []string
	hunkSize int
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "chdman"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// CreateCD compresses a cue/bin dump into a CD CHD. chdman reports success
// with "Compression complete" on stderr; a zero exit without that marker is
// treated as failure.
func (c *CLI) CreateCD(ctx context.Context, cuePath, chdPath string) error {
	if cuePath == "" {
		return errors.New("cue path required")
	}
	if chdPath == "" {
		return errors.New("chd path required")
	}
	return c.create(ctx, "createcd", cuePath, chdPath)
}

// CreateDVD compresses an ISO dump into a DVD CHD.
func (c *CLI) CreateDVD(ctx context.Context, isoPath, chdPath string) error {
	if isoPath == "" {
		return errors.New("iso path required")
	}
	if chdPath == "" {
		return errors.New("chd path required")
	}
	return c.create(ctx, "createdvd", isoPath, chdPath)
}

func (c *CLI) create(ctx context.Context, subcommand, inputPath, outputPath string) error {
	args := []string{subcommand, "-i", inputPath, "-o", outputPath, "--force"}
	if len(c.codecs) > 0 {
		args = append(args, "-c", strings.Join(c.codecs, ","))
	}
	if c.hunkSize > 0 {
		args = append(args, "-hs", fmt.Sprintf("%d", c.hunkSize))
	}

	output, err := c.run(ctx, args)
	if err != nil {
		return fmt.Errorf("chdman %s: %w: %s", subcommand, err, lastLine(output))
	}
	if !strings.Contains(output, "Compression complete") {
		return fmt.Errorf("chdman %s did not report completion: %s", subcommand, lastLine(output))
	}
	return nil
}

// ExtractCD decompresses a CD CHD back to cue/bin.
func (c *CLI) ExtractCD(ctx context.Context, chdPath, cuePath string) error {
	if chdPath == "" {
		return errors.New("chd path required")
	}
	if cuePath == "" {
		return errors.New("cue path required")
	}

	args := []string{"extractcd", "-i", chdPath, "-o", cuePath, "--force"}
	output, err := c.run(ctx, args)
	if err != nil {
		return fmt.Errorf("chdman extractcd: %w: %s", err, lastLine(output))
	}
	if strings.Contains(output, "Error:") {
		return fmt.Errorf("chdman extractcd: %s", lastLine(output))
	}
	if !strings.Contains(output, "Extraction complete") {
		return fmt.Errorf("chdman extractcd did not report completion: %s", lastLine(output))
	}
	return nil
}

// Verify runs chdman's internal checksum verification.
func (c *CLI) Verify(ctx context.Context, chdPath string) error {
	if chdPath == "" {
		return errors.New("chd path required")
	}

	args := []string{"verify", "-i", chdPath}
	output, err := c.run(ctx, args)
	if err != nil {
		return fmt.Errorf("chdman verify: %w: %s", err, lastLine(output))
	}
	if !strings.Contains(output, "verification successful") {
		return fmt.Errorf("chdman verify did not report success: %s", lastLine(output))
	}
	return nil
}

// run executes chdman with combined output capture. chdman writes progress
// and result markers to stderr, so stdout and stderr are merged.
func (c *CLI) run(ctx context.Context, args []string) (string, error) {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
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
