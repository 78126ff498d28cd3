package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ndump/internal/config"
	"ndump/internal/logging"
	"ndump/internal/queue"
	"ndump/internal/services"
	"ndump/internal/services/chdman"
	"ndump/internal/services/dolphin"
	"ndump/internal/sniff"
	"ndump/internal/stage"
	"ndump/internal/textutil"
)

// Transcoder is the stage handler that compresses identified dumps.
type Transcoder struct {
	cfg     *config.Config
	chdman  chdman.Client
	dolphin dolphin.Client
	logger  *slog.Logger
}

// New constructs the transcode stage with production tool clients configured
// from the transcode settings.
func New(cfg *config.Config, logger *slog.Logger) *Transcoder {
	return NewWithClients(
		cfg,
		chdman.NewCLI(
			chdman.WithBinary(cfg.ChdmanBinary()),
			chdman.WithCodecs(cfg.Transcode.CHDCodecs),
			chdman.WithHunkSize(cfg.Transcode.CHDHunkSize),
		),
		dolphin.NewCLI(
			dolphin.WithBinary(cfg.DolphinToolBinary()),
			dolphin.WithCompression(cfg.Transcode.RVZCodec, cfg.Transcode.RVZCompressionLevel),
			dolphin.WithBlockSize(cfg.Transcode.RVZBlockSize),
		),
		logger,
	)
}

// NewWithClients constructs the stage with explicit tool clients.
func NewWithClients(cfg *config.Config, chdmanClient chdman.Client, dolphinClient dolphin.Client, logger *slog.Logger) *Transcoder {
	return &Transcoder{
		cfg:     cfg,
		chdman:  chdmanClient,
		dolphin: dolphinClient,
		logger:  logging.NewComponentLogger(logger, "transcode"),
	}
}

// Prepare resets progress before transcoding begins.
func (t *Transcoder) Prepare(_ context.Context, item *queue.Item) error {
	item.SetProgress("Transcoding", "Compressing dump", 0)
	return nil
}

// Execute compresses the staged dump into its target container and verifies
// the result before declaring success. On any failure the partial output is
// removed and the staged source left untouched.
func (t *Transcoder) Execute(ctx context.Context, item *queue.Item) error {
	if timeout := t.cfg.Transcode.ToolTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	target := sniff.Target(item.TranscodeTarget)
	switch target {
	case sniff.TargetNone:
		// Cartridge dumps and already-compressed containers pass through.
		item.TranscodedFile = item.StagedPath
		item.Status = queue.StatusTranscoded
		item.SetProgress("Transcoded", "No compression needed", 100)
		return nil
	case sniff.TargetCHDCD, sniff.TargetCHDDVD:
		return t.transcodeCHD(ctx, item, target)
	case sniff.TargetRVZ:
		return t.transcodeRVZ(ctx, item)
	default:
		return services.Wrap(services.ErrConfiguration, "transcode", "plan",
			fmt.Sprintf("Unknown transcode target %q", item.TranscodeTarget), nil)
	}
}

func (t *Transcoder) transcodeCHD(ctx context.Context, item *queue.Item, target sniff.Target) error {
	outputPath := t.outputPath(item, ".chd")

	var err error
	if target == sniff.TargetCHDCD {
		err = t.chdman.CreateCD(ctx, item.StagedPath, outputPath)
	} else {
		err = t.chdman.CreateDVD(ctx, item.StagedPath, outputPath)
	}
	if err != nil {
		t.discard(outputPath)
		return services.Wrap(services.ErrTranscodeFailed, "transcode", "chdman create",
			"CHD compression failed", err)
	}

	item.SetProgress("Transcoding", "Verifying CHD", 90)
	if err := t.chdman.Verify(ctx, outputPath); err != nil {
		t.discard(outputPath)
		return services.Wrap(services.ErrVerificationFailed, "transcode", "chdman verify",
			"CHD failed checksum verification", err)
	}

	info, err := t.chdman.Info(ctx, outputPath)
	if err != nil {
		t.discard(outputPath)
		return services.Wrap(services.ErrVerificationFailed, "transcode", "chdman info",
			"CHD metadata could not be read", err)
	}
	// For single-file ISO inputs the CHD's decompressed data hash must match
	// the source hash. Multi-track CD dumps hash per-track, so chdman's own
	// verification is the authority there.
	if target == sniff.TargetCHDDVD && item.SHA1 != "" && !strings.EqualFold(info.DataSHA1, item.SHA1) {
		t.discard(outputPath)
		return services.Wrap(services.ErrVerificationFailed, "transcode", "hash compare",
			fmt.Sprintf("CHD data hash %s does not match source %s", info.DataSHA1, item.SHA1), nil)
	}

	t.finish(item, outputPath, info.CHDSizeBytes)
	return nil
}

func (t *Transcoder) transcodeRVZ(ctx context.Context, item *queue.Item) error {
	outputPath := t.outputPath(item, ".rvz")

	if err := t.dolphin.ConvertToRVZ(ctx, item.StagedPath, outputPath); err != nil {
		t.discard(outputPath)
		return services.Wrap(services.ErrTranscodeFailed, "transcode", "dolphin convert",
			"RVZ conversion failed", err)
	}

	item.SetProgress("Transcoding", "Verifying RVZ", 90)
	digest, err := t.dolphin.VerifySHA1(ctx, outputPath)
	if err != nil {
		t.discard(outputPath)
		return services.Wrap(services.ErrVerificationFailed, "transcode", "dolphin verify",
			"RVZ could not be hashed", err)
	}
	if item.SHA1 != "" && !strings.EqualFold(digest, item.SHA1) {
		t.discard(outputPath)
		return services.Wrap(services.ErrVerificationFailed, "transcode", "hash compare",
			fmt.Sprintf("RVZ hash %s does not match source %s", digest, item.SHA1), nil)
	}

	var size int64
	if info, statErr := os.Stat(outputPath); statErr == nil {
		size = info.Size()
	}
	t.finish(item, outputPath, size)
	return nil
}

func (t *Transcoder) finish(item *queue.Item, outputPath string, outputSize int64) {
	item.TranscodedFile = outputPath
	item.Status = queue.StatusTranscoded
	item.SetProgress("Transcoded", filepath.Base(outputPath), 100)
	t.logger.Info("dump transcoded",
		logging.FieldItemID, item.ID,
		"output", outputPath,
		"output_bytes", outputSize,
		"source_bytes", item.SizeBytes)
}

// discard removes a partial output. Missing files are fine; anything else is
// logged because a stale partial would poison a retry.
func (t *Transcoder) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("partial output not removed", "path", path, logging.Error(err))
	}
}

// outputPath embeds the item ID so parallel workers handling same-named dumps
// (regional variants mostly) never write the same file. The organizer names
// the library copy from the item itself, so the suffix never leaves staging.
func (t *Transcoder) outputPath(item *queue.Item, ext string) string {
	name := item.PreferredName
	if name == "" {
		name = item.DisplayName
	}
	name = textutil.SanitizeFileName(name)
	return filepath.Join(t.cfg.Paths.StagingDir, fmt.Sprintf("%s [%d]%s", name, item.ID, ext))
}

// HealthCheck verifies both external tools are on PATH.
func (t *Transcoder) HealthCheck(_ context.Context) stage.Health {
	for _, binary := range []string{t.cfg.ChdmanBinary(), t.cfg.DolphinToolBinary()} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy("transcode", fmt.Sprintf("%s not found in PATH", binary))
		}
	}
	return stage.Healthy("transcode")
}

var _ stage.Handler = (*Transcoder)(nil)
