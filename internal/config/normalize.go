package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeImport()
	c.normalizeTranscode()
	c.normalizeCatalog()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeImport() {
	c.Import.CollisionPolicy = strings.ToLower(strings.TrimSpace(c.Import.CollisionPolicy))
	if c.Import.CollisionPolicy == "" {
		c.Import.CollisionPolicy = defaultCollisionPolicy
	}
	if c.Import.MaxArchiveEntryGiB <= 0 {
		c.Import.MaxArchiveEntryGiB = defaultMaxArchiveEntryGiB
	}
}

func (c *Config) normalizeTranscode() {
	if c.Transcode.Workers <= 0 {
		c.Transcode.Workers = defaultTranscodeWorkers
	}
	if c.Transcode.ToolTimeout <= 0 {
		c.Transcode.ToolTimeout = defaultToolTimeoutSeconds
	}
	c.Transcode.RVZCodec = strings.ToLower(strings.TrimSpace(c.Transcode.RVZCodec))
	if c.Transcode.RVZCodec == "" {
		c.Transcode.RVZCodec = defaultRVZCodec
	}
	if c.Transcode.RVZCompressionLevel <= 0 {
		c.Transcode.RVZCompressionLevel = defaultRVZCompressionLevel
	}
	if c.Transcode.RVZBlockSize <= 0 {
		c.Transcode.RVZBlockSize = defaultRVZBlockSize
	}
	normalized := make([]string, 0, len(c.Transcode.CHDCodecs))
	for _, codec := range c.Transcode.CHDCodecs {
		codec = strings.ToLower(strings.TrimSpace(codec))
		if codec != "" {
			normalized = append(normalized, codec)
		}
	}
	c.Transcode.CHDCodecs = normalized
}

func (c *Config) normalizeCatalog() {
	if c.Catalog.UpdateIntervalDays <= 0 {
		c.Catalog.UpdateIntervalDays = defaultCatalogIntervalDays
	}
	normalized := make([]string, 0, len(c.Catalog.Consoles))
	for _, console := range c.Catalog.Consoles {
		console = strings.ToLower(strings.TrimSpace(console))
		if console != "" {
			normalized = append(normalized, console)
		}
	}
	c.Catalog.Consoles = normalized
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
