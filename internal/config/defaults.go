package config

// Accepted values for Import.CollisionPolicy.
const (
	CollisionSkip   = "skip"
	CollisionRename = "rename"
)

const (
	defaultStagingDir          = "~/.local/share/ndump/staging"
	defaultLibraryDir          = "~/games"
	defaultLogDir              = "~/.local/share/ndump/logs"
	defaultDataDir             = "~/.local/share/ndump/data"
	defaultCollisionPolicy     = CollisionRename
	defaultMaxArchiveEntryGiB  = 60
	defaultTranscodeWorkers    = 2
	defaultCHDHunkSize         = 0 // chdman's own default
	defaultRVZCodec            = "zstd"
	defaultRVZCompressionLevel = 5
	defaultRVZBlockSize        = 131072
	defaultToolTimeoutSeconds  = 7200
	defaultCatalogIntervalDays = 7
	defaultQueuePollInterval   = 2
	defaultErrorRetryInterval  = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			DataDir:    defaultDataDir,
		},
		Import: Import{
			CollisionPolicy:    defaultCollisionPolicy,
			MaxArchiveEntryGiB: defaultMaxArchiveEntryGiB,
		},
		Transcode: Transcode{
			Workers:             defaultTranscodeWorkers,
			CHDCodecs:           nil, // chdman picks per-media defaults
			CHDHunkSize:         defaultCHDHunkSize,
			RVZCodec:            defaultRVZCodec,
			RVZCompressionLevel: defaultRVZCompressionLevel,
			RVZBlockSize:        defaultRVZBlockSize,
			ToolTimeout:         defaultToolTimeoutSeconds,
		},
		Catalog: Catalog{
			Enabled:            true,
			UpdateIntervalDays: defaultCatalogIntervalDays,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
