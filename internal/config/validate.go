package config

import (
	"fmt"
	"strings"

	"ndump/internal/consoles"
)

var chdCodecs = map[string]struct{}{
	"zlib": {}, "zstd": {}, "lzma": {}, "huff": {}, "flac": {},
	"cdzl": {}, "cdzs": {}, "cdlz": {}, "cdfl": {}, "avhu": {},
}

var rvzCodecs = map[string]struct{}{
	"none": {}, "zstd": {}, "bzip2": {}, "lzma": {}, "lzma2": {},
}

// Validate checks configuration invariants that normalization cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		problems = append(problems, "paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		problems = append(problems, "paths.staging_dir must be set")
	}
	if c.Paths.StagingDir != "" && c.Paths.StagingDir == c.Paths.LibraryDir {
		problems = append(problems, "paths.staging_dir and paths.library_dir must differ")
	}

	switch c.Import.CollisionPolicy {
	case CollisionSkip, CollisionRename:
	default:
		problems = append(problems, fmt.Sprintf("import.collision_policy: unsupported value %q (use \"skip\" or \"rename\")", c.Import.CollisionPolicy))
	}

	for _, codec := range c.Transcode.CHDCodecs {
		if _, ok := chdCodecs[codec]; !ok {
			problems = append(problems, fmt.Sprintf("transcode.chd_codecs: unknown codec %q", codec))
		}
	}
	if _, ok := rvzCodecs[c.Transcode.RVZCodec]; !ok {
		problems = append(problems, fmt.Sprintf("transcode.rvz_codec: unknown codec %q", c.Transcode.RVZCodec))
	}
	if c.Transcode.RVZCompressionLevel > 22 {
		problems = append(problems, "transcode.rvz_compression_level: must be 22 or lower")
	}

	for _, slug := range c.Catalog.Consoles {
		if _, ok := consoles.Parse(slug); !ok {
			problems = append(problems, fmt.Sprintf("catalog.consoles: unknown console %q", slug))
		}
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
