// Package config loads, validates, and normalizes ndump's TOML
// configuration.
//
// Load resolves the config path (explicit flag, ~/.config/ndump/config.toml,
// then ./ndump.toml), decodes over Default() so absent keys keep their
// defaults, expands ~ in all path fields, and rejects configurations that
// normalization cannot repair.
package config
