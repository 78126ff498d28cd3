// Package logging builds the slog loggers used across ndump.
//
// It provides console and JSON handlers, attr helpers so call sites avoid
// importing log/slog directly, and context plumbing that carries queue item
// IDs, stage names, lanes, and correlation identifiers into every record
// emitted while a stage runs.
package logging
