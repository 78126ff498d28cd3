// Package services defines shared utilities consumed by the workflow stage
// handlers and external-tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - The error taxonomy for the pipeline (unreadable sources, unsupported
//     archives, unknown formats, transcode and verification failures,
//     destination collisions) plus the Wrap helper that tags failures for
//     consistent status mapping.
//   - Thin abstractions that make command execution from external tools
//     (chdman, dolphin-tool) testable.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
