// Package archive provides a uniform reader over plain files and archive
// containers (zip, 7z, lz4 frames), exposing a lazy sequence of named byte
// streams.
//
// Entries are opened on demand and may be opened more than once, so callers
// can sniff a bounded prefix first and stage the full contents later without
// extracting the whole container up front. Corrupt or unrecognized
// containers fail with ErrUnsupported.
package archive
