// Package ingest turns raw input paths into queued dumps.
//
// Inputs may be plain dump files, directories, or archives. Each candidate is
// streamed into the staging directory while its SHA-1 is computed, duplicate
// hashes are dropped, and cuesheet track files travel with their sheet so the
// staged dump is complete. The importer never modifies sources unless
// remove_source is enabled, and a failure on one input never aborts the
// batch.
package ingest
