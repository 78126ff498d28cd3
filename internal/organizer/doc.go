// Package organizer files verified transcodes into the library under
// library/<console>/<release name><ext>.
//
// The organizer never overwrites. Identical contents deduplicate silently;
// a different file at the destination follows the configured collision
// policy, either skipping to review or appending a numeric suffix. The
// workflow runs a single organize worker, so destination allocation is
// naturally serialized.
package organizer
