// Package cuesheets parses, canonicalizes, and verifies CD cuesheets.
//
// Dumpers rename track files freely, so two valid dumps of the same disc
// rarely carry byte-identical cuesheets. Neutralize strips a sheet down to
// its structural commands and masks the file stems, giving a stable form
// whose SHA-1 can be matched against the Redump cuesheet bundles imported by
// the Store.
package cuesheets
