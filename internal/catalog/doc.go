// Package catalog maintains a local database of known-good dump hashes built
// from Logiqx DAT files.
//
// DATs come from Redump (disc consoles) and No-Intro (cartridge consoles) and
// are imported into SQLite keyed by SHA-1. The identification stage consults
// the catalog to confirm a sniffed format and to recover the canonical release
// name for library placement. ROM names are stored compressed against their
// game name to keep the database small; see naming.go for the scheme.
package catalog
