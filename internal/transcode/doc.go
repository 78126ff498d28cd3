// Package transcode compresses identified dumps into their archival
// containers: CHD for optical disc images via chdman, RVZ for GameCube and
// Wii images via dolphin-tool. Cartridge dumps and already-compressed
// containers pass through unchanged.
//
// Verification is not optional. Every produced container is checked with the
// tool's own verifier and, where the source is a single file, its
// decompressed hash is compared against the source SHA-1. A dump that cannot
// be verified is treated as failed and its partial output removed.
package transcode
