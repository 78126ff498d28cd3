// Package dolphin wraps dolphin-tool, the command-line utility bundled with
// the Dolphin emulator, for converting GameCube and Wii ISOs to RVZ and for
// hashing images through its verify subcommand.
package dolphin
