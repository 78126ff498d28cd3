package catalog

import (
	"fmt"
	"strings"
)

// ROM names inside a DAT repeat the game name almost verbatim, so they are
// stored compressed against it. A stored name of "#" means exactly the game
// name; "$c", "$i", "$b" mean game name plus .cue/.iso/.bin; "$T<n>" means
// the game's numbered track file. Anything else is kept as written.

// CompressROMName reduces a rom name relative to its game name.
func CompressROMName(gameName, romName string) string {
	if romName == gameName {
		return "#"
	}
	switch romName {
	case gameName + ".cue":
		return "$c"
	case gameName + ".iso":
		return "$i"
	case gameName + ".bin":
		return "$b"
	}
	prefix := gameName + " (Track "
	if strings.HasPrefix(romName, prefix) && strings.HasSuffix(romName, ").bin") {
		track := strings.TrimSuffix(strings.TrimPrefix(romName, prefix), ").bin")
		if track != "" && isDigits(track) {
			return "$T" + track
		}
	}
	return romName
}

// ExpandROMName restores a compressed rom name.
func ExpandROMName(gameName, stored string) string {
	switch {
	case stored == "#":
		return gameName
	case stored == "$c":
		return gameName + ".cue"
	case stored == "$i":
		return gameName + ".iso"
	case stored == "$b":
		return gameName + ".bin"
	case strings.HasPrefix(stored, "$T"):
		track := stored[2:]
		if track != "" && isDigits(track) {
			return fmt.Sprintf("%s (Track %s).bin", gameName, track)
		}
	}
	return stored
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
