// Package consoles enumerates the game systems ndump understands and the
// identifiers external catalogs use for them.
package consoles

import "strings"

// Console identifies a game system. The zero value means unknown.
type Console string

const (
	Dreamcast Console = "dreamcast"
	GB        Console = "gb"
	GBA       Console = "gba"
	GBC       Console = "gbc"
	GameCube  Console = "gc"
	N64       Console = "n64"
	PSX       Console = "psx"
	PS2       Console = "ps2"
	PS3       Console = "ps3"
	PSP       Console = "psp"
	Wii       Console = "wii"
	WiiU      Console = "wiiu"
	Xbox      Console = "xbox"
	Xbox360   Console = "xbox360"
)

var all = []Console{
	Dreamcast, GB, GBA, GBC, GameCube, N64,
	PSX, PS2, PS3, PSP, Wii, WiiU, Xbox, Xbox360,
}

var formalNames = map[Console]string{
	Dreamcast: "Dreamcast",
	GB:        "Game Boy",
	GBA:       "Game Boy Advance",
	GBC:       "Game Boy Color",
	GameCube:  "GameCube",
	N64:       "Nintendo 64",
	PSX:       "PlayStation",
	PS2:       "PlayStation 2",
	PS3:       "PlayStation 3",
	PSP:       "PlayStation Portable",
	Wii:       "Wii",
	WiiU:      "Wii U",
	Xbox:      "Xbox",
	Xbox360:   "Xbox 360",
}

// Redump indexes disc-based systems only.
var redumpSlugs = map[Console]string{
	Dreamcast: "dc",
	GameCube:  "gc",
	PSX:       "psx",
	PS2:       "ps2",
	PS3:       "ps3",
	PSP:       "psp",
	Wii:       "wii",
	Xbox:      "xbox",
	Xbox360:   "xbox360",
}

// Redump publishes cuesheet bundles only for CD-based systems.
var redumpCueSlugs = map[Console]string{
	Dreamcast: "dc",
	PSX:       "psx",
}

// No-Intro covers cartridge systems.
var noIntroNames = map[Console]string{
	GB:  "Nintendo - Game Boy",
	GBA: "Nintendo - Game Boy Advance",
	GBC: "Nintendo - Game Boy Color",
	N64: "Nintendo - Nintendo 64",
}

// All returns every known console in stable order.
func All() []Console {
	cp := make([]Console, len(all))
	copy(cp, all)
	return cp
}

// Parse converts a slug into a known Console.
func Parse(value string) (Console, bool) {
	normalized := Console(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := formalNames[normalized]; ok {
		return normalized, true
	}
	return "", false
}

// FormalName returns the display name used for library folders.
func (c Console) FormalName() string {
	if name, ok := formalNames[c]; ok {
		return name
	}
	return "Unknown"
}

// RedumpSlug returns the Redump datfile slug for disc-based consoles.
func (c Console) RedumpSlug() (string, bool) {
	slug, ok := redumpSlugs[c]
	return slug, ok
}

// RedumpCueSlug returns the Redump cuesheet bundle slug for CD-based consoles.
func (c Console) RedumpCueSlug() (string, bool) {
	slug, ok := redumpCueSlugs[c]
	return slug, ok
}

// NoIntroName returns the No-Intro datfile name for cartridge consoles.
func (c Console) NoIntroName() (string, bool) {
	name, ok := noIntroNames[c]
	return name, ok
}

// DiscBased reports whether dumps for this console are optical media images.
func (c Console) DiscBased() bool {
	_, ok := redumpSlugs[c]
	return ok
}
