package sniff

import "ndump/internal/consoles"

// Magic-byte signatures, checked against a bounded header prefix.
//
// A signature matches when every byte at offset is present and equal. The
// most specific match (largest total magic length) wins; exact ties between
// different formats are reported as unknown rather than guessed.
type signature struct {
	offset int64
	magic  []byte
	format Format
}

const (
	// ISO9660 volume descriptors live at sector 16 of a 2048-byte-sector
	// image, one byte past the descriptor type.
	iso9660MagicOffset = 0x8001
	// System identifier field of the primary volume descriptor.
	iso9660SystemIDOffset = 0x8008
	// XDVDFS places its volume descriptor 32 sectors in.
	xdvdfsMagicOffset = 0x10000
)

var (
	gcISO       = Format{Name: "gamecube-iso", Console: consoles.GameCube, Kind: KindISO, Target: TargetRVZ}
	wiiISO      = Format{Name: "wii-iso", Console: consoles.Wii, Kind: KindISO, Target: TargetRVZ}
	ps2ISO      = Format{Name: "playstation-iso", Console: consoles.PS2, Kind: KindISO, Target: TargetCHDDVD}
	xboxISO     = Format{Name: "xbox-iso", Console: consoles.Xbox, Kind: KindISO, Target: TargetCHDDVD}
	genericISO  = Format{Name: "iso9660", Kind: KindISO, Target: TargetNone}
	dcTrack     = Format{Name: "dreamcast-track", Console: consoles.Dreamcast, Kind: KindBinTrack, Target: TargetNone}
	rawBinTrack = Format{Name: "cd-bin-track", Kind: KindBinTrack, Target: TargetNone}
	cueSheet    = Format{Name: "cue-sheet", Kind: KindCueSheet, Target: TargetCHDCD}
	gdiSheet    = Format{Name: "gdi-sheet", Console: consoles.Dreamcast, Kind: KindGDI, Target: TargetCHDCD}
	n64Cart     = Format{Name: "n64-cart", Console: consoles.N64, Kind: KindCart, Target: TargetNone}
	gbaCart     = Format{Name: "gba-cart", Console: consoles.GBA, Kind: KindCart, Target: TargetNone}
	gbCart      = Format{Name: "gb-cart", Console: consoles.GB, Kind: KindCart, Target: TargetNone}
	gbcCart     = Format{Name: "gbc-cart", Console: consoles.GBC, Kind: KindCart, Target: TargetNone}
	chdImage    = Format{Name: "chd", Kind: KindCHD, Target: TargetNone}
	rvzImage    = Format{Name: "rvz", Kind: KindRVZ, Target: TargetNone}
	wiaImage    = Format{Name: "wia", Kind: KindWIA, Target: TargetNone}
)

// Nintendo boot logo prefixes. Fixed bitmap data every licensed cartridge
// carries; a 12-byte prefix is enough to rule out coincidence.
var (
	gbaLogoPrefix = []byte{0x24, 0xFF, 0xAE, 0x51, 0x69, 0x9A, 0xA2, 0x21, 0x3D, 0x84, 0x82, 0x0A}
	gbLogoPrefix  = []byte{0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83}
)

// Raw 2352-byte CD sectors start with a fixed 12-byte sync pattern.
var cdSync = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

var signatures = []signature{
	{offset: 0, magic: []byte("MComprHD"), format: chdImage},
	{offset: 0, magic: []byte{'R', 'V', 'Z', 0x01}, format: rvzImage},
	{offset: 0, magic: []byte{'W', 'I', 'A', 0x01}, format: wiaImage},

	{offset: 0x1C, magic: []byte{0xC2, 0x33, 0x9F, 0x3D}, format: gcISO},
	{offset: 0x18, magic: []byte{0x5D, 0x1C, 0x9E, 0xA3}, format: wiiISO},

	{offset: 0, magic: []byte{0x80, 0x37, 0x12, 0x40}, format: n64Cart}, // .z64 native
	{offset: 0, magic: []byte{0x37, 0x80, 0x40, 0x12}, format: n64Cart}, // .v64 byte-swapped
	{offset: 0, magic: []byte{0x40, 0x12, 0x37, 0x80}, format: n64Cart}, // .n64 little-endian

	{offset: 0x04, magic: gbaLogoPrefix, format: gbaCart},
	{offset: 0x104, magic: gbLogoPrefix, format: gbCart},

	{offset: 0, magic: []byte("SEGA SEGAKATANA "), format: dcTrack},
	{offset: 0x10, magic: []byte("SEGA SEGAKATANA "), format: dcTrack},

	{offset: xdvdfsMagicOffset, magic: []byte("MICROSOFT*XBOX*MEDIA"), format: xboxISO},
	{offset: iso9660SystemIDOffset, magic: []byte("PLAYSTATION"), format: ps2ISO},
	{offset: iso9660MagicOffset, magic: []byte("CD001"), format: genericISO},

	{offset: 0, magic: cdSync, format: rawBinTrack},
}
