package sniff

import "ndump/internal/consoles"

// Kind describes the raw container shape of a dump file.
type Kind string

const (
	KindISO      Kind = "iso"
	KindBinTrack Kind = "bin"
	KindCueSheet Kind = "cue"
	KindGDI      Kind = "gdi"
	KindCart     Kind = "cart"
	KindCHD      Kind = "chd"
	KindRVZ      Kind = "rvz"
	KindWIA      Kind = "wia"
)

// Target names the preferred compressed representation for a format.
type Target string

const (
	// TargetNone marks formats organized as-is (cartridge dumps and
	// already-compressed containers).
	TargetNone Target = ""
	// TargetCHDCD compresses CD images via chdman createcd.
	TargetCHDCD Target = "chd-cd"
	// TargetCHDDVD compresses DVD images via chdman createdvd.
	TargetCHDDVD Target = "chd-dvd"
	// TargetRVZ compresses GameCube/Wii images via dolphin-tool.
	TargetRVZ Target = "rvz"
)

// Format is a static descriptor for a recognized dump format.
type Format struct {
	// Name is a stable short identifier, e.g. "wii-iso".
	Name    string
	Console consoles.Console
	Kind    Kind
	Target  Target
}

// Known reports whether the descriptor represents a recognized format.
func (f Format) Known() bool { return f.Name != "" }

// Compressed reports whether the format is already an emulator-friendly
// compressed container.
func (f Format) Compressed() bool {
	switch f.Kind {
	case KindCHD, KindRVZ, KindWIA:
		return true
	default:
		return false
	}
}

// NeedsTranscode reports whether the format has a compressed target.
func (f Format) NeedsTranscode() bool { return f.Target != TargetNone }
