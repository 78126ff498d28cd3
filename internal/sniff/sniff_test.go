package sniff

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"ndump/internal/consoles"
)

func headerWith(size int, writes map[int64][]byte) []byte {
	header := make([]byte, size)
	for offset, data := range writes {
		copy(header[offset:], data)
	}
	return header
}

func TestClassifyMagicFormats(t *testing.T) {
	cases := []struct {
		name    string
		header  []byte
		want    string
		console consoles.Console
	}{
		{
			name:   "chd",
			header: headerWith(64, map[int64][]byte{0: []byte("MComprHD")}),
			want:   "chd",
		},
		{
			name:   "rvz",
			header: headerWith(64, map[int64][]byte{0: {'R', 'V', 'Z', 0x01}}),
			want:   "rvz",
		},
		{
			name:    "gamecube iso",
			header:  headerWith(64, map[int64][]byte{0x1C: {0xC2, 0x33, 0x9F, 0x3D}}),
			want:    "gamecube-iso",
			console: consoles.GameCube,
		},
		{
			name:    "wii iso",
			header:  headerWith(64, map[int64][]byte{0x18: {0x5D, 0x1C, 0x9E, 0xA3}}),
			want:    "wii-iso",
			console: consoles.Wii,
		},
		{
			name:    "n64 native",
			header:  headerWith(64, map[int64][]byte{0: {0x80, 0x37, 0x12, 0x40}}),
			want:    "n64-cart",
			console: consoles.N64,
		},
		{
			name:    "n64 byte swapped",
			header:  headerWith(64, map[int64][]byte{0: {0x37, 0x80, 0x40, 0x12}}),
			want:    "n64-cart",
			console: consoles.N64,
		},
		{
			name:    "gba cart",
			header:  headerWith(0x200, map[int64][]byte{0x04: gbaLogoPrefix}),
			want:    "gba-cart",
			console: consoles.GBA,
		},
		{
			name:    "dreamcast track",
			header:  headerWith(64, map[int64][]byte{0: []byte("SEGA SEGAKATANA ")}),
			want:    "dreamcast-track",
			console: consoles.Dreamcast,
		},
		{
			name:    "xbox iso",
			header:  headerWith(0x10100, map[int64][]byte{0x10000: []byte("MICROSOFT*XBOX*MEDIA")}),
			want:    "xbox-iso",
			console: consoles.Xbox,
		},
		{
			name:   "generic iso9660",
			header: headerWith(0x9000, map[int64][]byte{0x8001: []byte("CD001")}),
			want:   "iso9660",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			format, ok := Classify(tc.header)
			if !ok {
				t.Fatalf("Classify reported unknown")
			}
			if format.Name != tc.want {
				t.Fatalf("format = %q, want %q", format.Name, tc.want)
			}
			if format.Console != tc.console {
				t.Fatalf("console = %q, want %q", format.Console, tc.console)
			}
		})
	}
}

func TestClassifyPlayStationBeatsGenericISO(t *testing.T) {
	// Both the CD001 magic and the PLAYSTATION system id match; the longer
	// signature must win.
	header := headerWith(0x9000, map[int64][]byte{
		0x8001: []byte("CD001"),
		0x8008: []byte("PLAYSTATION"),
	})
	format, ok := Classify(header)
	if !ok || format.Name != "playstation-iso" {
		t.Fatalf("format = %+v, ok = %v", format, ok)
	}
	if format.Target != TargetCHDDVD {
		t.Fatalf("target = %q", format.Target)
	}
}

func TestClassifyGameBoyColorRefinement(t *testing.T) {
	plain := headerWith(0x200, map[int64][]byte{0x104: gbLogoPrefix})
	format, ok := Classify(plain)
	if !ok || format.Name != "gb-cart" {
		t.Fatalf("plain cart = %+v, ok = %v", format, ok)
	}

	color := headerWith(0x200, map[int64][]byte{0x104: gbLogoPrefix, 0x143: {0xC0}})
	format, ok = Classify(color)
	if !ok || format.Name != "gbc-cart" {
		t.Fatalf("color cart = %+v, ok = %v", format, ok)
	}
	if format.Console != consoles.GBC {
		t.Fatalf("console = %q", format.Console)
	}
}

func TestClassifyCueSheet(t *testing.T) {
	cue := []byte("FILE \"Game (USA).bin\" BINARY\r\n  TRACK 01 MODE2/2352\r\n    INDEX 01 00:00:00\r\n")
	format, ok := Classify(cue)
	if !ok || format.Name != "cue-sheet" {
		t.Fatalf("format = %+v, ok = %v", format, ok)
	}
	if format.Target != TargetCHDCD {
		t.Fatalf("target = %q", format.Target)
	}
}

func TestClassifyGDISheet(t *testing.T) {
	gdi := []byte("3\n1 0 4 2352 track01.bin 0\n2 600 0 2352 track02.raw 0\n3 45000 4 2352 track03.bin 0\n")
	format, ok := Classify(gdi)
	if !ok || format.Name != "gdi-sheet" {
		t.Fatalf("format = %+v, ok = %v", format, ok)
	}
	if format.Console != consoles.Dreamcast {
		t.Fatalf("console = %q", format.Console)
	}
}

func TestClassifyUnknown(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("just some text that is not a track sheet"),
		headerWith(64, map[int64][]byte{0: {0xDE, 0xAD, 0xBE, 0xEF}}),
	}
	for _, input := range inputs {
		if format, ok := Classify(input); ok {
			t.Fatalf("expected unknown for %q, got %+v", input, format)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	header := headerWith(0x9000, map[int64][]byte{
		0x8001: []byte("CD001"),
		0x8008: []byte("PLAYSTATION"),
	})
	first, ok := Classify(header)
	if !ok {
		t.Fatal("unexpected unknown")
	}
	for i := 0; i < 50; i++ {
		next, ok := Classify(header)
		if !ok || next != first {
			t.Fatalf("classification drifted: %+v vs %+v", next, first)
		}
	}
}

func TestFileReadsBoundedPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.bin")

	// Signature beyond the prefix must not be read.
	data := make([]byte, HeaderBytes+1024)
	copy(data[0x1C:], []byte{0xC2, 0x33, 0x9F, 0x3D})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	format, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if format.Name != "gamecube-iso" {
		t.Fatalf("format = %q", format.Name)
	}
}

func TestReaderShortInput(t *testing.T) {
	format, err := Reader(bytes.NewReader([]byte("FILE \"a.bin\" BINARY\nTRACK 01 AUDIO\n")))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	if format.Name != "cue-sheet" {
		t.Fatalf("format = %q", format.Name)
	}
}

func TestCompressedAndTranscodeFlags(t *testing.T) {
	format, _ := Classify(headerWith(64, map[int64][]byte{0: []byte("MComprHD")}))
	if !format.Compressed() || format.NeedsTranscode() {
		t.Fatalf("chd flags wrong: %+v", format)
	}
	format, _ = Classify(headerWith(64, map[int64][]byte{0x18: {0x5D, 0x1C, 0x9E, 0xA3}}))
	if format.Compressed() || !format.NeedsTranscode() {
		t.Fatalf("wii iso flags wrong: %+v", format)
	}
}
