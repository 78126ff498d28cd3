package cuesheets

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// TrackFilenames extracts the referenced data files from a cuesheet in
// declaration order.
func TrackFilenames(cueText string) []string {
	var names []string
	for _, line := range strings.Split(cueText, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToUpper(trimmed), "FILE ") {
			continue
		}
		start := strings.IndexByte(trimmed, '"')
		if start < 0 {
			continue
		}
		end := strings.IndexByte(trimmed[start+1:], '"')
		if end < 0 {
			continue
		}
		names = append(names, trimmed[start+1:start+1+end])
	}
	return names
}

// GDITrackFilenames extracts the track files from a Dreamcast GDI sheet.
// Each track line is "number lba type sectorsize filename offset"; the first
// line is the track count and carries no filename.
func GDITrackFilenames(gdiText string) []string {
	var names []string
	for _, line := range strings.Split(gdiText, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 5 {
			continue
		}
		names = append(names, strings.Trim(fields[4], `"`))
	}
	return names
}

// Neutralize canonicalizes a cuesheet so dumps of the same disc hash
// identically regardless of how the dumper named the track files. Only the
// structural commands survive, file stems are replaced with "$", and line
// endings collapse to LF.
func Neutralize(cueText string) string {
	var b strings.Builder
	for _, line := range strings.Split(cueText, "\n") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if trimmed == "" {
			continue
		}
		upper := strings.ToUpper(trimmed)
		switch {
		case strings.HasPrefix(upper, "FILE "):
			b.WriteString(neutralizeFileLine(trimmed))
			b.WriteByte('\n')
		case strings.HasPrefix(upper, "TRACK "),
			strings.HasPrefix(upper, "PREGAP "),
			strings.HasPrefix(upper, "INDEX "),
			strings.HasPrefix(upper, "POSTGAP "):
			b.WriteString(trimmed)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// neutralizeFileLine replaces the quoted filename's stem with "$", keeping
// the extension and the trailing file type token.
func neutralizeFileLine(line string) string {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return line
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return line
	}
	name := line[start+1 : start+1+end]
	ext := ""
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		ext = name[dot:]
	}
	return line[:start+1] + "$" + ext + line[start+1+end:]
}

// SHA1 returns the hex digest of the neutralized form of a cuesheet.
func SHA1(cueText string) string {
	sum := sha1.Sum([]byte(Neutralize(cueText)))
	return hex.EncodeToString(sum[:])
}

// Validate performs a structural sanity check: at least one FILE line, at
// least one TRACK line, and an INDEX for every track.
func Validate(cueText string) error {
	var files, tracks, indexes int
	for _, line := range strings.Split(cueText, "\n") {
		upper := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(upper, "FILE "):
			files++
		case strings.HasPrefix(upper, "TRACK "):
			tracks++
		case strings.HasPrefix(upper, "INDEX "):
			indexes++
		}
	}
	if files == 0 {
		return fmt.Errorf("cuesheet has no FILE entries")
	}
	if tracks == 0 {
		return fmt.Errorf("cuesheet has no TRACK entries")
	}
	if indexes < tracks {
		return fmt.Errorf("cuesheet has %d tracks but only %d INDEX entries", tracks, indexes)
	}
	return nil
}
