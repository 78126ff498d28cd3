package sniff

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"
)

// HeaderBytes bounds how much of a file the sniffer reads. The deepest
// signature (XDVDFS at 0x10000) fits comfortably inside it.
const HeaderBytes = 128 * 1024

// Classify inspects a header prefix and returns the matching format
// descriptor. Classification is a pure function of the supplied bytes:
// the most specific signature (largest magic) wins, exact-specificity ties
// between different formats report unknown, and textual track sheets (cue,
// gdi) are probed only when no binary signature matches.
func Classify(header []byte) (Format, bool) {
	best := Format{}
	bestLen := 0
	ambiguous := false

	for _, sig := range signatures {
		if !matches(header, sig) {
			continue
		}
		switch {
		case len(sig.magic) > bestLen:
			best = sig.format
			bestLen = len(sig.magic)
			ambiguous = false
		case len(sig.magic) == bestLen && sig.format.Name != best.Name:
			ambiguous = true
		}
	}

	if ambiguous {
		return Format{}, false
	}
	if bestLen > 0 {
		return refine(header, best), true
	}

	if format, ok := probeText(header); ok {
		return format, true
	}
	return Format{}, false
}

// File classifies a file on disk from its header prefix.
func File(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, err
	}
	defer f.Close()
	return Reader(f)
}

// Reader classifies a stream from its first HeaderBytes. Only the prefix is
// consumed; callers that need the rest of the stream should reopen it.
func Reader(r io.Reader) (Format, error) {
	header := make([]byte, HeaderBytes)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Format{}, err
	}
	format, _ := Classify(header[:n])
	return format, nil
}

func matches(header []byte, sig signature) bool {
	end := sig.offset + int64(len(sig.magic))
	if int64(len(header)) < end {
		return false
	}
	return bytes.Equal(header[sig.offset:end], sig.magic)
}

// refine resolves sub-variants that share a signature.
func refine(header []byte, format Format) Format {
	if format.Name == gbCart.Name && len(header) > 0x143 {
		// CGB flag distinguishes Game Boy Color carts.
		if flag := header[0x143]; flag == 0x80 || flag == 0xC0 {
			return gbcCart
		}
	}
	return format
}

// probeText recognizes cue sheets and Dreamcast GDI track lists, which have
// no magic bytes. The probe only considers NUL-free prefixes so binary files
// never reach the line heuristics.
func probeText(header []byte) (Format, bool) {
	sample := header
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if len(sample) == 0 || bytes.IndexByte(sample, 0) >= 0 {
		return Format{}, false
	}

	lines := nonEmptyLines(string(sample))
	if len(lines) == 0 {
		return Format{}, false
	}

	if isCueSheet(lines) {
		return cueSheet, true
	}
	if isGDISheet(lines) {
		return gdiSheet, true
	}
	return Format{}, false
}

func nonEmptyLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

var cueCommands = map[string]struct{}{
	"REM": {}, "CATALOG": {}, "TITLE": {}, "PERFORMER": {},
	"FILE": {}, "TRACK": {}, "PREGAP": {}, "INDEX": {}, "POSTGAP": {},
}

func isCueSheet(lines []string) bool {
	sawFile := false
	for _, line := range lines {
		command, _, _ := strings.Cut(line, " ")
		if _, ok := cueCommands[strings.ToUpper(command)]; !ok {
			return false
		}
		if strings.EqualFold(command, "FILE") {
			sawFile = true
		}
	}
	return sawFile
}

// GDI layout: a track count on the first line, then one line per track of
// "number lba type sectorsize filename offset".
func isGDISheet(lines []string) bool {
	count, err := strconv.Atoi(lines[0])
	if err != nil || count <= 0 || count > 99 {
		return false
	}
	if len(lines) < 2 {
		return false
	}
	for _, line := range lines[1:] {
		if len(strings.Fields(line)) < 5 {
			return false
		}
	}
	return true
}
