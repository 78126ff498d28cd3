package chdman

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Info captures the fields of chdman's info output the pipeline consumes.
type Info struct {
	LogicalSizeBytes int64
	CHDSizeBytes     int64
	SHA1             string
	DataSHA1         string
	Codecs           []string
	Tracks           []Track
}

// Track is one CHT2 metadata entry describing a CD track.
type Track struct {
	Number int
	Type   string
	Frames int64
}

// Info runs chdman info and parses the result.
func (c *CLI) Info(ctx context.Context, chdPath string) (*Info, error) {
	if chdPath == "" {
		return nil, errors.New("chd path required")
	}

	args := []string{"info", "-i", chdPath, "-v"}
	output, err := c.run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("chdman info: %w: %s", err, lastLine(output))
	}
	return parseInfo(output)
}

func parseInfo(output string) (*Info, error) {
	info := &Info{}
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Logical size:"):
			info.LogicalSizeBytes = parseByteCount(trimmed)
		case strings.HasPrefix(trimmed, "CHD size:"):
			info.CHDSizeBytes = parseByteCount(trimmed)
		case strings.HasPrefix(trimmed, "SHA1:"):
			info.SHA1 = strings.TrimSpace(strings.TrimPrefix(trimmed, "SHA1:"))
		case strings.HasPrefix(trimmed, "Data SHA1:"):
			info.DataSHA1 = strings.TrimSpace(strings.TrimPrefix(trimmed, "Data SHA1:"))
		case strings.HasPrefix(trimmed, "Compression:"):
			info.Codecs = parseCodecs(trimmed)
		case strings.Contains(trimmed, "TRACK:") && strings.Contains(trimmed, "TYPE:"):
			if track, ok := parseTrack(trimmed); ok {
				info.Tracks = append(info.Tracks, track)
			}
		}
	}
	if info.SHA1 == "" {
		return nil, fmt.Errorf("chdman info output missing SHA1: %s", lastLine(output))
	}
	return info, nil
}

// parseByteCount handles lines like "Logical size: 681,574,400 bytes".
func parseByteCount(line string) int64 {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return 0
	}
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "bytes"))
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// parseCodecs handles lines like "Compression: cdlz (CD LZMA), cdzl (CD Deflate)".
func parseCodecs(line string) []string {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	var codecs []string
	for _, part := range strings.Split(value, ",") {
		name := strings.TrimSpace(part)
		if idx := strings.IndexByte(name, ' '); idx > 0 {
			name = name[:idx]
		}
		if name != "" {
			codecs = append(codecs, name)
		}
	}
	return codecs
}

// parseTrack handles CHT2 metadata lines like
// "TRACK:1 TYPE:MODE1/2352 SUBTYPE:NONE FRAMES:287691 PREGAP:0 ...".
func parseTrack(line string) (Track, bool) {
	track := Track{}
	var haveNumber bool
	for _, field := range strings.Fields(line) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		switch key {
		case "TRACK":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Track{}, false
			}
			track.Number = n
			haveNumber = true
		case "TYPE":
			track.Type = value
		case "FRAMES":
			frames, err := strconv.ParseInt(value, 10, 64)
			if err == nil {
				track.Frames = frames
			}
		}
	}
	return track, haveNumber
}
