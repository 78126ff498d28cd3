package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported marks containers that are corrupt or not a supported
// archive kind. Callers treat it as a per-input failure, never a batch abort.
var ErrUnsupported = errors.New("unsupported archive")

// Entry is one candidate file inside a container.
type Entry struct {
	// Name is the entry path relative to the container root. For plain
	// files it is the file's base name.
	Name string
	// Size is the uncompressed size in bytes, or -1 when the container
	// cannot report it without decompressing.
	Size int64
	// Open returns a fresh reader over the entry's contents. Entries may
	// be opened multiple times (sniff pass, then staging pass).
	Open func() (io.ReadCloser, error)
}

// Reader exposes a container's entries lazily. Close releases any
// underlying file handles; Open functions become invalid afterwards.
type Reader interface {
	Entries() []Entry
	Close() error
}

// Open returns a Reader for the given path: archives by recognized
// extension, everything else as the degenerate single-entry plain file.
func Open(path string) (Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return openZip(path)
	case ".7z":
		return open7z(path)
	case ".lz4":
		return openLZ4(path, info.Size())
	default:
		return openPlain(path, info.Size())
	}
}

// IsArchivePath reports whether the path's extension names a supported
// archive container.
func IsArchivePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".7z", ".lz4":
		return true
	default:
		return false
	}
}
