package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// lz4Reader treats an lz4 frame as a single-entry container holding the
// decompressed stream. Frame headers rarely carry the content size, so
// entry sizes are reported as unknown.
type lz4Reader struct {
	path string
}

func openLZ4(path string, _ int64) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Probe the frame magic up front so corrupt files fail at open time
	// rather than mid-stream.
	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: read lz4 header %s: %w", ErrUnsupported, path, err)
	}
	if magic != [4]byte{0x04, 0x22, 0x4D, 0x18} {
		return nil, fmt.Errorf("%w: %s is not an lz4 frame", ErrUnsupported, path)
	}

	return &lz4Reader{path: path}, nil
}

func (l *lz4Reader) Entries() []Entry {
	name := strings.TrimSuffix(filepath.Base(l.path), filepath.Ext(l.path))
	return []Entry{{
		Name: name,
		Size: -1,
		Open: func() (io.ReadCloser, error) {
			f, err := os.Open(l.path)
			if err != nil {
				return nil, err
			}
			return &lz4EntryReader{file: f, zr: lz4.NewReader(f)}, nil
		},
	}}
}

func (l *lz4Reader) Close() error { return nil }

type lz4EntryReader struct {
	file *os.File
	zr   *lz4.Reader
}

func (r *lz4EntryReader) Read(p []byte) (int, error) {
	n, err := r.zr.Read(p)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return n, err
}

func (r *lz4EntryReader) Close() error { return r.file.Close() }
