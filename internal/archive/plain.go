package archive

import (
	"io"
	"os"
	"path/filepath"
)

type plainReader struct {
	path string
	size int64
}

func openPlain(path string, size int64) (Reader, error) {
	return &plainReader{path: path, size: size}, nil
}

func (p *plainReader) Entries() []Entry {
	return []Entry{{
		Name: filepath.Base(p.path),
		Size: p.size,
		Open: func() (io.ReadCloser, error) {
			return os.Open(p.path)
		},
	}}
}

func (p *plainReader) Close() error { return nil }
