package archive

import (
	"archive/zip"
	"fmt"
	"io"
)

type zipReader struct {
	rc *zip.ReadCloser
}

func openZip(path string) (Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip %s: %w", ErrUnsupported, path, err)
	}
	return &zipReader{rc: rc}, nil
}

func (z *zipReader) Entries() []Entry {
	entries := make([]Entry, 0, len(z.rc.File))
	for _, file := range z.rc.File {
		file := file
		if file.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{
			Name: file.Name,
			Size: int64(file.UncompressedSize64),
			Open: func() (io.ReadCloser, error) {
				rc, err := file.Open()
				if err != nil {
					return nil, fmt.Errorf("%w: open zip entry %s: %w", ErrUnsupported, file.Name, err)
				}
				return rc, nil
			},
		})
	}
	return entries
}

func (z *zipReader) Close() error { return z.rc.Close() }
