package archive

import (
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

type sevenZipReader struct {
	rc *sevenzip.ReadCloser
}

func open7z(path string) (Reader, error) {
	rc, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open 7z %s: %w", ErrUnsupported, path, err)
	}
	return &sevenZipReader{rc: rc}, nil
}

func (s *sevenZipReader) Entries() []Entry {
	entries := make([]Entry, 0, len(s.rc.File))
	for _, file := range s.rc.File {
		file := file
		if file.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{
			Name: file.Name,
			Size: file.FileInfo().Size(),
			Open: func() (io.ReadCloser, error) {
				rc, err := file.Open()
				if err != nil {
					return nil, fmt.Errorf("%w: open 7z entry %s: %w", ErrUnsupported, file.Name, err)
				}
				return rc, nil
			},
		})
	}
	return entries
}

func (s *sevenZipReader) Close() error { return s.rc.Close() }
