package publish

import (
	"bytes"
	"io"
	"os"
)

// SelectedFile is the file picked for one upload attempt.
type SelectedFile struct {
	Name        string
	ContentType string
	Size        int64
	open        func() (io.ReadSeekCloser, error)
}

// NewSelectedFile wraps in-memory content.
func NewSelectedFile(name, contentType string, data []byte) SelectedFile {
	return SelectedFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadSeekCloser, error) {
			return nopSeekCloser{bytes.NewReader(data)}, nil
		},
	}
}

func newSelectedLocalFile(name, contentType, path string, size int64) SelectedFile {
	return SelectedFile{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		open: func() (io.ReadSeekCloser, error) {
			return os.Open(path)
		},
	}
}

// Open returns the content of the file, the caller closes it.
func (f SelectedFile) Open() (io.ReadSeekCloser, error) {
	if f.open == nil {
		return nopSeekCloser{bytes.NewReader(nil)}, nil
	}
	return f.open()
}

type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }
