package virtualfs

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/vfsr/vfsr/fs"
)

// File is an in-memory implementation of fs.File.
type File struct {
	entry

	source func() (ReaderSeekerCloser, error)
}

var _ fs.File = (*File)(nil)

// Open opens the file for reading.
func (imf *File) Open(ctx context.Context) (fs.Reader, error) {
	r, err := imf.source()
	if err != nil {
		return nil, err
	}

	return &fileReader{
		ReaderSeekerCloser: r,
		entry:              imf,
	}, nil
}

// SetModTime overrides the modification time reported by the file.
func (imf *File) SetModTime(t time.Time) {
	imf.modTime = t
}

// FileWithSource returns a file with given name, permissions and source.
// The reported size is unknown (zero) since the source is opaque.
func FileWithSource(name string, permissions os.FileMode, source func() (ReaderSeekerCloser, error)) *File {
	return &File{
		entry: entry{
			name: name,
			mode: permissions,
		},
		source: source,
	}
}

// FileWithContent returns a file with given content.
func FileWithContent(name string, permissions os.FileMode, content []byte) *File {
	s := func() (ReaderSeekerCloser, error) {
		return readSeekerWrapper{bytes.NewReader(content)}, nil
	}

	f := FileWithSource(name, permissions, s)
	f.size = int64(len(content))

	return f
}
