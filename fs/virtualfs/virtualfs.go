// Package virtualfs implements in-memory fs.File and fs.Directory, used to stand in for
// remote or archived entries that have no local path of their own.
package virtualfs

import (
	"io"
	"os"
	"time"

	"github.com/vfsr/vfsr/fs"
)

// ReaderSeekerCloser implements io.Reader, io.Seeker and io.Closer.
type ReaderSeekerCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// entry is an in-memory implementation of a directory entry.
type entry struct {
	name    string
	mode    os.FileMode
	size    int64
	modTime time.Time
	owner   fs.OwnerInfo
}

func (e *entry) Name() string {
	return e.name
}

func (e *entry) IsDir() bool {
	return e.mode.IsDir()
}

func (e *entry) Mode() os.FileMode {
	return e.mode
}

func (e *entry) ModTime() time.Time {
	return e.modTime
}

func (e *entry) Size() int64 {
	return e.size
}

func (e *entry) Sys() interface{} {
	return nil
}

func (e *entry) Owner() fs.OwnerInfo {
	return e.owner
}

type readSeekerWrapper struct {
	io.ReadSeeker
}

func (readSeekerWrapper) Close() error {
	return nil
}

type fileReader struct {
	ReaderSeekerCloser
	entry fs.Entry
}

func (r *fileReader) Entry() (fs.Entry, error) {
	return r.entry, nil
}

var (
	_ fs.Entry  = (*entry)(nil)
	_ fs.Reader = (*fileReader)(nil)
)
