// Package loggingfs implements a wrapper that logs all read operations on a source tree.
package loggingfs

import (
	"context"
	"path"
	"time"

	"github.com/vfsr/vfsr/fs"
	"github.com/vfsr/vfsr/logging"
)

type loggingDirectory struct {
	relativePath string
	logger       logging.Logger
	fs.Directory
}

func (ld *loggingDirectory) Child(ctx context.Context, name string) (fs.Entry, error) {
	t0 := time.Now()
	entry, err := ld.Directory.Child(ctx, name)
	ld.logger.Debugw("Child", "path", ld.relativePath, "name", name, "dur", time.Since(t0), "error", err)

	if err != nil {
		//nolint:wrapcheck
		return nil, err
	}

	return wrap(entry, ld.logger, path.Join(ld.relativePath, entry.Name())), nil
}

func (ld *loggingDirectory) Readdir(ctx context.Context) (fs.Entries, error) {
	t0 := time.Now()
	entries, err := ld.Directory.Readdir(ctx)
	ld.logger.Debugw("Readdir", "path", ld.relativePath, "dur", time.Since(t0), "entries", len(entries), "error", err)

	if err != nil {
		//nolint:wrapcheck
		return nil, err
	}

	result := make(fs.Entries, len(entries))
	for i, e := range entries {
		result[i] = wrap(e, ld.logger, path.Join(ld.relativePath, e.Name()))
	}

	return result, nil
}

type loggingFile struct {
	relativePath string
	logger       logging.Logger
	fs.File
}

func (lf *loggingFile) Open(ctx context.Context) (fs.Reader, error) {
	t0 := time.Now()
	r, err := lf.File.Open(ctx)
	lf.logger.Debugw("Open", "path", lf.relativePath, "dur", time.Since(t0), "error", err)

	//nolint:wrapcheck
	return r, err
}

type loggingSymlink struct {
	relativePath string
	logger       logging.Logger
	fs.Symlink
}

func (ls *loggingSymlink) Readlink(ctx context.Context) (string, error) {
	target, err := ls.Symlink.Readlink(ctx)
	ls.logger.Debugw("Readlink", "path", ls.relativePath, "target", target, "error", err)

	//nolint:wrapcheck
	return target, err
}

// Wrap returns an Entry that wraps another Entry and logs all read operations at debug level.
func Wrap(e fs.Entry, logger logging.Logger) fs.Entry {
	return wrap(e, logger, e.Name())
}

func wrap(e fs.Entry, logger logging.Logger, relativePath string) fs.Entry {
	switch e := e.(type) {
	case fs.Directory:
		return &loggingDirectory{relativePath, logger, e}

	case fs.File:
		return &loggingFile{relativePath, logger, e}

	case fs.Symlink:
		return &loggingSymlink{relativePath, logger, e}

	default:
		return e
	}
}

var (
	_ fs.Directory = &loggingDirectory{}
	_ fs.File      = &loggingFile{}
	_ fs.Symlink   = &loggingSymlink{}
)
