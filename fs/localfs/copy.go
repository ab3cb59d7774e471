package localfs

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vfsr/vfsr/fs"
	"github.com/vfsr/vfsr/internal/atomicfile"
)

const dirMode = 0o700

// Copy replaces targetPath in the local file system with the entries of e chosen by sel
// and returns the number of bytes copied.
//
// When e is a file that sel includes, it is written to targetPath. When e is an fs.Directory,
// targetPath becomes a directory holding the selected descendants at their relative locations,
// with parent directories created as needed. If sel selects nothing, targetPath is left as it was.
// A nil sel selects everything.
//
// Whatever exists at targetPath is only removed once the first selected entry has been opened,
// so a source that cannot be read leaves targetPath untouched.
func Copy(ctx context.Context, targetPath string, e fs.Entry, sel fs.Selector) (int64, error) {
	targetPath, err := filepath.Abs(filepath.FromSlash(targetPath))
	if err != nil {
		return 0, errors.Wrap(err, "unable to determine absolute path")
	}

	c := &copier{sel: fs.OrDefault(sel), root: targetPath, rootName: e.Name()}

	if err := c.copyEntry(ctx, e, "", 0); err != nil {
		return c.bytes, err
	}

	return c.bytes, nil
}

type copier struct {
	sel      fs.Selector
	root     string
	rootName string
	bytes    int64
	prepared bool
}

// prepare clears the root of the copy before the first write. A regular file at the root
// is kept when the root is about to be replaced by a file, since that replacement is atomic.
func (c *copier) prepare(rootIsDir bool) error {
	if c.prepared {
		return nil
	}

	c.prepared = true

	st, err := os.Lstat(c.root)

	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return errors.Wrapf(err, "unable to stat %q", c.root)
	case st.Mode().IsRegular() && !rootIsDir:
		return nil
	}

	return errors.Wrapf(os.RemoveAll(c.root), "unable to remove existing %q", c.root)
}

// copyEntry copies e, located at sub (slash-separated, empty for the root) below the root of the copy.
func (c *copier) copyEntry(ctx context.Context, e fs.Entry, sub string, depth int) error {
	relPath := c.rootName
	if sub != "" {
		relPath = path.Join(c.rootName, sub)
	}

	info := fs.SelectInfo{Entry: e, RelativePath: relPath, Depth: depth}
	targetPath := filepath.Join(c.root, filepath.FromSlash(sub))

	if c.sel.Include(info) {
		if err := c.copySelected(ctx, e, targetPath, depth); err != nil {
			return err
		}
	}

	d, ok := e.(fs.Directory)
	if !ok || !c.sel.Traverse(info) {
		return nil
	}

	entries, err := d.Readdir(ctx)
	if err != nil {
		return errors.Wrapf(err, "unable to read directory %q", relPath)
	}

	for _, child := range entries {
		if err := c.copyEntry(ctx, child, path.Join(sub, child.Name()), depth+1); err != nil {
			return err
		}
	}

	return nil
}

func (c *copier) copySelected(ctx context.Context, e fs.Entry, targetPath string, depth int) error {
	switch e := e.(type) {
	case fs.Directory:
		if err := c.prepare(true); err != nil {
			return err
		}

		return errors.Wrap(os.MkdirAll(targetPath, dirMode), "unable to create directory")

	case fs.File:
		if err := c.copyFileContent(ctx, targetPath, e, depth); err != nil {
			return err
		}

		return setModTime(targetPath, e)

	case fs.Symlink:
		log(ctx).Warnf("Not creating symlink %q from %v", targetPath, e.Name())
		return nil

	default:
		return errors.Errorf("invalid FS entry type for %q: %#v", targetPath, e)
	}
}

func (c *copier) copyFileContent(ctx context.Context, targetPath string, f fs.File, depth int) error {
	r, err := f.Open(ctx)
	if err != nil {
		return errors.Wrapf(err, "unable to open %q", f.Name())
	}
	defer r.Close() //nolint:errcheck

	if err := c.prepare(depth > 0); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), dirMode); err != nil {
		return errors.Wrap(err, "unable to create parent directory")
	}

	n, err := atomicfile.Write(targetPath, r)
	c.bytes += n

	return errors.Wrapf(err, "unable to copy %q to %q", f.Name(), targetPath)
}

// setModTime carries over the modification time of e, when it has one.
func setModTime(targetPath string, e fs.Entry) error {
	mt := e.ModTime()
	if mt.IsZero() {
		return nil
	}

	if err := os.Chtimes(targetPath, mt, mt); err != nil && !os.IsPermission(err) {
		return errors.Wrap(err, "could not change mod time on "+targetPath)
	}

	return nil
}
