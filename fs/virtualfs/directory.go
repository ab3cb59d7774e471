package virtualfs

import (
	"context"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/vfsr/vfsr/fs"
)

const defaultDirPermissions os.FileMode = 0o755

// Directory is an in-memory implementation of fs.Directory.
type Directory struct {
	entry

	children fs.Entries
}

var _ fs.Directory = (*Directory)(nil)

// NewDirectory returns an empty in-memory root directory.
func NewDirectory(name string) *Directory {
	return &Directory{
		entry: entry{
			name: name,
			mode: defaultDirPermissions | os.ModeDir,
		},
	}
}

// NewStaticDirectory returns a directory with the provided entries.
func NewStaticDirectory(name string, entries ...fs.Entry) (*Directory, error) {
	d := NewDirectory(name)

	for _, e := range entries {
		if err := d.addChild(e); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// AddDir adds a directory with a given name and permissions.
func (imd *Directory) AddDir(name string, permissions os.FileMode) (*Directory, error) {
	subdir := &Directory{
		entry: entry{
			name: name,
			mode: permissions | os.ModeDir,
		},
	}

	if err := imd.addChild(subdir); err != nil {
		return nil, err
	}

	return subdir, nil
}

// AddAllDirs creates under imd, all the necessary directories in the pathname, similar to os.MkdirAll.
func (imd *Directory) AddAllDirs(pathname string, permissions os.FileMode) (subdir *Directory, err error) {
	p, missing, err := imd.resolveDirs(pathname)
	if err != nil {
		return nil, err
	}

	for _, n := range missing {
		if p, err = p.AddDir(n, permissions); err != nil {
			return nil, errors.Wrapf(err, "unable to add sub directory '%s'", n)
		}
	}

	return p, nil
}

// Child gets the named child of a directory.
func (imd *Directory) Child(ctx context.Context, name string) (fs.Entry, error) {
	return fs.ReadDirAndFindChild(ctx, imd, name)
}

// Readdir gets the contents of a directory.
func (imd *Directory) Readdir(ctx context.Context) (fs.Entries, error) {
	return append(fs.Entries(nil), imd.children...), nil
}

// Subdir finds a subdirectory with the given name.
func (imd *Directory) Subdir(name string) (*Directory, error) {
	subdir := imd.children.FindByName(name)
	if subdir == nil {
		return nil, errors.Errorf("'%s' not found in '%s'", name, imd.Name())
	}

	d, ok := subdir.(*Directory)
	if !ok {
		return nil, errors.Errorf("'%s' is not a directory in '%s'", name, imd.Name())
	}

	return d, nil
}

// addChild adds the given entry under imd, errors out if the entry is already present.
func (imd *Directory) addChild(e fs.Entry) error {
	if e.Name() == "" || strings.Contains(e.Name(), "/") {
		return errors.Errorf("unable to add child entry %q: invalid name", e.Name())
	}

	if imd.children.FindByName(e.Name()) != nil {
		return errors.Errorf("unable to add child entry %q: already exists", e.Name())
	}

	imd.children = append(imd.children, e)
	imd.children.Sort()

	return nil
}

// resolveDirs finds the directories in the pathname under imd and returns a list of missing sub directories.
func (imd *Directory) resolveDirs(pathname string) (parent *Directory, missing []string, err error) {
	pathname = strings.Trim(pathname, "/")
	if pathname == "" {
		return imd, nil, nil
	}

	p := imd

	parts := strings.Split(path.Clean(pathname), "/")
	for i, n := range parts {
		i2 := p.children.FindByName(n)
		if i2 == nil {
			return p, parts[i:], nil
		}

		d, ok := i2.(*Directory)
		if !ok {
			return nil, nil, errors.Errorf("'%s' is not a directory in '%s'", n, p.Name())
		}

		p = d
	}

	return p, nil, nil
}

// AddFileWithContent adds a virtual file with specified name, permissions and content.
func AddFileWithContent(imd *Directory, filePath string, content []byte, dirPermissions, filePermissions os.FileMode) (*File, error) {
	dir, name := path.Split(filePath)

	p, err := imd.AddAllDirs(dir, dirPermissions)
	if err != nil {
		return nil, err
	}

	f := FileWithContent(name, filePermissions, content)
	if err := p.addChild(f); err != nil {
		return nil, errors.Wrap(err, "unable to add file")
	}

	return f, nil
}
