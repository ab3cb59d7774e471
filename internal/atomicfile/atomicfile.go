// Package atomicfile writes replica files so that readers never observe a partially written file.
package atomicfile

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"

	"github.com/vfsr/vfsr/internal/iocopy"
)

const maxPathLength = 260

// tempPattern does not depend on the target name, so the staged name fits wherever the target fits.
const tempPattern = ".vfsr*.tmp"

// MaybePrefixLongFilenameOnWindows prefixes the given absolute filename with \\?\ on Windows
// if the filename is longer than 260 characters.
func MaybePrefixLongFilenameOnWindows(fname string) string {
	if runtime.GOOS != "windows" {
		return fname
	}

	if len(fname) < maxPathLength {
		return fname
	}

	return "\\\\?\\" + fname
}

// Write copies r into a hidden temporary file in the directory of filename and atomically moves it into place.
// It returns the number of bytes written. The temporary file is removed on failure.
func Write(filename string, r io.Reader) (int64, error) {
	filename = MaybePrefixLongFilenameOnWindows(filename)

	f, err := os.CreateTemp(filepath.Dir(filename), tempPattern)
	if err != nil {
		return 0, errors.Wrap(err, "unable to create temporary file")
	}

	tmpName := f.Name()

	n, err := iocopy.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return n, errors.Wrap(err, "unable to write temporary file")
	}

	if err := atomic.ReplaceFile(tmpName, filename); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return n, errors.Wrap(err, "unable to move file into place")
	}

	return n, nil
}
