// Package testutil contains helpers shared by vfsr tests.
package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

var interestingLengths = []int{10, 50, 100, 160}

// GetInterestingTempDirectoryName returns a directory name with an unusual length and spaces in it.
func GetInterestingTempDirectoryName() (string, error) {
	td, err := os.MkdirTemp("", "vfsr test")
	if err != nil {
		return "", errors.Wrap(err, "unable to create temp directory")
	}

	//nolint:gosec
	targetLen := interestingLengths[rand.Intn(len(interestingLengths))]

	if n := len(td); n < targetLen {
		td = filepath.Join(td, strings.Repeat("f", targetLen-n))

		//nolint:mnd
		if err := os.MkdirAll(td, 0o700); err != nil {
			return "", errors.Wrap(err, "unable to create temp directory")
		}
	}

	return td, nil
}

// TempDirectory returns an interesting temporary directory and cleans it up before test
// completes.
func TempDirectory(t *testing.T) string {
	t.Helper()

	d, err := GetInterestingTempDirectoryName()
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if !t.Failed() {
			os.RemoveAll(d) //nolint:errcheck
		} else {
			t.Logf("temporary files left in %v", d)
		}
	})

	return d
}

// WriteFile creates a file with the given content, creating parent directories as needed.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
}
