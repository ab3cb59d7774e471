package testutil

import (
	"os"
	"runtime"
	"testing"
)

// SkipUnlessPermissionsEnforced skips tests which rely on the OS refusing writes
// to read-only directories, which does not happen on Windows or when running as root.
func SkipUnlessPermissionsEnforced(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("directory permissions are not enforced on windows")
	}

	if os.Geteuid() == 0 {
		t.Skip("running as root, permissions are not enforced")
	}
}

// SkipUnlessSymlinksSupported skips tests which create symbolic links.
func SkipUnlessSymlinksSupported(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("creating symlinks requires elevated privileges on windows")
	}
}
