package atexit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vfsr/vfsr/internal/testlogging"
)

func TestRun(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := t.TempDir()

	keep := filepath.Join(dir, "keep")
	remove := filepath.Join(dir, "remove")
	missing := filepath.Join(dir, "missing")

	for _, p := range []string{keep, remove} {
		require.NoError(t, os.WriteFile(p, nil, 0o600))
	}

	Register(keep)
	Register(remove)
	Register(missing)
	Deregister(keep)

	require.Equal(t, []string{missing, remove}, Pending())

	Run(ctx)

	require.Empty(t, Pending())

	_, err := os.Stat(remove)
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(keep)
	require.NoError(t, err)

	// second run is a no-op
	Run(ctx)
}

func TestHandleSignalsStop(t *testing.T) {
	stop := HandleSignals(testlogging.Context(t), 1, nil)
	stop()
	stop()
}
