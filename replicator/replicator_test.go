package replicator

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vfsr/vfsr/fs"
	"github.com/vfsr/vfsr/fs/localfs"
	"github.com/vfsr/vfsr/fs/virtualfs"
	"github.com/vfsr/vfsr/internal/atexit"
	"github.com/vfsr/vfsr/internal/tempname"
	"github.com/vfsr/vfsr/internal/testlogging"
	"github.com/vfsr/vfsr/internal/testutil"
)

var errOpenFailed = errors.New("open failed")

// failingFile is a source whose content cannot be read.
type failingFile struct {
	*virtualfs.File
}

func (f failingFile) Open(ctx context.Context) (fs.Reader, error) {
	return nil, errOpenFailed
}

// blockingFile is a source whose Open does not return until released.
type blockingFile struct {
	*virtualfs.File

	opened  chan struct{}
	release chan struct{}
}

func (f blockingFile) Open(ctx context.Context) (fs.Reader, error) {
	close(f.opened)
	<-f.release

	return f.File.Open(ctx)
}

func newReplicator(t *testing.T, dir string) *UniqueFileReplicator {
	t.Helper()

	r := New(dir)
	r.SetContext(localfs.Namespace{})
	r.SetLogger(testlogging.Printf(t.Logf, "[replicator] "))
	require.NoError(t, r.Init())

	return r
}

func exists(t *testing.T, p string) bool {
	t.Helper()

	_, err := os.Lstat(p)
	if os.IsNotExist(err) {
		return false
	}

	require.NoError(t, err)

	return true
}

func TestReplicateAndClose(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := filepath.Join(testutil.TempDirectory(t), "does", "not", "exist")

	r := newReplicator(t, dir)
	require.True(t, exists(t, dir))
	require.Equal(t, dir, r.TempDir())

	src := virtualfs.FileWithContent("weird?name*.jar", 0o644, []byte("jar-content"))

	p, err := r.ReplicateFile(ctx, src, fs.SelectAll)
	require.NoError(t, err)

	require.Equal(t, dir, filepath.Dir(p))
	require.Regexp(t, regexp.MustCompile(`^vfsr_[0-9a-f]{16}_weird_3fname_2a\.jar$`), filepath.Base(p))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "jar-content", string(data))

	require.Equal(t, []string{p}, r.TrackedFiles())
	require.Contains(t, atexit.Pending(), p)

	r.Close()

	require.False(t, exists(t, p))
	require.False(t, exists(t, dir))
	require.Empty(t, r.TrackedFiles())
	require.NotContains(t, atexit.Pending(), p)
}

func TestReplicaNamesNeverContainReservedCharacters(t *testing.T) {
	ctx := testlogging.Context(t)
	r := newReplicator(t, testutil.TempDirectory(t))

	defer r.Close()

	for _, c := range tempname.ReservedChars + "%" {
		name := "a" + string(c) + "b" + string(c)

		p, err := r.ReplicateFile(ctx, virtualfs.FileWithContent(name, 0o644, []byte(name)), nil)
		require.NoError(t, err, name)

		base := filepath.Base(p)
		require.False(t, strings.ContainsAny(base, tempname.ReservedChars+"%"), base)
		require.Equal(t, r.TempDir(), filepath.Dir(p))

		data, err := os.ReadFile(p)
		require.NoError(t, err)
		require.Equal(t, name, string(data))
	}
}

func TestConcurrentReplicationProducesDistinctFiles(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)
	r := newReplicator(t, dir)

	src := virtualfs.FileWithContent("same.jar", 0o644, []byte("same"))

	const n = 32

	paths := make([]string, n)

	var eg errgroup.Group

	for i := range n {
		eg.Go(func() error {
			p, err := r.ReplicateFile(ctx, src, nil)
			paths[i] = p

			return err
		})
	}

	require.NoError(t, eg.Wait())

	unique := map[string]bool{}
	for _, p := range paths {
		unique[p] = true
	}

	require.Len(t, unique, n)
	require.Len(t, r.TrackedFiles(), n)

	r.Close()

	for _, p := range paths {
		require.False(t, exists(t, p))
	}

	require.False(t, exists(t, dir))
}

func TestDirectoryMissing(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := filepath.Join(testutil.TempDirectory(t), "replicas")
	r := newReplicator(t, dir)

	require.NoError(t, os.Remove(dir))

	before := promtest.ToFloat64(metricReplicateErrorCount.WithLabelValues("directory_missing"))

	_, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, nil), nil)
	require.ErrorIs(t, err, ErrDirectoryMissing)
	require.ErrorContains(t, err, dir)

	var re *Error

	require.ErrorAs(t, err, &re)
	require.Equal(t, "a.jar", re.Source)

	require.False(t, exists(t, dir))
	require.Empty(t, r.TrackedFiles())
	require.Equal(t, before+1, promtest.ToFloat64(metricReplicateErrorCount.WithLabelValues("directory_missing")))

	r.Close()
}

func TestDirectoryCreationFailureIsDeferred(t *testing.T) {
	ctx := testlogging.Context(t)
	parent := testutil.TempDirectory(t)

	testutil.WriteFile(t, filepath.Join(parent, "file"), []byte("not a directory"))

	dir := filepath.Join(parent, "file", "replicas")

	r := New(dir)
	r.SetContext(localfs.Namespace{})

	_, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, nil), nil)
	require.ErrorIs(t, err, ErrDirectoryMissing)

	r.Close()
}

func TestReplicateWithoutContext(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)

	r := New(dir)

	_, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, nil), nil)
	require.ErrorIs(t, err, ErrNoContext)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestTempFileCreationFailed(t *testing.T) {
	testutil.SkipUnlessPermissionsEnforced(t)

	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)
	r := newReplicator(t, dir)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o700) }) //nolint:errcheck

	_, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, nil), nil)
	require.ErrorIs(t, err, ErrTempFileCreation)
	require.ErrorIs(t, err, os.ErrPermission)
	require.Empty(t, r.TrackedFiles())
}

func TestCopyFailedLeavesTrackedFile(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)
	r := newReplicator(t, dir)

	_, err := r.ReplicateFile(ctx, failingFile{virtualfs.FileWithContent("broken.jar", 0o644, nil)}, nil)
	require.ErrorIs(t, err, ErrCopyFailed)
	require.ErrorIs(t, err, errOpenFailed)

	tracked := r.TrackedFiles()
	require.Len(t, tracked, 1)
	require.True(t, exists(t, tracked[0]))
	require.True(t, strings.HasSuffix(tracked[0], "_broken.jar"))

	r.Close()

	require.False(t, exists(t, tracked[0]))
	require.False(t, exists(t, dir))
}

func TestReplicateNothingSelectedKeepsEmptyReplica(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)
	r := newReplicator(t, dir)

	excludeAll := fs.SelectorFunc(func(fs.SelectInfo) bool { return false })

	p, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, []byte("content")), excludeAll)
	require.NoError(t, err)

	st, err := os.Stat(p)
	require.NoError(t, err)
	require.True(t, st.Mode().IsRegular())
	require.Zero(t, st.Size())
	require.Equal(t, []string{p}, r.TrackedFiles())

	r.Close()

	require.False(t, exists(t, p))
	require.False(t, exists(t, dir))
}

func TestReplicateLongBaseName(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("name length limits differ on windows")
	}

	ctx := testlogging.Context(t)
	r := newReplicator(t, testutil.TempDirectory(t))

	defer r.Close()

	// the replica name is 22 bytes longer than the base name, which leaves it just below 255 bytes
	for _, n := range []int{200, 225, 232} {
		name := strings.Repeat("x", n-len(".jar")) + ".jar"

		p, err := r.ReplicateFile(ctx, virtualfs.FileWithContent(name, 0o644, []byte(name)), nil)
		require.NoError(t, err, n)
		require.Len(t, filepath.Base(p), n+len("vfsr_")+16+len("_"))

		data, err := os.ReadFile(p)
		require.NoError(t, err)
		require.Equal(t, name, string(data))
	}

	require.Len(t, r.TrackedFiles(), 3)
}

func TestReplicateDirectoryWithSelector(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)
	r := newReplicator(t, dir)

	root := virtualfs.NewDirectory("lib")

	for _, name := range []string{"a.jar", "b.jar", "notes.txt", "nested/c.jar"} {
		_, err := virtualfs.AddFileWithContent(root, name, []byte(name), 0o755, 0o644)
		require.NoError(t, err)
	}

	jars, err := fs.Glob("*.jar")
	require.NoError(t, err)

	p, err := r.ReplicateFile(ctx, root, jars)
	require.NoError(t, err)

	for _, name := range []string{"a.jar", "b.jar", "nested/c.jar"} {
		data, err := os.ReadFile(filepath.Join(p, filepath.FromSlash(name)))
		require.NoError(t, err)
		require.Equal(t, name, string(data))
	}

	require.False(t, exists(t, filepath.Join(p, "notes.txt")))

	r.Close()

	require.False(t, exists(t, p))
	require.False(t, exists(t, dir))
}

func TestCloseKeepsDirectoryWithOtherFiles(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)
	r := newReplicator(t, dir)

	foreign := filepath.Join(dir, "created-by-someone-else")
	testutil.WriteFile(t, foreign, []byte("x"))

	p, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, []byte("a")), nil)
	require.NoError(t, err)

	r.Close()

	require.False(t, exists(t, p))
	require.True(t, exists(t, foreign))
	require.True(t, exists(t, dir))
}

func TestCloseWithoutReplicas(t *testing.T) {
	dir := filepath.Join(testutil.TempDirectory(t), "replicas")
	r := newReplicator(t, dir)

	require.True(t, exists(t, dir))

	r.Close()
	require.False(t, exists(t, dir))

	// closing again is harmless
	r.Close()
}

func TestCloseIgnoresAlreadyRemovedReplicas(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)
	r := newReplicator(t, dir)

	p, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, []byte("a")), nil)
	require.NoError(t, err)
	require.NoError(t, os.Remove(p))

	before := promtest.ToFloat64(metricCleanupErrorCount)

	r.Close()

	require.False(t, exists(t, dir))
	require.Equal(t, before, promtest.ToFloat64(metricCleanupErrorCount))
}

func TestCloseLogsCleanupFailures(t *testing.T) {
	testutil.SkipUnlessPermissionsEnforced(t)

	parent := testutil.TempDirectory(t)
	dir := filepath.Join(parent, "replicas")
	r := newReplicator(t, dir)

	var rec testlogging.Recorder

	r.SetLogger(rec.Logger())

	require.NoError(t, os.Chmod(parent, 0o500))
	t.Cleanup(func() { os.Chmod(parent, 0o700) }) //nolint:errcheck

	before := promtest.ToFloat64(metricCleanupErrorCount)

	r.Close()

	require.True(t, exists(t, dir))
	require.Equal(t, before+1, promtest.ToFloat64(metricCleanupErrorCount))
	require.Contains(t, strings.Join(rec.Lines(), "\n"), "cannot delete empty directory")
}

func TestReplicateAfterClose(t *testing.T) {
	ctx := testlogging.Context(t)
	r := newReplicator(t, testutil.TempDirectory(t))

	r.Close()

	_, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, nil), nil)
	require.ErrorIs(t, err, ErrClosed)
}

func TestCloseWaitsForInflightReplication(t *testing.T) {
	ctx := testlogging.Context(t)
	dir := testutil.TempDirectory(t)
	r := newReplicator(t, dir)

	src := blockingFile{
		File:    virtualfs.FileWithContent("slow.jar", 0o644, []byte("slow")),
		opened:  make(chan struct{}),
		release: make(chan struct{}),
	}

	type result struct {
		path string
		err  error
	}

	replicated := make(chan result, 1)

	go func() {
		p, err := r.ReplicateFile(ctx, src, nil)
		replicated <- result{p, err}
	}()

	<-src.opened

	closed := make(chan struct{})

	go func() {
		r.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a replication was in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(src.release)

	res := <-replicated
	require.NoError(t, res.err)

	<-closed

	require.False(t, exists(t, res.path))
	require.False(t, exists(t, dir))
}

func TestSetLoggerNilFallsBackToConsole(t *testing.T) {
	r := New(testutil.TempDirectory(t))
	r.SetLogger(nil)
	require.NotNil(t, r.log())
	r.Close()
}

func TestReplicateMetrics(t *testing.T) {
	ctx := testlogging.Context(t)
	r := newReplicator(t, testutil.TempDirectory(t))

	beforeCount := promtest.ToFloat64(metricReplicateCount)
	beforeBytes := promtest.ToFloat64(metricReplicateBytes)

	_, err := r.ReplicateFile(ctx, virtualfs.FileWithContent("a.jar", 0o644, []byte("12345")), nil)
	require.NoError(t, err)

	require.Equal(t, beforeCount+1, promtest.ToFloat64(metricReplicateCount))
	require.Equal(t, beforeBytes+5, promtest.ToFloat64(metricReplicateBytes))

	r.Close()
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: ErrCopyFailed, Source: "a.jar", Path: "/tmp/x", Err: errOpenFailed}

	require.Equal(t, `unable to replicate "a.jar": error copying into temporary file: /tmp/x: open failed`, err.Error())
	require.Equal(t, errOpenFailed, errors.Cause(err))
	require.ErrorIs(t, err, ErrCopyFailed)
	require.NotErrorIs(t, err, ErrDirectoryMissing)
}
