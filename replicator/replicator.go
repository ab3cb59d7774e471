// Package replicator materializes virtual filesystem entries as uniquely named local files
// and removes them when the replicator is closed.
package replicator

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/vfsr/vfsr/fs"
	"github.com/vfsr/vfsr/internal/atexit"
	"github.com/vfsr/vfsr/internal/tempname"
	"github.com/vfsr/vfsr/logging"
)

const (
	filePrefix = "vfsr_"
	dirMode    = 0o700
	loggerName = "vfsr/replicator"
)

// Context resolves the local path of a new replica into a destination the source is copied into.
type Context = fs.Namespace

// UniqueFileReplicator copies sources into uniquely named files inside a temporary directory
// that it owns, and removes them on Close. It is safe for concurrent use.
type UniqueFileReplicator struct {
	tempDir string

	inflight sync.WaitGroup

	mu sync.Mutex
	// +checklocks:mu
	nsContext Context
	// +checklocks:mu
	logger logging.Logger
	// +checklocks:mu
	tracked map[string]struct{}
	// +checklocks:mu
	closed bool
}

// New returns a replicator owning tempDir, which is created if needed. Failure to create the
// directory is only logged; ReplicateFile reports it with ErrDirectoryMissing.
func New(tempDir string) *UniqueFileReplicator {
	r := &UniqueFileReplicator{
		tempDir: tempDir,
		logger:  logging.Console(loggerName),
		tracked: map[string]struct{}{},
	}

	if err := os.MkdirAll(tempDir, dirMode); err != nil {
		r.log().Warnw("unexpected error creating directory", "dir", tempDir, "error", err)
	}

	return r
}

// TempDir returns the directory replicas are created in.
func (r *UniqueFileReplicator) TempDir() string {
	return r.tempDir
}

// SetContext sets the namespace replicas are resolved in. It must be called before ReplicateFile.
func (r *UniqueFileReplicator) SetContext(c Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nsContext = c
}

// SetLogger sets the logger used for diagnostics. A nil logger selects the default stderr logger.
func (r *UniqueFileReplicator) SetLogger(l logging.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l == nil {
		l = logging.Console(loggerName)
	}

	r.logger = l
}

// Init implements the component lifecycle and does nothing.
func (r *UniqueFileReplicator) Init() error {
	return nil
}

func (r *UniqueFileReplicator) log() logging.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.logger
}

// begin registers an in-flight replication, which Close waits for.
func (r *UniqueFileReplicator) begin() (Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	if r.nsContext == nil {
		return nil, ErrNoContext
	}

	r.inflight.Add(1)

	return r.nsContext, nil
}

func (r *UniqueFileReplicator) track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracked[path] = struct{}{}
	atexit.Register(path)
	metricTrackedFiles.Inc()
}

// ReplicateFile copies the entries of src chosen by sel into a new uniquely named file in the
// temporary directory and returns its path. The file name is "vfsr_<random>_<name>" where <name>
// is the sanitized base name of src.
//
// The replica is tracked for removal as soon as it is created, so it is removed by Close even
// when copying into it fails.
func (r *UniqueFileReplicator) ReplicateFile(ctx context.Context, src fs.Entry, sel fs.Selector) (string, error) {
	baseName := src.Name()

	ns, err := r.begin()
	if err != nil {
		return "", r.failed(&Error{Kind: err, Source: baseName})
	}
	defer r.inflight.Done()

	if st, err := os.Stat(r.tempDir); err != nil || !st.IsDir() {
		return "", r.failed(&Error{Kind: ErrDirectoryMissing, Source: baseName, Path: r.tempDir})
	}

	f, err := tempname.Create(r.tempDir, filePrefix, "_"+tempname.Sanitize(baseName))
	if err != nil {
		return "", r.failed(&Error{Kind: ErrTempFileCreation, Source: baseName, Path: r.tempDir, Err: err})
	}

	path := f.Name()

	r.track(path)

	if err := f.Close(); err != nil {
		return "", r.failed(&Error{Kind: ErrTempFileCreation, Source: baseName, Path: path, Err: err})
	}

	dest, err := ns.Resolve(path)
	if err != nil {
		return "", r.failed(&Error{Kind: ErrCopyFailed, Source: baseName, Path: path, Err: err})
	}

	n, err := dest.CopyFrom(ctx, src, sel)
	metricReplicateBytes.Add(float64(n))

	if err != nil {
		return "", r.failed(&Error{Kind: ErrCopyFailed, Source: baseName, Path: path, Err: err})
	}

	metricReplicateCount.Inc()
	r.log().Debugw("replicated", "source", baseName, "path", path, "bytes", n)

	return path, nil
}

func (r *UniqueFileReplicator) failed(e *Error) error {
	metricReplicateErrorCount.WithLabelValues(stageName(e.Kind)).Inc()

	return e
}

// TrackedFiles returns the sorted list of replicas that will be removed by Close.
func (r *UniqueFileReplicator) TrackedFiles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]string, 0, len(r.tracked))
	for p := range r.tracked {
		result = append(result, p)
	}

	sort.Strings(result)

	return result
}

// Close waits for in-flight replications, removes every tracked replica and then removes the
// temporary directory if it is empty. Failures are logged and never returned. Replications
// attempted after Close fail with ErrClosed.
func (r *UniqueFileReplicator) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.inflight.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	for p := range r.tracked {
		r.removeReplicaLocked(p)
		delete(r.tracked, p)
		atexit.Deregister(p)
		metricTrackedFiles.Dec()
	}

	r.removeDirIfEmptyLocked()
}

// +checklocks:r.mu
func (r *UniqueFileReplicator) removeReplicaLocked(p string) {
	if _, err := os.Lstat(p); os.IsNotExist(err) {
		r.logger.Debugw("replica no longer exists", "path", p)
		return
	}

	// a directory source turns the replica into a directory tree
	if err := os.RemoveAll(p); err != nil {
		metricCleanupErrorCount.Inc()
		r.logger.Warnw("unable to remove replica", "path", p, "error", err)
	}
}

// +checklocks:r.mu
func (r *UniqueFileReplicator) removeDirIfEmptyLocked() {
	entries, err := os.ReadDir(r.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			metricCleanupErrorCount.Inc()
			r.logger.Warnw("unable to list directory", "dir", r.tempDir, "error", err)
		}

		return
	}

	if len(entries) != 0 {
		r.logger.Debugw("directory not empty, keeping it", "dir", r.tempDir, "entries", len(entries))
		return
	}

	if err := os.Remove(r.tempDir); err != nil && !os.IsNotExist(err) {
		metricCleanupErrorCount.Inc()
		r.logger.Warnw("cannot delete empty directory", "dir", r.tempDir, "error", err)
	}
}
