package replicator

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors identifying the stage at which ReplicateFile failed.
var (
	ErrDirectoryMissing = errors.New("temporary directory no longer exists")
	ErrTempFileCreation = errors.New("error creating temporary file")
	ErrCopyFailed       = errors.New("error copying into temporary file")
	ErrNoContext        = errors.New("replicator context has not been set")
	ErrClosed           = errors.New("replicator is closed")
)

// Error is returned by ReplicateFile. Kind is one of the sentinel errors and Err,
// when not nil, is the underlying cause.
type Error struct {
	Kind   error
	Source string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("unable to replicate %q: %v", e.Source, e.Kind)

	if e.Path != "" {
		msg += ": " + e.Path
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Is reports whether target is the stage sentinel of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind //nolint:errorlint
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns the underlying cause, for use with errors.Cause.
func (e *Error) Cause() error {
	if e.Err == nil {
		return e.Kind
	}

	return e.Err
}

func stageName(kind error) string {
	switch kind {
	case ErrDirectoryMissing:
		return "directory_missing"
	case ErrTempFileCreation:
		return "create"
	case ErrCopyFailed:
		return "copy"
	case ErrNoContext:
		return "no_context"
	case ErrClosed:
		return "closed"
	default:
		return "unknown"
	}
}
