package fs

import "context"

// Destination is a writable location in a Namespace that content can be copied into.
type Destination interface {
	// Path returns the local filesystem path of the destination.
	Path() string

	// CopyFrom replaces the destination with the entries of src chosen by sel
	// and returns the number of bytes copied.
	CopyFrom(ctx context.Context, src Entry, sel Selector) (int64, error)
}

// Namespace maps local filesystem paths to destinations.
type Namespace interface {
	Resolve(path string) (Destination, error)
}
