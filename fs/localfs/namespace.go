package localfs

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vfsr/vfsr/fs"
)

// Namespace resolves local paths into destinations that can be copied into.
type Namespace struct{}

// Resolve implements fs.Namespace.
func (Namespace) Resolve(p string) (fs.Destination, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, errors.Wrap(err, "unable to determine absolute path")
	}

	return destination(abs), nil
}

type destination string

func (d destination) Path() string {
	return string(d)
}

func (d destination) CopyFrom(ctx context.Context, src fs.Entry, sel fs.Selector) (int64, error) {
	return Copy(ctx, string(d), src, sel)
}

var _ fs.Namespace = Namespace{}
