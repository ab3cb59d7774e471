package fs

import (
	"math"
	"path"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// SelectInfo describes an entry being considered during a selective copy.
type SelectInfo struct {
	// Entry being considered.
	Entry Entry

	// RelativePath is the slash-separated path of Entry relative to the root of the copy.
	// The root entry itself has the relative path equal to its name.
	RelativePath string

	// Depth is 0 for the root of the copy, 1 for its children and so on.
	Depth int
}

// Selector decides which entries of a tree take part in a copy.
type Selector interface {
	// Include returns true if the entry should be copied.
	Include(info SelectInfo) bool

	// Traverse returns true if the children of a directory should be considered.
	Traverse(info SelectInfo) bool
}

// DepthSelector selects entries between MinDepth and MaxDepth (inclusive).
type DepthSelector struct {
	MinDepth int
	MaxDepth int
}

// Include implements Selector.
func (s DepthSelector) Include(info SelectInfo) bool {
	return info.Depth >= s.MinDepth && info.Depth <= s.MaxDepth
}

// Traverse implements Selector.
func (s DepthSelector) Traverse(info SelectInfo) bool {
	return info.Depth < s.MaxDepth
}

// SelectDepth returns a selector which includes entries between the given depths.
func SelectDepth(minDepth, maxDepth int) Selector {
	return DepthSelector{minDepth, maxDepth}
}

//nolint:gochecknoglobals
var (
	// SelectAll selects the root and all its descendants.
	SelectAll Selector = DepthSelector{0, math.MaxInt}

	// SelectSelf selects only the root of the copy.
	SelectSelf Selector = DepthSelector{0, 0}

	// SelectChildren selects only the immediate children of the root.
	SelectChildren Selector = DepthSelector{1, 1}

	// SelectFiles selects every non-directory entry of the tree.
	SelectFiles Selector = SelectorFunc(func(info SelectInfo) bool {
		return !info.Entry.IsDir()
	})
)

// SelectorFunc adapts a predicate into a Selector that always traverses.
type SelectorFunc func(info SelectInfo) bool

// Include implements Selector.
func (f SelectorFunc) Include(info SelectInfo) bool {
	return f(info)
}

// Traverse implements Selector.
func (f SelectorFunc) Traverse(info SelectInfo) bool {
	return true
}

// GlobSelector includes files whose relative path or base name matches any of the patterns.
type GlobSelector struct {
	patterns []glob.Glob
}

// Glob compiles the given patterns into a GlobSelector. Patterns use '/' as the separator,
// so '*' does not cross directory boundaries while '**' does.
func Glob(patterns ...string) (*GlobSelector, error) {
	s := &GlobSelector{}

	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", p)
		}

		s.patterns = append(s.patterns, g)
	}

	return s, nil
}

// Include implements Selector.
func (s *GlobSelector) Include(info SelectInfo) bool {
	if info.Entry.IsDir() {
		return false
	}

	base := path.Base(info.RelativePath)

	for _, g := range s.patterns {
		if g.Match(info.RelativePath) || g.Match(base) {
			return true
		}
	}

	return false
}

// Traverse implements Selector.
func (s *GlobSelector) Traverse(info SelectInfo) bool {
	return true
}

// OrDefault returns s, or SelectAll when s is nil.
func OrDefault(s Selector) Selector {
	if s == nil {
		return SelectAll
	}

	return s
}

var (
	_ Selector = DepthSelector{}
	_ Selector = SelectorFunc(nil)
	_ Selector = (*GlobSelector)(nil)
)
