// Package tempname derives filesystem-safe names from untrusted base names and creates
// uniquely named files.
package tempname

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	escapeChar  = '%'
	replaceChar = '_'
	hexDigits   = "0123456789abcdef"

	// MaxAttempts is the number of names tried by Create before giving up.
	MaxAttempts = 100

	infixLength = 16
	filePerm    = 0o600
)

// ReservedChars are the characters that are never allowed to appear verbatim in a sanitized name.
const ReservedChars = "?/\\ &\"'*#;:<>|"

// ErrAttemptsExhausted is returned by Create when every candidate name was already taken.
var ErrAttemptsExhausted = errors.New("unable to find an unused file name")

func isEscaped(c byte) bool {
	return c == escapeChar || strings.IndexByte(ReservedChars, c) >= 0
}

// Sanitize returns baseName with every reserved character and every '%' replaced by
// '_' followed by the two lowercase hex digits of the character, e.g. "a?b" becomes "a_3fb".
// The result never contains a path separator.
func Sanitize(baseName string) string {
	var sb strings.Builder

	sb.Grow(len(baseName))

	for i := range len(baseName) {
		c := baseName[i]

		if !isEscaped(c) {
			sb.WriteByte(c)
			continue
		}

		sb.WriteByte(replaceChar)
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0x0f])
	}

	return sb.String()
}

// Create atomically creates a new empty file in dir named prefix + random + suffix and returns it open
// for reading and writing. A name that already exists is never reused or truncated.
func Create(dir, prefix, suffix string) (*os.File, error) {
	if strings.ContainsAny(prefix+suffix, `/\`) {
		return nil, errors.Errorf("invalid file name pattern %q", prefix+"*"+suffix)
	}

	for range MaxAttempts {
		name := filepath.Join(dir, prefix+randomInfix()+suffix)

		f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, filePerm) //nolint:gosec
		if err == nil {
			return f, nil
		}

		if !os.IsExist(err) {
			return nil, errors.Wrap(err, "unable to create file")
		}
	}

	return nil, errors.Wrapf(ErrAttemptsExhausted, "in %q after %v attempts", dir, MaxAttempts)
}

// randomInfix can be replaced in tests to force collisions.
//
//nolint:gochecknoglobals
var randomInfix = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:infixLength]
}
