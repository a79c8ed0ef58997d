package builder

import (
	"strings"

	"github.com/arthur-debert/dirstage/pkg/errors"
)

// ConflictPolicy decides what happens when a staged file write finds
// an existing file at its destination. It applies to file writes
// only, evaluated per destination at commit time.
type ConflictPolicy int

const (
	// Overwrite replaces any existing file.
	Overwrite ConflictPolicy = iota
	// Skip omits the write when the destination exists; not an error.
	Skip
	// ThrowOnConflict fails the commit at the first existing destination.
	ThrowOnConflict
	// Rename writes under an alternate "name (N)" picked by counting
	// up from 1 until a free name is found.
	Rename
)

func (p ConflictPolicy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Skip:
		return "skip"
	case ThrowOnConflict:
		return "throw"
	case Rename:
		return "rename"
	}
	return "unknown"
}

// ParsePolicy maps a config/CLI token to a ConflictPolicy.
func ParsePolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "":
		return Overwrite, nil
	case "skip":
		return Skip, nil
	case "throw", "error", "fail":
		return ThrowOnConflict, nil
	case "rename":
		return Rename, nil
	}
	return Overwrite, errors.Newf(errors.ErrInvalidArgument, "unknown conflict policy %q", s)
}
