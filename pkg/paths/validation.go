package paths

import (
	"strings"

	"github.com/arthur-debert/dirstage/pkg/errors"
)

// Characters never allowed in any segment. The first segment of a
// path is checked against this set only, so a drive marker like "C:"
// stays legal there.
const invalidPathChars = `<>"|/\`

// Characters disallowed in plain name segments: the path set plus the
// drive marker and wildcards.
const invalidNameChars = invalidPathChars + `:*?`

// validateSegment checks one kept fragment. first selects the looser
// invalid-path set, which admits the drive marker.
func validateSegment(seg string, first bool) error {
	charset := invalidNameChars
	if first {
		charset = invalidPathChars
	}
	if strings.ContainsAny(seg, charset) {
		return errors.Newf(errors.ErrInvalidPath,
			"segment %q contains invalid characters", seg)
	}
	for _, r := range seg {
		if r < 32 {
			return errors.Newf(errors.ErrInvalidPath,
				"segment %q contains control characters", seg)
		}
	}
	return nil
}
