// Package archive provides types.Archive implementations for the two
// formats dirstage extracts: zip and tar.gz. Entry names are reported
// with forward slashes; directory entries are skipped, since the
// builder derives directories from file destinations.
package archive

import (
	"strings"

	"github.com/arthur-debert/dirstage/pkg/errors"
	"github.com/arthur-debert/dirstage/pkg/types"
)

// Open opens an archive file, picking the format from the file name.
// Recognized: .zip, .tgz, .tar.gz.
func Open(path string) (types.Archive, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return OpenZip(path)
	case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
		return OpenTarGz(path)
	}
	return nil, errors.Newf(errors.ErrArchiveRead, "unrecognized archive format: %s", path)
}
