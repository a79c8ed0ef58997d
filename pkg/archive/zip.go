package archive

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/arthur-debert/dirstage/pkg/errors"
	"github.com/arthur-debert/dirstage/pkg/types"
)

// zipArchive adapts archive/zip to types.Archive. Entry streams are
// backed by the open zip file; Close invalidates them.
type zipArchive struct {
	reader *zip.ReadCloser
	closed bool
}

// OpenZip opens a zip file on the OS filesystem.
func OpenZip(path string) (types.Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchiveRead, "opening zip %s", path)
	}
	return &zipArchive{reader: r}, nil
}

func (z *zipArchive) Entries() ([]types.Entry, error) {
	if z.closed {
		return nil, errors.New(errors.ErrArchiveRead, "archive is closed")
	}
	var entries []types.Entry
	for _, f := range z.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		file := f
		entries = append(entries, types.Entry{
			Name: strings.ReplaceAll(file.Name, `\`, "/"),
			Open: func() (io.ReadCloser, error) {
				rc, err := file.Open()
				if err != nil {
					return nil, errors.Wrapf(err, errors.ErrArchiveRead, "opening entry %s", file.Name)
				}
				return rc, nil
			},
		})
	}
	return entries, nil
}

func (z *zipArchive) Close() error {
	if z.closed {
		return nil
	}
	z.closed = true
	return z.reader.Close()
}
