package archive

import (
	"archive/tar"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/dirstage/pkg/errors"
	"github.com/arthur-debert/dirstage/pkg/types"
	"github.com/klauspost/compress/gzip"
)

// tarGzArchive adapts a gzip-compressed tarball to types.Archive.
// Tar is sequential, so each entry Open rescans the tarball up to the
// entry's position; streams handed out are tracked and released on
// Close.
type tarGzArchive struct {
	path   string
	closed bool
	open   []io.Closer
}

// OpenTarGz opens a .tar.gz / .tgz file on the OS filesystem.
func OpenTarGz(path string) (types.Archive, error) {
	// Probe now so a bad path fails at staging time, not at commit.
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrArchiveRead, "opening tarball %s", path)
	}
	_ = f.Close()
	return &tarGzArchive{path: path}, nil
}

func (t *tarGzArchive) Entries() ([]types.Entry, error) {
	if t.closed {
		return nil, errors.New(errors.ErrArchiveRead, "archive is closed")
	}
	tr, closer, err := t.newReader()
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var entries []types.Entry
	for index := 0; ; index++ {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrArchiveRead, "reading tarball %s", t.path)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := strings.ReplaceAll(hdr.Name, `\`, "/")
		position := index
		entries = append(entries, types.Entry{
			Name: name,
			Open: func() (io.ReadCloser, error) {
				return t.openAt(position)
			},
		})
	}
	return entries, nil
}

func (t *tarGzArchive) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	var firstErr error
	for _, c := range t.open {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.open = nil
	return firstErr
}

// newReader opens a fresh file/gzip/tar reader stack over the tarball.
func (t *tarGzArchive) newReader() (*tar.Reader, io.Closer, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "opening tarball %s", t.path)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrapf(err, errors.ErrArchiveRead, "decompressing tarball %s", t.path)
	}
	return tar.NewReader(gz), &stack{gz: gz, f: f}, nil
}

// openAt returns a stream positioned at the index-th tar header.
func (t *tarGzArchive) openAt(index int) (io.ReadCloser, error) {
	if t.closed {
		return nil, errors.New(errors.ErrArchiveRead, "archive is closed")
	}
	tr, closer, err := t.newReader()
	if err != nil {
		return nil, err
	}
	for i := 0; ; i++ {
		_, err := tr.Next()
		if err != nil {
			_ = closer.Close()
			return nil, errors.Wrapf(err, errors.ErrArchiveRead, "seeking entry %d in %s", index, t.path)
		}
		if i == index {
			break
		}
	}
	rc := &entryStream{Reader: tr, closer: closer}
	t.open = append(t.open, rc)
	return rc, nil
}

// stack closes the gzip reader then the underlying file.
type stack struct {
	gz *gzip.Reader
	f  *os.File
}

func (s *stack) Close() error {
	gzErr := s.gz.Close()
	fErr := s.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

// entryStream exposes one tar entry's bytes and releases the whole
// reader stack on Close.
type entryStream struct {
	io.Reader
	closer io.Closer
	closed bool
}

func (e *entryStream) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.closer.Close()
}
