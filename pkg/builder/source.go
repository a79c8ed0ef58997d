package builder

import (
	"io"

	"github.com/arthur-debert/dirstage/pkg/errors"
)

// ByteSource is the content of a staged file: either constant bytes
// or a deferred stream resolved exactly once at commit time.
type ByteSource struct {
	data []byte
	open func() (io.ReadCloser, error)
	rc   io.ReadCloser
	done bool
}

// BytesSource wraps constant bytes.
func BytesSource(data []byte) ByteSource {
	if data == nil {
		data = []byte{}
	}
	return ByteSource{data: data}
}

// StreamSource wraps a capability to open a readable stream once.
// The stream is opened, drained and closed during commit.
func StreamSource(open func() (io.ReadCloser, error)) ByteSource {
	return ByteSource{open: open}
}

// ReaderSource wraps an already-open stream. The builder owns it from
// here on: it is closed after commit consumes it, or when the builder
// is closed without committing.
func ReaderSource(rc io.ReadCloser) ByteSource {
	return ByteSource{rc: rc}
}

// resolve produces the bytes, consuming and closing any stream.
func (s *ByteSource) resolve() ([]byte, error) {
	if s.done {
		return nil, errors.New(errors.ErrInternal, "byte source resolved twice")
	}
	s.done = true

	if s.data != nil {
		return s.data, nil
	}

	rc := s.rc
	if rc == nil && s.open != nil {
		var err error
		rc, err = s.open()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrFileRead, "opening deferred source")
		}
	}
	if rc == nil {
		return []byte{}, nil
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileRead, "reading deferred source")
	}
	return data, nil
}

// release closes a held stream that was never consumed.
func (s *ByteSource) release() error {
	if s.done || s.rc == nil {
		return nil
	}
	s.done = true
	return s.rc.Close()
}
