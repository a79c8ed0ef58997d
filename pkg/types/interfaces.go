package types

import (
	"io"
	"io/fs"
)

// FS is the filesystem interface required for dirstage operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Removal operations
	Remove(name string) error
	RemoveAll(path string) error
}

// Entry is a single archive member: its full internal name
// (forward-slash separated) and a way to open its contents once.
type Entry struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Archive yields a sequence of entries. Closing the archive releases
// all entry streams; entries must not be opened after Close.
type Archive interface {
	Entries() ([]Entry, error)
	io.Closer
}
