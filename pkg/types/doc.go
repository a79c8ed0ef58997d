// Package types defines the collaborator interfaces used throughout
// dirstage: the FS abstraction the builder mutates, and the Archive
// interface for staged archive extraction.
package types
