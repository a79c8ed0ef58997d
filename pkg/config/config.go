// Package config loads the TOML manifest the dirstage CLI stages
// from: a target root, a conflict policy, and the entries to create,
// copy, extract or delete.
package config

import (
	"os"

	"github.com/arthur-debert/dirstage/pkg/builder"
	"github.com/arthur-debert/dirstage/pkg/errors"
	"github.com/arthur-debert/dirstage/pkg/logging"
	toml "github.com/pelletier/go-toml/v2"
)

var log = logging.GetLogger("config")

// Manifest describes one staged batch.
type Manifest struct {
	Root       string         `toml:"root"`
	OnConflict string         `toml:"on_conflict"`
	Dirs       []DirEntry     `toml:"dir"`
	Files      []FileEntry    `toml:"file"`
	Copies     []CopyEntry    `toml:"copy"`
	Extracts   []ExtractEntry `toml:"extract"`
	Deletes    []DeleteEntry  `toml:"delete"`
}

// DirEntry ensures a directory exists under the root.
type DirEntry struct {
	Path string `toml:"path"`
}

// FileEntry creates a file from inline content or an existing source
// file. Exactly one of Content and Source must be set.
type FileEntry struct {
	Path    string `toml:"path"`
	Content string `toml:"content"`
	Source  string `toml:"source"`
}

// CopyEntry mirrors an existing file or directory tree under the root.
type CopyEntry struct {
	Path string `toml:"path"`
	From string `toml:"from"`
}

// ExtractEntry unpacks an archive's entries under the root.
type ExtractEntry struct {
	Path    string `toml:"path"`
	Archive string `toml:"archive"`
}

// DeleteEntry removes a file or directory tree under the root.
type DeleteEntry struct {
	Path string `toml:"path"`
}

// Load reads and parses a manifest file.
func Load(path string) (Manifest, error) {
	var m Manifest

	data, err := os.ReadFile(path)
	if err != nil {
		return m, errors.Wrapf(err, errors.ErrConfigLoad, "reading manifest %s", path)
	}

	if err := toml.Unmarshal(data, &m); err != nil {
		return m, errors.Wrapf(err, errors.ErrConfigLoad, "parsing manifest %s", path)
	}

	if err := m.Validate(); err != nil {
		return m, err
	}

	log.Debug().
		Str("path", path).
		Int("dirs", len(m.Dirs)).
		Int("files", len(m.Files)).
		Int("copies", len(m.Copies)).
		Int("extracts", len(m.Extracts)).
		Int("deletes", len(m.Deletes)).
		Msg("manifest loaded")
	return m, nil
}

// Validate checks the manifest's structural rules.
func (m Manifest) Validate() error {
	if m.Root == "" {
		return errors.New(errors.ErrConfigValid, "manifest must set root")
	}
	if _, err := builder.ParsePolicy(m.OnConflict); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "manifest on_conflict")
	}
	for _, f := range m.Files {
		if f.Path == "" {
			return errors.New(errors.ErrConfigValid, "file entry missing path")
		}
		if (f.Content == "") == (f.Source == "") {
			return errors.Newf(errors.ErrConfigValid,
				"file %q must set exactly one of content and source", f.Path)
		}
	}
	for _, d := range m.Dirs {
		if d.Path == "" {
			return errors.New(errors.ErrConfigValid, "dir entry missing path")
		}
	}
	for _, c := range m.Copies {
		if c.Path == "" || c.From == "" {
			return errors.New(errors.ErrConfigValid, "copy entry must set path and from")
		}
	}
	for _, e := range m.Extracts {
		if e.Path == "" || e.Archive == "" {
			return errors.New(errors.ErrConfigValid, "extract entry must set path and archive")
		}
	}
	for _, d := range m.Deletes {
		if d.Path == "" {
			return errors.New(errors.ErrConfigValid, "delete entry missing path")
		}
	}
	return nil
}

// Policy returns the parsed conflict policy.
func (m Manifest) Policy() builder.ConflictPolicy {
	p, _ := builder.ParsePolicy(m.OnConflict)
	return p
}
