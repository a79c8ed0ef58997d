package builder

import (
	"bytes"
	"io"
	"path/filepath"

	"github.com/arthur-debert/dirstage/pkg/errors"
	"github.com/arthur-debert/dirstage/pkg/filesystem"
	"github.com/arthur-debert/dirstage/pkg/logging"
	"github.com/arthur-debert/dirstage/pkg/paths"
	"github.com/arthur-debert/dirstage/pkg/types"
	"github.com/rs/zerolog"
)

// Intent records. Each is a staged, not-yet-applied mutation keyed by
// a destination path relative to the builder's root.
type fileIntent struct {
	dest paths.Path
	src  ByteSource
}

type dirIntent struct {
	dest paths.Path
}

type copyIntent struct {
	dest   paths.Path
	source string // absolute OS path of the existing entry
}

type archiveIntent struct {
	dest paths.Path
	ar   types.Archive
}

type deleteIntent struct {
	dest paths.Path
}

// Options contains configuration for the builder
type Options struct {
	// FS is the filesystem the commit runs against; defaults to the
	// OS filesystem.
	FS types.FS
	// Policy resolves file-already-exists conflicts; defaults to
	// Overwrite.
	Policy ConflictPolicy
	Logger zerolog.Logger
}

// Builder accumulates staged filesystem mutations and applies them as
// one batch against a root directory. It is not safe for concurrent
// use: staging calls and the commit must be serialized by the caller.
type Builder struct {
	root   string
	fs     types.FS
	policy ConflictPolicy
	logger zerolog.Logger

	files    []fileIntent
	dirs     []dirIntent
	copies   []copyIntent
	archives []archiveIntent
	deletes  []deleteIntent

	stageErr error
}

// New creates a builder rooted at the given OS directory. The root
// need not exist yet; commit creates it.
func New(root string, opts Options) (*Builder, error) {
	if root == "" {
		return nil, errors.New(errors.ErrInvalidArgument, "builder root cannot be empty")
	}

	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("builder")
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	return &Builder{
		root:   root,
		fs:     fs,
		policy: opts.Policy,
		logger: logger,
	}, nil
}

// Err returns the first staging error, if any. Build refuses to run
// while a staging error is pending.
func (b *Builder) Err() error {
	return b.stageErr
}

// AddFile stages a file with constant contents.
func (b *Builder) AddFile(path string, data []byte) *Builder {
	return b.AddFileSource(path, BytesSource(data))
}

// AddFileSource stages a file whose contents come from a ByteSource.
// The destination must be relative.
func (b *Builder) AddFileSource(path string, src ByteSource) *Builder {
	dest, err := b.stageDest(path)
	if err != nil {
		b.fail(err)
		_ = src.release()
		return b
	}
	b.files = append(b.files, fileIntent{dest: dest, src: src})
	b.logger.Debug().Str("path", dest.String()).Msg("staged file")
	return b
}

// AddDirectory stages a directory to ensure exists. The destination
// must be relative.
func (b *Builder) AddDirectory(path string) *Builder {
	dest, err := b.stageDest(path)
	if err != nil {
		b.fail(err)
		return b
	}
	b.dirs = append(b.dirs, dirIntent{dest: dest})
	b.logger.Debug().Str("path", dest.String()).Msg("staged directory")
	return b
}

// AddExisting stages a copy of an existing file or directory tree
// into dest. The source is an absolute OS path and must exist at
// staging time.
func (b *Builder) AddExisting(dest string, source string) *Builder {
	d, err := b.stageDest(dest)
	if err != nil {
		b.fail(err)
		return b
	}
	if !filepath.IsAbs(source) {
		b.fail(errors.Newf(errors.ErrInvalidArgument, "copy source must be absolute: %s", source))
		return b
	}
	if _, err := b.fs.Stat(source); err != nil {
		b.fail(errors.Wrapf(err, errors.ErrNotFound, "copy source %s", source))
		return b
	}
	b.copies = append(b.copies, copyIntent{dest: d, source: source})
	b.logger.Debug().Str("dest", d.String()).Str("source", source).Msg("staged copy")
	return b
}

// ExtractArchive stages extraction of every archive entry under dest.
// The builder owns the archive from here on and closes it after its
// entries are consumed, or on Close.
func (b *Builder) ExtractArchive(dest string, ar types.Archive) *Builder {
	d, err := b.stageDest(dest)
	if err != nil {
		b.fail(err)
		_ = ar.Close()
		return b
	}
	b.archives = append(b.archives, archiveIntent{dest: d, ar: ar})
	b.logger.Debug().Str("dest", d.String()).Msg("staged archive extraction")
	return b
}

// Delete stages deletion of the file or directory tree at path.
func (b *Builder) Delete(path string) *Builder {
	dest, err := b.stageDest(path)
	if err != nil {
		b.fail(err)
		return b
	}
	b.deletes = append(b.deletes, deleteIntent{dest: dest})
	b.logger.Debug().Str("path", dest.String()).Msg("staged delete")
	return b
}

// Close releases every resource the builder still holds (archives and
// open source streams) and clears all staged intents without applying
// them. Safe to call after Build; idempotent.
func (b *Builder) Close() error {
	var firstErr error
	for _, ai := range b.archives {
		if err := ai.ar.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i := range b.files {
		if err := b.files[i].src.release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.clear()
	return firstErr
}

// stageDest parses and checks a staged destination path.
func (b *Builder) stageDest(path string) (paths.Path, error) {
	dest, err := paths.Parse(path)
	if err != nil {
		return paths.Path{}, err
	}
	if dest.IsAbsolute() {
		return paths.Path{}, errors.Newf(errors.ErrInvalidPath,
			"staged destination must be relative: %s", dest.String())
	}
	return dest, nil
}

// fail records the first staging error; later calls still chain.
func (b *Builder) fail(err error) {
	b.logger.Error().Err(err).Msg("staging failed")
	if b.stageErr == nil {
		b.stageErr = err
	}
}

// clear drops all accumulated intents and the staging error.
func (b *Builder) clear() {
	b.files = nil
	b.dirs = nil
	b.copies = nil
	b.archives = nil
	b.deletes = nil
	b.stageErr = nil
}

// resolve maps a staged destination to an OS path under the root.
func (b *Builder) resolve(dest paths.Path) string {
	return filepath.Join(b.root, filepath.FromSlash(dest.Slash()))
}

// lazyRead defers reading an existing file until its bytes are
// needed for the write.
func (b *Builder) lazyRead(source string) ByteSource {
	return StreamSource(func() (io.ReadCloser, error) {
		data, err := b.fs.ReadFile(source)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}
