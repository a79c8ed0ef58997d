package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dirstage/pkg/errors"
	"github.com/arthur-debert/dirstage/pkg/paths"
)

const (
	fileMode = 0644
	dirMode  = 0755
)

// Build applies every staged intent against the root in a fixed
// pipeline: ensure root, deletes, copy expansion, archive expansion,
// directory creation, file writes under the conflict policy. The
// batch is not transactional: the first error halts the remaining
// steps and leaves already-applied effects in place. A successful
// commit clears the builder; a second Build only re-ensures the root.
func (b *Builder) Build(ctx context.Context) error {
	if b.stageErr != nil {
		return b.stageErr
	}

	b.logger.Info().
		Str("root", b.root).
		Str("policy", b.policy.String()).
		Int("files", len(b.files)).
		Int("dirs", len(b.dirs)).
		Int("copies", len(b.copies)).
		Int("archives", len(b.archives)).
		Int("deletes", len(b.deletes)).
		Msg("committing staged mutations")

	if err := b.fs.MkdirAll(b.root, dirMode); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "creating root %s", b.root)
	}

	if err := b.applyDeletes(ctx); err != nil {
		return err
	}

	copyFiles, copyDirs, err := b.expandCopies(ctx)
	if err != nil {
		return err
	}

	archiveFiles, err := b.expandArchives(ctx)
	if err != nil {
		return err
	}

	pendingDirs := append(append([]dirIntent{}, b.dirs...), copyDirs...)
	pendingFiles := append(append(append([]fileIntent{}, b.files...), copyFiles...), archiveFiles...)

	if err := b.createDirectories(ctx, pendingDirs, pendingFiles); err != nil {
		return err
	}

	if err := b.writeFiles(ctx, pendingFiles); err != nil {
		return err
	}

	b.clear()
	b.logger.Info().Str("root", b.root).Msg("commit complete")
	return nil
}

// BuildAsync runs Build on its own goroutine and delivers the single
// completion signal (nil or the first failure) on the returned
// channel.
func (b *Builder) BuildAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- b.Build(ctx)
	}()
	return done
}

// applyDeletes removes each staged path: a file with Remove, a
// directory tree with RemoveAll. A path that is neither is an error.
func (b *Builder) applyDeletes(ctx context.Context) error {
	if err := stageCtx(ctx, "deletes"); err != nil {
		return err
	}
	for _, di := range b.deletes {
		target := b.resolve(di.dest)
		info, err := b.fs.Stat(target)
		if err != nil {
			return errors.Wrapf(err, errors.ErrNotFound, "nothing to delete at %s", di.dest.String())
		}
		if info.IsDir() {
			err = b.fs.RemoveAll(target)
		} else {
			err = b.fs.Remove(target)
		}
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileDelete, "deleting %s", di.dest.String())
		}
		b.logger.Debug().Str("path", di.dest.String()).Bool("dir", info.IsDir()).Msg("deleted")
	}
	return nil
}

// expandCopies turns each copy intent into concrete file and
// directory intents. Directory trees are walked with an explicit
// stack rather than recursion.
func (b *Builder) expandCopies(ctx context.Context) ([]fileIntent, []dirIntent, error) {
	if err := stageCtx(ctx, "copy expansion"); err != nil {
		return nil, nil, err
	}

	var files []fileIntent
	var dirs []dirIntent

	for _, ci := range b.copies {
		info, err := b.fs.Stat(ci.source)
		if err != nil {
			return nil, nil, errors.Wrapf(err, errors.ErrNotFound, "copy source %s", ci.source)
		}

		if !info.IsDir() {
			files = append(files, fileIntent{dest: ci.dest, src: b.lazyRead(ci.source)})
			continue
		}

		type frame struct {
			src  string
			dest paths.Path
		}
		stack := []frame{{src: ci.source, dest: ci.dest}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			dirs = append(dirs, dirIntent{dest: top.dest})

			entries, err := b.fs.ReadDir(top.src)
			if err != nil {
				return nil, nil, errors.Wrapf(err, errors.ErrFileRead, "enumerating %s", top.src)
			}
			for _, entry := range entries {
				childSrc := filepath.Join(top.src, entry.Name())
				childDest, err := top.dest.JoinSegments(entry.Name())
				if err != nil {
					return nil, nil, err
				}
				if entry.IsDir() {
					stack = append(stack, frame{src: childSrc, dest: childDest})
				} else {
					files = append(files, fileIntent{dest: childDest, src: b.lazyRead(childSrc)})
				}
			}
		}
	}
	return files, dirs, nil
}

// expandArchives drains every staged archive into file intents, one
// per entry, and releases each archive handle once its entries are
// consumed.
func (b *Builder) expandArchives(ctx context.Context) ([]fileIntent, error) {
	if err := stageCtx(ctx, "archive expansion"); err != nil {
		return nil, err
	}

	var files []fileIntent
	for _, ai := range b.archives {
		entries, err := ai.ar.Entries()
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			rel, err := paths.Parse(entry.Name)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrArchiveRead, "entry %q", entry.Name)
			}
			dest, err := ai.dest.Join(rel)
			if err != nil {
				return nil, err
			}

			rc, err := entry.Open()
			if err != nil {
				return nil, err
			}
			src := ReaderSource(rc)
			data, err := src.resolve()
			if err != nil {
				return nil, err
			}
			files = append(files, fileIntent{dest: dest, src: BytesSource(data)})
		}
		if err := ai.ar.Close(); err != nil {
			return nil, errors.Wrap(err, errors.ErrArchiveRead, "closing archive")
		}
		b.logger.Debug().Str("dest", ai.dest.String()).Int("entries", len(entries)).Msg("archive expanded")
	}
	return files, nil
}

// createDirectories creates every staged directory plus the parents
// implied by file destinations, before any file write.
func (b *Builder) createDirectories(ctx context.Context, dirs []dirIntent, files []fileIntent) error {
	if err := stageCtx(ctx, "directory creation"); err != nil {
		return err
	}

	seen := make(map[string]bool)
	create := func(dest paths.Path) error {
		key := dest.Key()
		if seen[key] {
			return nil
		}
		seen[key] = true
		target := b.resolve(dest)
		if err := b.fs.MkdirAll(target, dirMode); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "creating directory %s", dest.String())
		}
		b.logger.Debug().Str("path", dest.String()).Msg("directory ensured")
		return nil
	}

	for _, di := range dirs {
		if err := create(di.dest); err != nil {
			return err
		}
	}
	for _, fi := range files {
		if fi.dest.Len() < 2 {
			continue
		}
		parent, err := fi.dest.Parent()
		if err != nil {
			return err
		}
		if err := create(parent); err != nil {
			return err
		}
	}
	return nil
}

// writeFiles writes every pending file sequentially in staging order,
// applying the conflict policy per destination.
func (b *Builder) writeFiles(ctx context.Context, files []fileIntent) error {
	if err := stageCtx(ctx, "file writes"); err != nil {
		return err
	}

	for i := range files {
		fi := &files[i]
		target := b.resolve(fi.dest)

		switch b.policy {
		case Skip:
			if b.fileExists(target) {
				b.logger.Debug().Str("path", fi.dest.String()).Msg("destination exists, skipping")
				_ = fi.src.release()
				continue
			}
		case ThrowOnConflict:
			if b.fileExists(target) {
				return errors.Newf(errors.ErrConflict, "file already exists: %s", fi.dest.String()).
					WithDetail("path", target)
			}
		case Rename:
			if b.fileExists(target) {
				renamed, err := b.renameDest(fi.dest)
				if err != nil {
					return err
				}
				b.logger.Debug().
					Str("from", fi.dest.String()).
					Str("to", renamed.String()).
					Msg("destination exists, renaming")
				fi.dest = renamed
				target = b.resolve(renamed)
			}
		}

		data, err := fi.src.resolve()
		if err != nil {
			return err
		}

		// Each write ensures its own parent; copy and archive
		// expansion can introduce parents no directory intent covers.
		if fi.dest.Len() > 1 {
			if err := b.fs.MkdirAll(filepath.Dir(target), dirMode); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "creating parent of %s", fi.dest.String())
			}
		}

		if err := b.fs.WriteFile(target, data, fileMode); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "writing %s", fi.dest.String())
		}
		b.logger.Debug().Str("path", fi.dest.String()).Int("bytes", len(data)).Msg("file written")
	}
	return nil
}

// renameDest finds the first free "name (N)" variant of dest,
// counting from 1, with the suffix inserted before the extension.
func (b *Builder) renameDest(dest paths.Path) (paths.Path, error) {
	name := dest.Name()
	ext := dest.Ext()
	stem := strings.TrimSuffix(name, ext)

	for n := 1; ; n++ {
		segs := dest.Segments()
		segs[len(segs)-1] = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		candidate, err := paths.FromSegments(segs...)
		if err != nil {
			return paths.Path{}, err
		}
		if !b.fileExists(b.resolve(candidate)) {
			return candidate, nil
		}
	}
}

// fileExists reports whether a file (not a directory) exists at the
// OS path.
func (b *Builder) fileExists(target string) bool {
	info, err := b.fs.Stat(target)
	return err == nil && !info.IsDir()
}

// stageCtx checks for cancellation between pipeline stages. There is
// no mid-stage cancellation; once a stage starts it runs to
// completion or first failure.
func stageCtx(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "commit aborted before %s", stage)
	}
	return nil
}
