// Package paths provides the normalized, immutable path value used by
// dirstage. A Path is an ordered sequence of segments with no separator
// characters; ".." segments are resolved eagerly at construction and
// combination time, and comparison is case-insensitive.
package paths

import (
	"strings"

	"github.com/arthur-debert/dirstage/pkg/errors"
)

// Separator characters recognized by Parse. Rendering defaults to
// the backslash style.
const (
	Separator    = '\\'
	AltSeparator = '/'
)

// DriveMarker is the character that marks the first segment of an
// absolute path (e.g. "C:").
const DriveMarker = ':'

// Path is an immutable ordered sequence of path segments. The zero
// value is the empty relative path. All mutating operations return a
// new Path.
type Path struct {
	segments []string
}

// Parse builds a Path from a raw string. Both separator styles are
// recognized; repeated separators collapse, blank fragments are
// dropped, and ".." fragments pop the preceding segment where one
// exists. Returns ErrInvalidPath if a segment contains a disallowed
// character.
func Parse(raw string) (Path, error) {
	normalized := strings.ReplaceAll(raw, string(AltSeparator), string(Separator))
	fragments := strings.Split(normalized, string(Separator))
	return FromSegments(fragments...)
}

// MustParse is Parse for fixtures and tests; it panics on error.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// FromSegments builds a Path from pre-split fragments, running the
// same fold and validation as Parse.
func FromSegments(fragments ...string) (Path, error) {
	segs, err := fold(nil, fragments)
	if err != nil {
		return Path{}, err
	}
	return Path{segments: segs}, nil
}

// fold appends fragments onto out, resolving ".." and validating each
// kept fragment. out is never aliased by callers afterwards.
func fold(out []string, fragments []string) ([]string, error) {
	for _, frag := range fragments {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		if frag == ".." && len(out) > 0 && out[len(out)-1] != ".." {
			out = out[:len(out)-1]
			continue
		}
		if err := validateSegment(frag, len(out) == 0); err != nil {
			return nil, err
		}
		out = append(out, frag)
	}
	return out, nil
}

// Segments returns a copy of the segment sequence.
func (p Path) Segments() []string {
	segs := make([]string, len(p.segments))
	copy(segs, p.segments)
	return segs
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p.segments) == 0
}

// IsAbsolute reports whether the first segment carries a drive marker.
func (p Path) IsAbsolute() bool {
	return len(p.segments) > 0 && strings.ContainsRune(p.segments[0], DriveMarker)
}

// Name returns the last segment, or "" for the empty path.
func (p Path) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Ext returns the extension of the last segment from the last dot
// inclusive, or "" when the last segment has no dot.
func (p Path) Ext() string {
	name := p.Name()
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx:]
}

// Join appends other onto p, re-running the normalization fold so
// leading ".." segments in other consume trailing segments of p.
// Joining an absolute other is an error: absolute paths cannot be
// appended.
func (p Path) Join(other Path) (Path, error) {
	if other.IsAbsolute() {
		return Path{}, errors.Newf(errors.ErrInvalidArgument,
			"cannot append absolute path %q", other.String())
	}
	out := make([]string, len(p.segments), len(p.segments)+len(other.segments))
	copy(out, p.segments)
	segs, err := fold(out, other.segments)
	if err != nil {
		return Path{}, err
	}
	return Path{segments: segs}, nil
}

// JoinSegments parses the fragments and joins the result onto p.
func (p Path) JoinSegments(fragments ...string) (Path, error) {
	other, err := FromSegments(fragments...)
	if err != nil {
		return Path{}, err
	}
	return p.Join(other)
}

// Parent returns the path with the last segment removed. Removing
// past the drive marker of an absolute path is an error.
func (p Path) Parent() (Path, error) {
	return p.NthParent(1)
}

// NthParent ascends n levels by appending n ".." segments through the
// normal join path. An absolute path cannot ascend past its drive
// root.
func (p Path) NthParent(n int) (Path, error) {
	if n < 0 {
		return Path{}, errors.Newf(errors.ErrInvalidArgument, "negative ascent count %d", n)
	}
	if p.IsAbsolute() && n >= len(p.segments) {
		return Path{}, errors.Newf(errors.ErrInvalidOperation,
			"cannot ascend %d levels from %q: past the drive root", n, p.String())
	}
	ups := make([]string, n)
	for i := range ups {
		ups[i] = ".."
	}
	segs, err := fold(p.Segments(), ups)
	if err != nil {
		return Path{}, err
	}
	return Path{segments: segs}, nil
}

// WithExt replaces the last segment's extension (everything from the
// last dot onward) with ext. A missing leading dot in ext is added.
// On an empty path the extension becomes the sole segment.
func (p Path) WithExt(ext string) (Path, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if len(p.segments) == 0 {
		if ext == "" {
			return Path{}, nil
		}
		return FromSegments(ext)
	}
	name := p.segments[len(p.segments)-1]
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[:idx]
	}
	name += ext
	if err := validateSegment(name, len(p.segments) == 1); err != nil {
		return Path{}, err
	}
	segs := p.Segments()
	segs[len(segs)-1] = name
	return Path{segments: segs}, nil
}

// Key returns the case-folded rendering used for equality, ordering
// and map keys. Two paths are equal iff their keys are equal.
func (p Path) Key() string {
	return strings.ToLower(strings.Join(p.segments, string(Separator)))
}

// Equal reports case-insensitive segment equality.
func (p Path) Equal(other Path) bool {
	return p.Key() == other.Key()
}

// Less orders paths by their case-folded rendering.
func (p Path) Less(other Path) bool {
	return p.Key() < other.Key()
}

// HasPrefix reports whether other is a (case-insensitive) segment
// prefix of p.
func (p Path) HasPrefix(other Path) bool {
	if len(other.segments) > len(p.segments) {
		return false
	}
	for i, seg := range other.segments {
		if !strings.EqualFold(seg, p.segments[i]) {
			return false
		}
	}
	return true
}

// Render joins the segments with sep. A leading separator is emitted
// only when requested and the path is not absolute; a trailing
// separator is emitted whenever requested.
func (p Path) Render(sep rune, leading, trailing bool) string {
	var b strings.Builder
	if leading && !p.IsAbsolute() {
		b.WriteRune(sep)
	}
	for i, seg := range p.segments {
		if i > 0 {
			b.WriteRune(sep)
		}
		b.WriteString(seg)
	}
	if trailing {
		b.WriteRune(sep)
	}
	return b.String()
}

// String renders with the default backslash separator and no
// leading or trailing separator.
func (p Path) String() string {
	return p.Render(Separator, false, false)
}

// Slash renders with forward slashes, the form the FS collaborator
// and archive entries use.
func (p Path) Slash() string {
	return p.Render(AltSeparator, false, false)
}
