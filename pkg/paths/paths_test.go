package paths_test

import (
	"testing"

	"github.com/arthur-debert/dirstage/pkg/errors"
	"github.com/arthur-debert/dirstage/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantSegs []string
		wantErr  errors.ErrorCode
	}{
		{
			name:     "simple relative",
			raw:      "a/b/c",
			wantSegs: []string{"a", "b", "c"},
		},
		{
			name:     "mixed separators",
			raw:      `a/b\c`,
			wantSegs: []string{"a", "b", "c"},
		},
		{
			name:     "repeated separators collapse",
			raw:      `a///b\\\\c`,
			wantSegs: []string{"a", "b", "c"},
		},
		{
			name:     "dotdot pops preceding segment",
			raw:      "a/b/../c",
			wantSegs: []string{"a", "c"},
		},
		{
			name:     "leading dotdot kept",
			raw:      "../a",
			wantSegs: []string{"..", "a"},
		},
		{
			name:     "dotdot run kept",
			raw:      "../../a",
			wantSegs: []string{"..", "..", "a"},
		},
		{
			name:     "dotdot cancels into dotdot run",
			raw:      "../a/../../b",
			wantSegs: []string{"..", "..", "b"},
		},
		{
			name:     "drive marker first segment",
			raw:      "C:/Users/me",
			wantSegs: []string{"C:", "Users", "me"},
		},
		{
			name:     "empty string",
			raw:      "",
			wantSegs: []string{},
		},
		{
			name:     "whitespace fragments dropped",
			raw:      "a/  /b",
			wantSegs: []string{"a", "b"},
		},
		{
			name:    "drive marker past first segment",
			raw:     "a/C:/b",
			wantErr: errors.ErrInvalidPath,
		},
		{
			name:    "wildcard in name segment",
			raw:     "a/b*.txt",
			wantErr: errors.ErrInvalidPath,
		},
		{
			name:    "pipe in first segment",
			raw:     "a|b/c",
			wantErr: errors.ErrInvalidPath,
		},
		{
			name:    "control character",
			raw:     "a/b\x01c",
			wantErr: errors.ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := paths.Parse(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSegs, p.Segments())
		})
	}
}

func TestNormalizationIdempotence(t *testing.T) {
	inputs := []string{
		"a/b/../c",
		`C:\Users\me\..\you`,
		"a///b",
		"../../x",
		"",
		"one",
	}
	for _, raw := range inputs {
		p := paths.MustParse(raw)
		again, err := paths.Parse(p.String())
		require.NoError(t, err, raw)
		assert.True(t, p.Equal(again), "parse(render(parse(%q))) differs", raw)
	}
}

func TestIsAbsolute(t *testing.T) {
	assert.True(t, paths.MustParse("C:/a/b").IsAbsolute())
	assert.False(t, paths.MustParse("a/b").IsAbsolute())
	assert.False(t, paths.Path{}.IsAbsolute())
}

func TestNameAndExt(t *testing.T) {
	tests := []struct {
		raw      string
		wantName string
		wantExt  string
	}{
		{"a/b.txt", "b.txt", ".txt"},
		{"a/b", "b", ""},
		{"a/b.tar.gz", "b.tar.gz", ".gz"},
		{"", "", ""},
		{"a/.profile", ".profile", ".profile"},
	}
	for _, tt := range tests {
		p := paths.MustParse(tt.raw)
		assert.Equal(t, tt.wantName, p.Name(), tt.raw)
		assert.Equal(t, tt.wantExt, p.Ext(), tt.raw)
	}
}

func TestJoin(t *testing.T) {
	base := paths.MustParse("a/b")

	joined, err := base.Join(paths.MustParse("c/d"))
	require.NoError(t, err)
	assert.Equal(t, `a\b\c\d`, joined.String())

	// leading ".." in the operand consumes base segments
	joined, err = base.Join(paths.MustParse("../c"))
	require.NoError(t, err)
	assert.Equal(t, `a\c`, joined.String())

	// absolute operand is rejected
	_, err = base.Join(paths.MustParse("C:/b"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidArgument))
}

func TestParent(t *testing.T) {
	p, err := paths.MustParse("a/b/c").Parent()
	require.NoError(t, err)
	assert.Equal(t, `a\b`, p.String())

	// ascending from an empty relative path keeps a literal ".."
	p, err = paths.Path{}.Parent()
	require.NoError(t, err)
	assert.Equal(t, "..", p.String())

	// absolute path cannot ascend past the drive root
	_, err = paths.MustParse("C:").Parent()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidOperation))
}

func TestNthParent(t *testing.T) {
	p, err := paths.MustParse("a/b/c/d").NthParent(2)
	require.NoError(t, err)
	assert.Equal(t, `a\b`, p.String())

	_, err = paths.MustParse("C:/a").NthParent(2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidOperation))

	_, err = paths.MustParse("a").NthParent(-1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidArgument))
}

func TestWithExt(t *testing.T) {
	p, err := paths.MustParse("a/b.txt").WithExt("csv")
	require.NoError(t, err)
	assert.Equal(t, ".csv", p.Ext())
	assert.Equal(t, "b.csv", p.Name())

	// no existing extension
	p, err = paths.MustParse("a/b").WithExt(".log")
	require.NoError(t, err)
	assert.Equal(t, "b.log", p.Name())

	// empty path grows a segment holding only the extension
	p, err = paths.Path{}.WithExt("tmp")
	require.NoError(t, err)
	assert.Equal(t, ".tmp", p.String())
}

func TestEqualityIsCaseInsensitive(t *testing.T) {
	a := paths.MustParse("Foo/Bar.TXT")
	b := paths.MustParse("foo/bar.txt")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Less(b))
	assert.False(t, b.Less(a))

	c := paths.MustParse("foo/baz")
	assert.False(t, a.Equal(c))
}

func TestHasPrefix(t *testing.T) {
	p := paths.MustParse("a/b/c")
	assert.True(t, p.HasPrefix(paths.MustParse("A/B")))
	assert.True(t, p.HasPrefix(paths.Path{}))
	assert.False(t, p.HasPrefix(paths.MustParse("a/c")))
	assert.False(t, paths.MustParse("a").HasPrefix(p))
}

func TestRender(t *testing.T) {
	p := paths.MustParse("a/b/c")
	assert.Equal(t, `a\b\c`, p.String())
	assert.Equal(t, "a/b/c", p.Slash())
	assert.Equal(t, "/a/b/c", p.Render('/', true, false))
	assert.Equal(t, "a/b/c/", p.Render('/', false, true))

	// leading separator is suppressed for absolute paths
	abs := paths.MustParse("C:/a")
	assert.Equal(t, "C:/a", abs.Render('/', true, false))
}

func TestSegmentsReturnsCopy(t *testing.T) {
	p := paths.MustParse("a/b")
	segs := p.Segments()
	segs[0] = "mutated"
	assert.Equal(t, `a\b`, p.String())
}

func TestFromSegments(t *testing.T) {
	p, err := paths.FromSegments("a", "b", "..", "c")
	require.NoError(t, err)
	assert.Equal(t, `a\c`, p.String())

	_, err = paths.FromSegments("a", "b|c")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidPath))
}
