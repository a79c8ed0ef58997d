package cli_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/dirstage/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtureZip(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "deps.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("lib/dep.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("dep"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func runCommand(args ...string) error {
	cmd := cli.NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestApplyManifest(t *testing.T) {
	dir := t.TempDir()
	writeFixtureZip(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.txt"), []byte("seed"), 0644))

	manifest := filepath.Join(dir, "manifest.toml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
root = "out"
on_conflict = "overwrite"

[[dir]]
path = "assets"

[[file]]
path = "assets/readme.txt"
content = "hello"

[[copy]]
path = "seeded.txt"
from = "seed.txt"

[[extract]]
path = "third_party"
archive = "deps.zip"
`), 0644))

	require.NoError(t, runCommand("apply", manifest))

	out := filepath.Join(dir, "out")

	info, err := os.Stat(filepath.Join(out, "assets"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	data, err := os.ReadFile(filepath.Join(out, "assets", "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(out, "seeded.txt"))
	require.NoError(t, err)
	assert.Equal(t, "seed", string(data))

	data, err = os.ReadFile(filepath.Join(out, "third_party", "lib", "dep.txt"))
	require.NoError(t, err)
	assert.Equal(t, "dep", string(data))
}

func TestApplyDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.toml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
root = "out"

[[file]]
path = "a.txt"
content = "x"
`), 0644))

	require.NoError(t, runCommand("apply", "--dry-run", manifest))

	_, err := os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(err))
}

func TestApplyMissingManifest(t *testing.T) {
	err := runCommand("apply", filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestNorm(t *testing.T) {
	assert.NoError(t, runCommand("norm", "a/b/../c"))
	assert.Error(t, runCommand("norm", "a/b|c"))
}
