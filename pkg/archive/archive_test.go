package archive_test

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/dirstage/pkg/archive"
	"github.com/arthur-debert/dirstage/pkg/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "fixture.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func writeTarGz(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "fixture.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err = tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenZip(t *testing.T) {
	files := map[string]string{
		"x.txt":     "hello",
		"dir/y.txt": "nested",
	}
	path := writeZip(t, t.TempDir(), files)

	ar, err := archive.OpenZip(path)
	require.NoError(t, err)
	defer func() { _ = ar.Close() }()

	entries, err := ar.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	got := map[string]string{}
	for _, e := range entries {
		rc, err := e.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		got[e.Name] = string(data)
	}
	assert.Equal(t, files, got)
}

func TestOpenTarGz(t *testing.T) {
	files := map[string]string{
		"a.txt":         "one",
		"deep/b.txt":    "two",
		"deep/er/c.txt": "three",
	}
	path := writeTarGz(t, t.TempDir(), files)

	ar, err := archive.OpenTarGz(path)
	require.NoError(t, err)
	defer func() { _ = ar.Close() }()

	entries, err := ar.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// entries can be opened out of order and independently
	got := map[string]string{}
	for i := len(entries) - 1; i >= 0; i-- {
		rc, err := entries[i].Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		got[entries[i].Name] = string(data)
	}
	assert.Equal(t, files, got)
}

func TestEntriesAfterClose(t *testing.T) {
	path := writeZip(t, t.TempDir(), map[string]string{"x.txt": "hi"})
	ar, err := archive.OpenZip(path)
	require.NoError(t, err)
	require.NoError(t, ar.Close())

	_, err = ar.Entries()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrArchiveRead))

	// double close is a no-op
	assert.NoError(t, ar.Close())
}

func TestOpenDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	zipPath := writeZip(t, dir, map[string]string{"x.txt": "hi"})
	tgzPath := writeTarGz(t, dir, map[string]string{"x.txt": "hi"})

	ar, err := archive.Open(zipPath)
	require.NoError(t, err)
	require.NoError(t, ar.Close())

	ar, err = archive.Open(tgzPath)
	require.NoError(t, err)
	require.NoError(t, ar.Close())

	_, err = archive.Open(filepath.Join(dir, "fixture.rar"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrArchiveRead))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := archive.OpenTarGz(filepath.Join(t.TempDir(), "absent.tar.gz"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrArchiveRead))
}
