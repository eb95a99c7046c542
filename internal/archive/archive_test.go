package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scruffaluff/binstall/internal/core"
)

type tarEntry struct {
	name string
	body string
	mode int64
	dir  bool
}

func writeTarGz(t *testing.T, entries []tarEntry) string {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())

	path := filepath.Join(t.TempDir(), "artifact.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "artifact.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestExtractTarGz(t *testing.T) {
	t.Parallel()

	archive := writeTarGz(t, []tarEntry{
		{name: "just-1.37.0/", mode: 0755, dir: true},
		{name: "just-1.37.0/just", body: "#!/bin/sh\necho just 1.37.0\n", mode: 0755},
		{name: "just-1.37.0/README.md", body: "docs", mode: 0644},
	})
	dest := t.TempDir()

	require.NoError(t, Extract(archive, dest, core.ArchiveTarGz))

	data, err := os.ReadFile(filepath.Join(dest, "just-1.37.0", "just"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "just 1.37.0")

	info, err := os.Stat(filepath.Join(dest, "just-1.37.0", "just"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestExtractZip(t *testing.T) {
	t.Parallel()

	archive := writeZip(t, map[string]string{
		"deno": "binary contents",
	})
	dest := t.TempDir()

	require.NoError(t, Extract(archive, dest, core.ArchiveZip))

	data, err := os.ReadFile(filepath.Join(dest, "deno"))
	require.NoError(t, err)
	assert.Equal(t, "binary contents", string(data))
}

func TestExtractRejectsTraversal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry string
	}{
		{name: "dotdot", entry: "../escape"},
		{name: "nested dotdot", entry: "sub/../../escape"},
		{name: "absolute", entry: "/etc/escape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			archive := writeTarGz(t, []tarEntry{
				{name: tt.entry, body: "evil", mode: 0644},
			})
			dest := t.TempDir()

			err := Extract(archive, dest, core.ArchiveTarGz)
			assert.True(t, errors.Is(err, core.ErrExtractionFailed), "got %v", err)
		})
	}
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	t.Parallel()

	archive := writeZip(t, map[string]string{
		"../escape": "evil",
	})
	dest := t.TempDir()

	err := Extract(archive, dest, core.ArchiveZip)
	assert.True(t, errors.Is(err, core.ErrExtractionFailed))
}

func TestExtractRawRejected(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jq")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0755))

	err := Extract(path, t.TempDir(), core.ArchiveRaw)
	assert.True(t, errors.Is(err, core.ErrExtractionFailed))
}

func TestExtractCorruptArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip at all"), 0644))

	err := Extract(path, t.TempDir(), core.ArchiveTarGz)
	assert.True(t, errors.Is(err, core.ErrExtractionFailed))
}
