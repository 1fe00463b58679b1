package reader

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestFile(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "institutions_20240101.json")
	newer := filepath.Join(dir, "institutions_20240201.json")
	other := filepath.Join(dir, "failures_20240301.json")

	for _, p := range []string{old, newer, other} {
		require.NoError(t, os.WriteFile(p, []byte("[]"), 0o644))
	}

	// Glob order is lexical, so force the mtimes apart.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	got, err := LatestFile(dir, "institutions_*.json*")
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestLatestFileNone(t *testing.T) {
	got, err := LatestFile(t.TempDir(), "institutions_*.json*")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()

	ok, err := Exists(dir, "*.parquet")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "institutions_20240101.parquet"), nil, 0o644))

	ok, err = Exists(dir, "*.parquet")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "institutions_20240101.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"data":{}}]`), 0o644))

	r, err := Open(path, "")
	require.NoError(t, err)
	defer r.Close()

	assert.Empty(t, r.Compression)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `[{"data":{}}]`, string(b))
}

func TestOpenGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "institutions_20240101.json.gz")

	f, err := os.Create(path)
	require.NoError(t, err)

	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte(`[]`))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	// Compression detected from the extension.
	r, err := Open(path, "")
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "gzip", r.Compression)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))
}

func TestOpenUnknownCompression(t *testing.T) {
	_, err := Open("whatever", "zip")
	assert.Error(t, err)
}
