// Package reader locates and opens raw data files, transparently
// decompressing gzip and bzip2 inputs.
package reader

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// LatestFile returns the most recently modified file in dir matching
// the glob pattern, or an empty string if none match.
func LatestFile(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		return "", nil
	}

	type entry struct {
		path string
		mod  int64
	}

	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return "", err
		}
		entries = append(entries, entry{m, info.ModTime().UnixNano()})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].mod < entries[j].mod
	})

	return entries[len(entries)-1].path, nil
}

// Exists reports whether any file in dir matches the glob pattern.
func Exists(dir, pattern string) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func detectCompression(name string) string {
	switch filepath.Ext(name) {
	case ".gzip", ".gz":
		return "gzip"
	case ".bzip2", ".bz2":
		return "bzip2"
	}

	return ""
}

// Reader encapsulates an input stream.
type Reader struct {
	Name        string
	Compression string

	reader io.Reader
	file   *os.File
}

// Read implements the io.Reader interface.
func (r *Reader) Read(buf []byte) (int, error) {
	return r.reader.Read(buf)
}

// Close implements the io.Closer interface.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Open a reader by name with optional compression. If compr is empty
// the compression is detected from the file extension.
func Open(name, compr string) (*Reader, error) {
	r := &Reader{Name: name}

	if compr == "" {
		compr = detectCompression(name)
	}

	switch compr {
	case "bzip2", "gzip", "":
	default:
		return nil, fmt.Errorf("unknown compression type %s", compr)
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	r.file = file
	r.reader = file

	switch compr {
	case "gzip":
		gr, err := gzip.NewReader(r.reader)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.reader = gr

	case "bzip2":
		r.reader = bzip2.NewReader(r.reader)
	}

	r.Compression = compr

	return r, nil
}
