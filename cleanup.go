package fdicdata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// File patterns removed by the cleanup stage.
var (
	RawPatterns       = []string{"*.json", "*.yaml"}
	ProcessedPatterns = []string{"*.parquet", "*.json", "*.csv"}
)

// CleanupFile is one file considered by a cleanup pass.
type CleanupFile struct {
	Path string
	Size int64
}

// CleanupResult reports what a cleanup pass removed, or would remove
// under dry run.
type CleanupResult struct {
	Files     []CleanupFile
	TotalSize int64
	DryRun    bool
}

// Cleanup removes files in dir matching the glob patterns. With dryRun
// the matching files are reported but left in place.
func Cleanup(dir string, patterns []string, dryRun bool) (*CleanupResult, error) {
	var files []CleanupFile

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}

		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			files = append(files, CleanupFile{Path: m, Size: info.Size()})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	res := &CleanupResult{Files: files, DryRun: dryRun}

	for _, f := range files {
		res.TotalSize += f.Size

		if !dryRun {
			if err := os.Remove(f.Path); err != nil {
				return nil, err
			}
		}
	}

	return res, nil
}

// FormatSize renders a byte count in human readable form.
func FormatSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
