// Package discovery finds the files in a directory that a backend can open.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/five82/avdecode/internal/logging"
	"github.com/five82/avdecode/internal/util"
)

// Result contains the files found and how many entries were skipped.
type Result struct {
	Files        []string
	SkippedCount int
}

// FindVideoFiles finds decodable files in dir, sorted by file name.
func FindVideoFiles(dir string) ([]string, error) {
	result, err := Discover(dir, nil)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

// Discover scans dir without descending into subdirectories. Hidden files
// and files with unknown extensions are skipped.
func Discover(dir string, log *logging.Logger) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	result := &Result{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(dir, name)
		if util.IsVideoFile(fullPath) {
			result.Files = append(result.Files, fullPath)
		} else {
			result.SkippedCount++
		}
	}

	if len(result.Files) == 0 {
		return nil, fmt.Errorf("no video files found in %s", dir)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(result.Files[i])) < strings.ToLower(filepath.Base(result.Files[j]))
	})

	if log != nil {
		logDiscoveredFiles(result, log)
	}
	return result, nil
}

// logDiscoveredFiles logs the first 5 discovered files plus a count.
func logDiscoveredFiles(result *Result, log *logging.Logger) {
	log.Info("found video files", "count", len(result.Files), "skipped", result.SkippedCount)

	for _, f := range result.Files[:min(5, len(result.Files))] {
		log.Debug("discovered", "file", filepath.Base(f))
	}
	if len(result.Files) > 5 {
		log.Debug("more files not listed", "count", len(result.Files)-5)
	}
}
