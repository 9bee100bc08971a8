package util

import (
	"fmt"
	"os"
)

// TempFile is a file removed by Cleanup.
type TempFile struct {
	path string
}

// Path returns the file path.
func (t *TempFile) Path() string {
	return t.path
}

// Cleanup removes the file. Removing an already removed file is not an error.
func (t *TempFile) Cleanup() error {
	if t == nil || t.path == "" {
		return nil
	}
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CreateTempFile creates <dir>/<prefix>_<random>.<ext> holding content. An
// empty dir selects the system temp directory.
func CreateTempFile(dir, prefix, ext string, content []byte) (*TempFile, error) {
	f, err := os.CreateTemp(dir, prefix+"_*."+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write temp file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to close temp file %s: %w", path, err)
	}
	return &TempFile{path: path}, nil
}
