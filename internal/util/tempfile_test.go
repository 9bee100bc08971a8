package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateTempFile(t *testing.T) {
	baseDir := t.TempDir()

	tempFile, err := CreateTempFile(baseDir, "test", "vpy", []byte("clip.set_output()\n"))
	if err != nil {
		t.Fatalf("CreateTempFile failed: %v", err)
	}
	t.Cleanup(func() { _ = tempFile.Cleanup() })

	data, err := os.ReadFile(tempFile.Path())
	if err != nil {
		t.Fatalf("Temp file not created: %v", err)
	}
	if string(data) != "clip.set_output()\n" {
		t.Errorf("Temp file content = %q", data)
	}

	base := filepath.Base(tempFile.Path())
	if base[:5] != "test_" {
		t.Errorf("File name should start with 'test_', got %s", base)
	}
	if filepath.Ext(tempFile.Path()) != ".vpy" {
		t.Errorf("File should have .vpy extension, got %s", filepath.Ext(tempFile.Path()))
	}
	if filepath.Dir(tempFile.Path()) != baseDir {
		t.Errorf("Path should be in %s, got %s", baseDir, filepath.Dir(tempFile.Path()))
	}

	path := tempFile.Path()
	if err := tempFile.Cleanup(); err != nil {
		t.Errorf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("File should be removed after cleanup")
	}
	if err := tempFile.Cleanup(); err != nil {
		t.Errorf("Second cleanup should be a no-op, got %v", err)
	}
}

func TestCreateTempFileMissingDir(t *testing.T) {
	if _, err := CreateTempFile("/nonexistent/directory/path", "test", "vpy", nil); err == nil {
		t.Error("Expected error for non-existent directory")
	}
}

func TestCreateTempFileNamesAreUnique(t *testing.T) {
	dir := t.TempDir()
	a, err := CreateTempFile(dir, "script", "vpy", nil)
	if err != nil {
		t.Fatalf("CreateTempFile failed: %v", err)
	}
	b, err := CreateTempFile(dir, "script", "vpy", nil)
	if err != nil {
		t.Fatalf("CreateTempFile failed: %v", err)
	}
	if a.Path() == b.Path() {
		t.Errorf("Two temp files share the path %s", a.Path())
	}
}
