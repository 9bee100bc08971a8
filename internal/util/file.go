package util

import (
	"os"
	"path/filepath"
	"strings"
)

// Y4MExtensions are the raw frame-sequence extensions read without a demuxer.
var Y4MExtensions = map[string]bool{
	".y4m": true,
	".yuv": true,
}

// ScriptExtensions are the extensions of frame-server scripts.
var ScriptExtensions = map[string]bool{
	".vpy": true,
}

// VideoExtensions is the list of container extensions the discovery walk picks up.
var VideoExtensions = map[string]bool{
	".mkv":  true,
	".wmv":  true,
	".ts":   true,
	".avi":  true,
	".mp4":  true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
	".mov":  true,
	".webm": true,
	".flv":  true,
	".m2ts": true,
	".ogv":  true,
	".vob":  true,
	".ivf":  true,
}

// Ext returns the lower-cased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsY4MPath reports whether path has a raw frame-sequence extension.
func IsY4MPath(path string) bool {
	return Y4MExtensions[Ext(path)]
}

// IsScriptPath reports whether path has a frame-server script extension.
func IsScriptPath(path string) bool {
	return ScriptExtensions[Ext(path)]
}

// IsVideoFile checks if the given path is an existing file any backend may open.
func IsVideoFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	ext := Ext(path)
	return VideoExtensions[ext] || Y4MExtensions[ext] || ScriptExtensions[ext]
}

// GetFileStem returns the filename without extension.
func GetFileStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// DirectoryExists checks if a directory exists.
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ResolveOutputPath returns the y4m path a decode of inputPath writes to.
// An explicit output wins; a directory output gets <stem>.y4m inside it.
func ResolveOutputPath(inputPath, output string) string {
	if output == "" {
		return GetFileStem(inputPath) + ".y4m"
	}
	if DirectoryExists(output) {
		return filepath.Join(output, GetFileStem(inputPath)+".y4m")
	}
	return output
}
