package discovery

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/avdecode/internal/logging"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
}

func TestFindVideoFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mkv", "A.y4m", "clip.vpy", "notes.txt", ".hidden.mp4", "c.MP4", "c.mp4.ffindex")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mkv"), 0755))

	files, err := FindVideoFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"A.y4m", "b.mkv", "c.MP4", "clip.vpy"}, names)
}

func TestDiscoverCountsSkippedAndLogs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mkv", "b.txt", "c.srt")

	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf, Enabled: true})
	result, err := Discover(dir, log)
	require.NoError(t, err)

	assert.Len(t, result.Files, 1)
	assert.Equal(t, 2, result.SkippedCount)
	assert.Contains(t, buf.String(), "found video files")
	assert.Contains(t, buf.String(), "file=a.mkv")
}

func TestFindVideoFilesErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := FindVideoFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	touch(t, dir, "readme.md")
	_, err = FindVideoFiles(filepath.Join(dir, "readme.md"))
	assert.ErrorContains(t, err, "not a directory")

	_, err = FindVideoFiles(dir)
	assert.ErrorContains(t, err, "no video files")
}
