//go:build !ffms2

package ffms

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/y4m/y4mtest"
)

func TestUnavailableWithoutTag(t *testing.T) {
	assert.False(t, Available())

	path := filepath.Join(t.TempDir(), "clip.mkv")
	y4mtest.WriteFile(t, path, y4mtest.Details(), 1)

	_, err := Open(path, Options{})
	assert.True(t, averrors.IsKind(err, averrors.KindBackendInit), "got %v", err)

	_, err = BuildIndex(path, Options{})
	assert.True(t, averrors.IsKind(err, averrors.KindBackendInit), "got %v", err)
}
