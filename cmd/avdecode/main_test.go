package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/avdecode/internal/y4m/y4mtest"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "avdecode version "+appVersion+"\n", out.String())
}

func TestDecodeToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "clip.y4m")
	y4mtest.WriteFile(t, in, y4mtest.Details(), 3)
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0755))

	root := newRootCommand()
	root.SetArgs([]string{"decode", in, "-o", outDir, "--json", "-n", "2"})
	require.NoError(t, root.Execute())

	got, err := os.ReadFile(filepath.Join(outDir, "clip.y4m"))
	require.NoError(t, err)
	assert.Equal(t, y4mtest.Encode(t, y4mtest.Details(), 2), got)
}

func TestProbeReportsFailures(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"probe", "--json", filepath.Join(t.TempDir(), "missing.y4m")})

	assert.Error(t, root.Execute())
}

func TestUnknownBackendFlag(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"probe", "--backend", "quicktime", "clip.mkv"})

	assert.ErrorContains(t, root.Execute(), "unknown backend")
}

func TestSnapshot(t *testing.T) {
	p := snapshot(50, 100, 2*time.Second)
	assert.Equal(t, float32(25), p.FPS)
	assert.Equal(t, float32(50), p.Percent)
	assert.Equal(t, 2*time.Second, p.ETA)

	unknown := snapshot(50, 0, time.Second)
	assert.Zero(t, unknown.Percent)
	assert.Zero(t, unknown.ETA)
}
