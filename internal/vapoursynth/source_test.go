package vapoursynth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/y4m/y4mtest"
)

// openFixture opens a script over an n-frame fixture.
func openFixture(t *testing.T, n int, extra ...string) (*Source, frame.VideoDetails) {
	t.Helper()
	opts := fakeOptions(t)
	d := y4mtest.Details()
	fixture := filepath.Join(t.TempDir(), "clip.y4m")
	y4mtest.WriteFile(t, fixture, d, n)

	src, err := Open(writeScript(t, fixture, extra...), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src, d
}

func TestOpenReportsOutputNode(t *testing.T) {
	src, d := openFixture(t, 3)

	got, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, d.Width, got.Width)
	assert.Equal(t, d.Height, got.Height)
	assert.Equal(t, 8, got.BitDepth)
	assert.Equal(t, frame.Cs420, got.ChromaSampling)
	assert.Equal(t, d.FrameRate, got.FrameRate)
	assert.Equal(t, 3, got.TotalFrames)
}

func TestReadAllThenEndOfFile(t *testing.T) {
	src, d := openFixture(t, 3)

	for i := 0; i < 3; i++ {
		f, err := src.ReadFrame(frame.Sample8)
		require.NoError(t, err)
		assert.True(t, f.Equal(y4mtest.Frame(d, i)), "frame %d", i)
	}
	for i := 0; i < 2; i++ {
		_, err := src.ReadFrame(frame.Sample8)
		assert.True(t, averrors.IsEndOfFile(err))
	}
}

func TestSampleWidthMismatch(t *testing.T) {
	src, _ := openFixture(t, 1)

	_, err := src.ReadFrame(frame.Sample16)
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))
}

func TestSeek(t *testing.T) {
	src, d := openFixture(t, 10)

	require.NoError(t, src.Seek(5))
	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 5)))

	require.NoError(t, src.Seek(9))
	f, err = src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 9)))

	_, err = src.ReadFrame(frame.Sample8)
	assert.True(t, averrors.IsEndOfFile(err))

	require.NoError(t, src.Seek(0))
	f, err = src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 0)))

	for _, index := range []int{10, -1} {
		err := src.Seek(index)
		assert.True(t, averrors.IsKind(err, averrors.KindOutOfRange), "seek %d: %v", index, err)
	}
}

func TestScaleVariableVisibleToScript(t *testing.T) {
	src, d := openFixture(t, 2)

	require.NoError(t, src.SetVariable("scale", 2))
	got, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, 128, got.Width)
	assert.Equal(t, 128, got.Height)

	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(upscale(y4mtest.Frame(d, 0), 2)))

	err = src.SetVariable("denoise", true)
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))
}

func TestSetVariableRejectsBadInput(t *testing.T) {
	src, _ := openFixture(t, 1)

	err := src.SetVariable("not a name", 1)
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))

	err = src.SetVariable("opts", struct{}{})
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))

	_, err = src.ReadFrame(frame.Sample8)
	assert.NoError(t, err)
}

func TestSetVariableReplacesValue(t *testing.T) {
	src, _ := openFixture(t, 1)

	require.NoError(t, src.SetVariable("scale", 3))
	require.NoError(t, src.SetVariable("scale", 2))
	got, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, 128, got.Width)
}

func TestNodeModifierRunsOnce(t *testing.T) {
	src, d := openFixture(t, 6)

	calls := 0
	require.NoError(t, src.SetNodeModifier(func(g *Graph) error {
		calls++
		assert.Equal(t, 6, g.Input().TotalFrames)
		g.Trim(2, 4)
		return nil
	}))

	got, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalFrames)

	for i := 2; i <= 4; i++ {
		f, err := src.ReadFrame(frame.Sample8)
		require.NoError(t, err)
		assert.True(t, f.Equal(y4mtest.Frame(d, i)), "frame %d", i)
	}
	require.NoError(t, src.Seek(1))
	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 3)))

	assert.Equal(t, 1, calls)
}

func TestNodeModifierOnlyOnce(t *testing.T) {
	src, _ := openFixture(t, 2)

	require.NoError(t, src.SetNodeModifier(func(g *Graph) error { return nil }))
	err := src.SetNodeModifier(func(g *Graph) error { return nil })
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))
}

func TestSetVariableAfterNodeModifierIsMisuse(t *testing.T) {
	src, _ := openFixture(t, 2)

	require.NoError(t, src.SetNodeModifier(func(g *Graph) error { return nil }))
	err := src.SetVariable("scale", 2)
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))

	_, err = src.ReadFrame(frame.Sample8)
	assert.NoError(t, err)
}

func TestNodeModifierAfterReadIsMisuse(t *testing.T) {
	src, _ := openFixture(t, 2)

	_, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)

	called := false
	err = src.SetNodeModifier(func(g *Graph) error {
		called = true
		return nil
	})
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))
	assert.False(t, called)
}

func TestNodeModifierGray(t *testing.T) {
	src, d := openFixture(t, 1)

	require.NoError(t, src.SetNodeModifier(func(g *Graph) error {
		g.Gray()
		return nil
	}))
	got, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, frame.Cs400, got.ChromaSampling)

	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	require.Len(t, f.Planes, 1)
	want := y4mtest.Frame(d, 0)
	assert.True(t, f.Planes[0].Equal(&want.Planes[0]))
}

func TestNodeModifierError(t *testing.T) {
	src, _ := openFixture(t, 1)

	boom := errors.New("boom")
	err := src.SetNodeModifier(func(g *Graph) error { return boom })
	assert.True(t, averrors.IsKind(err, averrors.KindBackendInit))
	assert.ErrorIs(t, err, boom)

	_, err = src.ReadFrame(frame.Sample8)
	assert.NoError(t, err)
}

func TestZeroFrameClip(t *testing.T) {
	src, _ := openFixture(t, 0)

	_, err := src.ReadFrame(frame.Sample8)
	assert.True(t, averrors.IsEndOfFile(err))

	err = src.Seek(0)
	assert.True(t, averrors.IsKind(err, averrors.KindOutOfRange))
}

func TestOpenScriptFromText(t *testing.T) {
	opts := fakeOptions(t)
	d := y4mtest.Details()
	fixture := filepath.Join(t.TempDir(), "clip.y4m")
	y4mtest.WriteFile(t, fixture, d, 2)

	src, err := OpenScript("import vapoursynth as vs\n# fixture: "+fixture+"\n", opts)
	require.NoError(t, err)
	staged := src.ScriptPath()
	assert.FileExists(t, staged)

	require.NoError(t, src.SetVariable("scale", 2))
	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(upscale(y4mtest.Frame(d, 0), 2)))

	wrapper := src.wrapper.Path()
	require.NoError(t, src.Close())
	assert.NoFileExists(t, staged)
	assert.NoFileExists(t, wrapper)
	assert.NoError(t, src.Close())
}

func TestOpenErrors(t *testing.T) {
	opts := fakeOptions(t)
	dir := t.TempDir()
	fixture := filepath.Join(dir, "clip.y4m")
	y4mtest.WriteFile(t, fixture, y4mtest.Details(), 1)

	_, err := Open(filepath.Join(dir, "missing.vpy"), opts)
	assert.True(t, averrors.IsKind(err, averrors.KindIO), "missing: %v", err)

	tests := []struct {
		name    string
		extra   string
		message string
	}{
		{"python error", "raise vs.Error('x')", "vapoursynth.Error"},
		{"rgb output", "# rgb", "color family"},
		{"variable format", "# variable-format", "variable format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(writeScript(t, fixture, tt.extra), opts)
			assert.True(t, averrors.IsKind(err, averrors.KindBackendInit), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	noTool := opts
	noTool.VSPipePath = filepath.Join(dir, "no-vspipe")
	_, err = Open(writeScript(t, fixture), noTool)
	assert.True(t, averrors.IsKind(err, averrors.KindBackendInit))
}

func TestScriptDirectoryIsWorkingDirectory(t *testing.T) {
	src, _ := openFixture(t, 1)
	assert.Equal(t, filepath.Dir(src.ScriptPath()), src.dir())

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.NotEqual(t, cwd, src.dir())
}
