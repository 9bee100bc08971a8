package ffmpeg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/y4m/y4mtest"
)

func openFixture(t *testing.T, n int, opts Options) (*Source, frame.VideoDetails) {
	t.Helper()
	d := y4mtest.Details()
	src, err := Open(newFixture(t, d, n), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src, d
}

func TestOpenProbesDetails(t *testing.T) {
	src, d := openFixture(t, 3, fakeOptions(t))

	got, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, 64, got.Width)
	assert.Equal(t, 64, got.Height)
	assert.Equal(t, 8, got.BitDepth)
	assert.Equal(t, frame.Cs420, got.ChromaSampling)
	assert.Equal(t, d.FrameRate, got.FrameRate)
	assert.Equal(t, 3, got.TotalFrames)
	assert.Equal(t, frame.ScanProgressive, got.ScanOrder)
	assert.Equal(t, 0, src.StreamIndex())

	again, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestReadFramesThenEndOfFile(t *testing.T) {
	src, d := openFixture(t, 3, fakeOptions(t))

	for i := 0; i < 3; i++ {
		f, err := src.ReadFrame(frame.Sample8)
		require.NoError(t, err, "frame %d", i)
		assert.True(t, f.Equal(y4mtest.Frame(d, i)), "frame %d content", i)
	}
	for i := 0; i < 2; i++ {
		_, err := src.ReadFrame(frame.Sample8)
		assert.True(t, averrors.IsEndOfFile(err), "read past end %d: %v", i, err)
	}
}

func TestReadSixteenBitSource(t *testing.T) {
	opts := fakeOptions(t)
	d := y4mtest.Details()
	d.BitDepth = 10
	d.ChromaSampling = frame.Cs422
	src, err := Open(newFixture(t, d, 2), opts)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.ReadFrame(frame.Sample8)
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))

	f, err := src.ReadFrame(frame.Sample16)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 0)))
}

func TestSampleWidthMismatch(t *testing.T) {
	src, _ := openFixture(t, 3, fakeOptions(t))

	_, err := src.ReadFrame(frame.Sample16)
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))
}

func TestSeekWithKeyframes(t *testing.T) {
	opts := fakeOptions(t)
	t.Setenv(fakeKeyintEnv, "4")
	src, d := openFixture(t, 12, opts)

	for _, index := range []int{6, 11, 0, 9} {
		require.NoError(t, src.Seek(index))
		f, err := src.ReadFrame(frame.Sample8)
		require.NoError(t, err, "seek %d", index)
		assert.True(t, f.Equal(y4mtest.Frame(d, index)), "frame after seek %d", index)
	}
}

func TestSeekLastFrameThenEndOfFile(t *testing.T) {
	opts := fakeOptions(t)
	t.Setenv(fakeKeyintEnv, "4")
	src, d := openFixture(t, 12, opts)

	require.NoError(t, src.Seek(11))
	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 11)))

	_, err = src.ReadFrame(frame.Sample8)
	assert.True(t, averrors.IsEndOfFile(err))

	// A seek leaves the exhausted state.
	require.NoError(t, src.Seek(1))
	f, err = src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 1)))
}

func TestSeekForwardWithinGroup(t *testing.T) {
	opts := fakeOptions(t)
	t.Setenv(fakeKeyintEnv, "8")
	src, d := openFixture(t, 8, opts)

	_, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	require.NoError(t, src.Seek(5))

	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 5)))
}

func TestSeekWithoutKeyframeTable(t *testing.T) {
	opts := fakeOptions(t)
	t.Setenv(fakeNoPacketsEnv, "1")
	src, d := openFixture(t, 6, opts)

	require.NoError(t, src.Seek(4))
	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.True(t, f.Equal(y4mtest.Frame(d, 4)))
}

func TestSeekOutOfRange(t *testing.T) {
	src, _ := openFixture(t, 3, fakeOptions(t))

	for _, index := range []int{3, -1} {
		err := src.Seek(index)
		assert.True(t, averrors.IsKind(err, averrors.KindOutOfRange), "seek %d: %v", index, err)
	}
}

func TestLumaOnly(t *testing.T) {
	opts := fakeOptions(t)
	opts.LumaOnly = true
	src, d := openFixture(t, 2, opts)

	details, _ := src.Probe()
	assert.Equal(t, frame.Cs400, details.ChromaSampling)

	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	require.Len(t, f.Planes, 1)
	want := y4mtest.Frame(d, 0)
	assert.True(t, f.Planes[0].Equal(&want.Planes[0]))
}

func TestSetLumaOnlyAfterReadIsMisuse(t *testing.T) {
	src, _ := openFixture(t, 2, fakeOptions(t))

	require.NoError(t, src.SetLumaOnly(true))
	require.NoError(t, src.SetLumaOnly(false))
	_, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)

	err = src.SetLumaOnly(true)
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))
}

func TestRotationSwapsDimensions(t *testing.T) {
	opts := fakeOptions(t)
	t.Setenv(fakeRotationEnv, "-90")
	d := y4mtest.Details()
	d.Height = 32

	src, err := Open(newFixture(t, d, 1), opts)
	require.NoError(t, err)
	defer src.Close()

	got, _ := src.Probe()
	assert.Equal(t, 32, got.Width)
	assert.Equal(t, 64, got.Height)
}

func TestScaleReportsOutputSize(t *testing.T) {
	opts := fakeOptions(t)
	opts.ScaleWidth, opts.ScaleHeight = 128, 96
	src, _ := openFixture(t, 1, opts)

	got, _ := src.Probe()
	assert.Equal(t, 128, got.Width)
	assert.Equal(t, 96, got.Height)

	require.NoError(t, src.SetScale(0, 0))
	got, _ = src.Probe()
	assert.Equal(t, 64, got.Width)

	err := src.SetScale(10, 0)
	assert.True(t, averrors.IsKind(err, averrors.KindConfigurationMisuse))
}

func TestCountFramesWhenContainerHasNoCount(t *testing.T) {
	opts := fakeOptions(t)
	t.Setenv(fakeNoCountEnv, "1")

	src, _ := openFixture(t, 4, opts)
	got, _ := src.Probe()
	assert.Equal(t, 0, got.TotalFrames)

	opts.CountFrames = true
	counted, _ := openFixture(t, 4, opts)
	got, _ = counted.Probe()
	assert.Equal(t, 4, got.TotalFrames)
}

func TestDecoderFailureMidStream(t *testing.T) {
	opts := fakeOptions(t)
	t.Setenv(fakeFailAfterEnv, "1")
	src, _ := openFixture(t, 3, opts)

	_, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)

	_, err = src.ReadFrame(frame.Sample8)
	assert.True(t, averrors.IsKind(err, averrors.KindDecodeFailure), "got %v", err)

	_, err = src.ReadFrame(frame.Sample8)
	assert.True(t, averrors.IsEndOfFile(err))
}

func TestOpenErrors(t *testing.T) {
	opts := fakeOptions(t)
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.mkv"), opts)
	assert.True(t, averrors.IsKind(err, averrors.KindIO), "missing file: %v", err)

	garbage := filepath.Join(dir, "garbage.mkv")
	require.NoError(t, os.WriteFile(garbage, []byte("not media"), 0644))
	_, err = Open(garbage, opts)
	assert.True(t, averrors.IsKind(err, averrors.KindBackendInit), "garbage: %v", err)

	noTool := opts
	noTool.FFmpegPath = filepath.Join(dir, "no-ffmpeg")
	_, err = Open(newFixture(t, y4mtest.Details(), 1), noTool)
	assert.True(t, averrors.IsKind(err, averrors.KindBackendInit), "missing ffmpeg: %v", err)
}
