package y4m_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/avdecode/internal/adapter"
	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/y4m"
	"github.com/five82/avdecode/internal/y4m/y4mtest"
)

func openFixture(t *testing.T, d frame.VideoDetails, n int, opts y4m.Options) *y4m.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.y4m")
	y4mtest.WriteFile(t, path, d, n)
	src, err := y4m.Open(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestSourceThreeFrameScenario(t *testing.T) {
	src := openFixture(t, y4mtest.Details(), 3, y4m.Options{})

	d, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, 64, d.Width)
	assert.Equal(t, 64, d.Height)
	assert.Equal(t, 8, d.BitDepth)
	assert.Equal(t, frame.Cs420, d.ChromaSampling)
	assert.Equal(t, frame.Rational{Num: 25, Den: 1}, d.FrameRate)
	assert.Equal(t, 3, d.TotalFrames)

	for i := 0; i < 3; i++ {
		f, err := src.ReadFrame(frame.Sample8)
		require.NoError(t, err, "frame %d", i)
		require.Len(t, f.Planes, 3)
		assert.Equal(t, [2]int{64, 64}, [2]int{f.Planes[0].Width, f.Planes[0].Height})
		assert.Equal(t, [2]int{32, 32}, [2]int{f.Planes[1].Width, f.Planes[1].Height})
		assert.Equal(t, [2]int{32, 32}, [2]int{f.Planes[2].Width, f.Planes[2].Height})
		assert.True(t, f.Equal(y4mtest.Frame(d, i)), "frame %d content", i)
	}

	_, err = src.ReadFrame(frame.Sample8)
	assert.ErrorIs(t, err, averrors.ErrEndOfFile)
}

func TestSourceProbeIsIdempotent(t *testing.T) {
	src := openFixture(t, y4mtest.Details(), 2, y4m.Options{})

	first, err := src.Probe()
	require.NoError(t, err)
	_, err = src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	second, err := src.Probe()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSourceEndOfFileIsRepeatable(t *testing.T) {
	src := openFixture(t, y4mtest.Details(), 1, y4m.Options{})

	_, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = src.ReadFrame(frame.Sample8)
		assert.ErrorIs(t, err, averrors.ErrEndOfFile)
	}
}

func TestSourceRejectsWideSamplesForEightBit(t *testing.T) {
	src := openFixture(t, y4mtest.Details(), 1, y4m.Options{})

	_, err := src.ReadFrame(frame.Sample16)
	assert.ErrorIs(t, err, averrors.ErrConfigurationMisuse)

	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err, "a rejected read must not consume a frame")
	assert.True(t, f.Equal(y4mtest.Frame(y4mtest.Details(), 0)))
}

func TestSourceHighBitDepth(t *testing.T) {
	d := y4mtest.Details()
	d.BitDepth = 10
	d.ChromaSampling = frame.Cs422
	src := openFixture(t, d, 2, y4m.Options{})

	_, err := src.ReadFrame(frame.Sample8)
	assert.ErrorIs(t, err, averrors.ErrConfigurationMisuse)

	f, err := src.ReadFrame(frame.Sample16)
	require.NoError(t, err)
	assert.Equal(t, 32, f.Planes[1].Width)
	assert.Equal(t, 64, f.Planes[1].Height)
	assert.Equal(t, y4mtest.Sample(0, 2, 5, 9, 10), f.Planes[2].Sample(5, 9))
}

func TestSourceLumaOnly(t *testing.T) {
	src := openFixture(t, y4mtest.Details(), 2, y4m.Options{LumaOnly: true})
	d, err := src.Probe()
	require.NoError(t, err)
	assert.Equal(t, frame.Cs400, d.ChromaSampling)
	assert.Equal(t, frame.Cs420, src.Header().Colorspace.Chroma)

	for i := 0; i < 2; i++ {
		f, err := src.ReadFrame(frame.Sample8)
		require.NoError(t, err)
		require.Len(t, f.Planes, 1)
		assert.Equal(t, frame.Cs400, f.ChromaSampling)
		assert.True(t, f.Planes[0].Equal(y4mtest.Frame(y4mtest.Details(), i).Luma()))
	}
}

func TestSourceLumaOnlyAfterReadIsMisuse(t *testing.T) {
	src := openFixture(t, y4mtest.Details(), 2, y4m.Options{})
	require.NoError(t, src.SetLumaOnly(true))

	_, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.ErrorIs(t, src.SetLumaOnly(false), averrors.ErrConfigurationMisuse)
}

func TestSourceTruncatedFrameIsEndOfFile(t *testing.T) {
	data := y4mtest.Encode(t, y4mtest.Details(), 2)
	data = data[:len(data)-100]

	src, err := y4m.NewSource(bytes.NewReader(data), y4m.Options{})
	require.NoError(t, err)

	_, err = src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	_, err = src.ReadFrame(frame.Sample8)
	assert.ErrorIs(t, err, averrors.ErrEndOfFile)
	_, err = src.ReadFrame(frame.Sample8)
	assert.ErrorIs(t, err, averrors.ErrEndOfFile)
}

func TestSourceInvalidHeader(t *testing.T) {
	_, err := y4m.NewSource(strings.NewReader("RIFF....WAVEfmt \n"), y4m.Options{})
	assert.ErrorIs(t, err, averrors.ErrInvalidHeader)

	_, err = y4m.NewSource(strings.NewReader("YUV4MPEG2 W64 H"), y4m.Options{})
	assert.ErrorIs(t, err, averrors.ErrInvalidHeader)
}

func TestSourceEmptyStreamIsEndOfFile(t *testing.T) {
	_, err := y4m.NewSource(strings.NewReader(""), y4m.Options{})
	assert.ErrorIs(t, err, averrors.ErrEndOfFile)

	path := filepath.Join(t.TempDir(), "empty.y4m")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err = y4m.Open(path, y4m.Options{})
	assert.ErrorIs(t, err, averrors.ErrEndOfFile)
}

func TestSourceMalformedFrameHeader(t *testing.T) {
	stream := "YUV4MPEG2 W2 H2 F25:1 Cmono\nFRAMX\n\x00\x00\x00\x00"
	src, err := y4m.NewSource(strings.NewReader(stream), y4m.Options{})
	require.NoError(t, err)

	_, err = src.ReadFrame(frame.Sample8)
	assert.ErrorIs(t, err, averrors.ErrDecodeFailure)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := y4m.Open(filepath.Join(t.TempDir(), "missing.y4m"), y4m.Options{})
	assert.ErrorIs(t, err, averrors.ErrIO)
}

func TestSourceIsNotSeekable(t *testing.T) {
	src := openFixture(t, y4mtest.Details(), 1, y4m.Options{})
	var a adapter.Adapter = src
	_, ok := a.(adapter.Seeker)
	assert.False(t, ok)
}

func TestFrameParametersAreAccepted(t *testing.T) {
	stream := "YUV4MPEG2 W2 H1 F25:1 Cmono\nFRAME Ip XFOO=1\n\x01\x02"
	src, err := y4m.NewSource(strings.NewReader(stream), y4m.Options{})
	require.NoError(t, err)

	f, err := src.ReadFrame(frame.Sample8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, f.Luma().Row(0))
	assert.Equal(t, 0, mustProbe(t, src).TotalFrames, "stream sources have no frame count")
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.y4m")
	y4mtest.WriteFile(t, path, y4mtest.Details(), 1)
	src, err := y4m.Open(path, y4m.Options{})
	require.NoError(t, err)

	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func mustProbe(t *testing.T, a adapter.Adapter) frame.VideoDetails {
	t.Helper()
	d, err := a.Probe()
	require.NoError(t, err)
	return d
}
