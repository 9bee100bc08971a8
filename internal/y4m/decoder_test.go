package y4m_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/y4m"
	"github.com/five82/avdecode/internal/y4m/y4mtest"
)

func TestDecoderSkipFrame(t *testing.T) {
	d := y4mtest.Details()
	dec, err := y4m.NewDecoder(bytes.NewReader(y4mtest.Encode(t, d, 3)))
	require.NoError(t, err)

	require.NoError(t, dec.SkipFrame())
	require.NoError(t, dec.SkipFrame())

	f := frame.New(d.Width, d.Height, d.BitDepth, d.ChromaSampling, frame.Sample8)
	require.NoError(t, dec.ReadFrameInto(f))
	assert.True(t, f.Equal(y4mtest.Frame(d, 2)))

	assert.ErrorIs(t, dec.SkipFrame(), io.EOF)
	assert.ErrorIs(t, dec.ReadFrameInto(f), io.EOF)
}

func TestDecoderRejectsMismatchedDestination(t *testing.T) {
	d := y4mtest.Details()
	dec, err := y4m.NewDecoder(bytes.NewReader(y4mtest.Encode(t, d, 1)))
	require.NoError(t, err)

	f := frame.New(d.Width/2, d.Height, d.BitDepth, d.ChromaSampling, frame.Sample8)
	assert.Error(t, dec.ReadFrameInto(f))
}

func TestDecoderRejectsOverlongHeader(t *testing.T) {
	_, err := y4m.NewDecoder(strings.NewReader("YUV4MPEG2 " + strings.Repeat("X", 4096) + "\n"))
	assert.ErrorIs(t, err, y4m.ErrInvalidHeader)
}

func TestDecoderEmptyStream(t *testing.T) {
	_, err := y4m.NewDecoder(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)

	_, err = y4m.NewDecoder(strings.NewReader("YUV4MPEG2 W64"))
	assert.ErrorIs(t, err, y4m.ErrInvalidHeader)
}

func TestEncoderWritesHeaderForEmptyStream(t *testing.T) {
	h, err := y4m.HeaderFor(y4mtest.Details(), true)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc := y4m.NewEncoder(&buf, h)
	require.NoError(t, enc.Flush())

	assert.Equal(t, "YUV4MPEG2 W64 H64 F25:1 Ip A1:1 Cmono\n", buf.String())
}

func TestEncoderRejectsWrongPlaneCount(t *testing.T) {
	d := y4mtest.Details()
	h, err := y4m.HeaderFor(d, true)
	require.NoError(t, err)

	enc := y4m.NewEncoder(io.Discard, h)
	assert.Error(t, enc.WriteFrame(y4mtest.Frame(d, 0)))
}
