package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlaneLayout(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		cs         ChromaSampling
		sw         SampleWidth
		planes     int
		cw, ch     int
		lumaStride int
	}{
		{"420 8-bit", 64, 64, Cs420, Sample8, 3, 32, 32, 64},
		{"420 odd", 65, 33, Cs420, Sample8, 3, 33, 17, 128},
		{"422 16-bit", 100, 20, Cs422, Sample16, 3, 50, 20, 128},
		{"444", 16, 16, Cs444, Sample8, 3, 16, 16, 64},
		{"mono", 64, 48, Cs400, Sample16, 1, 0, 0, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.w, tt.h, 8, tt.cs, tt.sw)
			require.Len(t, f.Planes, tt.planes)

			luma := f.Luma()
			assert.Equal(t, tt.w, luma.Width)
			assert.Equal(t, tt.h, luma.Height)
			assert.Equal(t, tt.lumaStride, luma.Stride)
			assert.GreaterOrEqual(t, luma.Stride, luma.Width)
			assert.Len(t, luma.Data, luma.RowBytes()*luma.Height)

			for _, p := range f.Planes[1:] {
				assert.Equal(t, tt.cw, p.Width)
				assert.Equal(t, tt.ch, p.Height)
			}
		})
	}
}

func TestPlaneCopyFromHonoursStride(t *testing.T) {
	f := New(4, 2, 8, Cs400, Sample8)
	src := []byte{
		1, 2, 3, 4, 99, 99,
		5, 6, 7, 8, 99, 99,
	}
	require.NoError(t, f.Luma().CopyFrom(src, 6))

	assert.Equal(t, []byte{1, 2, 3, 4}, f.Luma().Row(0))
	assert.Equal(t, []byte{5, 6, 7, 8}, f.Luma().Row(1))
	assert.Equal(t, uint16(7), f.Luma().Sample(2, 1))
}

func TestPlaneCopyFromRejectsShortBuffers(t *testing.T) {
	f := New(4, 2, 8, Cs400, Sample8)
	assert.Error(t, f.Luma().CopyFrom(make([]byte, 5), 4))
	assert.Error(t, f.Luma().CopyFrom(make([]byte, 16), 3))
}

func TestSixteenBitSamplesAreLittleEndian(t *testing.T) {
	f := New(2, 1, 10, Cs400, Sample16)
	p := f.Luma()
	p.SetSample(1, 0, 0x03ff)

	assert.Equal(t, []byte{0, 0, 0xff, 0x03}, p.Row(0))
	assert.Equal(t, uint16(0x03ff), p.Sample(1, 0))
}

func TestFrameEqualIgnoresPadding(t *testing.T) {
	a := New(8, 2, 8, Cs420, Sample8)
	b := New(8, 2, 8, Cs420, Sample8)
	a.Luma().Data[a.Luma().RowBytes()-1] = 7

	assert.True(t, a.Equal(b))

	b.Planes[2].SetSample(0, 0, 1)
	assert.False(t, a.Equal(b))
}

func TestRational(t *testing.T) {
	r, err := ParseRational("50/2")
	require.NoError(t, err)
	assert.Equal(t, Rational{Num: 25, Den: 1}, r)

	r, err = ParseRational("30000/1001")
	require.NoError(t, err)
	assert.InDelta(t, 29.97, r.Float64(), 0.01)

	r, err = ParseRational("24")
	require.NoError(t, err)
	assert.Equal(t, "24/1", r.String())

	_, err = ParseRational("0/0")
	assert.Error(t, err)
	_, err = ParseRational("abc")
	assert.Error(t, err)
}

func TestVideoDetailsValidate(t *testing.T) {
	valid := VideoDetails{Width: 64, Height: 64, BitDepth: 8, ChromaSampling: Cs420, FrameRate: Rational{25, 1}}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*VideoDetails)
	}{
		{"zero width", func(d *VideoDetails) { d.Width = 0 }},
		{"odd depth", func(d *VideoDetails) { d.BitDepth = 9 }},
		{"bad chroma", func(d *VideoDetails) { d.ChromaSampling = ChromaSampling(7) }},
		{"zero rate", func(d *VideoDetails) { d.FrameRate = Rational{0, 1} }},
		{"negative frames", func(d *VideoDetails) { d.TotalFrames = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestSampleWidthForDepth(t *testing.T) {
	assert.Equal(t, Sample8, VideoDetails{BitDepth: 8}.SampleWidth())
	assert.Equal(t, Sample16, VideoDetails{BitDepth: 10}.SampleWidth())
	assert.Equal(t, Sample16, VideoDetails{BitDepth: 16}.SampleWidth())
	assert.False(t, SampleWidth(12).Valid())
}
