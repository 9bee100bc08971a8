package vapoursynth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/avdecode/internal/frame"
)

const infoYUV420P10 = `Width: 1920
Height: 1080
Frames: 34046
FPS: 24000/1001 (23.976 fps)
Format Name: YUV420P10
Color Family: YUV
Alpha: No
Sample Type: Integer
Bits: 10
SubSampling W: 1
SubSampling H: 1
`

func TestParseInfo(t *testing.T) {
	info, err := parseInfo([]byte(infoYUV420P10))
	require.NoError(t, err)

	d, err := info.details()
	require.NoError(t, err)
	assert.Equal(t, frame.VideoDetails{
		Width:          1920,
		Height:         1080,
		BitDepth:       10,
		ChromaSampling: frame.Cs420,
		FrameRate:      frame.Rational{Num: 24000, Den: 1001},
		TotalFrames:    34046,
	}, d)
}

func TestInfoDetailsChroma(t *testing.T) {
	tests := []struct {
		name       string
		family     string
		subW, subH int
		want       frame.ChromaSampling
	}{
		{"420", "YUV", 1, 1, frame.Cs420},
		{"422", "YUV", 1, 0, frame.Cs422},
		{"444", "YUV", 0, 0, frame.Cs444},
		{"gray", "Gray", 0, 0, frame.Cs400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := clipInfo{Width: "64", Height: "64", Frames: 1, FPS: "25", FormatName: "X",
				ColorFamily: tt.family, SampleType: "Integer", Bits: 8, SubW: tt.subW, SubH: tt.subH}
			d, err := info.details()
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.ChromaSampling)
		})
	}
}

func TestInfoDetailsRejects(t *testing.T) {
	base := clipInfo{Width: "64", Height: "64", Frames: 1, FPS: "25/1", FormatName: "YUV420P8",
		ColorFamily: "YUV", SampleType: "Integer", Bits: 8, SubW: 1, SubH: 1}

	tests := []struct {
		name   string
		modify func(c *clipInfo)
	}{
		{"variable width", func(c *clipInfo) { c.Width = variableValue }},
		{"variable fps", func(c *clipInfo) { c.FPS = variableValue }},
		{"variable format", func(c *clipInfo) { c.FormatName = variableValue; c.ColorFamily = "" }},
		{"rgb", func(c *clipInfo) { c.ColorFamily = "RGB"; c.FormatName = "RGB24" }},
		{"float", func(c *clipInfo) { c.SampleType = "Float"; c.Bits = 32 }},
		{"9 bit", func(c *clipInfo) { c.Bits = 9 }},
		{"411", func(c *clipInfo) { c.SubW = 2; c.SubH = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.modify(&c)
			_, err := c.details()
			assert.Error(t, err)
		})
	}
}

func TestParseInfoErrors(t *testing.T) {
	_, err := parseInfo([]byte("Width: 64\nHeight: 64\n"))
	assert.Error(t, err, "missing keys")

	_, err = parseInfo([]byte("Width: 64\nHeight: 64\nFrames: many\nFPS: 25/1\nFormat Name: Gray8\n"))
	assert.Error(t, err, "malformed frame count")
}
