// Package y4mtest builds deterministic YUV4MPEG2 fixtures for tests.
package y4mtest

import (
	"bytes"
	"os"
	"testing"

	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/y4m"
)

// Sample returns the fixture value of plane p at x, y in frame i. Values stay
// within the bit depth so 10 and 12-bit fixtures remain legal.
func Sample(i, p, x, y, bitDepth int) uint16 {
	v := (i*31 + p*67 + x*3 + y*7) & ((1 << bitDepth) - 1)
	return uint16(v)
}

// Frame builds fixture frame i for details d.
func Frame(d frame.VideoDetails, i int) *frame.Frame {
	f := frame.New(d.Width, d.Height, d.BitDepth, d.ChromaSampling, d.SampleWidth())
	for p := range f.Planes {
		pl := &f.Planes[p]
		for y := 0; y < pl.Height; y++ {
			for x := 0; x < pl.Width; x++ {
				pl.SetSample(x, y, Sample(i, p, x, y, d.BitDepth))
			}
		}
	}
	return f
}

// Encode returns a stream of n fixture frames.
func Encode(t testing.TB, d frame.VideoDetails, n int) []byte {
	t.Helper()
	h, err := y4m.HeaderFor(d, false)
	if err != nil {
		t.Fatalf("y4mtest: %v", err)
	}
	var buf bytes.Buffer
	enc := y4m.NewEncoder(&buf, h)
	for i := 0; i < n; i++ {
		if err := enc.WriteFrame(Frame(d, i)); err != nil {
			t.Fatalf("y4mtest: write frame %d: %v", i, err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("y4mtest: flush: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes a stream of n fixture frames to path.
func WriteFile(t testing.TB, path string, d frame.VideoDetails, n int) {
	t.Helper()
	if err := os.WriteFile(path, Encode(t, d, n), 0644); err != nil {
		t.Fatalf("y4mtest: %v", err)
	}
}

// Details returns the 64×64 8-bit 4:2:0 25 fps fixture geometry.
func Details() frame.VideoDetails {
	return frame.VideoDetails{
		Width:          64,
		Height:         64,
		BitDepth:       8,
		ChromaSampling: frame.Cs420,
		FrameRate:      frame.Rational{Num: 25, Den: 1},
		ScanOrder:      frame.ScanProgressive,
	}
}
