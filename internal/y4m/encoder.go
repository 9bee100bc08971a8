package y4m

import (
	"bufio"
	"fmt"
	"io"

	"github.com/five82/avdecode/internal/frame"
)

// Encoder writes frames as a YUV4MPEG2 stream.
type Encoder struct {
	w      *bufio.Writer
	header Header
	wrote  bool
}

// NewEncoder returns an encoder for h. The header is written with the first
// frame.
func NewEncoder(w io.Writer, h Header) *Encoder {
	return &Encoder{w: bufio.NewWriterSize(w, 1<<16), header: h}
}

// HeaderFor builds a stream header matching details. lumaOnly selects the
// monochrome colorspace of the same depth.
func HeaderFor(d frame.VideoDetails, lumaOnly bool) (Header, error) {
	cs := d.ChromaSampling
	if lumaOnly {
		cs = frame.Cs400
	}
	c, err := ColorspaceFor(cs, d.BitDepth)
	if err != nil {
		return Header{}, err
	}
	interlace := byte('p')
	switch d.ScanOrder {
	case frame.ScanTopFieldFirst:
		interlace = 't'
	case frame.ScanBottomFieldFirst:
		interlace = 'b'
	case frame.ScanMixed:
		interlace = 'm'
	}
	return Header{
		Width:      d.Width,
		Height:     d.Height,
		FrameRate:  d.FrameRate,
		Interlace:  interlace,
		Aspect:     frame.Rational{Num: 1, Den: 1},
		Colorspace: c,
	}, nil
}

// WriteFrame writes f, which must match the header geometry.
func (e *Encoder) WriteFrame(f *frame.Frame) error {
	sizes := e.header.PlaneSizes()
	if len(f.Planes) != len(sizes) {
		return fmt.Errorf("y4m: frame has %d planes, stream expects %d", len(f.Planes), len(sizes))
	}
	if !e.wrote {
		if _, err := fmt.Fprintf(e.w, "%s\n", e.header); err != nil {
			return err
		}
		e.wrote = true
	}
	if _, err := io.WriteString(e.w, frameMagic+"\n"); err != nil {
		return err
	}
	bps := e.header.BytesPerSample()
	for i := range f.Planes {
		p := &f.Planes[i]
		if p.Width != sizes[i][0] || p.Height != sizes[i][1] || p.BytesPerSample != bps {
			return fmt.Errorf("y4m: plane %d is %dx%d/%dB, stream expects %dx%d/%dB",
				i, p.Width, p.Height, p.BytesPerSample, sizes[i][0], sizes[i][1], bps)
		}
		for y := 0; y < p.Height; y++ {
			if _, err := e.w.Write(p.Row(y)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes buffered data to the underlying writer. An encoder that never
// wrote a frame still emits its header so the output is a valid empty stream.
func (e *Encoder) Flush() error {
	if !e.wrote {
		if _, err := fmt.Fprintf(e.w, "%s\n", e.header); err != nil {
			return err
		}
		e.wrote = true
	}
	return e.w.Flush()
}
