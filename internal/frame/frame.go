package frame

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SampleWidth is the storage size of one sample in a decoded frame.
type SampleWidth int

const (
	// Sample8 stores one byte per sample and is only valid for 8-bit sources.
	Sample8 SampleWidth = 8
	// Sample16 stores two little-endian bytes per sample for 10, 12 and 16-bit sources.
	Sample16 SampleWidth = 16
)

// Bytes returns the number of bytes one sample occupies.
func (w SampleWidth) Bytes() int {
	if w == Sample16 {
		return 2
	}
	return 1
}

// Valid reports whether w is one of the supported widths.
func (w SampleWidth) Valid() bool {
	return w == Sample8 || w == Sample16
}

func (w SampleWidth) String() string {
	switch w {
	case Sample8:
		return "u8"
	case Sample16:
		return "u16"
	default:
		return fmt.Sprintf("SampleWidth(%d)", int(w))
	}
}

// strideAlign is the row alignment in bytes of planes allocated by New.
const strideAlign = 64

// Plane is one rectangular sample buffer of a frame. Stride counts samples
// per row and may exceed Width.
type Plane struct {
	Width          int
	Height         int
	Stride         int
	XDec           int
	YDec           int
	BytesPerSample int
	Data           []byte
}

func newPlane(width, height, xdec, ydec, bps int) Plane {
	rowBytes := (width*bps + strideAlign - 1) &^ (strideAlign - 1)
	return Plane{
		Width:          width,
		Height:         height,
		Stride:         rowBytes / bps,
		XDec:           xdec,
		YDec:           ydec,
		BytesPerSample: bps,
		Data:           make([]byte, rowBytes*height),
	}
}

// RowBytes returns the distance in bytes between the starts of two rows.
func (p *Plane) RowBytes() int {
	return p.Stride * p.BytesPerSample
}

// Row returns the visible bytes of row y, excluding stride padding.
func (p *Plane) Row(y int) []byte {
	off := y * p.RowBytes()
	return p.Data[off : off+p.Width*p.BytesPerSample]
}

// Sample returns the sample at x, y.
func (p *Plane) Sample(x, y int) uint16 {
	row := p.Row(y)
	if p.BytesPerSample == 1 {
		return uint16(row[x])
	}
	return binary.LittleEndian.Uint16(row[2*x:])
}

// SetSample stores v at x, y.
func (p *Plane) SetSample(x, y int, v uint16) {
	row := p.Row(y)
	if p.BytesPerSample == 1 {
		row[x] = byte(v)
		return
	}
	binary.LittleEndian.PutUint16(row[2*x:], v)
}

// CopyFrom copies the visible area from src, whose rows are srcStride bytes
// apart and use the same sample size as p.
func (p *Plane) CopyFrom(src []byte, srcStride int) error {
	rowLen := p.Width * p.BytesPerSample
	if srcStride < rowLen {
		return fmt.Errorf("source stride %d shorter than row length %d", srcStride, rowLen)
	}
	if p.Height > 0 && len(src) < (p.Height-1)*srcStride+rowLen {
		return fmt.Errorf("source buffer of %d bytes too small for %dx%d plane", len(src), p.Width, p.Height)
	}
	for y := 0; y < p.Height; y++ {
		copy(p.Row(y), src[y*srcStride:y*srcStride+rowLen])
	}
	return nil
}

// Equal reports whether both planes have the same geometry and visible samples.
func (p *Plane) Equal(o *Plane) bool {
	if p.Width != o.Width || p.Height != o.Height || p.BytesPerSample != o.BytesPerSample {
		return false
	}
	for y := 0; y < p.Height; y++ {
		if !bytes.Equal(p.Row(y), o.Row(y)) {
			return false
		}
	}
	return true
}

// Frame is one decoded picture. A monochrome frame has a single plane.
type Frame struct {
	BitDepth       int
	ChromaSampling ChromaSampling
	SampleWidth    SampleWidth
	Planes         []Plane
}

// New allocates a zeroed frame with planes laid out for the given luma size
// and chroma sampling.
func New(width, height, bitDepth int, cs ChromaSampling, sw SampleWidth) *Frame {
	bps := sw.Bytes()
	f := &Frame{
		BitDepth:       bitDepth,
		ChromaSampling: cs,
		SampleWidth:    sw,
		Planes:         make([]Plane, 0, cs.PlaneCount()),
	}
	f.Planes = append(f.Planes, newPlane(width, height, 0, 0, bps))
	if cs == Cs400 {
		return f
	}
	xdec, ydec := cs.Decimation()
	cw, ch := cs.ChromaDimensions(width, height)
	f.Planes = append(f.Planes, newPlane(cw, ch, xdec, ydec, bps), newPlane(cw, ch, xdec, ydec, bps))
	return f
}

// Luma returns the first plane.
func (f *Frame) Luma() *Plane {
	return &f.Planes[0]
}

// Equal reports whether both frames carry identical planes.
func (f *Frame) Equal(o *Frame) bool {
	if f.BitDepth != o.BitDepth || f.ChromaSampling != o.ChromaSampling || len(f.Planes) != len(o.Planes) {
		return false
	}
	for i := range f.Planes {
		if !f.Planes[i].Equal(&o.Planes[i]) {
			return false
		}
	}
	return true
}
