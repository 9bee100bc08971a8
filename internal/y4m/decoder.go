package y4m

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/five82/avdecode/internal/frame"
)

const frameMagic = "FRAME"

// Decoder reads frames from a YUV4MPEG2 stream.
type Decoder struct {
	r         *bufio.Reader
	header    Header
	headerLen int
}

// NewDecoder reads the stream header from r. An empty stream returns io.EOF.
// Malformed or partial headers wrap ErrInvalidHeader; other failures are
// returned as read errors.
func NewDecoder(r io.Reader) (*Decoder, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	line, err := readLine(br)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: stream ended inside header", ErrInvalidHeader)
		}
		if errors.Is(err, errLineTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
		}
		return nil, err
	}
	h, err := ParseHeader(line)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: br, header: h, headerLen: len(line) + 1}, nil
}

// Header returns the parsed stream header.
func (d *Decoder) Header() Header {
	return d.header
}

// HeaderLen returns the size of the stream header in bytes, newline included.
func (d *Decoder) HeaderLen() int {
	return d.headerLen
}

// ReadFrameInto reads the next frame into dst. dst must have the stream's
// luma size and sample size; when dst has a single plane the chroma planes of
// a colour stream are discarded. It returns io.EOF at a clean end of stream.
func (d *Decoder) ReadFrameInto(dst *frame.Frame) error {
	if err := d.readFrameHeader(); err != nil {
		return err
	}

	bps := d.header.BytesPerSample()
	for i, size := range d.header.PlaneSizes() {
		rowLen := size[0] * bps
		if i >= len(dst.Planes) {
			if _, err := d.r.Discard(rowLen * size[1]); err != nil {
				return truncated(err)
			}
			continue
		}
		p := &dst.Planes[i]
		if p.Width != size[0] || p.Height != size[1] || p.BytesPerSample != bps {
			return fmt.Errorf("y4m: destination plane %d is %dx%d/%dB, stream has %dx%d/%dB",
				i, p.Width, p.Height, p.BytesPerSample, size[0], size[1], bps)
		}
		for y := 0; y < p.Height; y++ {
			if _, err := io.ReadFull(d.r, p.Row(y)); err != nil {
				return truncated(err)
			}
		}
	}
	return nil
}

// SkipFrame discards the next frame. It returns io.EOF at a clean end of stream.
func (d *Decoder) SkipFrame() error {
	if err := d.readFrameHeader(); err != nil {
		return err
	}
	if _, err := d.r.Discard(d.header.FrameSize()); err != nil {
		return truncated(err)
	}
	return nil
}

func (d *Decoder) readFrameHeader() error {
	line, err := readLine(d.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncatedFrame
		}
		if errors.Is(err, errLineTooLong) {
			return fmt.Errorf("%w: %v", ErrInvalidFrameHeader, err)
		}
		return err
	}
	if line != frameMagic && !strings.HasPrefix(line, frameMagic+" ") {
		return fmt.Errorf("%w: %.16q", ErrInvalidFrameHeader, line)
	}
	return nil
}

var errLineTooLong = errors.New("header line too long")

// readLine reads up to the next newline. A stream that ends before any byte
// returns io.EOF, one that ends mid-line io.ErrUnexpectedEOF.
func readLine(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLine {
			return "", errLineTooLong
		}
		switch {
		case err == nil:
			return string(line[:len(line)-1]), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return "", io.EOF
			}
			return "", io.ErrUnexpectedEOF
		default:
			return "", err
		}
	}
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncatedFrame
	}
	return err
}
