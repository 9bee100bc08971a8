// Package y4m reads and writes YUV4MPEG2 streams and exposes them as a
// decoding backend.
package y4m

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/avdecode/internal/frame"
)

const magic = "YUV4MPEG2"

// maxLine bounds stream and frame header lines.
const maxLine = 1024

var (
	// ErrInvalidHeader reports a malformed stream header.
	ErrInvalidHeader = errors.New("y4m: invalid stream header")
	// ErrInvalidFrameHeader reports a frame that does not start with FRAME.
	ErrInvalidFrameHeader = errors.New("y4m: invalid frame header")
	// ErrTruncatedFrame reports a stream that ended inside a frame.
	ErrTruncatedFrame = errors.New("y4m: truncated frame")
)

// Colorspace is one value of the C header parameter.
type Colorspace struct {
	Name     string
	Chroma   frame.ChromaSampling
	BitDepth int
}

// DefaultColorspace is assumed when a header carries no C parameter.
var DefaultColorspace = Colorspace{"420jpeg", frame.Cs420, 8}

var colorspaces = map[string]Colorspace{
	"420jpeg":  DefaultColorspace,
	"420paldv": {"420paldv", frame.Cs420, 8},
	"420mpeg2": {"420mpeg2", frame.Cs420, 8},
	"420":      {"420", frame.Cs420, 8},
	"420p10":   {"420p10", frame.Cs420, 10},
	"420p12":   {"420p12", frame.Cs420, 12},
	"420p16":   {"420p16", frame.Cs420, 16},
	"422":      {"422", frame.Cs422, 8},
	"422p10":   {"422p10", frame.Cs422, 10},
	"422p12":   {"422p12", frame.Cs422, 12},
	"422p16":   {"422p16", frame.Cs422, 16},
	"444":      {"444", frame.Cs444, 8},
	"444p10":   {"444p10", frame.Cs444, 10},
	"444p12":   {"444p12", frame.Cs444, 12},
	"444p16":   {"444p16", frame.Cs444, 16},
	"mono":     {"mono", frame.Cs400, 8},
	"mono10":   {"mono10", frame.Cs400, 10},
	"mono12":   {"mono12", frame.Cs400, 12},
	"mono16":   {"mono16", frame.Cs400, 16},
}

// ParseColorspace looks up a C parameter value such as "420p10".
func ParseColorspace(name string) (Colorspace, bool) {
	cs, ok := colorspaces[name]
	return cs, ok
}

// ColorspaceFor returns the canonical colorspace name for a sampling and depth.
func ColorspaceFor(cs frame.ChromaSampling, bitDepth int) (Colorspace, error) {
	var base string
	switch cs {
	case frame.Cs420:
		base = "420"
	case frame.Cs422:
		base = "422"
	case frame.Cs444:
		base = "444"
	case frame.Cs400:
		base = "mono"
	default:
		return Colorspace{}, fmt.Errorf("y4m: no colorspace for %s", cs)
	}
	name := base
	if bitDepth > 8 {
		name = fmt.Sprintf("%sp%d", base, bitDepth)
		if cs == frame.Cs400 {
			name = fmt.Sprintf("%s%d", base, bitDepth)
		}
	}
	c, ok := colorspaces[name]
	if !ok {
		return Colorspace{}, fmt.Errorf("y4m: no colorspace for %s at %d bits", cs, bitDepth)
	}
	return c, nil
}

// Header is a parsed stream header.
type Header struct {
	Width      int
	Height     int
	FrameRate  frame.Rational
	Interlace  byte
	Aspect     frame.Rational
	Colorspace Colorspace
	// Extra holds X parameters verbatim, without the leading X.
	Extra []string
}

// BytesPerSample returns 1 for 8-bit streams and 2 otherwise.
func (h Header) BytesPerSample() int {
	if h.Colorspace.BitDepth > 8 {
		return 2
	}
	return 1
}

// PlaneSizes returns the sample dimensions of each plane in stream order.
func (h Header) PlaneSizes() [][2]int {
	sizes := [][2]int{{h.Width, h.Height}}
	if h.Colorspace.Chroma == frame.Cs400 {
		return sizes
	}
	cw, ch := h.Colorspace.Chroma.ChromaDimensions(h.Width, h.Height)
	return append(sizes, [2]int{cw, ch}, [2]int{cw, ch})
}

// FrameSize returns the payload size of one frame in bytes.
func (h Header) FrameSize() int {
	n := 0
	for _, s := range h.PlaneSizes() {
		n += s[0] * s[1]
	}
	return n * h.BytesPerSample()
}

// ScanOrder maps the I parameter.
func (h Header) ScanOrder() frame.ScanOrder {
	switch h.Interlace {
	case 'p':
		return frame.ScanProgressive
	case 't':
		return frame.ScanTopFieldFirst
	case 'b':
		return frame.ScanBottomFieldFirst
	case 'm':
		return frame.ScanMixed
	default:
		return frame.ScanUnknown
	}
}

// Details converts the header into canonical video details.
func (h Header) Details() frame.VideoDetails {
	return frame.VideoDetails{
		Width:          h.Width,
		Height:         h.Height,
		BitDepth:       h.Colorspace.BitDepth,
		ChromaSampling: h.Colorspace.Chroma,
		FrameRate:      h.FrameRate,
		ScanOrder:      h.ScanOrder(),
	}
}

// String renders the header line without the trailing newline.
func (h Header) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s W%d H%d F%d:%d", magic, h.Width, h.Height, h.FrameRate.Num, h.FrameRate.Den)
	interlace := h.Interlace
	if interlace == 0 {
		interlace = 'p'
	}
	fmt.Fprintf(&b, " I%c", interlace)
	if h.Aspect.Num > 0 && h.Aspect.Den > 0 {
		fmt.Fprintf(&b, " A%d:%d", h.Aspect.Num, h.Aspect.Den)
	}
	name := h.Colorspace.Name
	if name == "" {
		name = DefaultColorspace.Name
	}
	fmt.Fprintf(&b, " C%s", name)
	for _, x := range h.Extra {
		fmt.Fprintf(&b, " X%s", x)
	}
	return b.String()
}

// ParseHeader parses a stream header line without its trailing newline.
func ParseHeader(line string) (Header, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != magic {
		return Header{}, fmt.Errorf("%w: missing %s signature", ErrInvalidHeader, magic)
	}

	h := Header{Interlace: '?', Colorspace: DefaultColorspace}
	var haveW, haveH, haveF bool
	for _, f := range fields[1:] {
		tag, val := f[0], f[1:]
		var err error
		switch tag {
		case 'W':
			h.Width, err = strconv.Atoi(val)
			haveW = true
		case 'H':
			h.Height, err = strconv.Atoi(val)
			haveH = true
		case 'F':
			h.FrameRate, err = parseRatio(val)
			haveF = true
		case 'A':
			h.Aspect, err = parseRatio(val)
		case 'I':
			if len(val) != 1 || !strings.Contains("ptbm?", val) {
				err = fmt.Errorf("unknown interlace mode %q", val)
			} else {
				h.Interlace = val[0]
			}
		case 'C':
			cs, ok := ParseColorspace(val)
			if !ok {
				err = fmt.Errorf("unsupported colorspace %q", val)
			}
			h.Colorspace = cs
		case 'X':
			h.Extra = append(h.Extra, val)
		default:
			err = fmt.Errorf("unknown parameter %q", f)
		}
		if err != nil {
			return Header{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
		}
	}

	switch {
	case !haveW || !haveH:
		return Header{}, fmt.Errorf("%w: missing frame dimensions", ErrInvalidHeader)
	case h.Width <= 0 || h.Height <= 0:
		return Header{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvalidHeader, h.Width, h.Height)
	case !haveF:
		return Header{}, fmt.Errorf("%w: missing frame rate", ErrInvalidHeader)
	case !h.FrameRate.Valid():
		return Header{}, fmt.Errorf("%w: invalid frame rate %s", ErrInvalidHeader, h.FrameRate)
	}
	return h, nil
}

// parseRatio parses the colon-separated ratios of F and A parameters.
func parseRatio(s string) (frame.Rational, error) {
	num, den, ok := strings.Cut(s, ":")
	if !ok {
		return frame.Rational{}, fmt.Errorf("invalid ratio %q", s)
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return frame.Rational{}, fmt.Errorf("invalid ratio %q", s)
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil {
		return frame.Rational{}, fmt.Errorf("invalid ratio %q", s)
	}
	if d == 0 {
		return frame.Rational{Num: n}, nil
	}
	return frame.NewRational(n, d), nil
}
