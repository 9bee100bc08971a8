// Package frame defines the backend-independent picture and metadata types.
package frame

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ChromaSampling is the ratio of chroma to luma plane resolution.
type ChromaSampling int

const (
	// Cs420 halves chroma resolution in both directions.
	Cs420 ChromaSampling = iota
	// Cs422 halves chroma resolution horizontally.
	Cs422
	// Cs444 keeps chroma at full resolution.
	Cs444
	// Cs400 carries luma only.
	Cs400
)

// String returns the conventional J:a:b notation.
func (c ChromaSampling) String() string {
	switch c {
	case Cs420:
		return "4:2:0"
	case Cs422:
		return "4:2:2"
	case Cs444:
		return "4:4:4"
	case Cs400:
		return "monochrome"
	default:
		return "unknown"
	}
}

// Decimation returns the horizontal and vertical chroma shift.
func (c ChromaSampling) Decimation() (xdec, ydec int) {
	switch c {
	case Cs420:
		return 1, 1
	case Cs422:
		return 1, 0
	default:
		return 0, 0
	}
}

// PlaneCount returns the number of planes a frame with this sampling carries.
func (c ChromaSampling) PlaneCount() int {
	if c == Cs400 {
		return 1
	}
	return 3
}

// ChromaDimensions returns the chroma plane size for a luma plane of w×h.
// Odd luma dimensions round up.
func (c ChromaSampling) ChromaDimensions(w, h int) (int, int) {
	if c == Cs400 {
		return 0, 0
	}
	xdec, ydec := c.Decimation()
	return (w + xdec) >> xdec, (h + ydec) >> ydec
}

// ScanOrder describes field ordering of the source.
type ScanOrder int

const (
	// ScanUnknown means the backend does not report field order.
	ScanUnknown ScanOrder = iota
	// ScanProgressive is a progressive source.
	ScanProgressive
	// ScanTopFieldFirst is interlaced with the top field first.
	ScanTopFieldFirst
	// ScanBottomFieldFirst is interlaced with the bottom field first.
	ScanBottomFieldFirst
	// ScanMixed means field order varies per frame.
	ScanMixed
)

func (s ScanOrder) String() string {
	switch s {
	case ScanProgressive:
		return "progressive"
	case ScanTopFieldFirst:
		return "tff"
	case ScanBottomFieldFirst:
		return "bff"
	case ScanMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Rational is a positive fraction such as a frame rate.
type Rational struct {
	Num int64
	Den int64
}

// NewRational returns num/den reduced to lowest terms.
func NewRational(num, den int64) Rational {
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(abs(num), den); g > 1 {
		num /= g
		den /= g
	}
	return Rational{Num: num, Den: den}
}

// ParseRational parses "30000/1001" or a bare integer.
func ParseRational(s string) (Rational, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		den = "1"
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("invalid rational %q: %w", s, err)
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("invalid rational %q: %w", s, err)
	}
	if d == 0 {
		return Rational{}, fmt.Errorf("invalid rational %q: zero denominator", s)
	}
	return NewRational(n, d), nil
}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Float64 returns the value as a float.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// SupportedBitDepths lists the bit depths a backend may report.
var SupportedBitDepths = []int{8, 10, 12, 16}

// VideoDetails is the canonical metadata every backend reports once opened.
type VideoDetails struct {
	Width          int
	Height         int
	BitDepth       int
	ChromaSampling ChromaSampling
	FrameRate      Rational
	// TotalFrames is zero when the backend cannot tell.
	TotalFrames int
	ScanOrder   ScanOrder
}

// Validate checks the invariants every backend must satisfy.
func (d VideoDetails) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", d.Width, d.Height)
	}
	if !slices.Contains(SupportedBitDepths, d.BitDepth) {
		return fmt.Errorf("unsupported bit depth %d", d.BitDepth)
	}
	if d.ChromaSampling < Cs420 || d.ChromaSampling > Cs400 {
		return fmt.Errorf("unknown chroma sampling %d", d.ChromaSampling)
	}
	if !d.FrameRate.Valid() {
		return fmt.Errorf("invalid frame rate %s", d.FrameRate)
	}
	if d.TotalFrames < 0 {
		return fmt.Errorf("negative frame count %d", d.TotalFrames)
	}
	return nil
}

// SampleWidth returns the sample width frames of this source are read with.
func (d VideoDetails) SampleWidth() SampleWidth {
	if d.BitDepth > 8 {
		return Sample16
	}
	return Sample8
}

func (d VideoDetails) String() string {
	return fmt.Sprintf("%dx%d %d-bit %s @ %s fps", d.Width, d.Height, d.BitDepth, d.ChromaSampling, d.FrameRate)
}
