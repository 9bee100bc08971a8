// Package adapter defines the contract every decoding backend implements and
// the lifecycle bookkeeping they share.
package adapter

import (
	"fmt"
	"strings"

	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/frame"
)

// Backend identifies one decoding engine.
type Backend string

const (
	Y4M         Backend = "y4m"
	FFmpeg      Backend = "ffmpeg"
	VapourSynth Backend = "vapoursynth"
	FFMS2       Backend = "ffms2"
)

// All lists every backend in default priority order, text-frame first.
var All = []Backend{Y4M, FFmpeg, VapourSynth, FFMS2}

// ParseBackend converts a name such as "ffms2" into a Backend.
func ParseBackend(name string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range All {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q", name)
}

// Adapter is the capability set shared by every backend.
//
// Probe is idempotent: the first call derives the details from the native
// source, later calls return the cached value. ReadFrame returns a freshly
// allocated frame or an error whose kind comes from the shared taxonomy.
type Adapter interface {
	Backend() Backend
	Probe() (frame.VideoDetails, error)
	ReadFrame(width frame.SampleWidth) (*frame.Frame, error)
	Close() error
}

// Seeker is implemented by adapters that can reposition to a frame index.
type Seeker interface {
	Seek(index int) error
}

// CheckSampleWidth rejects reads whose sample width does not match the bit
// depth the backend emits.
func CheckSampleWidth(b Backend, d frame.VideoDetails, w frame.SampleWidth) error {
	if !w.Valid() {
		return averrors.NewConfigurationMisuseError(string(b), fmt.Sprintf("unsupported sample width %d", int(w)))
	}
	if want := d.SampleWidth(); w != want {
		return averrors.NewConfigurationMisuseError(string(b),
			fmt.Sprintf("%d-bit source must be read with %s samples, got %s", d.BitDepth, want, w))
	}
	return nil
}

// CheckSeekIndex validates index against a known frame count. A count of zero
// means the count is unknown and only negative indices are rejected.
func CheckSeekIndex(b Backend, index, count int) error {
	if index < 0 || (count > 0 && index >= count) {
		return averrors.NewOutOfRangeError(string(b), index, count)
	}
	return nil
}
