package y4m

import (
	"errors"
	"io"
	"os"

	"github.com/five82/avdecode/internal/adapter"
	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/logging"
	"github.com/five82/avdecode/internal/util"
)

const backend = string(adapter.Y4M)

// Options configures a Source.
type Options struct {
	// LumaOnly returns monochrome frames, discarding chroma planes.
	LumaOnly bool
	Logger   *logging.Logger
}

// Source is the read-once text-frame backend.
type Source struct {
	dec     *Decoder
	closer  io.Closer
	details frame.VideoDetails
	opts    Options
	lc      adapter.Lifecycle
	log     *logging.Logger
	frames  int
}

var _ adapter.Adapter = (*Source)(nil)

// Open opens a YUV4MPEG2 file.
func Open(path string, opts Options) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, averrors.NewIOError(backend, "failed to open "+path, err)
	}
	util.AdviseSequential(f)

	s, err := newSource(f, f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if info, err := f.Stat(); err == nil {
		s.details.TotalFrames = countFrames(info.Size(), s.dec.HeaderLen(), s.dec.Header().FrameSize())
	}
	s.log.Debug("opened source", "path", path, "details", s.details.String(), "frames", s.details.TotalFrames)
	return s, nil
}

// NewSource reads a YUV4MPEG2 stream from r. The caller keeps ownership of r.
func NewSource(r io.Reader, opts Options) (*Source, error) {
	return newSource(r, nil, opts)
}

func newSource(r io.Reader, closer io.Closer, opts Options) (*Source, error) {
	dec, err := NewDecoder(r)
	if err != nil {
		if err == io.EOF {
			return nil, averrors.NewEndOfFileError(backend)
		}
		if errors.Is(err, ErrInvalidHeader) {
			return nil, averrors.NewInvalidHeaderError(backend, "failed to parse stream header", err)
		}
		return nil, averrors.NewIOError(backend, "failed to read stream header", err)
	}

	s := &Source{
		dec:     dec,
		closer:  closer,
		details: dec.Header().Details(),
		opts:    opts,
		lc:      adapter.NewLifecycle(adapter.Y4M),
		log:     logging.OrGlobal(opts.Logger).WithAttrs("backend", backend),
	}
	if err := s.details.Validate(); err != nil {
		return nil, averrors.NewInvalidHeaderError(backend, "unsupported stream", err)
	}
	s.setOutputChroma()
	s.lc.Probed()
	return s, nil
}

// countFrames derives the frame count of a file whose frame headers carry no
// parameters. It returns 0 when the size does not divide evenly.
func countFrames(size int64, headerLen, frameSize int) int {
	per := int64(len(frameMagic) + 1 + frameSize)
	body := size - int64(headerLen)
	if per <= 0 || body < 0 || body%per != 0 {
		return 0
	}
	return int(body / per)
}

// Backend implements adapter.Adapter.
func (s *Source) Backend() adapter.Backend {
	return adapter.Y4M
}

// Header returns the parsed stream header.
func (s *Source) Header() Header {
	return s.dec.Header()
}

// Probe returns the details parsed from the stream header.
func (s *Source) Probe() (frame.VideoDetails, error) {
	return s.details, nil
}

// SetLumaOnly selects monochrome output. It must be called before the first read.
func (s *Source) SetLumaOnly(on bool) error {
	if err := s.lc.Configure("luma-only mode"); err != nil {
		return err
	}
	s.opts.LumaOnly = on
	s.setOutputChroma()
	s.lc.Probed()
	return nil
}

// setOutputChroma makes the details describe the frames ReadFrame returns.
func (s *Source) setOutputChroma() {
	s.details.ChromaSampling = s.dec.Header().Colorspace.Chroma
	if s.opts.LumaOnly {
		s.details.ChromaSampling = frame.Cs400
	}
}

// ReadFrame reads the next frame. A stream that ends, cleanly or inside a
// frame, reports EndOfFile on this and every later call.
func (s *Source) ReadFrame(width frame.SampleWidth) (*frame.Frame, error) {
	if err := adapter.CheckSampleWidth(adapter.Y4M, s.details, width); err != nil {
		return nil, err
	}
	if !s.lc.Read() {
		return nil, averrors.NewEndOfFileError(backend)
	}

	f := frame.New(s.details.Width, s.details.Height, s.details.BitDepth, s.details.ChromaSampling, width)

	err := s.dec.ReadFrameInto(f)
	switch {
	case err == nil:
		s.frames++
		return f, nil
	case errors.Is(err, io.EOF):
		s.lc.Exhaust()
		s.log.Debug("end of stream", "frames", s.frames)
		return nil, averrors.NewEndOfFileError(backend)
	case errors.Is(err, ErrTruncatedFrame):
		s.lc.Exhaust()
		s.log.Warn("stream ended inside a frame", "frame", s.frames)
		return nil, averrors.NewEndOfFileError(backend)
	case errors.Is(err, ErrInvalidFrameHeader):
		return nil, averrors.NewDecodeFailureError(backend, "malformed frame header", err)
	default:
		return nil, averrors.NewIOError(backend, "failed to read frame", err)
	}
}

// Close releases the underlying file, if the source opened it.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	if err != nil {
		return averrors.NewIOError(backend, "failed to close source", err)
	}
	return nil
}
