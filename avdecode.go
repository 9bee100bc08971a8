// Package avdecode provides one decode interface over four video backends:
// a YUV4MPEG2 reader, ffmpeg, VapourSynth and FFMS2.
//
// The backend is chosen from the file extension and the configured priority
// list. Frames are delivered in a canonical planar layout whatever backend
// produced them.
//
// Basic usage:
//
//	dec, err := avdecode.FromFile("input.mkv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dec.Close()
//
//	d := dec.VideoDetails()
//	for {
//	    f, err := dec.ReadFrame(d.SampleWidth())
//	    if errors.Is(err, avdecode.ErrEndOfFile) {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    process(f)
//	}
package avdecode

import (
	"io"
	"os"

	"github.com/five82/avdecode/internal/adapter"
	"github.com/five82/avdecode/internal/config"
	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/ffms"
	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/logging"
	"github.com/five82/avdecode/internal/proc"
	"github.com/five82/avdecode/internal/util"
	"github.com/five82/avdecode/internal/y4m"
)

// Re-exported frame model.
type (
	Frame          = frame.Frame
	Plane          = frame.Plane
	VideoDetails   = frame.VideoDetails
	ChromaSampling = frame.ChromaSampling
	SampleWidth    = frame.SampleWidth
	Rational       = frame.Rational
	ScanOrder      = frame.ScanOrder
)

const (
	Cs420 = frame.Cs420
	Cs422 = frame.Cs422
	Cs444 = frame.Cs444
	Cs400 = frame.Cs400

	Sample8  = frame.Sample8
	Sample16 = frame.Sample16
)

// Backend identifies a decoding engine.
type Backend = adapter.Backend

const (
	BackendY4M         = adapter.Y4M
	BackendFFmpeg      = adapter.FFmpeg
	BackendVapourSynth = adapter.VapourSynth
	BackendFFMS2       = adapter.FFMS2
)

// Adapter is the contract every backend source implements. Seek-capable
// sources also implement Seeker.
type (
	Adapter = adapter.Adapter
	Seeker  = adapter.Seeker
)

// Error is the type of every error returned by a Decoder.
type (
	Error     = averrors.CoreError
	ErrorKind = averrors.ErrorKind
)

// Error kind sentinels for use with errors.Is.
var (
	ErrNoDecoder           = averrors.ErrNoDecoder
	ErrUnsupportedInput    = averrors.ErrUnsupportedInput
	ErrIO                  = averrors.ErrIO
	ErrBackendInit         = averrors.ErrBackendInit
	ErrInvalidHeader       = averrors.ErrInvalidHeader
	ErrEndOfFile           = averrors.ErrEndOfFile
	ErrSeekUnsupported     = averrors.ErrSeekUnsupported
	ErrOutOfRange          = averrors.ErrOutOfRange
	ErrDecodeFailure       = averrors.ErrDecodeFailure
	ErrConfigurationMisuse = averrors.ErrConfigurationMisuse
)

// Decoder forwards reads and seeks to the one adapter chosen at construction.
type Decoder struct {
	a       Adapter
	details VideoDetails
	log     *logging.Logger

	// refresh is set by FromAdapter: the caller may still configure the
	// adapter, so details are taken again before the first read or seek.
	refresh   bool
	exhausted bool
	closed    bool
}

// FromFile opens path with the backend its extension and the configured
// priority list select. A selected backend that fails to open the file is
// not replaced by the next one.
func FromFile(path string, opts ...Option) (*Decoder, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	b, err := o.selectBackend(path)
	if err != nil {
		return nil, err
	}
	o.log.Debug("selected backend", "backend", b, "path", path)

	var a Adapter
	switch b {
	case BackendY4M:
		a, err = openY4M(path, o)
	case BackendFFmpeg:
		a, err = openFFmpeg(path, o)
	case BackendVapourSynth:
		a, err = openVapourSynth(path, o)
	case BackendFFMS2:
		a, err = openFFMS(path, o)
	default:
		err = averrors.NewNoDecoderError("unknown backend " + string(b))
	}
	if err != nil {
		return nil, err
	}
	return newDecoder(a, o.log)
}

// FromReader decodes a YUV4MPEG2 stream. Only the y4m backend reads streams;
// forcing any other backend fails with ErrUnsupportedInput. The caller keeps
// ownership of r.
func FromReader(r io.Reader, opts ...Option) (*Decoder, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if o.backend != "" && o.backend != BackendY4M {
		return nil, averrors.NewUnsupportedInputError(string(o.backend), "only y4m can decode a byte stream")
	}
	src, err := y4m.NewSource(r, y4m.Options{LumaOnly: o.cfg.LumaOnly, Logger: o.log})
	if err != nil {
		return nil, err
	}
	return newDecoder(src, o.log)
}

// FromStdin decodes a YUV4MPEG2 stream on standard input.
func FromStdin(opts ...Option) (*Decoder, error) {
	return FromReader(os.Stdin, opts...)
}

// FromAdapter wraps an adapter the caller built, bypassing selection. The
// adapter may still be configured until the first read or seek; the decoder
// takes ownership and closes it.
func FromAdapter(a Adapter) (*Decoder, error) {
	if a == nil {
		return nil, averrors.NewConfigurationMisuseError("", "nil adapter")
	}
	d, err := newDecoder(a, nil)
	if err != nil {
		return nil, err
	}
	d.refresh = true
	return d, nil
}

func newDecoder(a Adapter, log *logging.Logger) (*Decoder, error) {
	details, err := a.Probe()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return &Decoder{
		a:       a,
		details: details,
		log:     logging.OrGlobal(log).WithAttrs("backend", a.Backend()),
	}, nil
}

// Backend returns the backend decoding the source.
func (d *Decoder) Backend() Backend {
	return d.a.Backend()
}

// VideoDetails returns the details taken when the source was opened.
func (d *Decoder) VideoDetails() VideoDetails {
	return d.details
}

// refreshDetails takes the details of an injected adapter once, after the
// caller had the chance to configure it.
func (d *Decoder) refreshDetails() error {
	if !d.refresh {
		return nil
	}
	details, err := d.a.Probe()
	if err != nil {
		return err
	}
	d.details = details
	d.refresh = false
	return nil
}

// ReadFrame returns the next frame with samples of the given width, which
// must match the source bit depth. Once the source is exhausted every call
// returns ErrEndOfFile until a successful Seek.
func (d *Decoder) ReadFrame(width SampleWidth) (*Frame, error) {
	if d.closed {
		return nil, averrors.NewConfigurationMisuseError(string(d.a.Backend()), "decoder is closed")
	}
	if err := d.refreshDetails(); err != nil {
		return nil, err
	}
	if err := adapter.CheckSampleWidth(d.a.Backend(), d.details, width); err != nil {
		return nil, err
	}
	if d.exhausted {
		return nil, averrors.NewEndOfFileError(string(d.a.Backend()))
	}

	f, err := d.a.ReadFrame(width)
	if err != nil {
		if averrors.IsEndOfFile(err) {
			d.exhausted = true
			d.log.Debug("end of stream")
		}
		return nil, err
	}
	return f, nil
}

// Seek positions the decoder so the next read returns frame index.
func (d *Decoder) Seek(index int) error {
	if d.closed {
		return averrors.NewConfigurationMisuseError(string(d.a.Backend()), "decoder is closed")
	}
	s, ok := d.a.(Seeker)
	if !ok {
		return averrors.NewSeekUnsupportedError(string(d.a.Backend()))
	}
	if err := d.refreshDetails(); err != nil {
		return err
	}
	if err := adapter.CheckSeekIndex(d.a.Backend(), index, d.details.TotalFrames); err != nil {
		return err
	}
	if err := s.Seek(index); err != nil {
		return err
	}
	d.exhausted = false
	return nil
}

// Close releases the adapter. It is safe to call more than once.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.a.Close()
}

// selectBackend applies the extension rules and then the priority list.
// Backends that are listed but cannot run here count as disabled.
func (o *options) selectBackend(path string) (Backend, error) {
	if o.backend != "" {
		return o.backend, nil
	}
	if util.IsY4MPath(path) {
		return BackendY4M, nil
	}
	if util.IsScriptPath(path) {
		if o.cfg.Enabled(BackendVapourSynth) && o.usable(BackendVapourSynth) {
			return BackendVapourSynth, nil
		}
		return "", averrors.NewNoDecoderError("vapoursynth is disabled or vspipe is missing, cannot open script " + path)
	}

	priority, err := o.cfg.Priority()
	if err != nil {
		return "", misuse(err)
	}
	for _, b := range priority {
		if !o.usable(b) {
			continue
		}
		return b, nil
	}
	return "", averrors.NewNoDecoderError("no enabled backend can open " + path)
}

// usable reports whether b is compiled in and its tool can be found.
func (o *options) usable(b Backend) bool {
	var ok bool
	switch b {
	case BackendFFmpeg:
		ok = proc.Available(toolPath(o.cfg.FFmpegPath, config.DefaultFFmpegPath))
	case BackendVapourSynth:
		ok = proc.Available(toolPath(o.cfg.VSPipePath, config.DefaultVSPipePath))
	case BackendFFMS2:
		ok = ffms.Available()
	default:
		ok = true
	}
	if !ok {
		o.log.Debug("skipping unavailable backend", "backend", b)
	}
	return ok
}

func toolPath(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return configured
}
