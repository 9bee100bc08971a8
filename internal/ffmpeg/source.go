package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/five82/avdecode/internal/adapter"
	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/ffprobe"
	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/keyframe"
	"github.com/five82/avdecode/internal/logging"
	"github.com/five82/avdecode/internal/proc"
	"github.com/five82/avdecode/internal/util"
	"github.com/five82/avdecode/internal/y4m"
)

const backend = string(adapter.FFmpeg)

// mp4Extensions are containers whose keyframes can be read from the sample table.
var mp4Extensions = map[string]bool{".mp4": true, ".m4v": true, ".mov": true}

// Options configures a Source.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	// Threads is the decoder thread count, 0 for one per logical core.
	Threads int
	// LumaOnly returns monochrome frames.
	LumaOnly bool
	// ScaleWidth and ScaleHeight resize the output when both are positive.
	ScaleWidth  int
	ScaleHeight int
	// CountFrames scans the stream when the container does not store a frame count.
	CountFrames bool
	Logger      *logging.Logger
}

func (o *Options) applyDefaults() {
	if o.FFmpegPath == "" {
		o.FFmpegPath = "ffmpeg"
	}
	if o.FFprobePath == "" {
		o.FFprobePath = "ffprobe"
	}
}

// Source decodes the first video stream of a media file.
type Source struct {
	path    string
	opts    Options
	stream  ffprobe.Stream
	pix     pixFormat
	details frame.VideoDetails
	lc      adapter.Lifecycle
	log     *logging.Logger

	// keyframes is loaded by the first seek; nil when no table is available.
	keyframes     *keyframe.Table
	keyframesRead bool

	pipe *y4m.Pipe
	// next is the index of the frame the next read returns.
	next int
}

var (
	_ adapter.Adapter = (*Source)(nil)
	_ adapter.Seeker  = (*Source)(nil)
)

// Open probes path. No decoding starts until the first read.
func Open(path string, opts Options) (*Source, error) {
	opts.applyDefaults()
	if _, err := os.Stat(path); err != nil {
		return nil, averrors.NewIOError(backend, "failed to open "+path, err)
	}
	if !proc.Available(opts.FFmpegPath) {
		return nil, averrors.NewBackendInitError(backend, "ffmpeg executable not found", fmt.Errorf("%s not in PATH", opts.FFmpegPath))
	}

	s := &Source{
		path: path,
		opts: opts,
		lc:   adapter.NewLifecycle(adapter.FFmpeg),
		log:  logging.OrGlobal(opts.Logger).WithAttrs("backend", backend, "path", path),
	}
	if err := s.probe(); err != nil {
		return nil, err
	}
	s.log.Debug("opened source", "stream", s.stream.Index, "pix_fmt", s.stream.PixFmt, "details", s.details.String())
	return s, nil
}

func (s *Source) probe() error {
	info, err := ffprobe.Probe(s.opts.FFprobePath, s.path)
	if err != nil {
		return averrors.NewBackendInitError(backend, "failed to probe "+s.path, describeFailure(err))
	}
	stream, ok := info.VideoStream()
	if !ok {
		return averrors.NewBackendInitError(backend, "no video stream in "+s.path, nil)
	}
	pix, err := lookupPixFmt(stream.PixFmt)
	if err != nil {
		return averrors.NewBackendInitError(backend, "cannot decode "+s.path, err)
	}

	rate, err := frame.ParseRational(stream.RFrameRate)
	if err != nil || !rate.Valid() {
		rate, err = frame.ParseRational(stream.AvgFrameRate)
	}
	if err != nil || !rate.Valid() {
		return averrors.NewBackendInitError(backend, "stream has no usable frame rate", err)
	}

	total := stream.NbFrames
	if total == 0 && s.opts.CountFrames {
		if n, err := ffprobe.CountFrames(s.opts.FFprobePath, s.path, stream.Index); err == nil {
			total = n
		} else {
			s.log.Warn("frame count scan failed", "error", err)
		}
	}

	s.stream = *stream
	s.pix = pix
	s.details = frame.VideoDetails{
		BitDepth:       pix.depth,
		ChromaSampling: pix.chroma,
		FrameRate:      rate,
		TotalFrames:    total,
		ScanOrder:      scanOrder(stream.FieldOrder),
	}
	s.details.Width, s.details.Height = s.outputSize()
	if s.opts.LumaOnly {
		s.details.ChromaSampling = frame.Cs400
	}
	if err := s.details.Validate(); err != nil {
		return averrors.NewBackendInitError(backend, "unsupported stream", err)
	}
	s.lc.Probed()
	return nil
}

// outputSize resolves display rotation and the requested scale.
func (s *Source) outputSize() (int, int) {
	if s.opts.ScaleWidth > 0 && s.opts.ScaleHeight > 0 {
		return s.opts.ScaleWidth, s.opts.ScaleHeight
	}
	w, h := s.stream.Width, s.stream.Height
	if s.stream.Rotation == 90 || s.stream.Rotation == 270 {
		w, h = h, w
	}
	return w, h
}

func scanOrder(fieldOrder string) frame.ScanOrder {
	switch fieldOrder {
	case "progressive":
		return frame.ScanProgressive
	case "tt", "tb":
		return frame.ScanTopFieldFirst
	case "bb", "bt":
		return frame.ScanBottomFieldFirst
	default:
		return frame.ScanUnknown
	}
}

// Backend implements adapter.Adapter.
func (s *Source) Backend() adapter.Backend {
	return adapter.FFmpeg
}

// Probe returns the output details of the selected stream.
func (s *Source) Probe() (frame.VideoDetails, error) {
	return s.details, nil
}

// StreamIndex returns the container index of the decoded stream.
func (s *Source) StreamIndex() int {
	return s.stream.Index
}

// SetLumaOnly selects monochrome output. It must be called before the first read.
func (s *Source) SetLumaOnly(on bool) error {
	if err := s.lc.Configure("luma-only mode"); err != nil {
		return err
	}
	s.opts.LumaOnly = on
	s.details.ChromaSampling = s.pix.chroma
	if on {
		s.details.ChromaSampling = frame.Cs400
	}
	s.lc.Probed()
	return nil
}

// SetScale resizes the output. Zero restores the display size. It must be
// called before the first read.
func (s *Source) SetScale(width, height int) error {
	if err := s.lc.Configure("output scale"); err != nil {
		return err
	}
	if (width > 0) != (height > 0) || width < 0 || height < 0 {
		s.lc.Probed()
		return averrors.NewConfigurationMisuseError(backend, fmt.Sprintf("invalid scale %dx%d", width, height))
	}
	s.opts.ScaleWidth, s.opts.ScaleHeight = width, height
	s.details.Width, s.details.Height = s.outputSize()
	s.lc.Probed()
	return nil
}

// ReadFrame decodes the next frame. A failing ffmpeg is reported once as
// DecodeFailure; the stream then reads as exhausted.
func (s *Source) ReadFrame(width frame.SampleWidth) (*frame.Frame, error) {
	if err := adapter.CheckSampleWidth(adapter.FFmpeg, s.details, width); err != nil {
		return nil, err
	}
	if !s.lc.Read() {
		return nil, averrors.NewEndOfFileError(backend)
	}
	if s.pipe == nil {
		if err := s.startAt(s.next); err != nil {
			s.lc.Exhaust()
			return nil, err
		}
	}

	f := frame.New(s.details.Width, s.details.Height, s.details.BitDepth, s.details.ChromaSampling, width)
	err := s.pipe.Decoder().ReadFrameInto(f)
	switch {
	case err == nil:
		s.next++
		return f, nil
	case errors.Is(err, io.EOF), errors.Is(err, y4m.ErrTruncatedFrame):
		return nil, s.endOfStream(err)
	default:
		s.stopPipe()
		s.lc.Exhaust()
		return nil, averrors.NewDecodeFailureError(backend, fmt.Sprintf("failed to read frame %d", s.next), err)
	}
}

func (s *Source) endOfStream(readErr error) error {
	waitErr := describeFailure(s.pipe.Finish())
	s.pipe = nil
	s.lc.Exhaust()
	if waitErr != nil {
		return averrors.NewDecodeFailureError(backend, fmt.Sprintf("ffmpeg failed at frame %d", s.next), waitErr)
	}
	if errors.Is(readErr, y4m.ErrTruncatedFrame) {
		s.log.Warn("decoder output ended inside a frame", "frame", s.next)
	}
	s.log.Debug("end of stream", "frame", s.next)
	return averrors.NewEndOfFileError(backend)
}

// Seek positions the source so the next read returns frame index.
func (s *Source) Seek(index int) error {
	table := s.keyframeTable()
	count := s.details.TotalFrames
	if count == 0 && table != nil {
		count = table.Total
	}
	if err := adapter.CheckSeekIndex(adapter.FFmpeg, index, count); err != nil {
		return err
	}

	// Decoding forward from the running position is no slower than
	// restarting when no keyframe lies in between.
	if s.pipe != nil && index >= s.next && table != nil && table.Preceding(index) <= s.next {
		if err := s.skip(index - s.next); err != nil {
			if averrors.IsEndOfFile(err) {
				return averrors.NewOutOfRangeError(backend, index, s.next)
			}
			return err
		}
		s.lc.Seek()
		return nil
	}

	s.stopPipe()
	s.next = index
	s.lc.Seek()
	return nil
}

// startAt launches ffmpeg so that its first frame, after skipping, is index.
func (s *Source) startAt(index int) error {
	fps := s.details.FrameRate.Float64()
	target := s.pix.target
	if s.opts.LumaOnly {
		target = lumaTarget(s.pix.depth)
	}
	filters := NewVideoFilterChain().AddScale(s.opts.ScaleWidth, s.opts.ScaleHeight)
	builder := NewDecodeArgsBuilder(s.path).
		WithStream(s.stream.Index).
		WithThreads(util.DecodeThreads(s.opts.Threads)).
		WithFilter(filters.Build()).
		WithPixFmt(target)

	skip := 0
	if index > 0 {
		if table := s.keyframeTable(); table != nil {
			// Half a frame past the keyframe keeps rounding from landing on
			// the previous one.
			k := table.Preceding(index)
			builder.WithSeek((float64(k)+0.5)/fps, false)
			skip = index - k
		} else {
			builder.WithSeek((float64(index)-0.5)/fps, true)
		}
	}

	s.log.Debug("starting decoder", "frame", index, "skip", skip)
	pipe, err := startPipe(s.opts.FFmpegPath, builder.Build())
	if err != nil {
		return averrors.NewDecodeFailureError(backend, "failed to start ffmpeg", err)
	}
	if err := s.checkGeometry(pipe.Decoder().Header()); err != nil {
		pipe.Stop()
		return err
	}
	s.pipe = pipe
	s.next = index - skip
	return s.skip(skip)
}

func (s *Source) checkGeometry(h y4m.Header) error {
	if h.Width != s.details.Width || h.Height != s.details.Height ||
		h.Colorspace.BitDepth != s.details.BitDepth || h.Colorspace.Chroma != s.details.ChromaSampling {
		return averrors.NewDecodeFailureError(backend,
			fmt.Sprintf("decoder produced %dx%d %s, expected %s", h.Width, h.Height, h.Colorspace.Name, s.details), nil)
	}
	return nil
}

func (s *Source) skip(n int) error {
	for i := 0; i < n; i++ {
		if err := s.pipe.Decoder().SkipFrame(); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, y4m.ErrTruncatedFrame) {
				return s.endOfStream(err)
			}
			s.stopPipe()
			return averrors.NewDecodeFailureError(backend, fmt.Sprintf("failed to skip frame %d", s.next), err)
		}
		s.next++
	}
	return nil
}

// keyframeTable loads the keyframe table once. MP4-family files use their
// sample table; other containers are scanned with ffprobe.
func (s *Source) keyframeTable() *keyframe.Table {
	if s.keyframesRead {
		return s.keyframes
	}
	s.keyframesRead = true

	if mp4Extensions[util.Ext(s.path)] {
		if f, err := os.Open(s.path); err == nil {
			table, err := keyframe.FromMP4(f)
			_ = f.Close()
			if err == nil {
				s.keyframes = &table
				s.log.Debug("keyframes from sample table", "keyframes", len(table.Keyframes))
				return s.keyframes
			}
			s.log.Debug("no usable sample table", "error", err)
		}
	}

	flags, err := ffprobe.PacketFlags(s.opts.FFprobePath, s.path, s.stream.Index)
	if err != nil || len(flags) == 0 {
		s.log.Warn("keyframe scan failed, seeking by timestamp", "error", err)
		return nil
	}
	table := keyframe.FromFlags(flags)
	s.keyframes = &table
	s.log.Debug("keyframes from packet scan", "keyframes", len(table.Keyframes))
	return s.keyframes
}

func (s *Source) stopPipe() {
	if s.pipe != nil {
		s.pipe.Stop()
		s.pipe = nil
	}
}

// Close stops ffmpeg if it is running.
func (s *Source) Close() error {
	s.stopPipe()
	return nil
}
