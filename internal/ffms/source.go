// Package ffms is the index-based backend, built on CGO bindings to FFMS2.
// Build with the ffms2 tag to enable it; without it Open reports the backend
// as unavailable.
package ffms

import (
	"fmt"
	"os"

	"github.com/five82/avdecode/internal/adapter"
	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/logging"
	"github.com/five82/avdecode/internal/util"
)

const backend = string(adapter.FFMS2)

// IndexExtension is appended to a source path to name its index.
const IndexExtension = ".ffindex"

// IndexPath returns where the index of path is stored.
func IndexPath(path string) string {
	return path + IndexExtension
}

// library is the part of FFMS2 the source needs. The cgo build provides the
// real one.
type library interface {
	readIndex(indexPath string) (index, error)
	indexBelongsTo(idx index, sourcePath string) error
	buildIndex(sourcePath string) (index, error)
	writeIndex(idx index, indexPath string) error
	openVideo(sourcePath string, idx index, threads int) (handle, error)
}

type index interface {
	close()
}

// trackInfo describes the frames a video handle currently delivers.
type trackInfo struct {
	// Width and Height are the scaled size when scaling is active, else the
	// encoded size.
	Width     int
	Height    int
	PixFmt    string
	FrameRate frame.Rational
	NumFrames int
	ScanOrder frame.ScanOrder
}

// rawPlane is native frame memory, valid until the next handle call.
type rawPlane struct {
	data     []byte
	linesize int
}

type handle interface {
	info() (trackInfo, error)
	// frame decodes index; rows gives the height of each plane to expose.
	frame(index int, rows []int) ([]rawPlane, error)
	setOutputFormat(pixFmt string, width, height int) error
	close()
}

// Options configures a Source.
type Options struct {
	// Threads is the decoder thread count, 0 for one per logical core.
	Threads int
	Logger  *logging.Logger
}

// OutputFormat is the layout and size frames are delivered in.
type OutputFormat struct {
	ChromaSampling frame.ChromaSampling
	BitDepth       int
	Width          int
	Height         int
}

// Source decodes the first video track of an indexed file.
type Source struct {
	path    string
	h       handle
	details frame.VideoDetails
	lc      adapter.Lifecycle
	log     *logging.Logger
	next    int
}

var (
	_ adapter.Adapter = (*Source)(nil)
	_ adapter.Seeker  = (*Source)(nil)
)

// Open indexes path, reusing its index file when it belongs to path.
func Open(path string, opts Options) (*Source, error) {
	lib, err := nativeLibrary()
	if err != nil {
		return nil, averrors.NewBackendInitError(backend, "ffms2 is unavailable", err)
	}
	return openWith(lib, path, opts)
}

// BuildIndex makes sure an up-to-date index exists for path and returns its location.
func BuildIndex(path string, opts Options) (string, error) {
	lib, err := nativeLibrary()
	if err != nil {
		return "", averrors.NewBackendInitError(backend, "ffms2 is unavailable", err)
	}
	if _, err := os.Stat(path); err != nil {
		return "", averrors.NewIOError(backend, "failed to open "+path, err)
	}
	idx, err := loadIndex(lib, path, logging.OrGlobal(opts.Logger).WithAttrs("backend", backend))
	if err != nil {
		return "", err
	}
	idx.close()
	return IndexPath(path), nil
}

func openWith(lib library, path string, opts Options) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, averrors.NewIOError(backend, "failed to open "+path, err)
	}
	log := logging.OrGlobal(opts.Logger).WithAttrs("backend", backend, "path", path)

	idx, err := loadIndex(lib, path, log)
	if err != nil {
		return nil, err
	}
	// Video sources keep what they need; the index can go.
	h, err := lib.openVideo(path, idx, util.DecodeThreads(opts.Threads))
	idx.close()
	if err != nil {
		return nil, averrors.NewBackendInitError(backend, "failed to open video track", err)
	}

	s := &Source{
		path: path,
		h:    h,
		lc:   adapter.NewLifecycle(adapter.FFMS2),
		log:  log,
	}
	if err := s.derive(); err != nil {
		h.close()
		return nil, averrors.NewBackendInitError(backend, "unsupported video track", err)
	}
	log.Debug("opened source", "details", s.details.String(), "frames", s.details.TotalFrames)
	return s, nil
}

// loadIndex reads the index next to path, or builds and writes a new one.
// Failing to write only costs the next open a rebuild.
func loadIndex(lib library, path string, log *logging.Logger) (index, error) {
	indexPath := IndexPath(path)
	if idx, err := lib.readIndex(indexPath); err == nil {
		if err := lib.indexBelongsTo(idx, path); err == nil {
			log.Debug("reusing index", "index_path", indexPath)
			return idx, nil
		}
		idx.close()
		log.Debug("index belongs to another file, rebuilding", "index_path", indexPath)
	}

	idx, err := lib.buildIndex(path)
	if err != nil {
		return nil, averrors.NewBackendInitError(backend, path+" could not be indexed", err)
	}
	if err := lib.writeIndex(idx, indexPath); err != nil {
		log.Warn("failed to write index", "index_path", indexPath, "error", err)
	} else {
		log.Debug("wrote index", "index_path", indexPath)
	}
	return idx, nil
}

// derive reads the handle's current output and converts semi-planar or
// big-endian layouts to their planar equivalent.
func (s *Source) derive() error {
	info, err := s.h.info()
	if err != nil {
		return err
	}
	if target, ok := convertible[info.PixFmt]; ok {
		if err := s.h.setOutputFormat(target, info.Width, info.Height); err != nil {
			return err
		}
		if info, err = s.h.info(); err != nil {
			return err
		}
	}
	pix, ok := planarFormats[info.PixFmt]
	if !ok {
		return fmt.Errorf("unsupported pixel format %q", info.PixFmt)
	}

	d := frame.VideoDetails{
		Width:          info.Width,
		Height:         info.Height,
		BitDepth:       pix.depth,
		ChromaSampling: pix.chroma,
		FrameRate:      info.FrameRate,
		TotalFrames:    info.NumFrames,
		ScanOrder:      info.ScanOrder,
	}
	if err := d.Validate(); err != nil {
		return err
	}
	s.details = d
	s.lc.Probed()
	return nil
}

// Backend implements adapter.Adapter.
func (s *Source) Backend() adapter.Backend {
	return adapter.FFMS2
}

// Probe returns the details of the current output format.
func (s *Source) Probe() (frame.VideoDetails, error) {
	return s.details, nil
}

// OutputFormat returns the format frames are currently delivered in.
func (s *Source) OutputFormat() OutputFormat {
	return OutputFormat{
		ChromaSampling: s.details.ChromaSampling,
		BitDepth:       s.details.BitDepth,
		Width:          s.details.Width,
		Height:         s.details.Height,
	}
}

// SetOutputFormat changes the delivered format, resizing with the bicubic
// resizer. Monochrome output carries the luma plane only. It must be called
// before the first read.
func (s *Source) SetOutputFormat(of OutputFormat) error {
	if err := s.lc.Configure("output format"); err != nil {
		return err
	}
	defer s.lc.Probed()

	if of.Width <= 0 || of.Height <= 0 {
		return averrors.NewConfigurationMisuseError(backend, fmt.Sprintf("invalid output size %dx%d", of.Width, of.Height))
	}
	name, err := formatName(of.ChromaSampling, of.BitDepth)
	if err != nil {
		return averrors.NewConfigurationMisuseError(backend, err.Error())
	}
	if err := s.h.setOutputFormat(name, of.Width, of.Height); err != nil {
		return averrors.NewDecodeFailureError(backend, "failed to set output format "+name, err)
	}
	if err := s.derive(); err != nil {
		return averrors.NewDecodeFailureError(backend, "output format not applied", err)
	}
	s.log.Debug("output format set", "details", s.details.String())
	return nil
}

// ReadFrame decodes the next frame.
func (s *Source) ReadFrame(width frame.SampleWidth) (*frame.Frame, error) {
	if err := adapter.CheckSampleWidth(adapter.FFMS2, s.details, width); err != nil {
		return nil, err
	}
	if !s.lc.Read() {
		return nil, averrors.NewEndOfFileError(backend)
	}
	if s.next >= s.details.TotalFrames {
		s.lc.Exhaust()
		return nil, averrors.NewEndOfFileError(backend)
	}

	f := frame.New(s.details.Width, s.details.Height, s.details.BitDepth, s.details.ChromaSampling, width)
	rows := make([]int, len(f.Planes))
	for i := range f.Planes {
		rows[i] = f.Planes[i].Height
	}
	planes, err := s.h.frame(s.next, rows)
	if err != nil {
		return nil, averrors.NewDecodeFailureError(backend, fmt.Sprintf("failed to decode frame %d", s.next), err)
	}
	if len(planes) < len(f.Planes) {
		return nil, averrors.NewDecodeFailureError(backend,
			fmt.Sprintf("frame %d has %d planes, expected %d", s.next, len(planes), len(f.Planes)), nil)
	}
	for i := range f.Planes {
		if err := f.Planes[i].CopyFrom(planes[i].data, planes[i].linesize); err != nil {
			return nil, averrors.NewDecodeFailureError(backend, fmt.Sprintf("frame %d plane %d", s.next, i), err)
		}
	}
	s.next++
	return f, nil
}

// Seek positions the source so the next read returns frame index.
func (s *Source) Seek(index int) error {
	if s.details.TotalFrames == 0 || index < 0 || index >= s.details.TotalFrames {
		return averrors.NewOutOfRangeError(backend, index, s.details.TotalFrames)
	}
	s.next = index
	s.lc.Seek()
	return nil
}

// Close releases the video source.
func (s *Source) Close() error {
	if s.h != nil {
		s.h.close()
		s.h = nil
	}
	return nil
}
