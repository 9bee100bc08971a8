package ffms

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/y4m/y4mtest"
)

// fakeLibrary indexes files in memory. Index files hold the path of the file
// they were built for, so reuse and foreign indexes behave like FFMS2.
type fakeLibrary struct {
	details frame.VideoDetails
	frames  int
	// pixFmt is what the decoder reports before any conversion.
	pixFmt string

	builds   int
	buildErr error
	writeErr error
	failAt   int
	handles  []*fakeHandle
}

func newFakeLibrary(frames int) *fakeLibrary {
	d := y4mtest.Details()
	d.TotalFrames = frames
	return &fakeLibrary{details: d, frames: frames, pixFmt: "yuv420p", failAt: -1}
}

type fakeIndex struct {
	source string
	closed bool
}

func (i *fakeIndex) close() {
	i.closed = true
}

func (l *fakeLibrary) readIndex(indexPath string) (index, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, err
	}
	return &fakeIndex{source: strings.TrimSpace(string(data))}, nil
}

func (l *fakeLibrary) indexBelongsTo(idx index, sourcePath string) error {
	if idx.(*fakeIndex).source != sourcePath {
		return errors.New("index is for another file")
	}
	return nil
}

func (l *fakeLibrary) buildIndex(sourcePath string) (index, error) {
	if l.buildErr != nil {
		return nil, l.buildErr
	}
	l.builds++
	return &fakeIndex{source: sourcePath}, nil
}

func (l *fakeLibrary) writeIndex(idx index, indexPath string) error {
	if l.writeErr != nil {
		return l.writeErr
	}
	return os.WriteFile(indexPath, []byte(idx.(*fakeIndex).source), 0644)
}

func (l *fakeLibrary) openVideo(sourcePath string, idx index, threads int) (handle, error) {
	if idx.(*fakeIndex).closed {
		return nil, errors.New("index already closed")
	}
	h := &fakeHandle{lib: l, pixFmt: l.pixFmt, width: l.details.Width, height: l.details.Height}
	l.handles = append(l.handles, h)
	return h, nil
}

// fakeHandle serves fixture frames in whatever output format is set, with
// padded line sizes.
type fakeHandle struct {
	lib    *fakeLibrary
	pixFmt string
	width  int
	height int
	closed bool
}

func (h *fakeHandle) info() (trackInfo, error) {
	return trackInfo{
		Width:     h.width,
		Height:    h.height,
		PixFmt:    h.pixFmt,
		FrameRate: h.lib.details.FrameRate,
		NumFrames: h.lib.frames,
		ScanOrder: frame.ScanProgressive,
	}, nil
}

// output returns the geometry frames are generated with.
func (h *fakeHandle) output() frame.VideoDetails {
	d := h.lib.details
	d.Width, d.Height = h.width, h.height
	if pix, ok := planarFormats[h.pixFmt]; ok {
		d.ChromaSampling, d.BitDepth = pix.chroma, pix.depth
	}
	return d
}

func (h *fakeHandle) frame(index int, rows []int) ([]rawPlane, error) {
	if index == h.lib.failAt {
		return nil, fmt.Errorf("corrupt packet at frame %d", index)
	}
	f := y4mtest.Frame(h.output(), index)
	planes := make([]rawPlane, len(f.Planes))
	for i := range f.Planes {
		p := &f.Planes[i]
		linesize := p.RowBytes() + 32
		data := make([]byte, linesize*rows[i])
		for y := 0; y < p.Height && y < rows[i]; y++ {
			copy(data[y*linesize:], p.Row(y))
		}
		planes[i] = rawPlane{data: data, linesize: linesize}
	}
	return planes, nil
}

func (h *fakeHandle) setOutputFormat(pixFmt string, width, height int) error {
	if _, ok := planarFormats[pixFmt]; !ok {
		return fmt.Errorf("unknown format %s", pixFmt)
	}
	h.pixFmt, h.width, h.height = pixFmt, width, height
	return nil
}

func (h *fakeHandle) close() {
	h.closed = true
}
