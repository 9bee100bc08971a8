//go:build ffms2

package ffms

/*
#cgo pkg-config: ffms2
#include <ffms.h>
#include <stdlib.h>
#include <string.h>

#define ERR_BUF_SIZE 1024

// Helper to create an error info struct with C-allocated buffer
static FFMS_ErrorInfo* create_error_info() {
	FFMS_ErrorInfo* err = (FFMS_ErrorInfo*)malloc(sizeof(FFMS_ErrorInfo));
	err->Buffer = (char*)malloc(ERR_BUF_SIZE);
	err->BufferSize = ERR_BUF_SIZE;
	err->Buffer[0] = '\0';
	return err;
}

// Helper to free error info struct
static void free_error_info(FFMS_ErrorInfo* err) {
	if (err) {
		free(err->Buffer);
		free(err);
	}
}

// Helper to get error message from FFMS_ErrorInfo
static const char* get_error_message(FFMS_ErrorInfo* err) {
	return err->Buffer;
}

static const uint8_t* plane_data(const FFMS_Frame* f, int i) {
	return f->Data[i];
}

static int plane_linesize(const FFMS_Frame* f, int i) {
	return f->Linesize[i];
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/five82/avdecode/internal/frame"
)

var initOnce sync.Once

// Init initializes the FFMS2 library. Safe to call multiple times.
func Init() {
	initOnce.Do(func() {
		C.FFMS_Init(0, 0)
	})
}

// Available reports whether FFMS2 support is compiled in.
func Available() bool {
	return true
}

var (
	pixFmtOnce  sync.Once
	pixFmtIDs   map[string]C.int
	pixFmtNames map[C.int]string
)

// loadPixFmts resolves the libav ids of every known format name.
func loadPixFmts() {
	pixFmtOnce.Do(func() {
		pixFmtIDs = map[string]C.int{}
		pixFmtNames = map[C.int]string{}
		for _, name := range knownFormats() {
			cName := C.CString(name)
			id := C.FFMS_GetPixFmt(cName)
			C.free(unsafe.Pointer(cName))
			if id >= 0 {
				pixFmtIDs[name] = id
				pixFmtNames[id] = name
			}
		}
	})
}

func errorFrom(what string, errInfo *C.FFMS_ErrorInfo) error {
	return fmt.Errorf("%s: %s", what, C.GoString(C.get_error_message(errInfo)))
}

type nativeLib struct{}

func nativeLibrary() (library, error) {
	Init()
	loadPixFmts()
	return nativeLib{}, nil
}

// vidIdx wraps an FFMS_Index pointer.
type vidIdx struct {
	ptr *C.FFMS_Index
}

func (v *vidIdx) close() {
	if v.ptr != nil {
		C.FFMS_DestroyIndex(v.ptr)
		v.ptr = nil
	}
}

func (nativeLib) readIndex(indexPath string) (index, error) {
	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	cPath := C.CString(indexPath)
	defer C.free(unsafe.Pointer(cPath))

	idx := C.FFMS_ReadIndex(cPath, errInfo)
	if idx == nil {
		return nil, errorFrom("failed to read index", errInfo)
	}
	return &vidIdx{ptr: idx}, nil
}

func (nativeLib) indexBelongsTo(idx index, sourcePath string) error {
	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	cPath := C.CString(sourcePath)
	defer C.free(unsafe.Pointer(cPath))

	if C.FFMS_IndexBelongsToFile(idx.(*vidIdx).ptr, cPath, errInfo) != 0 {
		return errorFrom("index does not match", errInfo)
	}
	return nil
}

// buildIndex indexes the video tracks of sourcePath. Audio is not indexed.
func (nativeLib) buildIndex(sourcePath string) (index, error) {
	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	cPath := C.CString(sourcePath)
	defer C.free(unsafe.Pointer(cPath))

	indexer := C.FFMS_CreateIndexer(cPath, errInfo)
	if indexer == nil {
		return nil, errorFrom("failed to create indexer", errInfo)
	}

	// DoIndexing2 frees the indexer on every path.
	idx := C.FFMS_DoIndexing2(indexer, C.FFMS_IEH_ABORT, errInfo)
	if idx == nil {
		return nil, errorFrom("failed to index", errInfo)
	}
	return &vidIdx{ptr: idx}, nil
}

func (nativeLib) writeIndex(idx index, indexPath string) error {
	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	cPath := C.CString(indexPath)
	defer C.free(unsafe.Pointer(cPath))

	if C.FFMS_WriteIndex(cPath, idx.(*vidIdx).ptr, errInfo) != 0 {
		return errorFrom("failed to write index", errInfo)
	}
	return nil
}

// vidSrc wraps an FFMS_VideoSource pointer.
type vidSrc struct {
	ptr *C.FFMS_VideoSource
}

func (nativeLib) openVideo(sourcePath string, idx index, threads int) (handle, error) {
	ptr := idx.(*vidIdx).ptr

	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	trackNum := C.FFMS_GetFirstTrackOfType(ptr, C.FFMS_TYPE_VIDEO, errInfo)
	if trackNum < 0 {
		return nil, errorFrom("no video track found", errInfo)
	}

	cPath := C.CString(sourcePath)
	defer C.free(unsafe.Pointer(cPath))

	src := C.FFMS_CreateVideoSource(cPath, trackNum, ptr, C.int(threads), C.FFMS_SEEK_NORMAL, errInfo)
	if src == nil {
		return nil, errorFrom("failed to create video source", errInfo)
	}
	return &vidSrc{ptr: src}, nil
}

func (v *vidSrc) info() (trackInfo, error) {
	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	props := C.FFMS_GetVideoProperties(v.ptr)
	if props == nil {
		return trackInfo{}, errors.New("failed to get video properties")
	}

	// The first frame carries the geometry and pixel format.
	f := C.FFMS_GetFrame(v.ptr, 0, errInfo)
	if f == nil {
		return trackInfo{}, errorFrom("failed to get first frame", errInfo)
	}

	inf := trackInfo{
		Width:     int(f.EncodedWidth),
		Height:    int(f.EncodedHeight),
		FrameRate: frame.NewRational(int64(props.FPSNumerator), int64(props.FPSDenominator)),
		NumFrames: int(props.NumFrames),
		ScanOrder: frame.ScanProgressive,
	}
	if f.ScaledWidth > 0 && f.ScaledHeight > 0 {
		inf.Width = int(f.ScaledWidth)
		inf.Height = int(f.ScaledHeight)
	}
	if f.InterlacedFrame != 0 {
		inf.ScanOrder = frame.ScanBottomFieldFirst
		if f.TopFieldFirst != 0 {
			inf.ScanOrder = frame.ScanTopFieldFirst
		}
	}

	pixFmt := C.int(f.ConvertedPixelFormat)
	name, ok := pixFmtNames[pixFmt]
	if !ok {
		name = fmt.Sprintf("pixfmt(%d)", int(pixFmt))
	}
	inf.PixFmt = name
	return inf, nil
}

func (v *vidSrc) frame(index int, rows []int) ([]rawPlane, error) {
	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	f := C.FFMS_GetFrame(v.ptr, C.int(index), errInfo)
	if f == nil {
		return nil, errorFrom(fmt.Sprintf("failed to get frame %d", index), errInfo)
	}

	planes := make([]rawPlane, len(rows))
	for i, n := range rows {
		data := C.plane_data(f, C.int(i))
		linesize := int(C.plane_linesize(f, C.int(i)))
		if data == nil || linesize <= 0 {
			return nil, fmt.Errorf("frame %d has no plane %d", index, i)
		}
		planes[i] = rawPlane{
			data:     unsafe.Slice((*byte)(unsafe.Pointer(data)), linesize*n),
			linesize: linesize,
		}
	}
	return planes, nil
}

func (v *vidSrc) setOutputFormat(pixFmt string, width, height int) error {
	id, ok := pixFmtIDs[pixFmt]
	if !ok {
		return fmt.Errorf("pixel format %s unknown to this ffms2 build", pixFmt)
	}

	errInfo := C.create_error_info()
	defer C.free_error_info(errInfo)

	targets := (*C.int)(C.malloc(C.size_t(2 * C.sizeof_int)))
	defer C.free(unsafe.Pointer(targets))
	list := unsafe.Slice(targets, 2)
	list[0] = id
	list[1] = -1

	if C.FFMS_SetOutputFormatV2(v.ptr, targets, C.int(width), C.int(height), C.FFMS_RESIZER_BICUBIC, errInfo) != 0 {
		return errorFrom("failed to set output format", errInfo)
	}
	return nil
}

func (v *vidSrc) close() {
	if v.ptr != nil {
		C.FFMS_DestroyVideoSource(v.ptr)
		v.ptr = nil
	}
}
