package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events, one object per line.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stderr. Stdout
// is reserved for decoded frames.
func NewJSONReporter() *JSONReporter {
	return NewJSONReporterWithWriter(os.Stderr)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) SourceDetails(summary SourceSummary) {
	r.write(map[string]any{
		"type":         "source_details",
		"input_file":   summary.InputFile,
		"backend":      summary.Backend,
		"resolution":   summary.Resolution,
		"bit_depth":    summary.BitDepth,
		"chroma":       summary.Chroma,
		"frame_rate":   summary.FrameRate,
		"total_frames": summary.TotalFrames,
		"duration":     summary.Duration,
		"scan_order":   summary.ScanOrder,
		"file_size":    summary.FileSize,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) DecodeStarted(totalFrames int) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]any{
		"type":         "decode_started",
		"total_frames": totalFrames,
		"timestamp":    r.timestamp(),
	})
}

// DecodeProgress emits at most one event per percent, plus one every five
// seconds so sources without a frame count still report.
func (r *JSONReporter) DecodeProgress(progress ProgressSnapshot) {
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent)
	if progress.TotalFrames <= 0 {
		bucket = -1
	}
	now := time.Now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]any{
		"type":          "decode_progress",
		"current_frame": progress.CurrentFrame,
		"total_frames":  progress.TotalFrames,
		"percent":       progress.Percent,
		"fps":           progress.FPS,
		"eta_seconds":   int64(progress.ETA.Seconds()),
		"timestamp":     r.timestamp(),
	})
}

func (r *JSONReporter) DecodeComplete(summary DecodeOutcome) {
	r.write(map[string]any{
		"type":             "decode_complete",
		"input_file":       summary.InputFile,
		"output_file":      summary.OutputFile,
		"frames":           summary.Frames,
		"bytes_written":    summary.BytesWritten,
		"duration_seconds": summary.TotalTime.Seconds(),
		"average_fps":      summary.AverageFPS,
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) IndexComplete(summary IndexSummary) {
	r.write(map[string]any{
		"type":             "index_complete",
		"input_file":       summary.InputFile,
		"index_file":       summary.IndexFile,
		"duration_seconds": summary.TotalTime.Seconds(),
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]any{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]any{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]any{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]any{
		"type":        "batch_started",
		"total_files": info.TotalFiles,
		"file_list":   info.FileList,
		"directory":   info.Directory,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) FileProgress(context FileProgressContext) {
	r.write(map[string]any{
		"type":         "file_progress",
		"current_file": context.CurrentFile,
		"total_files":  context.TotalFiles,
		"timestamp":    r.timestamp(),
	})
}

// Verbose messages are for humans and are not emitted.
func (r *JSONReporter) Verbose(string) {}
