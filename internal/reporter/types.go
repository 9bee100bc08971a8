// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// SourceSummary describes an opened source.
type SourceSummary struct {
	InputFile   string
	Backend     string
	Resolution  string
	BitDepth    int
	Chroma      string
	FrameRate   string
	TotalFrames int
	Duration    string
	ScanOrder   string
	FileSize    uint64
}

// ProgressSnapshot contains decode progress information. TotalFrames is zero
// when the source does not report a count.
type ProgressSnapshot struct {
	CurrentFrame int
	TotalFrames  int
	Percent      float32
	FPS          float32
	ETA          time.Duration
}

// DecodeOutcome contains final decode results.
type DecodeOutcome struct {
	InputFile    string
	OutputFile   string
	Frames       int
	BytesWritten uint64
	TotalTime    time.Duration
	AverageFPS   float32
}

// IndexSummary describes a prebuilt ffms2 index.
type IndexSummary struct {
	InputFile string
	IndexFile string
	TotalTime time.Duration
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalFiles int
	FileList   []string
	Directory  string
}

// FileProgressContext contains current file index within a batch.
type FileProgressContext struct {
	CurrentFile int
	TotalFiles  int
}
