// Package ffmpeg is the general-library backend: streams are probed with
// ffprobe and decoded by an ffmpeg child process writing YUV4MPEG2 to a pipe.
package ffmpeg

import (
	"strconv"
)

// DecodeArgsBuilder builds ffmpeg decode arguments with method chaining.
type DecodeArgsBuilder struct {
	input    string
	stream   int
	threads  int
	seek     float64
	accurate bool
	filter   string
	pixFmt   string
}

// NewDecodeArgsBuilder creates a builder decoding stream 0 of input.
func NewDecodeArgsBuilder(input string) *DecodeArgsBuilder {
	return &DecodeArgsBuilder{input: input, accurate: true}
}

// WithStream selects the input stream index.
func (b *DecodeArgsBuilder) WithStream(index int) *DecodeArgsBuilder {
	b.stream = index
	return b
}

// WithThreads sets the decoder thread count. Zero leaves ffmpeg's default.
func (b *DecodeArgsBuilder) WithThreads(n int) *DecodeArgsBuilder {
	b.threads = n
	return b
}

// WithSeek starts decoding at secs. An inaccurate seek starts at the keyframe
// before secs instead of discarding frames up to it.
func (b *DecodeArgsBuilder) WithSeek(secs float64, accurate bool) *DecodeArgsBuilder {
	b.seek = secs
	b.accurate = accurate
	return b
}

// WithFilter sets the video filter chain.
func (b *DecodeArgsBuilder) WithFilter(filter string) *DecodeArgsBuilder {
	b.filter = filter
	return b
}

// WithPixFmt sets the output pixel format.
func (b *DecodeArgsBuilder) WithPixFmt(pixFmt string) *DecodeArgsBuilder {
	b.pixFmt = pixFmt
	return b
}

// Build returns the argument list. Output goes to stdout.
func (b *DecodeArgsBuilder) Build() []string {
	args := []string{"-v", "error", "-nostdin"}
	if b.seek > 0 {
		if !b.accurate {
			args = append(args, "-noaccurate_seek")
		}
		args = append(args, "-ss", strconv.FormatFloat(b.seek, 'f', 6, 64))
	}
	if b.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(b.threads))
	}
	args = append(args,
		"-i", b.input,
		"-map", "0:"+strconv.Itoa(b.stream),
		"-an", "-sn", "-dn",
	)
	if b.filter != "" {
		args = append(args, "-vf", b.filter)
	}
	args = append(args, "-fps_mode", "passthrough", "-f", "yuv4mpegpipe", "-strict", "-1")
	if b.pixFmt != "" {
		args = append(args, "-pix_fmt", b.pixFmt)
	}
	return append(args, "-")
}
