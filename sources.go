package avdecode

import (
	"github.com/five82/avdecode/internal/ffmpeg"
	"github.com/five82/avdecode/internal/ffms"
	"github.com/five82/avdecode/internal/vapoursynth"
	"github.com/five82/avdecode/internal/y4m"
)

// Backend sources for callers that configure a backend before handing it to
// FromAdapter.
type (
	Y4MSource         = y4m.Source
	FFmpegSource      = ffmpeg.Source
	VapourSynthSource = vapoursynth.Source
	FFMSSource        = ffms.Source

	// Graph records operations a node modifier applies to a script's output.
	Graph = vapoursynth.Graph
	// NodeModifier is the one-shot VapourSynth graph hook.
	NodeModifier = vapoursynth.NodeModifier
	// OutputFormat is the FFMS2 delivery format.
	OutputFormat = ffms.OutputFormat
)

// EscapePythonString escapes s for use inside a double-quoted Python string.
func EscapePythonString(s string) string {
	return vapoursynth.EscapePythonString(s)
}

// FFMSAvailable reports whether the FFMS2 backend is compiled in.
func FFMSAvailable() bool {
	return ffms.Available()
}

// OpenY4M opens a YUV4MPEG2 file.
func OpenY4M(path string, opts ...Option) (*Y4MSource, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return openY4M(path, o)
}

// OpenFFmpeg opens the first video stream of path with ffmpeg.
func OpenFFmpeg(path string, opts ...Option) (*FFmpegSource, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return openFFmpeg(path, o)
}

// OpenVapourSynth evaluates the script at path.
func OpenVapourSynth(path string, opts ...Option) (*VapourSynthSource, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return openVapourSynth(path, o)
}

// OpenVapourSynthScript evaluates script text.
func OpenVapourSynthScript(text string, opts ...Option) (*VapourSynthSource, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	src, err := vapoursynth.OpenScript(text, vapoursynthOptions(o))
	if err != nil {
		return nil, err
	}
	if err := applyVapourSynthLuma(src, o); err != nil {
		_ = src.Close()
		return nil, err
	}
	return src, nil
}

// OpenFFMS opens path with FFMS2, building its index when needed.
func OpenFFMS(path string, opts ...Option) (*FFMSSource, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return openFFMS(path, o)
}

// BuildFFMSIndex writes the FFMS2 index of path and returns its location.
func BuildFFMSIndex(path string, opts ...Option) (string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return "", err
	}
	return ffms.BuildIndex(path, ffms.Options{Threads: o.cfg.Threads, Logger: o.log})
}

func openY4M(path string, o *options) (*Y4MSource, error) {
	return y4m.Open(path, y4m.Options{LumaOnly: o.cfg.LumaOnly, Logger: o.log})
}

func openFFmpeg(path string, o *options) (*FFmpegSource, error) {
	return ffmpeg.Open(path, ffmpeg.Options{
		FFmpegPath:  o.cfg.FFmpegPath,
		FFprobePath: o.cfg.FFprobePath,
		Threads:     o.cfg.Threads,
		LumaOnly:    o.cfg.LumaOnly,
		CountFrames: o.cfg.CountFrames,
		Logger:      o.log,
	})
}

func vapoursynthOptions(o *options) vapoursynth.Options {
	return vapoursynth.Options{VSPipePath: o.cfg.VSPipePath, Threads: o.cfg.Threads, Logger: o.log}
}

func openVapourSynth(path string, o *options) (*VapourSynthSource, error) {
	src, err := vapoursynth.Open(path, vapoursynthOptions(o))
	if err != nil {
		return nil, err
	}
	if err := applyVapourSynthLuma(src, o); err != nil {
		_ = src.Close()
		return nil, err
	}
	return src, nil
}

// applyVapourSynthLuma drops chroma through the graph hook, which is then
// no longer available to the caller. Script variables can no longer be set
// either, so luma-only callers pass them through the script itself.
func applyVapourSynthLuma(src *VapourSynthSource, o *options) error {
	if !o.cfg.LumaOnly {
		return nil
	}
	return src.SetNodeModifier(func(g *Graph) error {
		g.Gray()
		return nil
	})
}

func openFFMS(path string, o *options) (*FFMSSource, error) {
	src, err := ffms.Open(path, ffms.Options{Threads: o.cfg.Threads, Logger: o.log})
	if err != nil {
		return nil, err
	}
	if o.cfg.LumaOnly {
		of := src.OutputFormat()
		of.ChromaSampling = Cs400
		if err := src.SetOutputFormat(of); err != nil {
			_ = src.Close()
			return nil, err
		}
	}
	return src, nil
}
