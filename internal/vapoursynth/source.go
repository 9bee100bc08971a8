// Package vapoursynth is the script backend: a VapourSynth script is
// evaluated by vspipe, which writes the output node as YUV4MPEG2.
package vapoursynth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/five82/avdecode/internal/adapter"
	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/frame"
	"github.com/five82/avdecode/internal/logging"
	"github.com/five82/avdecode/internal/proc"
	"github.com/five82/avdecode/internal/util"
	"github.com/five82/avdecode/internal/y4m"
)

const backend = string(adapter.VapourSynth)

// Options configures a Source.
type Options struct {
	VSPipePath string
	// Threads is the number of concurrent frame requests, 0 for one per
	// logical core.
	Threads int
	Logger  *logging.Logger
}

func (o *Options) applyDefaults() {
	if o.VSPipePath == "" {
		o.VSPipePath = "vspipe"
	}
}

// Source decodes output node 0 of a script.
type Source struct {
	opts Options
	// script is the absolute path of the user script.
	script string
	// inline holds a script given as text.
	inline  *util.TempFile
	wrapper *util.TempFile

	vars  []variable
	graph *Graph
	// stale is set when configuration changed since the last probe.
	stale bool

	details frame.VideoDetails
	lc      adapter.Lifecycle
	log     *logging.Logger

	pipe *y4m.Pipe
	next int
}

var (
	_ adapter.Adapter = (*Source)(nil)
	_ adapter.Seeker  = (*Source)(nil)
)

// Open evaluates the script at path.
func Open(path string, opts Options) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, averrors.NewIOError(backend, "failed to open "+path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, averrors.NewIOError(backend, "failed to resolve "+path, err)
	}
	return open(abs, nil, opts)
}

// OpenScript evaluates script text. Relative paths in the script resolve
// against the current directory.
func OpenScript(text string, opts Options) (*Source, error) {
	tmp, err := util.CreateTempFile("", "avdecode_script", "vpy", []byte(text))
	if err != nil {
		return nil, averrors.NewIOError(backend, "failed to stage script", err)
	}
	return open(tmp.Path(), tmp, opts)
}

func open(script string, inline *util.TempFile, opts Options) (*Source, error) {
	opts.applyDefaults()
	s := &Source{
		opts:   opts,
		script: script,
		inline: inline,
		lc:     adapter.NewLifecycle(adapter.VapourSynth),
		log:    logging.OrGlobal(opts.Logger).WithAttrs("backend", backend, "path", script),
	}
	if !proc.Available(opts.VSPipePath) {
		_ = s.Close()
		return nil, averrors.NewBackendInitError(backend, "vspipe executable not found", fmt.Errorf("%s not in PATH", opts.VSPipePath))
	}
	if err := s.probe(); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.log.Debug("opened script", "details", s.details.String(), "frames", s.details.TotalFrames)
	return s, nil
}

// Backend implements adapter.Adapter.
func (s *Source) Backend() adapter.Backend {
	return adapter.VapourSynth
}

// ScriptPath returns the path of the evaluated user script.
func (s *Source) ScriptPath() string {
	return s.script
}

// dir is where vspipe runs so relative imports in the script resolve.
func (s *Source) dir() string {
	if s.inline != nil {
		return ""
	}
	return filepath.Dir(s.script)
}

// evaluated returns the script vspipe should run, writing a wrapper when
// variables or graph operations apply.
func (s *Source) evaluated() (string, error) {
	if len(s.vars) == 0 && s.graph == nil {
		return s.script, nil
	}
	if s.wrapper != nil && !s.stale {
		return s.wrapper.Path(), nil
	}
	if s.wrapper != nil {
		_ = s.wrapper.Cleanup()
		s.wrapper = nil
	}

	var statements []string
	if s.graph != nil {
		statements = s.graph.statements
	}
	tmp, err := util.CreateTempFile("", "avdecode_wrapper", "vpy", []byte(wrapperScript(s.script, s.vars, statements)))
	if err != nil {
		return "", averrors.NewIOError(backend, "failed to stage wrapper script", err)
	}
	s.wrapper = tmp
	return tmp.Path(), nil
}

func (s *Source) probe() error {
	script, err := s.evaluated()
	if err != nil {
		return err
	}
	out, err := proc.Output(s.opts.VSPipePath, []string{"--info", script, "-"}, s.dir())
	if err != nil {
		return averrors.NewBackendInitError(backend, "script evaluation failed", describeFailure(err))
	}
	info, err := parseInfo(out)
	if err != nil {
		return averrors.NewBackendInitError(backend, "unexpected vspipe output", err)
	}
	details, err := info.details()
	if err != nil {
		return averrors.NewBackendInitError(backend, "unsupported output node", err)
	}

	s.details = details
	s.stale = false
	s.lc.Probed()
	return nil
}

// Probe returns the details of the output node, evaluating the script again
// if variables or the graph changed.
func (s *Source) Probe() (frame.VideoDetails, error) {
	if s.stale {
		if err := s.probe(); err != nil {
			return frame.VideoDetails{}, err
		}
	}
	return s.details, nil
}

// SetVariable sets a script global before evaluation. Strings, booleans,
// integers and floats are supported. It must be called before the first read
// and before SetNodeModifier, whose graph is built against the probed output.
func (s *Source) SetVariable(name string, value any) error {
	if err := s.lc.Configure("script variable " + name); err != nil {
		return err
	}
	if s.graph != nil {
		s.restoreState()
		return averrors.NewConfigurationMisuseError(backend, "script variables must be set before the graph hook")
	}
	if !identifierRe.MatchString(name) {
		s.restoreState()
		return averrors.NewConfigurationMisuseError(backend, fmt.Sprintf("%q is not a valid variable name", name))
	}
	literal, err := pythonLiteral(value)
	if err != nil {
		s.restoreState()
		return averrors.NewConfigurationMisuseError(backend, fmt.Sprintf("variable %s: %v", name, err))
	}

	v := variable{name: name, literal: literal}
	replaced := false
	for i := range s.vars {
		if s.vars[i].name == name {
			s.vars[i] = v
			replaced = true
		}
	}
	if !replaced {
		s.vars = append(s.vars, v)
	}
	s.stale = true
	s.log.Debug("script variable set", "name", name, "value", literal)
	return nil
}

// SetNodeModifier runs fn once against the output node. Its operations apply
// to every later evaluation. Only one modifier may be set, after any script
// variables and before the first read.
func (s *Source) SetNodeModifier(fn NodeModifier) error {
	if err := s.lc.Configure("graph hook"); err != nil {
		return err
	}
	if s.graph != nil {
		s.restoreState()
		return averrors.NewConfigurationMisuseError(backend, "graph hook already applied")
	}
	if _, err := s.Probe(); err != nil {
		return err
	}

	g := &Graph{input: s.details}
	if err := fn(g); err != nil {
		s.restoreState()
		return averrors.NewBackendInitError(backend, "graph hook failed", err)
	}
	s.graph = g
	s.stale = true
	s.log.Debug("graph hook applied", "operations", len(g.statements))
	return nil
}

// restoreState undoes a Configure that did not change anything.
func (s *Source) restoreState() {
	if !s.stale {
		s.lc.Probed()
	}
}

// ReadFrame returns the next frame of the output node.
func (s *Source) ReadFrame(width frame.SampleWidth) (*frame.Frame, error) {
	if _, err := s.Probe(); err != nil {
		return nil, err
	}
	if err := adapter.CheckSampleWidth(adapter.VapourSynth, s.details, width); err != nil {
		return nil, err
	}
	if !s.lc.Read() {
		return nil, averrors.NewEndOfFileError(backend)
	}
	if s.next >= s.details.TotalFrames {
		s.stopPipe()
		s.lc.Exhaust()
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
		waitErr := s.pipe.Finish()
		s.pipe = nil
		s.lc.Exhaust()
		if waitErr != nil {
			return nil, averrors.NewDecodeFailureError(backend, fmt.Sprintf("frame %d failed", s.next), describeFailure(waitErr))
		}
		return nil, averrors.NewEndOfFileError(backend)
	default:
		s.stopPipe()
		s.lc.Exhaust()
		return nil, averrors.NewDecodeFailureError(backend, fmt.Sprintf("failed to read frame %d", s.next), err)
	}
}

// Seek positions the source so the next read returns frame index.
func (s *Source) Seek(index int) error {
	if _, err := s.Probe(); err != nil {
		return err
	}
	if s.details.TotalFrames == 0 || index < 0 || index >= s.details.TotalFrames {
		return averrors.NewOutOfRangeError(backend, index, s.details.TotalFrames)
	}
	if s.pipe == nil || index != s.next {
		s.stopPipe()
		s.next = index
	}
	s.lc.Seek()
	return nil
}

func (s *Source) startAt(index int) error {
	script, err := s.evaluated()
	if err != nil {
		return err
	}
	args := []string{"-c", "y4m"}
	if index > 0 {
		args = append(args, "-s", strconv.Itoa(index))
	}
	args = append(args, "-r", strconv.Itoa(util.DecodeThreads(s.opts.Threads)), script, "-")

	s.log.Debug("starting vspipe", "frame", index)
	pipe, err := y4m.StartPipe(s.opts.VSPipePath, args, s.dir())
	if err != nil {
		return averrors.NewDecodeFailureError(backend, "failed to start vspipe", describeFailure(err))
	}
	h := pipe.Decoder().Header()
	if h.Width != s.details.Width || h.Height != s.details.Height ||
		h.Colorspace.BitDepth != s.details.BitDepth || h.Colorspace.Chroma != s.details.ChromaSampling {
		pipe.Stop()
		return averrors.NewDecodeFailureError(backend,
			fmt.Sprintf("vspipe produced %dx%d %s, expected %s", h.Width, h.Height, h.Colorspace.Name, s.details), nil)
	}
	s.pipe = pipe
	s.next = index
	return nil
}

func (s *Source) stopPipe() {
	if s.pipe != nil {
		s.pipe.Stop()
		s.pipe = nil
	}
}

// Close stops vspipe and removes generated scripts.
func (s *Source) Close() error {
	s.stopPipe()
	var errs []error
	for _, tmp := range []**util.TempFile{&s.wrapper, &s.inline} {
		if *tmp != nil {
			errs = append(errs, (*tmp).Cleanup())
			*tmp = nil
		}
	}
	if err := errors.Join(errs...); err != nil {
		return averrors.NewIOError(backend, "failed to remove generated script", err)
	}
	return nil
}

// describeFailure keeps the last line of a Python traceback, which names the
// exception.
func describeFailure(err error) error {
	var cmdErr *averrors.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Stderr == "" {
		return err
	}
	lines := strings.Split(strings.TrimSpace(cmdErr.Stderr), "\n")
	return fmt.Errorf("%s: %w", strings.TrimSpace(lines[len(lines)-1]), err)
}
