package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/avdecode"
	"github.com/five82/avdecode/internal/discovery"
	"github.com/five82/avdecode/internal/logging"
	"github.com/five82/avdecode/internal/reporter"
	"github.com/five82/avdecode/internal/util"
	"github.com/five82/avdecode/internal/y4m"
)

// progressInterval is how often decode progress is reported.
const progressInterval = 500 * time.Millisecond

func newProbeCommand(ga *globalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file|dir>...",
		Short: "Show the video details of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ga.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			return runProbe(s, args)
		},
	}
}

func runProbe(s *session, args []string) error {
	var failed int
	for _, arg := range args {
		files := []string{arg}
		if util.DirectoryExists(arg) {
			result, err := discovery.Discover(arg, logging.Global().WithPrefix("discovery"))
			if err != nil {
				return s.fail("Discovery failed", err)
			}
			files = result.Files
			names := make([]string, len(files))
			for i, f := range files {
				names[i] = filepath.Base(f)
			}
			s.rep.BatchStarted(reporter.BatchStartInfo{
				TotalFiles: len(files),
				FileList:   names,
				Directory:  arg,
			})
		}

		for i, path := range files {
			if len(files) > 1 {
				s.rep.FileProgress(reporter.FileProgressContext{CurrentFile: i + 1, TotalFiles: len(files)})
			}
			if err := probeFile(s, path); err != nil {
				failed++
				s.fail("Probe failed", err)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of the inputs could not be probed", failed)
	}
	return nil
}

func probeFile(s *session, path string) error {
	dec, err := avdecode.FromFile(path, s.opts...)
	if err != nil {
		return err
	}
	defer dec.Close()

	s.rep.SourceDetails(summarize(path, dec))
	return nil
}

func summarize(path string, dec *avdecode.Decoder) reporter.SourceSummary {
	d := dec.VideoDetails()
	size, _ := util.GetFileSize(path)
	return reporter.SourceSummary{
		InputFile:   filepath.Base(path),
		Backend:     string(dec.Backend()),
		Resolution:  fmt.Sprintf("%dx%d", d.Width, d.Height),
		BitDepth:    d.BitDepth,
		Chroma:      d.ChromaSampling.String(),
		FrameRate:   d.FrameRate.String(),
		TotalFrames: d.TotalFrames,
		Duration:    util.FormatFrameDuration(d.TotalFrames, d.FrameRate.Float64()),
		ScanOrder:   d.ScanOrder.String(),
		FileSize:    size,
	}
}

func newDecodeCommand(ga *globalArgs) *cobra.Command {
	var output string
	var limit int

	cmd := &cobra.Command{
		Use:   "decode <input>",
		Short: "Decode a file (or - for stdin) to YUV4MPEG2",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ga.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			return runDecode(s, args[0], output, limit)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file or directory (- for stdout)")
	cmd.Flags().IntVarP(&limit, "frames", "n", 0, "Stop after this many frames (0 = all)")
	return cmd
}

func runDecode(s *session, input, output string, limit int) error {
	ctx, cancel := signalContext()
	defer cancel()

	var dec *avdecode.Decoder
	var err error
	if input == "-" {
		dec, err = avdecode.FromStdin(s.opts...)
	} else {
		dec, err = avdecode.FromFile(input, s.opts...)
	}
	if err != nil {
		return s.fail("Open failed", err)
	}
	defer dec.Close()

	s.rep.SourceDetails(summarize(input, dec))

	out, outName, err := openOutput(input, output)
	if err != nil {
		return s.fail("Output failed", err)
	}
	defer out.Close()
	logging.Debug("writing output", "path", outName)

	details := dec.VideoDetails()
	header, err := y4m.HeaderFor(details, false)
	if err != nil {
		return s.fail("Output failed", err)
	}
	cw := &countingWriter{w: out}
	enc := y4m.NewEncoder(cw, header)

	total := details.TotalFrames
	if limit > 0 && (total == 0 || limit < total) {
		total = limit
	}
	s.rep.DecodeStarted(total)

	start := time.Now()
	lastReport := start
	frames := 0
	width := details.SampleWidth()
	for limit <= 0 || frames < limit {
		if err := ctx.Err(); err != nil {
			return s.fail("Decode interrupted", err)
		}
		f, err := dec.ReadFrame(width)
		if errors.Is(err, avdecode.ErrEndOfFile) {
			break
		}
		if err != nil {
			return s.fail("Decode failed", err)
		}
		if err := enc.WriteFrame(f); err != nil {
			return s.fail("Write failed", err)
		}
		frames++

		if now := time.Now(); now.Sub(lastReport) >= progressInterval {
			lastReport = now
			s.rep.DecodeProgress(snapshot(frames, total, now.Sub(start)))
		}
	}
	if err := enc.Flush(); err != nil {
		return s.fail("Write failed", err)
	}

	elapsed := time.Since(start)
	logging.Info("decode finished", "frames", frames, "bytes", cw.n, "elapsed", elapsed)
	s.rep.DecodeProgress(snapshot(frames, total, elapsed))
	s.rep.DecodeComplete(reporter.DecodeOutcome{
		InputFile:    input,
		OutputFile:   outName,
		Frames:       frames,
		BytesWritten: cw.n,
		TotalTime:    elapsed,
		AverageFPS:   float32(float64(frames) / max(elapsed.Seconds(), 1e-9)),
	})
	return nil
}

func snapshot(frames, total int, elapsed time.Duration) reporter.ProgressSnapshot {
	fps := float64(frames) / max(elapsed.Seconds(), 1e-9)
	p := reporter.ProgressSnapshot{
		CurrentFrame: frames,
		TotalFrames:  total,
		FPS:          float32(fps),
	}
	if total > 0 {
		p.Percent = float32(frames) * 100 / float32(total)
		if fps > 0 && frames < total {
			p.ETA = time.Duration(float64(total-frames) / fps * float64(time.Second))
		}
	}
	return p
}

// openOutput resolves output for input. Raw frames are never written to a
// terminal.
func openOutput(input, output string) (io.WriteCloser, string, error) {
	if output == "-" {
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return nil, "", errors.New("refusing to write YUV4MPEG2 to a terminal, use -o or a pipe")
		}
		return nopCloser{os.Stdout}, "stdout", nil
	}
	if input == "-" && util.DirectoryExists(output) {
		return nil, "", fmt.Errorf("%s is a directory, name the output file", output)
	}
	path := util.ResolveOutputPath(input, output)
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, path, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

func newIndexCommand(ga *globalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "index <file>...",
		Short: "Build FFMS2 indexes next to the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ga.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if !avdecode.FFMSAvailable() {
				return s.fail("Index failed", errors.New("built without FFMS2 support, rebuild with -tags ffms2"))
			}
			for _, path := range args {
				start := time.Now()
				idx, err := avdecode.BuildFFMSIndex(path, s.opts...)
				if err != nil {
					return s.fail("Index failed", err)
				}
				s.rep.IndexComplete(reporter.IndexSummary{
					InputFile: path,
					IndexFile: idx,
					TotalTime: time.Since(start),
				})
			}
			s.rep.OperationComplete(fmt.Sprintf("Indexed %d file(s)", len(args)))
			return nil
		},
	}
}
