package reporter

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/avdecode/internal/util"
)

// TerminalReporter outputs human-friendly text. Decoded frames may go to
// stdout, so everything is written to out, stderr by default.
type TerminalReporter struct {
	mu        sync.Mutex
	out       io.Writer
	progress  *progressbar.ProgressBar
	lastFrame int
	verbose   bool
	cyan      *color.Color
	green     *color.Color
	yellow    *color.Color
	red       *color.Color
	magenta   *color.Color
	bold      *color.Color
	faint     *color.Color
}

// NewTerminalReporter creates a terminal reporter writing to stderr.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return NewTerminalReporterWithWriter(os.Stderr, verbose)
}

// NewTerminalReporterWithWriter creates a terminal reporter with a custom writer.
func NewTerminalReporterWithWriter(w io.Writer, verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     w,
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.lastFrame = 0
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) heading(title string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, title)
}

func (r *TerminalReporter) SourceDetails(summary SourceSummary) {
	r.heading("SOURCE")
	const w = 11
	r.printLabel(w, "File:", summary.InputFile)
	r.printLabel(w, "Backend:", summary.Backend)
	r.printLabel(w, "Resolution:", summary.Resolution)
	r.printLabel(w, "Format:", fmt.Sprintf("%d-bit %s", summary.BitDepth, summary.Chroma))
	r.printLabel(w, "Frame rate:", summary.FrameRate)
	if summary.TotalFrames > 0 {
		r.printLabel(w, "Frames:", fmt.Sprintf("%d (%s)", summary.TotalFrames, summary.Duration))
	} else {
		r.printLabel(w, "Frames:", r.faint.Sprint("unknown"))
	}
	r.printLabel(w, "Scan:", summary.ScanOrder)
	if summary.FileSize > 0 {
		r.printLabel(w, "Size:", util.FormatBytes(summary.FileSize))
	}
}

func (r *TerminalReporter) DecodeStarted(totalFrames int) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	// -1 switches the bar to a spinner for sources without a frame count.
	total := int64(totalFrames)
	if total <= 0 {
		total = -1
	}
	r.progress = progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Decoding [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) DecodeProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	if progress.CurrentFrame >= r.lastFrame {
		r.lastFrame = progress.CurrentFrame
		_ = r.progress.Set(progress.CurrentFrame)
	}

	desc := fmt.Sprintf("fps %.1f", progress.FPS)
	if progress.TotalFrames > 0 {
		desc += ", eta " + util.FormatDuration(progress.ETA.Seconds())
	}
	r.progress.Describe(desc)
}

func (r *TerminalReporter) DecodeComplete(summary DecodeOutcome) {
	r.finishProgress()

	r.heading("RESULTS")
	r.printLabel(7, "Input:", summary.InputFile)
	r.printLabel(7, "Output:", r.bold.Sprint(summary.OutputFile))
	r.printLabel(7, "Frames:", fmt.Sprintf("%d (%s)", summary.Frames, util.FormatBytes(summary.BytesWritten)))
	r.printLabel(7, "Time:", fmt.Sprintf("%s (avg %.1f fps)",
		util.FormatDuration(summary.TotalTime.Seconds()), summary.AverageFPS))
}

func (r *TerminalReporter) IndexComplete(summary IndexSummary) {
	r.heading("INDEX")
	r.printLabel(6, "Input:", summary.InputFile)
	r.printLabel(6, "Index:", r.green.Sprint(summary.IndexFile))
	r.printLabel(6, "Time:", util.FormatDuration(summary.TotalTime.Seconds()))
}

func (r *TerminalReporter) Warning(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.yellow.Fprintf(r.out, "WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()

	_, _ = fmt.Fprintln(r.out)
	_, _ = r.red.Fprintf(r.out, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.out, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.out, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.out, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	r.heading("BATCH")
	_, _ = fmt.Fprintf(r.out, "  Probing %d files in %s\n", info.TotalFiles, r.bold.Sprint(info.Directory))
	for i, name := range info.FileList {
		_, _ = fmt.Fprintf(r.out, "  %d. %s\n", i+1, name)
	}
}

func (r *TerminalReporter) FileProgress(context FileProgressContext) {
	_, _ = fmt.Fprintf(r.out, "\nFile %s of %d\n", r.bold.Sprint(context.CurrentFile), context.TotalFiles)
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.magenta.Sprint("›"), message)
}
