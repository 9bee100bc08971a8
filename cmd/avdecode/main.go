// Package main provides the CLI entry point for avdecode.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/avdecode"
	"github.com/five82/avdecode/internal/adapter"
	"github.com/five82/avdecode/internal/config"
	"github.com/five82/avdecode/internal/logging"
	"github.com/five82/avdecode/internal/reporter"
	"github.com/five82/avdecode/internal/util"
)

const (
	appName    = "avdecode"
	appVersion = "0.1.0"
)

// globalArgs holds the flags shared by every command.
type globalArgs struct {
	configPath string
	backend    string
	priority   []string
	lumaOnly   bool
	threads    int
	json       bool
	verbose    bool
	logDir     string
	noLog      bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var ga globalArgs

	root := &cobra.Command{
		Use:           appName,
		Short:         "Decode video through y4m, ffmpeg, VapourSynth or FFMS2",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&ga.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&ga.backend, "backend", "", "Force a backend (y4m, ffmpeg, vapoursynth, ffms2)")
	pf.StringSliceVar(&ga.priority, "priority", nil, "Backend priority list, e.g. ffms2,ffmpeg")
	pf.BoolVar(&ga.lumaOnly, "luma-only", false, "Decode the luma plane only")
	pf.IntVar(&ga.threads, "threads", 0, "Decoder threads (0 = backend default)")
	pf.BoolVar(&ga.json, "json", false, "Emit NDJSON progress events on stderr")
	pf.BoolVarP(&ga.verbose, "verbose", "v", false, "Enable verbose output")
	pf.StringVarP(&ga.logDir, "log-dir", "l", "", "Write a run log to this directory")
	pf.BoolVar(&ga.noLog, "no-log", false, "Disable log file creation")

	root.AddCommand(
		newProbeCommand(&ga),
		newDecodeCommand(&ga),
		newIndexCommand(&ga),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
			},
		},
	)
	return root
}

// session bundles what every command needs once flags are parsed.
type session struct {
	opts []avdecode.Option
	rep  reporter.Reporter
	log  *logging.FileLog
}

func (ga *globalArgs) open(cmd *cobra.Command) (*session, error) {
	cfg := config.NewConfig()
	if ga.configPath != "" {
		loaded, err := config.Load(ga.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("priority") {
		cfg.Backends = ga.priority
	}
	if flags.Changed("luma-only") {
		cfg.LumaOnly = ga.lumaOnly
	}
	if flags.Changed("threads") {
		cfg.Threads = ga.threads
	}
	if ga.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	fileLog, err := logging.Setup(ga.logDir, ga.verbose, ga.noLog || ga.logDir == "")
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	if fileLog != nil {
		logging.SetGlobal(fileLog.Logger)
		host := util.GetSystemInfo()
		fileLog.Info("host", "hostname", host.Hostname, "os", host.OS, "arch", host.Arch,
			"logical_cores", host.LogicalCores, "physical_cores", host.PhysicalCores)
		fileLog.Info("configuration", "backends", cfg.Backends, "threads", cfg.Threads,
			"luma_only", cfg.LumaOnly, "count_frames", cfg.CountFrames)
	} else {
		level, _ := logging.ParseLevel(cfg.LogLevel)
		logging.Init(level, os.Stderr)
	}

	opts := []avdecode.Option{
		avdecode.WithConfig(cfg),
		avdecode.WithLogger(logging.Global().Logger),
	}
	if ga.backend != "" {
		b, err := adapter.ParseBackend(ga.backend)
		if err != nil {
			_ = fileLog.Close()
			return nil, err
		}
		opts = append(opts, avdecode.WithBackend(b))
	}

	var rep reporter.Reporter = reporter.NewTerminalReporter(ga.verbose)
	if ga.json {
		rep = reporter.NewJSONReporter()
	}
	if fileLog != nil {
		// The run log also records every reporter event as NDJSON.
		rep = reporter.NewCompositeReporter(rep, reporter.NewJSONReporterWithWriter(fileLog.Writer()))
		rep.Verbose("Log file: " + fileLog.FilePath())
	}

	return &session{opts: opts, rep: rep, log: fileLog}, nil
}

func (s *session) close() {
	_ = s.log.Close()
}

// fail reports err through the session reporter and returns it.
func (s *session) fail(title string, err error) error {
	logging.Error(title, "error", err)
	s.rep.Error(reporter.ReporterError{
		Title:      title,
		Message:    err.Error(),
		Suggestion: suggestionFor(err),
	})
	return err
}

func suggestionFor(err error) string {
	switch {
	case errors.Is(err, avdecode.ErrNoDecoder):
		return "Enable a backend with --priority or AVDECODE_BACKENDS and check its tool is installed"
	case errors.Is(err, avdecode.ErrBackendInit):
		return "Check that the backend tools are installed and can read the file"
	case errors.Is(err, avdecode.ErrInvalidHeader):
		return "The input does not look like a YUV4MPEG2 stream"
	default:
		return ""
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
