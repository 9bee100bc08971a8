// Package proc runs the external tools behind the pipe-based backends.
package proc

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	averrors "github.com/five82/avdecode/internal/errors"
)

// stderrTail is how much trailing stderr output is kept for error messages.
const stderrTail = 4096

// Process is a running tool whose stdout is consumed by the caller.
type Process struct {
	name   string
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	stderr *tailBuffer
	group  *errgroup.Group

	mu      sync.Mutex
	reaped  bool
	waitErr error
}

// Start launches path with args. dir, when non-empty, is the working directory.
func Start(path string, args []string, dir string) (*Process, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, averrors.WrapExecError(toolName(path), err, "")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, averrors.WrapExecError(toolName(path), err, "")
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, averrors.WrapExecError(toolName(path), err, "")
	}

	p := &Process{
		name:   toolName(path),
		cmd:    cmd,
		cancel: cancel,
		stdout: stdout,
		stderr: &tailBuffer{max: stderrTail},
		group:  &errgroup.Group{},
	}
	p.group.Go(func() error {
		_, err := io.Copy(p.stderr, stderr)
		return err
	})
	return p, nil
}

// Name returns the base name of the tool.
func (p *Process) Name() string {
	return p.name
}

// Stdout returns the tool's standard output.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr returns the tail of the tool's standard error so far.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Wait waits for the tool to exit after its output has been consumed. A
// non-zero exit is returned as *errors.CommandError.
func (p *Process) Wait() error {
	return p.reap(false)
}

// Close stops the tool if it is still running and reaps it. Exit failures
// caused by the stop are not reported.
func (p *Process) Close() error {
	_ = p.reap(true)
	return nil
}

func (p *Process) reap(kill bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reaped {
		return p.waitErr
	}
	p.reaped = true

	if kill {
		p.cancel()
	}
	// Pipes must be drained before cmd.Wait closes them.
	drainErr := p.group.Wait()
	err := p.cmd.Wait()
	p.cancel()
	if err != nil {
		p.waitErr = exitError(p.name, err, drainErr, p.stderr.String())
	}
	return p.waitErr
}

// exitError wraps a failed wait. A stderr drain failure is noted after the
// captured text, which is then known to be incomplete.
func exitError(name string, waitErr, drainErr error, stderr string) *averrors.CommandError {
	text := strings.TrimSpace(stderr)
	if drainErr != nil {
		text = strings.TrimSpace(text + "\n(stderr truncated: " + drainErr.Error() + ")")
	}
	return averrors.WrapExecError(name, waitErr, text)
}

// Output runs path to completion and returns its standard output.
func Output(path string, args []string, dir string) ([]byte, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	var stdout bytes.Buffer
	stderr := &tailBuffer{max: stderrTail}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), averrors.WrapExecError(toolName(path), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Available reports whether path resolves to an executable.
func Available(path string) bool {
	_, err := exec.LookPath(path)
	return err == nil
}

func toolName(path string) string {
	return filepath.Base(path)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
