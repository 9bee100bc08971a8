package y4m

import (
	"fmt"
	"io"

	"github.com/five82/avdecode/internal/proc"
)

// Pipe is a running tool whose standard output is a YUV4MPEG2 stream.
type Pipe struct {
	proc *proc.Process
	dec  *Decoder
}

// StartPipe runs path with args in dir and reads the stream header it writes.
// A tool that exits before writing a header is reported with its exit status.
func StartPipe(path string, args []string, dir string) (*Pipe, error) {
	p, err := proc.Start(path, args, dir)
	if err != nil {
		return nil, err
	}

	dec, err := NewDecoder(p.Stdout())
	if err != nil {
		_ = p.Close()
		if waitErr := p.Wait(); waitErr != nil {
			return nil, waitErr
		}
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s wrote no stream header", ErrInvalidHeader, path)
		}
		return nil, err
	}
	return &Pipe{proc: p, dec: dec}, nil
}

// Decoder returns the stream decoder.
func (p *Pipe) Decoder() *Decoder {
	return p.dec
}

// Finish reaps the tool after its output ended and reports how it exited.
func (p *Pipe) Finish() error {
	err := p.proc.Wait()
	_ = p.proc.Close()
	return err
}

// Stop kills the tool if it is still running.
func (p *Pipe) Stop() {
	_ = p.proc.Close()
}
