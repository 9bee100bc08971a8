// Package errors provides the error taxonomy shared by every decoding backend.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindNoDecoder means no enabled backend can handle the input.
	KindNoDecoder ErrorKind = iota
	// KindUnsupportedInput means the chosen backend cannot accept the input shape.
	KindUnsupportedInput
	// KindIO represents file or stream access failures.
	KindIO
	// KindBackendInit means the native backend could not be constructed or opened.
	KindBackendInit
	// KindInvalidHeader represents malformed self-describing metadata.
	KindInvalidHeader
	// KindEndOfFile means the backend has no more frames.
	KindEndOfFile
	// KindSeekUnsupported means the backend cannot seek.
	KindSeekUnsupported
	// KindOutOfRange means a seek target lies beyond the known frame count.
	KindOutOfRange
	// KindDecodeFailure means a frame failed to decode, convert or rescale.
	KindDecodeFailure
	// KindConfigurationMisuse means configuration was applied at the wrong
	// lifecycle stage or did not match the source.
	KindConfigurationMisuse
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNoDecoder:
		return "No decoder"
	case KindUnsupportedInput:
		return "Unsupported input"
	case KindIO:
		return "I/O error"
	case KindBackendInit:
		return "Backend init error"
	case KindInvalidHeader:
		return "Invalid header"
	case KindEndOfFile:
		return "End of file"
	case KindSeekUnsupported:
		return "Seek unsupported"
	case KindOutOfRange:
		return "Out of range"
	case KindDecodeFailure:
		return "Decode failure"
	case KindConfigurationMisuse:
		return "Configuration misuse"
	default:
		return "Unknown error"
	}
}

// CommandErrorKind represents the type of command error.
type CommandErrorKind int

const (
	// CommandStart means the command failed to start.
	CommandStart CommandErrorKind = iota
	// CommandWait means waiting for the command failed.
	CommandWait
	// CommandFailed means the command returned non-zero exit status.
	CommandFailed
)

// CommandError represents an error from executing an external command.
type CommandError struct {
	Command    string
	Kind       CommandErrorKind
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case CommandStart:
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	case CommandWait:
		return fmt.Sprintf("failed to wait for %s: %v", e.Command, e.Underlying)
	case CommandFailed:
		if e.Stderr != "" {
			return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
	default:
		return fmt.Sprintf("command %s error: %v", e.Command, e.Underlying)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// CoreError is the error type every backend failure is mapped into before it
// reaches a caller. Backend names the backend that produced it, if any.
type CoreError struct {
	Kind       ErrorKind
	Backend    string
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	prefix := e.Kind.String()
	if e.Backend != "" {
		prefix = e.Backend + ": " + prefix
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for use with errors.Is.
var (
	ErrNoDecoder           = &CoreError{Kind: KindNoDecoder, Message: "no decoder available"}
	ErrUnsupportedInput    = &CoreError{Kind: KindUnsupportedInput, Message: "unsupported input"}
	ErrIO                  = &CoreError{Kind: KindIO, Message: "i/o failure"}
	ErrBackendInit         = &CoreError{Kind: KindBackendInit, Message: "backend initialization failed"}
	ErrInvalidHeader       = &CoreError{Kind: KindInvalidHeader, Message: "invalid header"}
	ErrEndOfFile           = &CoreError{Kind: KindEndOfFile, Message: "end of video reached"}
	ErrSeekUnsupported     = &CoreError{Kind: KindSeekUnsupported, Message: "seek not supported"}
	ErrOutOfRange          = &CoreError{Kind: KindOutOfRange, Message: "frame index out of range"}
	ErrDecodeFailure       = &CoreError{Kind: KindDecodeFailure, Message: "decode failure"}
	ErrConfigurationMisuse = &CoreError{Kind: KindConfigurationMisuse, Message: "configuration misuse"}
)

// NewNoDecoderError creates an error for inputs no enabled backend can open.
func NewNoDecoderError(message string) *CoreError {
	return &CoreError{Kind: KindNoDecoder, Message: message}
}

// NewUnsupportedInputError creates an error for an input shape a backend rejects.
func NewUnsupportedInputError(backend, message string) *CoreError {
	return &CoreError{Kind: KindUnsupportedInput, Backend: backend, Message: message}
}

// NewIOError creates a new I/O error.
func NewIOError(backend, message string, underlying error) *CoreError {
	return &CoreError{Kind: KindIO, Backend: backend, Message: message, Underlying: underlying}
}

// NewBackendInitError creates an error for a failed backend open.
func NewBackendInitError(backend, message string, underlying error) *CoreError {
	return &CoreError{Kind: KindBackendInit, Backend: backend, Message: message, Underlying: underlying}
}

// NewInvalidHeaderError creates an error for malformed header metadata.
func NewInvalidHeaderError(backend, message string, underlying error) *CoreError {
	return &CoreError{Kind: KindInvalidHeader, Backend: backend, Message: message, Underlying: underlying}
}

// NewEndOfFileError creates the terminal end-of-stream error.
func NewEndOfFileError(backend string) *CoreError {
	return &CoreError{Kind: KindEndOfFile, Backend: backend, Message: "end of video reached"}
}

// NewSeekUnsupportedError creates an error for a seek on a read-once backend.
func NewSeekUnsupportedError(backend string) *CoreError {
	return &CoreError{Kind: KindSeekUnsupported, Backend: backend, Message: "backend does not support seeking"}
}

// NewOutOfRangeError creates an error for a seek target past the last frame.
func NewOutOfRangeError(backend string, index, count int) *CoreError {
	return &CoreError{
		Kind:    KindOutOfRange,
		Backend: backend,
		Message: fmt.Sprintf("frame %d out of range (source has %d frames)", index, count),
	}
}

// NewDecodeFailureError creates an error for a frame that failed after open.
func NewDecodeFailureError(backend, message string, underlying error) *CoreError {
	return &CoreError{Kind: KindDecodeFailure, Backend: backend, Message: message, Underlying: underlying}
}

// NewConfigurationMisuseError creates an error for configuration applied at the
// wrong time or incompatible with the source.
func NewConfigurationMisuseError(backend, message string) *CoreError {
	return &CoreError{Kind: KindConfigurationMisuse, Backend: backend, Message: message}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err and whether err carries one.
func KindOf(err error) (ErrorKind, bool) {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind, true
	}
	return 0, false
}

// IsEndOfFile checks if the error is the terminal end-of-stream signal.
func IsEndOfFile(err error) bool {
	return IsKind(err, KindEndOfFile)
}

// WrapExecError wraps an exec.ExitError into a CommandError.
func WrapExecError(cmd string, err error, stderr string) *CommandError {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return &CommandError{
			Command:    cmd,
			Kind:       CommandFailed,
			ExitCode:   exitErr.ExitCode(),
			Stderr:     stderr,
			Underlying: err,
		}
	}
	return &CommandError{Command: cmd, Kind: CommandStart, Underlying: err}
}
