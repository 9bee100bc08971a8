package adapter

import (
	"fmt"

	averrors "github.com/five82/avdecode/internal/errors"
)

// State is the position of an adapter in its lifecycle.
type State int

const (
	Constructed State = iota
	Probed
	Reading
	Sought
	Exhausted
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Probed:
		return "probed"
	case Reading:
		return "reading"
	case Sought:
		return "sought"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Lifecycle tracks Constructed → Probed → Reading ⇄ Sought → Exhausted for one
// adapter. The zero value is Constructed.
type Lifecycle struct {
	backend Backend
	state   State
	started bool
}

// NewLifecycle returns a lifecycle for backend b.
func NewLifecycle(b Backend) Lifecycle {
	return Lifecycle{backend: b}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return l.state
}

// Started reports whether any frame has been requested.
func (l *Lifecycle) Started() bool {
	return l.started
}

// Configure checks that configuration named what may still be applied and
// drops the adapter back to Constructed so details are derived again.
func (l *Lifecycle) Configure(what string) error {
	if l.started {
		return averrors.NewConfigurationMisuseError(string(l.backend),
			fmt.Sprintf("%s must be set before the first read (adapter is %s)", what, l.state))
	}
	l.state = Constructed
	return nil
}

// Probed records that details are available.
func (l *Lifecycle) Probed() {
	if !l.started {
		l.state = Probed
	}
}

// Read records a frame request. It reports false if the adapter is exhausted.
func (l *Lifecycle) Read() bool {
	l.started = true
	if l.state == Exhausted {
		return false
	}
	l.state = Reading
	return true
}

// Exhaust records the end of the stream.
func (l *Lifecycle) Exhaust() {
	l.started = true
	l.state = Exhausted
}

// Seek records a successful reposition, leaving Exhausted.
func (l *Lifecycle) Seek() {
	l.started = true
	l.state = Sought
}
