package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrUnknownBackend indicates a backend name that is not a general decoder.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrDuplicateBackend indicates a backend listed twice in the priority list.
	ErrDuplicateBackend = errors.New("duplicate backend")

	// ErrInvalidThreads indicates a negative or unparsable thread count.
	ErrInvalidThreads = errors.New("invalid thread count")

	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")
)
