package avdecode

import (
	"log/slog"

	"github.com/five82/avdecode/internal/config"
	averrors "github.com/five82/avdecode/internal/errors"
	"github.com/five82/avdecode/internal/logging"
)

// Config holds backend selection and tool settings.
type Config = config.Config

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return config.NewConfig()
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

type options struct {
	cfg *config.Config
	// backend, when set, replaces selection.
	backend  Backend
	backends []Backend
	lumaOnly *bool
	log      *logging.Logger
}

// Option configures how a source is opened.
type Option func(*options)

// WithConfig uses cfg instead of the defaults. Later options override it.
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithBackends sets the priority list for files without a dedicated
// backend. Backends left out are disabled; an empty list disables them all.
func WithBackends(backends ...Backend) Option {
	return func(o *options) {
		o.backends = append([]Backend{}, backends...)
	}
}

// WithBackend forces b, skipping selection.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLumaOnly delivers monochrome frames carrying the luma plane only.
func WithLumaOnly(on bool) Option {
	return func(o *options) {
		o.lumaOnly = &on
	}
}

// WithLogger sets the logger for debug output. The global logger is used
// otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = &logging.Logger{Logger: l}
		}
	}
}

func newOptions(opts []Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	// Work on a copy so callers can share one Config between opens.
	cfg := config.NewConfig()
	if o.cfg != nil {
		c := *o.cfg
		cfg = &c
	}
	if o.backends != nil {
		cfg.Backends = make([]string, len(o.backends))
		for i, b := range o.backends {
			cfg.Backends[i] = string(b)
		}
	}
	if o.lumaOnly != nil {
		cfg.LumaOnly = *o.lumaOnly
	}
	if err := cfg.Validate(); err != nil {
		return nil, misuse(err)
	}
	o.cfg = cfg
	o.log = logging.OrGlobal(o.log)
	return o, nil
}

func misuse(err error) error {
	return &averrors.CoreError{
		Kind:       averrors.KindConfigurationMisuse,
		Message:    "invalid configuration",
		Underlying: err,
	}
}
