package hostgate

import (
	"fmt"
	"time"

	"github.com/ssgreg/logf"

	"github.com/yourusername/hostgate/core"
)

// Option is a functional option for configuring a Registry.
type Option func(*Registry) error

// WithDefaults sets the policy used for buckets created on first check.
func WithDefaults(capacity float64, period time.Duration) Option {
	return WithDefaultPolicy(core.Policy{Capacity: capacity, Period: period})
}

// WithDefaultPolicy is WithDefaults with a core.Policy.
func WithDefaultPolicy(policy core.Policy) Option {
	return func(r *Registry) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		r.defaults = policy
		return nil
	}
}

// WithConfig sets the default policy and the pre-configured domains.
func WithConfig(config *Config) Option {
	return func(r *Registry) error {
		if config == nil {
			return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		defaults, err := config.Defaults.ToPolicy()
		if err != nil {
			return err
		}
		r.defaults = defaults
		r.seed = config
		return nil
	}
}

// WithConfigFile loads the default policy and pre-configured domains from a YAML file.
func WithConfigFile(path string) Option {
	return func(r *Registry) error {
		config, err := LoadConfigFromFile(path)
		if err != nil {
			return err
		}
		defaults, err := config.Defaults.ToPolicy()
		if err != nil {
			return err
		}
		r.defaults = defaults
		r.seed = config
		return nil
	}
}

// WithClock replaces the time source. Tests use it to control refill.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) error {
		if now == nil {
			return fmt.Errorf("%w: clock cannot be nil", ErrInvalidConfig)
		}
		r.now = now
		return nil
	}
}

// WithRecorder sets a recorder that is told about every admission decision.
func WithRecorder(recorder Recorder) Option {
	return func(r *Registry) error {
		if recorder == nil {
			return fmt.Errorf("%w: recorder cannot be nil", ErrInvalidConfig)
		}
		r.recorder = recorder
		return nil
	}
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(logger *logf.Logger) Option {
	return func(r *Registry) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
		}
		r.logger = logger
		return nil
	}
}
