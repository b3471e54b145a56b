package estester

import "github.com/sirupsen/logrus"

// Option configures a fixture manager.
type Option func(*fixtureOptions) error

// fixtureOptions collects settings shared by both managers.
type fixtureOptions struct {
	run      Config
	defaults IndexConfig
}

// WithConfig sets the runtime configuration. If not given, DefaultConfig()
// is used.
func WithConfig(cfg Config) Option {
	return func(o *fixtureOptions) error {
		o.run = cfg.withDefaults()
		return nil
	}
}

// WithLogger sets the lifecycle logger, overriding the one in the runtime
// configuration.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *fixtureOptions) error {
		o.run.Logger = logger
		return nil
	}
}

// WithDefaults sets class-level default settings, mappings, and fixtures.
// The multi-index manager falls back to these for any index whose own
// configuration leaves them nil.
func WithDefaults(defaults IndexConfig) Option {
	return func(o *fixtureOptions) error {
		o.defaults = defaults
		return nil
	}
}

func applyOptions(opts []Option) (fixtureOptions, error) {
	o := fixtureOptions{run: DefaultConfig()}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return o, err
		}
	}
	o.run = o.run.withDefaults()
	return o, nil
}
