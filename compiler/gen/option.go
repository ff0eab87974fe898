package gen

import (
	"errors"
	"maps"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/syssam/domgen"
)

// Config holds the settings of a generation run.
type Config struct {
	// Target is the root directory artifacts are written under.
	Target string
	// Workers bounds parallel rendering of per-object-type artifacts.
	Workers int
	// Header is the comment generators put at the top of source files.
	Header string
	// Params are generator parameters, read by templates through Param.
	Params Params
	// Logger receives progress. It is disabled unless set.
	Logger zerolog.Logger
	// DryRun plans and renders artifacts without writing them.
	DryRun bool
}

// DefaultHeader is the header used when none is configured.
const DefaultHeader = "Code generated by domgen, DO NOT EDIT."

// Option configures code generation.
type Option func(*Config) error

func optionError(name string, value any, msg string) error {
	return domgen.NewConfigError(domgen.KindInvalidOption, "gen", name, "%s (got %v)", msg, value)
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return optionError("Target", `""`, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithWorkers sets the number of parallel renderers. Zero restores the
// default of GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return optionError("Workers", n, "worker count cannot be negative")
		}
		if n == 0 {
			n = runtime.GOMAXPROCS(0)
		}
		c.Workers = n
		return nil
	}
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithParams merges generator parameters into the config.
func WithParams(params map[string]string) Option {
	return func(c *Config) error {
		if c.Params == nil {
			c.Params = make(Params, len(params))
		}
		maps.Copy(c.Params, params)
		return nil
	}
}

// WithParam sets a single generator parameter.
func WithParam(key, value string) Option {
	return func(c *Config) error {
		if key == "" {
			return optionError("Param", `""`, "parameter key cannot be empty")
		}
		return WithParams(map[string]string{key: value})(c)
	}
}

// WithLogger sets the logger progress is reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithDryRun disables writing.
func WithDryRun() Option {
	return func(c *Config) error {
		c.DryRun = true
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Workers: runtime.GOMAXPROCS(0),
		Header:  DefaultHeader,
		Params:  Params{},
		Logger:  zerolog.Nop(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
