// Package config reads the settings of the domgen command. Values come
// from the project file (domgen.yaml), then DOMGEN_* environment variables,
// then command-line flags, each overriding the previous.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/domgen/compiler"
	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/compiler/gen/atlasddl"
	"github.com/syssam/domgen/dialect"
)

// DefaultPath is the project file read when none is given.
const DefaultPath = "domgen.yaml"

// EnvPrefix prefixes the environment overrides.
const EnvPrefix = "DOMGEN_"

// Config is the configuration of the domgen command.
type Config struct {
	// Schema is the definition file.
	Schema string `yaml:"schema"`
	// Target is the output directory.
	Target   string            `yaml:"target"`
	Elements []string          `yaml:"elements,omitempty"`
	Workers  int               `yaml:"workers,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
	Atlas    Atlas             `yaml:"atlas"`
	Log      Log               `yaml:"log"`
	Check    Check             `yaml:"check"`
}

// Atlas configures the atlas element and the check command.
type Atlas struct {
	Dialects []string `yaml:"dialects,omitempty"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Check configures the check command.
type Check struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Schema:   "domgen.def.yaml",
		Target:   "generated",
		Elements: slices.Clone(compiler.DefaultElements),
		Params:   map[string]string{},
		Atlas:    Atlas{Dialects: []string{dialect.Postgres}},
		Log:      Log{Level: "info", Format: "console"},
		Check:    Check{Driver: "sqlite", DSN: ":memory:"},
	}
}

// Load reads the project file at path over the defaults. A missing file
// is not an error when path is DefaultPath.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	return c, nil
}

// ApplyEnv applies DOMGEN_* overrides read through lookup, usually
// os.LookupEnv. Parameters are set with DOMGEN_PARAM_<KEY>, where "_" in
// the key reads as ".": DOMGEN_PARAM_JAVA_PACKAGE sets java.package.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	strs := []struct {
		name string
		dst  *string
	}{
		{"SCHEMA", &c.Schema},
		{"TARGET", &c.Target},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
		{"CHECK_DRIVER", &c.Check.Driver},
		{"CHECK_DSN", &c.Check.DSN},
	}
	for _, s := range strs {
		if v, ok := get(s.name); ok {
			*s.dst = v
		}
	}
	if v, ok := get("ELEMENTS"); ok {
		c.Elements = splitList(v)
	}
	if v, ok := get("ATLAS_DIALECTS"); ok {
		c.Atlas.Dialects = splitList(v)
	}
	if v, ok := get("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sWORKERS: %w", EnvPrefix, err)
		}
		c.Workers = n
	}
	return nil
}

// ApplyParamEnv sets parameters from DOMGEN_PARAM_* entries of environ,
// usually os.Environ().
func (c *Config) ApplyParamEnv(environ []string) {
	const prefix = EnvPrefix + "PARAM_"
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) || k == prefix {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(k, prefix), "_", "."))
		c.Params[key] = v
	}
}

// RegisterFlags binds flags of fs to c. The current values are the flag
// defaults, so parsing fs applies only the flags given.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Schema, "schema", c.Schema, "definition file")
	fs.StringVar(&c.Target, "target", c.Target, "output directory")
	fs.IntVar(&c.Workers, "workers", c.Workers, "parallel renderers (0 uses GOMAXPROCS)")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level: debug, info, warn, error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format: console or json")
	fs.StringVar(&c.Check.Driver, "check-driver", c.Check.Driver, "database driver of the check command")
	fs.StringVar(&c.Check.DSN, "check-dsn", c.Check.DSN, "data source of the check command")
	fs.Func("elements", "comma separated elements ("+strings.Join(compiler.Elements(), ", ")+")", func(v string) error {
		c.Elements = splitList(v)
		return nil
	})
	fs.Func("atlas-dialects", "comma separated atlas dialects", func(v string) error {
		c.Atlas.Dialects = splitList(v)
		return nil
	})
	fs.Func("param", "generator parameter key=value, repeatable", func(v string) error {
		k, val, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return fmt.Errorf("expected key=value, got %q", v)
		}
		c.Params[strings.TrimSpace(k)] = val
		return nil
	})
}

// GeneratorParams returns the parameters handed to generators, with the
// atlas dialects folded in.
func (c *Config) GeneratorParams() map[string]string {
	params := maps.Clone(c.Params)
	if params == nil {
		params = map[string]string{}
	}
	if _, ok := params[atlasddl.ParamDialects]; !ok && len(c.Atlas.Dialects) > 0 {
		params[atlasddl.ParamDialects] = strings.Join(c.Atlas.Dialects, ",")
	}
	return params
}

// GeneratorOptions returns the generator options for the target, workers
// and params of c, params in key order.
func (c *Config) GeneratorOptions() []gen.Option {
	opts := []gen.Option{gen.WithTarget(c.Target), gen.WithWorkers(c.Workers)}
	params := c.GeneratorParams()
	for _, k := range slices.Sorted(maps.Keys(params)) {
		opts = append(opts, gen.WithParam(k, params[k]))
	}
	return opts
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Schema == "" {
		errs = append(errs, errors.New("schema: definition file is required"))
	}
	if err := (&gen.Config{}).ApplyAll(c.GeneratorOptions()...); err != nil {
		errs = append(errs, err)
	}
	known := compiler.Elements()
	for _, e := range c.Elements {
		if !slices.Contains(known, e) {
			errs = append(errs, fmt.Errorf("elements: unknown element %q", e))
		}
	}
	if _, err := atlasddl.ParseDialects(strings.Join(c.Atlas.Dialects, ",")); err != nil {
		errs = append(errs, fmt.Errorf("atlas.dialects: %w", err))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: expected console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
