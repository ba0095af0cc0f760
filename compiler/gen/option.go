package gen

import (
	"errors"
	"path"
	"path/filepath"
	"runtime"
	"slices"

	"go.uber.org/zap"
)

// DefaultHeader is the first line of every generated file.
const DefaultHeader = "Code generated by prefkit. DO NOT EDIT."

// DefaultMaxRounds bounds the number of generation rounds.
const DefaultMaxRounds = 10

// Config configures code generation.
type Config struct {
	// Package is the import path of the generated package.
	Package string
	// Target is the output directory. It defaults to the last element of
	// Package, relative to Dir.
	Target string
	// Dir is the directory packages are loaded from. Empty uses the
	// current directory.
	Dir string
	// Schemas are the package patterns searched for preference schemas.
	Schemas []string
	// Converters are additional package patterns searched for type
	// converter providers.
	Converters []string
	// BuildFlags are passed to the build system when loading packages.
	BuildFlags []string
	// Header is the first comment line of generated files.
	Header string
	// MaxRounds bounds the number of load and generate rounds.
	MaxRounds int
	// Workers bounds concurrent file writes.
	Workers int
	// Logger receives progress and diagnostics.
	Logger *zap.Logger
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the output package import path.
// For example: "github.com/org/project/prefs".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithSchemas adds package patterns searched for preference schemas.
// For example: "./model/...".
func WithSchemas(patterns ...string) Option {
	return func(c *Config) error {
		if len(patterns) == 0 || slices.Contains(patterns, "") {
			return NewConfigError("Schemas", patterns, "schema pattern cannot be empty")
		}
		c.Schemas = append(c.Schemas, patterns...)
		return nil
	}
}

// WithConverters adds package patterns searched for type converters, in
// addition to the schema packages.
func WithConverters(patterns ...string) Option {
	return func(c *Config) error {
		if slices.Contains(patterns, "") {
			return NewConfigError("Converters", patterns, "converter pattern cannot be empty")
		}
		c.Converters = append(c.Converters, patterns...)
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithDir sets the directory packages are loaded from.
func WithDir(dir string) Option {
	return func(c *Config) error {
		c.Dir = dir
		return nil
	}
}

// WithBuildFlags sets custom build flags for loading schema packages.
func WithBuildFlags(flags ...string) Option {
	return func(c *Config) error {
		c.BuildFlags = append(c.BuildFlags, flags...)
		return nil
	}
}

// WithMaxRounds bounds the number of generation rounds.
func WithMaxRounds(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("MaxRounds", n, "must be at least 1")
		}
		c.MaxRounds = n
		return nil
	}
}

// WithWorkers bounds concurrent file writes.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "must be at least 1")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger used during generation.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = logger
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

// Validate fills defaults and reports missing settings.
func (c *Config) Validate() error {
	if c.Package == "" {
		return NewConfigError("Package", nil, "output package is required")
	}
	if len(c.Schemas) == 0 {
		return NewConfigError("Schemas", nil, "at least one schema pattern is required")
	}
	if c.Target == "" {
		c.Target = filepath.Join(c.Dir, path.Base(c.Package))
	}
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return nil
}

// PkgName returns the name of the generated package.
func (c *Config) PkgName() string {
	return path.Base(c.Package)
}

// NewConfig creates a new Config with the given options and fills defaults.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
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
