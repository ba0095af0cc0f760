package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/prefkit/prefkit/compiler/gen"
)

// FileName is the base name of the configuration file searched in the
// working directory.
const FileName = "prefkit"

// EnvPrefix prefixes environment variables, e.g. PREFKIT_PACKAGE.
const EnvPrefix = "PREFKIT"

// Config represents the prefkit command configuration
type Config struct {
	Package    string      `mapstructure:"package"`
	Target     string      `mapstructure:"target"`
	Schemas    []string    `mapstructure:"schemas"`
	Converters []string    `mapstructure:"converters"`
	BuildFlags []string    `mapstructure:"build_flags"`
	MaxRounds  int         `mapstructure:"max_rounds"`
	Workers    int         `mapstructure:"workers"`
	Verbose    bool        `mapstructure:"verbose"`
	Watch      WatchConfig `mapstructure:"watch"`
}

// WatchConfig represents the watch command configuration
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"package":     "package",
	"target":      "target",
	"converters":  "converters",
	"build-flags": "build_flags",
	"max-rounds":  "max_rounds",
	"workers":     "workers",
	"verbose":     "verbose",
	"debounce":    "watch.debounce",
}

// New returns a viper instance with defaults and environment lookup set.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("package", "")
	v.SetDefault("target", "")
	v.SetDefault("schemas", []string{})
	v.SetDefault("converters", []string{})
	v.SetDefault("build_flags", []string{})
	v.SetDefault("max_rounds", gen.DefaultMaxRounds)
	v.SetDefault("workers", 0)
	v.SetDefault("verbose", false)
	v.SetDefault("watch.debounce", 200*time.Millisecond)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds the known flags of cmd to v. Flags set on the command line
// take precedence over the environment and the configuration file.
func BindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the configuration file, file when set or prefkit.yaml in dir
// otherwise, and unmarshals the merged configuration.
func Load(v *viper.Viper, file, dir string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Used returns the configuration file read by Load, if any.
func Used(v *viper.Viper) string {
	return v.ConfigFileUsed()
}

func (c *Config) validate() error {
	if c.MaxRounds < 1 {
		return fmt.Errorf("max_rounds must be positive, got: %d", c.MaxRounds)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got: %d", c.Workers)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got: %s", c.Watch.Debounce)
	}
	return nil
}

// Options returns the generator options of c. Package patterns given on the
// command line replace the configured schemas; with neither, the current
// package is used.
func (c *Config) Options(dir string, patterns []string, logger *zap.Logger) []gen.Option {
	schemas := patterns
	if len(schemas) == 0 {
		schemas = c.Schemas
	}
	if len(schemas) == 0 {
		schemas = []string{"."}
	}
	opts := []gen.Option{
		gen.WithPackage(c.Package),
		gen.WithSchemas(schemas...),
		gen.WithDir(dir),
		gen.WithMaxRounds(c.MaxRounds),
		gen.WithLogger(logger),
	}
	if c.Target != "" {
		opts = append(opts, gen.WithTarget(c.Target))
	}
	if len(c.Converters) > 0 {
		opts = append(opts, gen.WithConverters(c.Converters...))
	}
	if len(c.BuildFlags) > 0 {
		opts = append(opts, gen.WithBuildFlags(c.BuildFlags...))
	}
	if c.Workers > 0 {
		opts = append(opts, gen.WithWorkers(c.Workers))
	}
	return opts
}
