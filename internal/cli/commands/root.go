package commands

import (
	"context"
	"errors"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prefkit/prefkit/compiler/gen"
	"github.com/prefkit/prefkit/internal/cli/config"
	"github.com/prefkit/prefkit/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// app is the state shared by the commands of one invocation.
type app struct {
	configFile string
	noColor    bool

	v       *viper.Viper
	cfg     *config.Config
	dir     string
	logger  *zap.Logger
	printer *ui.Printer
}

// reportedError is an error already printed to the user.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "prefkit",
		Short: "Generate thread-safe preference accessors",
		Long: color.CyanString(`prefkit - typed preferences over an embedded key-value store

prefkit reads struct types marked with //prefkit:schema and emits, for each one,
a write-only builder, an accessor interface and its implementation, plus a
factory opening every accessor on a kv.Opener.`),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "configuration file (default ./prefkit.yaml)")
	flags.String("package", "", "import path of the generated package (required)")
	flags.String("target", "", "output directory (default: last element of --package)")
	flags.StringSlice("converters", nil, "extra packages declaring //prefkit:converters types")
	flags.StringSlice("build-flags", nil, "build flags used to load packages, e.g. -tags=dev")
	flags.Int("max-rounds", gen.DefaultMaxRounds, "maximum number of generation rounds")
	flags.Int("workers", 0, "parallel file writers (default GOMAXPROCS)")
	flags.BoolP("verbose", "v", false, "log every generation step")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newGenerateCommand(a))
	rootCmd.AddCommand(newWatchCommand(a))
	rootCmd.AddCommand(NewVersionCommand())
	return rootCmd
}

// setup merges flags, environment and configuration file.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	a.dir = dir
	a.v = config.New()
	if err := config.BindFlags(a.v, cmd); err != nil {
		return err
	}
	a.cfg, err = config.Load(a.v, a.configFile, dir)
	if err != nil {
		return err
	}
	a.logger, err = newLogger(a.cfg.Verbose)
	if err != nil {
		return err
	}
	if f := config.Used(a.v); f != "" {
		a.logger.Debug("using config file", zap.String("file", f))
	}
	a.printer = ui.NewPrinter(cmd.OutOrStdout(), a.noColor)
	return nil
}

// genConfig returns the generator configuration for the package patterns.
func (a *app) genConfig(patterns []string) (*gen.Config, error) {
	return gen.NewConfig(a.cfg.Options(a.dir, patterns, a.logger)...)
}

// newLogger returns a development logger when verbose, and a console logger
// reporting warnings otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the prefkit version, Git commit, build date, and Go version",
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "prefkit version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
