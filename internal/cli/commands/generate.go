package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/prefkit/prefkit/compiler/gen"
)

func newGenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "generate [packages...]",
		Aliases: []string{"gen", "g"},
		Short:   "Generate preference accessors",
		Long: `Generate loads the given packages (or the configured schemas, or the
current package) and writes the preference accessors into the target
directory. Generated files whose inputs did not change are left untouched,
and stale files from earlier runs are removed.`,
		Example: `  prefkit generate --package example.com/app/prefs ./model
  prefkit generate --converters ./conv ./model/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.genConfig(args)
			if err != nil {
				a.printer.Error(err)
				return &reportedError{err}
			}
			return a.generate(cmd.Context(), cfg)
		},
	}
}

// generate runs one generation and prints its outcome.
func (a *app) generate(ctx context.Context, cfg *gen.Config) error {
	report, err := gen.Run(ctx, cfg)
	if err != nil {
		a.printer.Error(err)
		return &reportedError{err}
	}
	a.printer.Report(report)
	return nil
}
