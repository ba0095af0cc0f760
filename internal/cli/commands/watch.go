package commands

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prefkit/prefkit/internal/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch [packages...]",
		Aliases: []string{"w"},
		Short:   "Regenerate preference accessors when schema files change",
		Long: `Watch generates once, then regenerates whenever a Go file of the schema
or converter packages changes. Changes are batched until no further change
arrives for the debounce duration. Files in the target directory are
ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.genConfig(args)
			if err != nil {
				a.printer.Error(err)
				return &reportedError{err}
			}
			w, err := watch.New(a.cfg.Watch.Debounce, a.logger, cfg.Target)
			if err != nil {
				return err
			}
			defer w.Close()

			patterns := slices.Concat(cfg.Schemas, cfg.Converters)
			buildFlags := cfg.BuildFlags
			run := func(ctx context.Context) {
				// Config.Validate fills defaults in place, use a fresh one per run.
				if cfg, err := a.genConfig(args); err == nil {
					_ = a.generate(ctx, cfg)
				}
				dirs, err := watch.PackageDirs(ctx, a.dir, buildFlags, patterns...)
				if err != nil {
					a.logger.Warn("list package directories", zap.Error(err))
					return
				}
				if err := w.Add(dirs...); err != nil {
					a.logger.Warn("watch package directories", zap.Error(err))
				}
			}

			run(cmd.Context())
			a.printer.Info("watching %d directories, press Ctrl+C to stop", len(w.Dirs()))
			err = w.Run(cmd.Context(), func(ctx context.Context, files []string) {
				for _, f := range files {
					if rel, err := filepath.Rel(a.dir, f); err == nil {
						f = rel
					}
					a.printer.Info("changed %s", f)
				}
				run(ctx)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "quiet period before regenerating")
	return cmd
}
