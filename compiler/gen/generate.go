package gen

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/prefkit/prefkit/compiler/load"
)

// Report summarizes a Generate run.
type Report struct {
	Rounds  int
	Files   []string // Files produced, sorted
	Written int      // Files written to disk
	Removed []string // Stale files deleted
}

// Generate loads the configured packages and emits the preference accessors
// into cfg.Target. Symbols that refer to types not known yet are retried in
// later rounds, after reloading packages so that files written in a round
// are visible to the next. Generation stops when every step completes, when
// a round makes no progress or after cfg.MaxRounds rounds.
func Generate(ctx context.Context, cfg *Config) error {
	_, err := Run(ctx, cfg)
	return err
}

// Run is Generate returning a report of the run.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		logger   = cfg.Logger
		loader   = load.NewLoader(load.Config{Dir: cfg.Dir, BuildFlags: cfg.BuildFlags, Logger: logger})
		sink     = NewSink()
		writer   = NewWriter(cfg.Target, cfg.Package, cfg.Workers, logger)
		sched    = NewScheduler(logger, DefaultSteps()...)
		patterns = slices.Concat(cfg.Schemas, cfg.Converters)
		report   = &Report{}
	)
	for report.Rounds < cfg.MaxRounds {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Rounds++
		res, err := loader.Load(ctx, patterns...)
		if err != nil {
			return report, err
		}
		before := sched.Completed()
		deferred, err := sched.Process(NewContext(cfg, res, sink))
		if err != nil {
			return report, err
		}
		written, err := writer.Flush(ctx, sink)
		report.Written += written
		if err != nil {
			return report, err
		}
		logger.Info("round finished",
			zap.Int("round", report.Rounds),
			zap.Int("schemas", len(res.Schemas)),
			zap.Int("deferred", len(deferred)),
			zap.Int("written", written),
		)
		if sched.Done() || len(res.Schemas) == 0 {
			report.Removed, err = writer.Prune(sink)
			report.Files = fileNames(sink)
			return report, err
		}
		if sched.Completed() == before && written == 0 {
			logger.Warn("no progress, giving up", zap.Strings("pending", sched.Pending()))
			break
		}
		loader.Reset()
	}
	report.Files = fileNames(sink)
	return report, sched.Finish()
}

func fileNames(sink *Sink) []string {
	files := sink.Files()
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}
