// Package watch reports batches of changed Go source files.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher monitors directories and reports changed Go files once no further
// change arrived for the debounce duration.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
	logger   *zap.Logger
}

// New returns a Watcher. Changes under the ignored directories are dropped.
func New(debounce time.Duration, logger *zap.Logger, ignore ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	abs := make([]string, 0, len(ignore))
	for _, dir := range ignore {
		if a, err := filepath.Abs(dir); err == nil {
			abs = append(abs, a)
		}
	}
	return &Watcher{fs: fw, debounce: debounce, ignore: abs, logger: logger}, nil
}

// Add watches dirs. Adding a watched directory again is a no-op.
func (w *Watcher) Add(dirs ...string) error {
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if slices.Contains(w.fs.WatchList(), dir) {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		w.logger.Debug("watching", zap.String("dir", dir))
	}
	return nil
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	dirs := w.fs.WatchList()
	slices.Sort(dirs)
	return dirs
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run calls onChange with the sorted changed files of each batch until ctx
// is done. Events arriving while onChange runs join the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, files []string)) error {
	var (
		pending = make(map[string]struct{})
		timer   = time.NewTimer(w.debounce)
	)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			clear(pending)
			slices.Sort(files)
			onChange(ctx, files)
		}
	}
}

// relevant reports whether event touches a non-test Go file outside the
// ignored directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if filepath.Ext(base) != ".go" || strings.HasSuffix(base, "_test.go") || strings.HasPrefix(base, ".") {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	for _, dir := range w.ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return false
		}
	}
	return true
}
