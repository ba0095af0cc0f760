package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"golang.org/x/tools/go/packages"
)

// PackageDirs returns the directories holding the Go files of the packages
// matched by patterns. Packages with errors still contribute the files that
// were found.
func PackageDirs(ctx context.Context, dir string, buildFlags []string, patterns ...string) ([]string, error) {
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Mode:       packages.NeedName | packages.NeedFiles,
		Dir:        dir,
		BuildFlags: buildFlags,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	var dirs []string
	for _, pkg := range pkgs {
		for _, f := range slices.Concat(pkg.GoFiles, pkg.IgnoredFiles) {
			dirs = append(dirs, filepath.Dir(f))
		}
	}
	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}
