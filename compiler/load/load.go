// Package load discovers preference schemas and type-converter providers in
// Go packages.
//
// Schemas are struct types marked with a //prefkit:schema directive;
// converter providers are struct types marked with //prefkit:converters.
// Loading never fails because a type cannot be resolved yet: such types are
// marked unresolved and the generator defers the affected symbols to a later
// round.
package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/prefkit/prefkit/schema"
)

// Config configures a Loader.
type Config struct {
	// Dir is the directory in which to run the build system. Empty uses the
	// current directory.
	Dir string
	// BuildFlags are passed to the build system (e.g. -tags).
	BuildFlags []string
	// Overlay maps file paths to contents used instead of the files on disk.
	Overlay map[string][]byte
	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// Result is the outcome of a Load.
type Result struct {
	Packages  []*packages.Package
	Decls     []*Decl
	Schemas   []*schema.Schema
	Providers []*schema.ConverterProvider
}

// Loader loads packages and caches them until Reset is called.
type Loader struct {
	cfg    Config
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string][]*packages.Package
}

// NewLoader creates a Loader.
func NewLoader(cfg Config) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		cfg:    cfg,
		logger: logger,
		cache:  make(map[string][]*packages.Package),
	}
}

// Reset drops cached packages so that the next Load observes files written
// since the last one.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.cache)
}

// Load loads the packages matching patterns and inspects their declarations.
func (l *Loader) Load(ctx context.Context, patterns ...string) (*Result, error) {
	if len(patterns) == 0 {
		return nil, errors.New("prefkit: no packages to load")
	}
	pkgs, err := l.packages(ctx, patterns)
	if err != nil {
		return nil, err
	}
	res := &Result{Packages: pkgs}
	res.Decls, err = collectDecls(pkgs)
	if err != nil {
		return nil, err
	}
	in := NewInspector(l.logger)
	var errs []error
	if res.Schemas, err = in.FilterPreferences(res.Decls); err != nil {
		errs = append(errs, err)
	}
	if res.Providers, err = in.FilterTypeConverters(res.Decls); err != nil {
		errs = append(errs, err)
	}
	if len(res.Schemas) == 0 && len(errs) == 0 {
		l.logger.Info("no preferences or type converters found", zap.Strings("patterns", patterns))
	}
	return res, errors.Join(errs...)
}

func (l *Loader) packages(ctx context.Context, patterns []string) ([]*packages.Package, error) {
	key := strings.Join(patterns, "\x00")
	l.mu.Lock()
	defer l.mu.Unlock()
	if pkgs, ok := l.cache[key]; ok {
		return pkgs, nil
	}
	cfg := &packages.Config{
		Context:    ctx,
		Dir:        l.cfg.Dir,
		BuildFlags: l.cfg.BuildFlags,
		Overlay:    l.cfg.Overlay,
		// NeedDeps type-checks from source. Without it go list compiles the
		// packages for export data and reports an undefined name as a list
		// error, which would end the run before the next round.
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedImports | packages.NeedDeps |
			packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("prefkit: loading %s: %w", strings.Join(patterns, " "), err)
	}
	// Type errors only leave types unresolved; anything else is fatal.
	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if e.Kind == packages.TypeError {
				l.logger.Debug("type error", zap.String("package", pkg.PkgPath), zap.String("error", e.Msg), zap.String("pos", e.Pos))
				continue
			}
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("prefkit: loading %s: %w", strings.Join(patterns, " "), errors.Join(errs...))
	}
	l.logger.Debug("loaded packages", zap.Int("count", len(pkgs)))
	l.cache[key] = pkgs
	return pkgs, nil
}

// collectDecls returns the type declarations of pkgs that carry a directive.
func collectDecls(pkgs []*packages.Package) ([]*Decl, error) {
	var (
		decls []*Decl
		errs  []error
	)
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}
		for _, file := range pkg.Syntax {
			filename := pkg.Fset.Position(file.Package).Filename
			for _, decl := range file.Decls {
				gen, ok := decl.(*ast.GenDecl)
				if !ok || gen.Tok != token.TYPE {
					continue
				}
				for _, spec := range gen.Specs {
					ts := spec.(*ast.TypeSpec)
					groups := []*ast.CommentGroup{ts.Doc}
					if len(gen.Specs) == 1 {
						groups = append(groups, gen.Doc)
					}
					d, c, err := findDirective(groups...)
					if err != nil {
						errs = append(errs, NewValidationError(pkg.Fset.Position(c.Pos()).String(), ts.Name.Name, "", "", err))
						continue
					}
					if d == nil {
						continue
					}
					obj, _ := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
					if obj == nil {
						continue
					}
					decls = append(decls, &Decl{
						Name:      ts.Name.Name,
						Pkg:       pkg,
						Obj:       obj,
						Spec:      ts,
						File:      filename,
						Directive: d,
					})
				}
			}
		}
	}
	slices.SortStableFunc(decls, func(a, b *Decl) int {
		return strings.Compare(a.Pkg.PkgPath, b.Pkg.PkgPath)
	})
	return decls, errors.Join(errs...)
}
