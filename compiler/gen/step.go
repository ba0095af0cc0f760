package gen

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/prefkit/prefkit/compiler/load"
	"github.com/prefkit/prefkit/schema"
)

// Symbol is a unit of work of a step: one schema, or the factory.
type Symbol struct {
	Name   string
	Schema *schema.Schema // Nil for package-level symbols
}

func schemaSymbol(s *schema.Schema) Symbol {
	return Symbol{Name: s.QualifiedName(), Schema: s}
}

var factorySymbol = Symbol{Name: factoryIface}

// Step emits the files of one kind. Generate returns an error wrapping
// ErrUnresolved when the symbol refers to types not known yet; the scheduler
// retries it in the next round.
type Step interface {
	Name() string
	Symbols(c *Context) []Symbol
	Generate(c *Context, sym Symbol) error
}

// DefaultSteps returns the emit steps in execution order.
func DefaultSteps() []Step {
	return []Step{
		mutableStep{},
		facadeStep{},
		facadeImplStep{},
		factoryStep{},
		factoryImplStep{},
	}
}

// Context is the state of one generation round.
type Context struct {
	Config    *Config
	Schemas   []*schema.Schema
	Providers []*schema.ConverterProvider
	Sink      *Sink
	Logger    *zap.Logger

	fields   map[*schema.ConverterProvider]string
	mappings map[*schema.Schema][]*Mapping
}

// NewContext returns the context of a round over the loaded result.
func NewContext(cfg *Config, res *load.Result, sink *Sink) *Context {
	c := &Context{
		Config:    cfg,
		Schemas:   res.Schemas,
		Providers: res.Providers,
		Sink:      sink,
		Logger:    cfg.Logger,
		fields:    make(map[*schema.ConverterProvider]string),
		mappings:  make(map[*schema.Schema][]*Mapping),
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	used := make(map[string]int)
	for _, p := range c.Providers {
		name := builderField(p.Name)
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s%d", name, n+1)
		}
		used[builderField(p.Name)]++
		c.fields[p] = name
	}
	return c
}

// Mappings resolves the fields of s, caching the result for the round.
func (c *Context) Mappings(s *schema.Schema) ([]*Mapping, error) {
	if ms, ok := c.mappings[s]; ok {
		return ms, nil
	}
	ms, err := MapSchema(s, c.Providers)
	if err != nil {
		return nil, err
	}
	c.mappings[s] = ms
	return ms, nil
}

// ProviderField returns the field of the generated converter set holding p.
func (c *Context) ProviderField(p *schema.ConverterProvider) string {
	return c.fields[p]
}

// UsedProviders returns the user providers referenced by any schema of the
// round, in declaration order. Schemas that fail to map are skipped.
func (c *Context) UsedProviders() []*schema.ConverterProvider {
	used := make(map[*schema.ConverterProvider]bool)
	for _, s := range c.Schemas {
		ms, err := c.Mappings(s)
		if err != nil {
			continue
		}
		for _, m := range ms {
			if m.Converter == nil {
				continue
			}
			used[m.Converter.EncodeWith] = true
			used[m.Converter.DecodeWith] = true
		}
	}
	var out []*schema.ConverterProvider
	for _, p := range c.Providers {
		if used[p] {
			out = append(out, p)
		}
	}
	return out
}

// Unresolved returns the schemas of the round with unresolved field types.
func (c *Context) Unresolved() []*schema.Schema {
	var out []*schema.Schema
	for _, s := range c.Schemas {
		if len(s.Unresolved()) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Sources returns the files a generated file for s depends on: the schema
// file and every converter provider file. Nil s returns the files of all
// schemas.
func (c *Context) Sources(s *schema.Schema) []string {
	var files []string
	if s != nil {
		files = append(files, s.File)
	} else {
		for _, s := range c.Schemas {
			files = append(files, s.File)
		}
	}
	for _, p := range c.Providers {
		files = append(files, p.File)
	}
	slices.Sort(files)
	return slices.Compact(files)
}

// NewFile returns a file of the generated package carrying the header and a
// Source line naming sources relative to the target directory.
func (c *Context) NewFile(sources []string) *jen.File {
	f := jen.NewFilePathName(c.Config.Package, c.Config.PkgName())
	f.HeaderComment(c.Config.Header)
	rel := make([]string, len(sources))
	for i, src := range sources {
		rel[i] = c.relative(src)
	}
	f.HeaderComment("Source: " + strings.Join(rel, ", "))
	f.ImportName(prefkitPkg, "prefkit")
	f.ImportName(kvPkg, "kv")
	return f
}

func (c *Context) relative(file string) string {
	target, err := filepath.Abs(c.Config.Target)
	if err != nil {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(target, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// unresolvedError defers sym until every schema of the round is resolved.
func unresolvedError(pending []*schema.Schema) error {
	names := make([]string, len(pending))
	for i, s := range pending {
		names[i] = s.Name
	}
	return fmt.Errorf("%w: waiting for %s", ErrUnresolved, strings.Join(names, ", "))
}
