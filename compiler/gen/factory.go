package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/prefkit/prefkit/schema"
)

// factoryStep emits the factory interface and its constructor. It waits for
// every schema of the round to be resolved.
type factoryStep struct{}

func (factoryStep) Name() string { return "factory" }

func (factoryStep) Symbols(c *Context) []Symbol {
	if len(c.Schemas) == 0 {
		return nil
	}
	return []Symbol{factorySymbol}
}

func (factoryStep) Generate(c *Context, _ Symbol) error {
	if pending := c.Unresolved(); len(pending) > 0 {
		return unresolvedError(pending)
	}
	f := c.NewFile(c.Sources(nil))
	methods := make([]jen.Code, 0, 2*len(c.Schemas))
	for _, s := range c.Schemas {
		methods = append(methods,
			jen.Commentf("%s returns the %s preferences.", s.Accessor, s.Name),
			jen.Id(s.Accessor).Params().Id(namesOf(s).Facade),
		)
	}
	f.Commentf("%s gives access to the preferences of every schema. Accessors", factoryIface)
	f.Comment("are created on first use and shared afterwards.")
	f.Type().Id(factoryIface).Interface(methods...)

	params := []jen.Code{jen.Id("opener").Qual(kvPkg, "Opener")}
	conv := jen.Dict{}
	for _, p := range c.UsedProviders() {
		field := c.ProviderField(p)
		if p.Stateless {
			conv[jen.Id(field)] = jen.Op("&").Qual(p.PkgPath, p.Name).Values()
			continue
		}
		param := paramName(c, field)
		params = append(params, jen.Id(param).Op("*").Qual(p.PkgPath, p.Name))
		conv[jen.Id(field)] = jen.Id(param)
	}
	f.Commentf("%s returns a %s opening its stores with opener.", factoryNew, factoryIface)
	f.Func().Id(factoryNew).Params(params...).Id(factoryIface).Block(
		jen.Return(jen.Op("&").Id(factoryImpl).Values(jen.Dict{
			jen.Id("opener"): jen.Id("opener"),
			jen.Id("conv"):   jen.Op("&").Id(converterSet).Values(conv),
		})),
	)
	return c.Sink.Add(fileName("preferences", "factory"), f, c.Sources(nil)...)
}

// paramName returns a parameter name for field that does not shadow a
// package imported by the generated code.
func paramName(c *Context, field string) string {
	imported := map[string]bool{
		"kv":      true,
		"prefkit": true,
		"sync":    true,
		"atomic":  true,
		"errors":  true,
		"time":    true,
	}
	for _, s := range c.Schemas {
		imported[s.PkgName] = true
	}
	for _, p := range c.Providers {
		imported[p.PkgName] = true
	}
	if imported[field] || field == "opener" {
		return field + "Conv"
	}
	return field
}

// factoryImplStep emits the factory implementation and the converter set
// shared by all accessors.
type factoryImplStep struct{}

func (factoryImplStep) Name() string { return "factory-impl" }

func (factoryImplStep) Symbols(c *Context) []Symbol {
	return factoryStep{}.Symbols(c)
}

func (factoryImplStep) Generate(c *Context, _ Symbol) error {
	if pending := c.Unresolved(); len(pending) > 0 {
		return unresolvedError(pending)
	}
	f := c.NewFile(c.Sources(nil))

	var fields []jen.Code
	for _, p := range c.UsedProviders() {
		fields = append(fields, jen.Id(c.ProviderField(p)).Op("*").Qual(p.PkgPath, p.Name))
	}
	f.Commentf("%s holds the type converters used by the accessors.", converterSet)
	f.Type().Id(converterSet).Struct(fields...)

	factoryFields := []jen.Code{
		jen.Id("opener").Qual(kvPkg, "Opener"),
		jen.Id("conv").Op("*").Id(converterSet),
		jen.Line(),
		jen.Id("mu").Qual("sync", "Mutex"),
	}
	for _, s := range c.Schemas {
		impl := namesOf(s).FacadeImpl
		factoryFields = append(factoryFields, jen.Id(impl).Qual("sync/atomic", "Pointer").Types(jen.Id(impl)))
	}
	f.Commentf("%s implements %s.", factoryImpl, factoryIface)
	f.Type().Id(factoryImpl).Struct(factoryFields...)
	f.Var().Id("_").Id(factoryIface).Op("=").Parens(jen.Op("*").Id(factoryImpl)).Call(jen.Nil())

	for _, s := range c.Schemas {
		accessor(f, s)
	}
	return c.Sink.Add(fileName("preferences", "factory", "impl"), f, c.Sources(nil)...)
}

// accessor emits the lazily initialized accessor of s.
func accessor(f *jen.File, s *schema.Schema) {
	n := namesOf(s)
	cached := func() *jen.Statement { return jen.Id("f").Dot(n.FacadeImpl) }
	load := func() jen.Code {
		return jen.If(jen.Id("p").Op(":=").Add(cached()).Dot("Load").Call(), jen.Id("p").Op("!=").Nil()).Block(
			jen.Return(jen.Id("p")),
		)
	}
	f.Func().Params(jen.Id("f").Op("*").Id(factoryImpl)).Id(s.Accessor).Params().Id(n.Facade).Block(
		load(),
		jen.Id("f").Dot("mu").Dot("Lock").Call(),
		jen.Defer().Id("f").Dot("mu").Dot("Unlock").Call(),
		load(),
		jen.Id("p").Op(":=").Id(n.NewFacade).Call(jen.Id("f").Dot("opener"), jen.Id("f").Dot("conv")),
		cached().Dot("Store").Call(jen.Id("p")),
		jen.Return(jen.Id("p")),
	)
}
