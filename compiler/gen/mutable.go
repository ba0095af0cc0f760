package gen

import (
	"github.com/dave/jennifer/jen"
)

// mutableStep emits the write-only builder interface of each schema.
type mutableStep struct{}

func (mutableStep) Name() string { return "mutable" }

func (mutableStep) Symbols(c *Context) []Symbol {
	syms := make([]Symbol, len(c.Schemas))
	for i, s := range c.Schemas {
		syms[i] = schemaSymbol(s)
	}
	return syms
}

func (mutableStep) Generate(c *Context, sym Symbol) error {
	s := sym.Schema
	if _, err := c.Mappings(s); err != nil {
		return err
	}
	n := namesOf(s)
	f := c.NewFile(c.Sources(s))
	methods := make([]jen.Code, 0, len(s.Fields)+1)
	for _, fd := range s.Fields {
		methods = append(methods,
			jen.Comment("Set"+fd.Name+" sets the "+fd.Name+" field."),
			jen.Id("Set"+fd.Name).Params(jen.Id("v").Add(typeCode(fd.Type))).Id(n.MutableType),
		)
	}
	methods = append(methods,
		jen.Comment("ToImmutable returns the current snapshot with the assigned fields replaced."),
		jen.Id("ToImmutable").Params().Op("*").Add(n.Model),
	)
	f.Commentf("%s collects changes to %s. It is write-only: pass it to", n.MutableType, s.Name)
	f.Commentf("%s.Update to persist the assigned fields.", n.Facade)
	f.Type().Id(n.MutableType).Interface(methods...)
	return c.Sink.Add(fileName("mutable", s.Name), f, c.Sources(s)...)
}
