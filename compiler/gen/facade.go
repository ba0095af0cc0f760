package gen

import (
	"github.com/dave/jennifer/jen"
)

// facadeStep emits the accessor interface of each schema.
type facadeStep struct{}

func (facadeStep) Name() string { return "facade" }

func (facadeStep) Symbols(c *Context) []Symbol {
	return mutableStep{}.Symbols(c)
}

func (facadeStep) Generate(c *Context, sym Symbol) error {
	s := sym.Schema
	if _, err := c.Mappings(s); err != nil {
		return err
	}
	n := namesOf(s)
	f := c.NewFile(c.Sources(s))
	f.Commentf("%s reads and writes %s values stored under %q.", n.Facade, s.Name, s.ID)
	f.Comment("Implementations are safe for concurrent use.")
	f.Type().Id(n.Facade).Interface(
		jen.Comment("Get returns the current snapshot. Missing or unreadable values are"),
		jen.Comment("replaced by their defaults."),
		jen.Id("Get").Params().Op("*").Add(n.Model),
		jen.Comment("Mutable returns a builder over the current snapshot."),
		jen.Id("Mutable").Params().Id(n.MutableType),
		jen.Comment("Update writes the fields assigned on m and refreshes the snapshot."),
		jen.Id("Update").Params(jen.Id("m").Id(n.MutableType)).Error(),
		jen.Comment("State returns an observable of the snapshot, updated on every Update."),
		jen.Id("State").Params().Qual(prefkitPkg, "Observable").Types(jen.Op("*").Add(n.Model)),
	)
	return c.Sink.Add(fileName(s.Name, "preferences"), f, c.Sources(s)...)
}
