package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/prefkit/prefkit/schema"
)

// facadeImplStep emits the builder and accessor implementations of each
// schema.
type facadeImplStep struct{}

func (facadeImplStep) Name() string { return "facade-impl" }

func (facadeImplStep) Symbols(c *Context) []Symbol {
	return mutableStep{}.Symbols(c)
}

func (facadeImplStep) Generate(c *Context, sym Symbol) error {
	s := sym.Schema
	ms, err := c.Mappings(s)
	if err != nil {
		return err
	}
	defaults := jen.Dict{}
	for _, fd := range s.Fields {
		code, err := defaultCode(s, fd.Default)
		if err != nil {
			return NewSchemaError(s.Name, fd.Name, "default value "+fd.Default.Text, err)
		}
		defaults[jen.Id(fd.Name)] = code
	}
	e := &facadeEmitter{c: c, s: s, n: namesOf(s), ms: ms}
	f := c.NewFile(c.Sources(s))
	e.diff(f)
	e.facade(f, defaults)
	return c.Sink.Add(fileName(s.Name, "preferences", "impl"), f, c.Sources(s)...)
}

type facadeEmitter struct {
	c  *Context
	s  *schema.Schema
	n  schemaNames
	ms []*Mapping
}

func (e *facadeEmitter) model() *jen.Statement {
	return jen.Qual(e.s.PkgPath, e.s.Name)
}

// diff emits the concrete builder.
func (e *facadeEmitter) diff(f *jen.File) {
	n := e.n
	recv := func() jen.Code { return jen.Id("m").Op("*").Id(n.MutableImpl) }
	f.Commentf("%s records the fields assigned since it was created from base.", n.MutableImpl)
	f.Type().Id(n.MutableImpl).Struct(
		jen.Id("base").Op("*").Add(e.model()),
		jen.Id("values").Add(e.model()),
		jen.Id("changed").Index(jen.Lit(len(e.s.Fields))).Bool(),
	)
	f.Var().Id("_").Id(n.MutableType).Op("=").Parens(jen.Op("*").Id(n.MutableImpl)).Call(jen.Nil())
	for i, fd := range e.s.Fields {
		f.Func().Params(recv()).Id("Set"+fd.Name).Params(jen.Id("v").Add(typeCode(fd.Type))).Id(n.MutableType).Block(
			jen.Id("m").Dot("values").Dot(fd.Name).Op("=").Id("v"),
			jen.Id("m").Dot("changed").Index(jen.Lit(i)).Op("=").True(),
			jen.Return(jen.Id("m")),
		)
	}
	f.Func().Params(recv()).Id("ToImmutable").Params().Op("*").Add(e.model()).Block(
		jen.Return(jen.Id("m").Dot("apply").Call(jen.Id("m").Dot("base"))),
	)
	apply := []jen.Code{jen.Id("v").Op(":=").Op("*").Id("base")}
	for i, fd := range e.s.Fields {
		apply = append(apply, jen.If(jen.Id("m").Dot("changed").Index(jen.Lit(i))).Block(
			jen.Id("v").Dot(fd.Name).Op("=").Id("m").Dot("values").Dot(fd.Name),
		))
	}
	apply = append(apply, jen.Return(jen.Op("&").Id("v")))
	f.Comment("apply returns a copy of base with the assigned fields replaced.")
	f.Func().Params(recv()).Id("apply").Params(jen.Id("base").Op("*").Add(e.model())).Op("*").Add(e.model()).Block(apply...)
}

// facade emits the accessor implementation.
func (e *facadeEmitter) facade(f *jen.File, defaults jen.Dict) {
	n := e.n
	recv := func() jen.Code { return jen.Id("p").Op("*").Id(n.FacadeImpl) }
	snapshot := func() jen.Code { return jen.Op("*").Add(e.model()) }

	fields := []jen.Code{
		jen.Id("store").Qual(kvPkg, "Store"),
		jen.Id("conv").Op("*").Id(converterSet),
		jen.Line(),
		jen.Id("mu").Qual("sync", "Mutex"),
		jen.Id("instance").Qual("sync/atomic", "Pointer").Types(e.model()),
		jen.Id("state").Qual("sync/atomic", "Pointer").Types(jen.Qual(prefkitPkg, "State").Types(snapshot())),
	}
	if e.persists() {
		fields = append(fields, jen.Id("persistErr").Error().Comment("failed default writes, returned by the next Update"))
	}
	f.Commentf("%s implements %s over a kv.Store.", n.FacadeImpl, n.Facade)
	f.Type().Id(n.FacadeImpl).Struct(fields...)
	f.Var().Id("_").Id(n.Facade).Op("=").Parens(jen.Op("*").Id(n.FacadeImpl)).Call(jen.Nil())

	opts := jen.Dict{jen.Id("ID"): jen.Lit(e.s.ID)}
	if e.s.Expire > 0 {
		opts[jen.Id("Expire")] = durationCode(e.s.Expire)
	}
	if e.s.CryptKey != "" {
		opts[jen.Id("CryptKey")] = jen.Lit(e.s.CryptKey)
	}
	f.Func().Id(n.NewFacade).Params(
		jen.Id("opener").Qual(kvPkg, "Opener"),
		jen.Id("conv").Op("*").Id(converterSet),
	).Op("*").Id(n.FacadeImpl).Block(
		jen.Return(jen.Op("&").Id(n.FacadeImpl).Values(jen.Dict{
			jen.Id("store"): jen.Id("opener").Dot("Store").Call(jen.Qual(kvPkg, "StoreOptions").Values(opts)),
			jen.Id("conv"):  jen.Id("conv"),
		})),
	)

	f.Commentf("%s returns the declared default values.", n.DefaultFunc)
	f.Func().Id(n.DefaultFunc).Params().Add(snapshot()).Block(
		jen.Return(jen.Op("&").Add(e.model()).Values(defaults)),
	)

	f.Func().Params(recv()).Id("Get").Params().Add(snapshot()).Block(
		jen.If(jen.Id("v").Op(":=").Id("p").Dot("instance").Dot("Load").Call(), jen.Id("v").Op("!=").Nil()).Block(
			jen.Return(jen.Id("v")),
		),
		jen.Id("p").Dot("mu").Dot("Lock").Call(),
		jen.Defer().Id("p").Dot("mu").Dot("Unlock").Call(),
		jen.Return(jen.Id("p").Dot("getLocked").Call()),
	)

	f.Comment("getLocked returns the cached snapshot, loading it if needed. p.mu must be held.")
	f.Func().Params(recv()).Id("getLocked").Params().Add(snapshot()).Block(
		jen.If(jen.Id("v").Op(":=").Id("p").Dot("instance").Dot("Load").Call(), jen.Id("v").Op("!=").Nil()).Block(
			jen.Return(jen.Id("v")),
		),
		jen.Id("v").Op(":=").Id("p").Dot("load").Call(),
		jen.Id("p").Dot("instance").Dot("Store").Call(jen.Id("v")),
		jen.Return(jen.Id("v")),
	)

	load := []jen.Code{jen.Id("v").Op(":=").Id(n.DefaultFunc).Call()}
	for _, m := range e.ms {
		load = append(load, jen.Id("p").Dot("read"+m.Field.Name).Call(jen.Id("v")))
	}
	load = append(load, jen.Return(jen.Id("v")))
	f.Comment("load reads every field from the store over fresh defaults. p.mu must be held.")
	f.Func().Params(recv()).Id("load").Params().Add(snapshot()).Block(load...)

	f.Func().Params(recv()).Id("Mutable").Params().Id(n.MutableType).Block(
		jen.Return(jen.Op("&").Id(n.MutableImpl).Values(jen.Dict{
			jen.Id("base"): jen.Id("p").Dot("Get").Call(),
		})),
	)

	e.update(f, recv, snapshot)

	f.Func().Params(recv()).Id("State").Params().Qual(prefkitPkg, "Observable").Types(snapshot()).Block(
		jen.If(jen.Id("s").Op(":=").Id("p").Dot("state").Dot("Load").Call(), jen.Id("s").Op("!=").Nil()).Block(
			jen.Return(jen.Id("s")),
		),
		jen.Id("p").Dot("mu").Dot("Lock").Call(),
		jen.Defer().Id("p").Dot("mu").Dot("Unlock").Call(),
		jen.If(jen.Id("s").Op(":=").Id("p").Dot("state").Dot("Load").Call(), jen.Id("s").Op("!=").Nil()).Block(
			jen.Return(jen.Id("s")),
		),
		jen.Id("s").Op(":=").Qual(prefkitPkg, "NewState").Call(jen.Id("p").Dot("getLocked").Call()),
		jen.Id("p").Dot("state").Dot("Store").Call(jen.Id("s")),
		jen.Return(jen.Id("s")),
	)

	f.Comment("publish replaces the cached snapshot and notifies observers. p.mu must be held.")
	f.Func().Params(recv()).Id("publish").Params(jen.Id("v").Add(snapshot())).Block(
		jen.Id("p").Dot("instance").Dot("Store").Call(jen.Id("v")),
		jen.If(jen.Id("s").Op(":=").Id("p").Dot("state").Dot("Load").Call(), jen.Id("s").Op("!=").Nil()).Block(
			jen.Id("s").Dot("Publish").Call(jen.Id("v")),
		),
	)

	for _, m := range e.ms {
		f.Func().Params(recv()).Id("read"+m.Field.Name).Params(jen.Id("v").Add(snapshot())).Block(e.read(m)...)
		f.Func().Params(recv()).Id("write"+m.Field.Name).Params(jen.Id("v").Add(snapshot())).Error().Block(e.write(m)...)
	}
}

// update emits Update. Stores are written outside the lock; the snapshot
// swap happens under it.
func (e *facadeEmitter) update(f *jen.File, recv, snapshot func() jen.Code) {
	n := e.n
	body := []jen.Code{
		jen.If(jen.Id("m").Op("==").Nil()).Block(jen.Return(jen.Nil())),
		jen.Var().Defs(
			jen.Id("errs").Index().Error(),
			jen.Id("src").Add(snapshot()),
		),
		jen.List(jen.Id("diff"), jen.Id("ok")).Op(":=").Id("m").Assert(jen.Op("*").Id(n.MutableImpl)),
		jen.If(jen.Id("ok")).Block(
			jen.Id("src").Op("=").Op("&").Id("diff").Dot("values"),
		).Else().Block(
			jen.Id("src").Op("=").Id("m").Dot("ToImmutable").Call(),
		),
	}
	for i, m := range e.ms {
		body = append(body, jen.If(jen.Op("!").Id("ok").Op("||").Id("diff").Dot("changed").Index(jen.Lit(i))).Block(
			jen.If(
				jen.Err().Op(":=").Id("p").Dot("write"+m.Field.Name).Call(jen.Id("src")),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Id("errs").Op("=").Append(jen.Id("errs"),
					jen.Qual(prefkitPkg, "NewUpdateError").Call(jen.Lit(e.s.Name), jen.Lit(m.Field.Name), jen.Err())),
			),
		))
	}
	body = append(body,
		jen.Id("p").Dot("mu").Dot("Lock").Call(),
		jen.Defer().Id("p").Dot("mu").Dot("Unlock").Call(),
	)
	if e.persists() {
		body = append(body,
			jen.Id("errs").Op("=").Append(jen.Id("errs"), jen.Id("p").Dot("persistErr")),
			jen.Id("p").Dot("persistErr").Op("=").Nil(),
		)
	}
	body = append(body,
		jen.If(jen.Err().Op(":=").Qual("errors", "Join").Call(jen.Id("errs").Op("...")), jen.Err().Op("!=").Nil()).Block(
			jen.Id("p").Dot("publish").Call(jen.Id("p").Dot("load").Call()),
			jen.Return(jen.Err()),
		),
		jen.Id("next").Op(":=").Id("src"),
		jen.If(jen.Id("ok")).Block(
			jen.Id("next").Op("=").Id("diff").Dot("apply").Call(jen.Id("p").Dot("getLocked").Call()),
		),
		jen.Id("p").Dot("publish").Call(jen.Id("next")),
		jen.Return(jen.Nil()),
	)
	f.Func().Params(recv()).Id("Update").Params(jen.Id("m").Id(n.MutableType)).Error().Block(body...)
}

func (e *facadeEmitter) store() *jen.Statement {
	return jen.Id("p").Dot("store")
}

// convCall calls fn of provider p on arg.
func (e *facadeEmitter) convCall(p *schema.ConverterProvider, fn *schema.ConverterFunc, arg jen.Code) *jen.Statement {
	if p.Builtin {
		return jen.Qual(p.PkgPath, fn.Name).Call(arg)
	}
	return jen.Id("p").Dot("conv").Dot(e.c.ProviderField(p)).Dot(fn.Name).Call(arg)
}

// persists reports whether a field of the schema writes its default on first read.
func (e *facadeEmitter) persists() bool {
	for _, m := range e.ms {
		if m.Field.Persist {
			return true
		}
	}
	return false
}

// read returns the body of the read method of m. v holds the default on
// entry and is only replaced by valid stored values. Absent, mismatched and
// undecryptable entries never reach a decoder.
func (e *facadeEmitter) read(m *Mapping) []jen.Code {
	var (
		fd     = m.Field
		key    = jen.Lit(fd.Key)
		dst    = func() *jen.Statement { return jen.Id("v").Dot(fd.Name) }
		st     = m.Storage
		body   []jen.Code
		lookup = func(name string) *jen.Statement {
			return jen.List(jen.Id(name), jen.Id("ok")).Op(":=").Add(e.store()).Dot(st.Lookup()).Call(key)
		}
	)
	if fd.Persist {
		body = append(body, jen.If(jen.Op("!").Add(e.store()).Dot("ContainsKey").Call(key)).Block(
			jen.If(
				jen.Err().Op(":=").Id("p").Dot("write"+fd.Name).Call(jen.Id("v")),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Id("p").Dot("persistErr").Op("=").Qual("errors", "Join").Call(
					jen.Id("p").Dot("persistErr"),
					jen.Qual(prefkitPkg, "NewUpdateError").Call(jen.Lit(e.s.Name), jen.Lit(fd.Name), jen.Err()),
				),
			),
		))
	}
	switch m.Kind {
	case MapDirect:
		if !m.Nullable() {
			return append(body, dst().Op("=").Add(e.store()).Dot(st.Decode()).Call(key, dst()))
		}
		return append(body, jen.If(lookup("x"), jen.Id("ok")).Block(
			dst().Op("=").Op("&").Id("x"),
		))
	case MapEnum:
		elem := typeCode(m.Elem())
		valid := jen.Qual(prefkitPkg, "ValidOrdinal").Call(jen.Id("o"), jen.Lit(m.Enum.Size))
		if !m.Nullable() {
			return append(body, jen.If(lookup("o"), jen.Id("ok").Op("&&").Add(valid)).Block(
				dst().Op("=").Add(elem).Call(jen.Id("o")),
			))
		}
		return append(body, jen.If(lookup("o"), jen.Id("ok")).Block(
			jen.If(jen.Id("o").Op("==").Qual(prefkitPkg, "NullOrdinal")).Block(
				dst().Op("=").Nil(),
			).Else().If(valid).Block(
				jen.Id("x").Op(":=").Add(elem).Call(jen.Id("o")),
				dst().Op("=").Op("&").Id("x"),
			),
		))
	case MapMarshal:
		elem := typeCode(m.Elem())
		if !m.Nullable() {
			return append(body,
				jen.Var().Id("x").Add(elem),
				jen.If(e.store().Dot("DecodeValue").Call(key, jen.Op("&").Id("x"))).Block(
					dst().Op("=").Id("x"),
				),
			)
		}
		return append(body,
			jen.Id("x").Op(":=").New(elem),
			jen.If(e.store().Dot("DecodeValue").Call(key, jen.Id("x"))).Block(
				dst().Op("=").Id("x"),
			),
		)
	case MapConverter:
		conv := m.Converter
		arg := jen.Id("x")
		if conv.Nullable {
			arg = jen.Op("&").Id("x")
		}
		return append(body, jen.If(lookup("x"), jen.Id("ok")).Block(
			dst().Op("=").Add(e.convCall(conv.DecodeWith, conv.Decoder, arg)),
		))
	}
	return body
}

// write returns the body of the write method of m.
func (e *facadeEmitter) write(m *Mapping) []jen.Code {
	var (
		fd  = m.Field
		key = jen.Lit(fd.Key)
		src = func() *jen.Statement { return jen.Id("v").Dot(fd.Name) }
		st  = m.Storage
	)
	remove := func() jen.Code { return jen.Return(e.store().Dot("Remove").Call(key)) }
	isNil := func() jen.Code { return src().Op("==").Nil() }
	switch m.Kind {
	case MapDirect:
		if !m.Nullable() {
			return []jen.Code{jen.Return(e.store().Dot(st.Encode()).Call(key, src()))}
		}
		return []jen.Code{
			jen.If(isNil()).Block(remove()),
			jen.Return(e.store().Dot(st.Encode()).Call(key, jen.Op("*").Add(src()))),
		}
	case MapEnum:
		if !m.Nullable() {
			return []jen.Code{jen.Return(e.store().Dot("EncodeInt").Call(key, jen.Int32().Call(src())))}
		}
		return []jen.Code{
			jen.If(isNil()).Block(
				jen.Return(e.store().Dot("EncodeInt").Call(key, jen.Qual(prefkitPkg, "NullOrdinal"))),
			),
			jen.Return(e.store().Dot("EncodeInt").Call(key, jen.Int32().Call(jen.Op("*").Add(src())))),
		}
	case MapMarshal:
		switch {
		case m.Nullable():
			return []jen.Code{
				jen.If(isNil()).Block(remove()),
				jen.Return(e.store().Dot("EncodeValue").Call(key, src())),
			}
		case m.Elem().Marshal == schema.MarshalPointer:
			return []jen.Code{jen.Return(e.store().Dot("EncodeValue").Call(key, jen.Op("&").Add(src())))}
		default:
			return []jen.Code{jen.Return(e.store().Dot("EncodeValue").Call(key, src()))}
		}
	case MapConverter:
		conv := m.Converter
		encoded := e.convCall(conv.EncodeWith, conv.Encoder, src())
		if !conv.Nullable {
			return []jen.Code{jen.Return(e.store().Dot(st.Encode()).Call(key, encoded))}
		}
		return []jen.Code{
			jen.If(jen.Id("r").Op(":=").Add(encoded), jen.Id("r").Op("!=").Nil()).Block(
				jen.Return(e.store().Dot(st.Encode()).Call(key, jen.Op("*").Id("r"))),
			),
			remove(),
		}
	}
	return []jen.Code{jen.Return(jen.Nil())}
}
