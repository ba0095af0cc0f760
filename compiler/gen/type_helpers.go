package gen

import (
	"go/token"
	"strings"
	"time"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/prefkit/prefkit/compiler/load"
	"github.com/prefkit/prefkit/schema"
)

// Import paths referenced by generated code.
const (
	prefkitPkg = "github.com/prefkit/prefkit"
	kvPkg      = "github.com/prefkit/prefkit/kv"
)

// Names of the package-level symbols of the generated factory.
const (
	factoryIface = "PreferencesFactory"
	factoryImpl  = "preferencesFactory"
	factoryNew   = "NewPreferencesFactory"
	converterSet = "converterSet"
)

// privateField holds the fields of generated structs that user-derived
// names must not shadow.
var privateField = map[string]struct{}{
	"opener": {},
	"conv":   {},
	"mu":     {},
}

// lowerFirst returns name with its leading initialism lowered.
func lowerFirst(name string) string {
	return load.DefaultKey(name)
}

// builderField returns the struct field for the given name
// and ensures it doesn't conflict with Go keywords and other
// generated fields, and it is not exported.
func builderField(name string) string {
	name = lowerFirst(name)
	_, ok := privateField[name]
	if ok || token.Lookup(name).IsKeyword() || strings.ToUpper(name[:1]) == name[:1] {
		return "_" + name
	}
	return name
}

// fileName returns the snake_case file name for a Go identifier.
func fileName(parts ...string) string {
	for i, p := range parts {
		parts[i] = inflect.Underscore(p)
	}
	return strings.Join(parts, "_") + ".go"
}

// schemaNames are the generated identifiers derived from one schema.
type schemaNames struct {
	Model       jen.Code // The schema type
	MutableType string   // Builder interface
	MutableImpl string   // Builder implementation
	Facade      string   // Accessor interface
	FacadeImpl  string   // Accessor implementation
	NewFacade   string   // Accessor constructor
	DefaultFunc string   // Default instance constructor
}

func namesOf(s *schema.Schema) schemaNames {
	return schemaNames{
		Model:       jen.Qual(s.PkgPath, s.Name),
		MutableType: "Mutable" + s.Name,
		MutableImpl: "mutable" + s.Name,
		Facade:      s.Name + "Preferences",
		FacadeImpl:  lowerFirst(s.Name) + "Preferences",
		NewFacade:   "new" + s.Name + "Preferences",
		DefaultFunc: "default" + s.Name,
	}
}

// typeCode renders a type reference.
func typeCode(t *schema.TypeRef) *jen.Statement {
	switch t.Kind {
	case schema.KindBasic:
		if t.Name == "uint8" {
			return jen.Byte()
		}
		return jen.Id(t.Name)
	case schema.KindNamed:
		var s *jen.Statement
		if t.PkgPath == "" {
			s = jen.Id(t.Name)
		} else {
			s = jen.Qual(t.PkgPath, t.Name)
		}
		if len(t.Args) > 0 {
			args := make([]jen.Code, len(t.Args))
			for i, a := range t.Args {
				args[i] = typeCode(a)
			}
			s = s.Types(args...)
		}
		return s
	case schema.KindPointer:
		return jen.Op("*").Add(typeCode(t.Args[0]))
	case schema.KindSlice:
		return jen.Index().Add(typeCode(t.Args[0]))
	case schema.KindArray:
		return jen.Index(jen.Lit(int(t.Len))).Add(typeCode(t.Args[0]))
	case schema.KindMap:
		return jen.Map(typeCode(t.Args[0])).Add(typeCode(t.Args[1]))
	default:
		return jen.Id(t.Name)
	}
}

// durationCode renders d using the largest time unit that divides it.
func durationCode(d time.Duration) jen.Code {
	units := []struct {
		unit time.Duration
		name string
	}{
		{time.Hour, "Hour"},
		{time.Minute, "Minute"},
		{time.Second, "Second"},
		{time.Millisecond, "Millisecond"},
	}
	for _, u := range units {
		if d%u.unit == 0 {
			return jen.Lit(int(d / u.unit)).Op("*").Qual("time", u.name)
		}
	}
	return jen.Qual("time", "Duration").Call(jen.Lit(int(d)))
}
