package schema

// ConverterProvider is a type whose methods convert between a field type and
// a primitive storage kind.
type ConverterProvider struct {
	Name    string
	PkgPath string
	PkgName string
	File    string
	Pos     string

	// Stateless providers are empty structs instantiated by generated code.
	// Other providers are passed to the generated factory constructor.
	Stateless bool
	// Builtin providers expose package-level functions instead of methods.
	Builtin bool

	Funcs []*ConverterFunc
}

// ConverterFunc is a method (or, for built-in providers, a function) of a
// provider.
type ConverterFunc struct {
	Name     string
	Exported bool
	Params   []*TypeRef
	Results  []*TypeRef
}

// Unary reports whether f takes exactly one argument and returns one value.
func (f *ConverterFunc) Unary() bool {
	return len(f.Params) == 1 && len(f.Results) == 1
}

// QualifiedName returns the package-qualified name of the provider.
func (p *ConverterProvider) QualifiedName() string {
	return p.PkgPath + "." + p.Name
}
