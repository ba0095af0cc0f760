package gen

import (
	"fmt"
	"strings"

	"github.com/prefkit/prefkit/schema"
)

// ConverterPair pairs the encoder and decoder of a field type.
type ConverterPair struct {
	Encoder    *schema.ConverterFunc
	EncodeWith *schema.ConverterProvider
	Decoder    *schema.ConverterFunc
	DecodeWith *schema.ConverterProvider
	// Storage is the kind of the encoder result.
	Storage *Storage
	// Nullable reports whether the encoder returns a pointer. The pointer
	// kind is always NativeNull.
	Nullable bool
}

// builtinProvider converts the nullable numeric types that the store cannot
// represent natively.
var builtinProvider = func() *schema.ConverterProvider {
	fn := func(name string, param, result *schema.TypeRef) *schema.ConverterFunc {
		return &schema.ConverterFunc{
			Name:     name,
			Exported: true,
			Params:   []*schema.TypeRef{param},
			Results:  []*schema.TypeRef{result},
		}
	}
	var (
		bytes = schema.Slice(schema.Basic("uint8"))
		pair  = func(kind, goType string, enc *schema.TypeRef) []*schema.ConverterFunc {
			nullable := schema.Pointer(schema.Basic(goType))
			return []*schema.ConverterFunc{
				fn("EncodeNullable"+kind, nullable, enc),
				fn("DecodeNullable"+kind, enc, nullable),
			}
		}
		funcs []*schema.ConverterFunc
	)
	funcs = append(funcs, pair("Bool", "bool", schema.Basic("int32"))...)
	funcs = append(funcs, pair("Int", "int32", schema.Basic("int64"))...)
	funcs = append(funcs, pair("Long", "int64", bytes)...)
	funcs = append(funcs, pair("Float", "float32", bytes)...)
	funcs = append(funcs, pair("Double", "float64", bytes)...)
	return &schema.ConverterProvider{
		Name:      "builtin",
		PkgPath:   prefkitPkg,
		PkgName:   "prefkit",
		Stateless: true,
		Builtin:   true,
		Funcs:     funcs,
	}
}()

type candidate struct {
	provider *schema.ConverterProvider
	fn       *schema.ConverterFunc
}

func (c candidate) String() string {
	return c.provider.QualifiedName() + "." + c.fn.Name
}

// FindConverter searches providers for an encoder taking t and returning a
// storage kind, and a decoder returning t from that kind. User providers take
// precedence over the built-in nullable converters. A nil ConverterPair with a
// nil error means no pair exists.
func FindConverter(t *schema.TypeRef, providers []*schema.ConverterProvider) (*ConverterPair, error) {
	c, err := findConverter(t, providers)
	if c != nil || err != nil {
		return c, err
	}
	return findConverter(t, []*schema.ConverterProvider{builtinProvider})
}

func findConverter(t *schema.TypeRef, providers []*schema.ConverterProvider) (*ConverterPair, error) {
	var encs, decs []candidate
	for _, p := range providers {
		for _, f := range p.Funcs {
			if !f.Exported || !f.Unary() {
				continue
			}
			if f.Params[0].Equal(t) {
				if _, ok := Resolve(f.Results[0]); ok {
					encs = append(encs, candidate{p, f})
				}
			}
			if f.Results[0].Equal(t) {
				decs = append(decs, candidate{p, f})
			}
		}
	}
	switch {
	case len(encs) == 0:
		return nil, nil
	case len(encs) > 1:
		return nil, ambiguous(t, "encoders", encs)
	}
	enc := encs[0]
	result := enc.fn.Results[0]
	var matched []candidate
	for _, d := range decs {
		if d.fn.Params[0].Equal(result) {
			matched = append(matched, d)
		}
	}
	switch {
	case len(matched) == 0:
		return nil, nil
	case len(matched) > 1:
		return nil, ambiguous(t, "decoders", matched)
	}
	st, _ := Resolve(result)
	if result.Nullable() && !st.NativeNull {
		return nil, NewConfigError("Converters", enc.String(),
			fmt.Sprintf("encoder result %s is nullable but %s values cannot be absent", result, strings.ToLower(st.Name)))
	}
	dec := matched[0]
	return &ConverterPair{
		Encoder:    enc.fn,
		EncodeWith: enc.provider,
		Decoder:    dec.fn,
		DecodeWith: dec.provider,
		Storage:    st,
		Nullable:   result.Nullable(),
	}, nil
}

func ambiguous(t *schema.TypeRef, what string, cs []candidate) error {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.String()
	}
	return NewConfigError("Converters", t.String(),
		fmt.Sprintf("ambiguous %s: %s", what, strings.Join(names, ", ")))
}
