package load

import (
	"go/constant"
	"go/types"

	"github.com/prefkit/prefkit/schema"
)

// typeConverter turns go/types types into schema.TypeRefs. It caches the
// enum and marshaler facts computed for named types.
type typeConverter struct {
	enums    map[*types.TypeName]*schema.Enum
	marshals map[*types.TypeName]schema.MarshalMode
}

func newTypeConverter() *typeConverter {
	return &typeConverter{
		enums:    make(map[*types.TypeName]*schema.Enum),
		marshals: make(map[*types.TypeName]schema.MarshalMode),
	}
}

// typeRef converts t. Types that failed to type-check are marked Unresolved.
func (c *typeConverter) typeRef(t types.Type) *schema.TypeRef {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		if t.Kind() == types.Invalid {
			return &schema.TypeRef{Kind: schema.KindNamed, Unresolved: true}
		}
		// byte and rune are aliases; use the canonical name.
		return schema.Basic(types.Typ[t.Kind()].Name())
	case *types.Named:
		obj := t.Obj()
		ref := &schema.TypeRef{Kind: schema.KindNamed, Name: obj.Name()}
		if obj.Pkg() != nil {
			ref.PkgPath = obj.Pkg().Path()
		}
		if args := t.TypeArgs(); args != nil {
			for i := range args.Len() {
				ref.Args = append(ref.Args, c.typeRef(args.At(i)))
			}
		}
		if isInvalid(t.Underlying()) {
			ref.Unresolved = true
			return ref
		}
		ref.Enum = c.enum(t)
		ref.Marshal = c.marshal(t)
		return ref
	case *types.Pointer:
		return schema.Pointer(c.typeRef(t.Elem()))
	case *types.Slice:
		return schema.Slice(c.typeRef(t.Elem()))
	case *types.Array:
		return &schema.TypeRef{Kind: schema.KindArray, Len: t.Len(), Args: []*schema.TypeRef{c.typeRef(t.Elem())}}
	case *types.Map:
		return &schema.TypeRef{Kind: schema.KindMap, Args: []*schema.TypeRef{c.typeRef(t.Key()), c.typeRef(t.Elem())}}
	default:
		return &schema.TypeRef{Kind: schema.KindOther, Name: types.TypeString(t, nil)}
	}
}

func isInvalid(t types.Type) bool {
	b, ok := t.(*types.Basic)
	return ok && b.Kind() == types.Invalid
}

// enum reports whether t is a named integer type whose package declares typed
// constants with exactly the values 0..n-1.
func (c *typeConverter) enum(t *types.Named) *schema.Enum {
	obj := t.Obj()
	if e, ok := c.enums[obj]; ok {
		return e
	}
	c.enums[obj] = nil
	b, ok := t.Underlying().(*types.Basic)
	if !ok || b.Info()&types.IsInteger == 0 || obj.Pkg() == nil || t.TypeArgs() != nil {
		return nil
	}
	seen := make(map[int64]bool)
	scope := obj.Pkg().Scope()
	for _, name := range scope.Names() {
		cst, ok := scope.Lookup(name).(*types.Const)
		if !ok || !types.Identical(cst.Type(), t) {
			continue
		}
		v, exact := constant.Int64Val(constant.ToInt(cst.Val()))
		if !exact || seen[v] {
			return nil
		}
		seen[v] = true
	}
	if len(seen) == 0 {
		return nil
	}
	for i := range int64(len(seen)) {
		if !seen[i] {
			return nil
		}
	}
	e := &schema.Enum{Size: len(seen)}
	c.enums[obj] = e
	return e
}

// marshal reports how t implements encoding.BinaryMarshaler, given that *t
// implements encoding.BinaryUnmarshaler.
func (c *typeConverter) marshal(t *types.Named) schema.MarshalMode {
	obj := t.Obj()
	if m, ok := c.marshals[obj]; ok {
		return m
	}
	m := schema.MarshalNone
	ptr := types.NewPointer(t)
	if _, isIface := t.Underlying().(*types.Interface); !isIface && hasUnmarshal(ptr) {
		switch {
		case hasMarshal(t):
			m = schema.MarshalValue
		case hasMarshal(ptr):
			m = schema.MarshalPointer
		}
	}
	c.marshals[obj] = m
	return m
}

func hasMarshal(t types.Type) bool {
	sig := lookupMethod(t, "MarshalBinary")
	return sig != nil &&
		sig.Params().Len() == 0 &&
		sig.Results().Len() == 2 &&
		isBytes(sig.Results().At(0).Type()) &&
		isError(sig.Results().At(1).Type())
}

func hasUnmarshal(t types.Type) bool {
	sig := lookupMethod(t, "UnmarshalBinary")
	return sig != nil &&
		sig.Params().Len() == 1 &&
		isBytes(sig.Params().At(0).Type()) &&
		sig.Results().Len() == 1 &&
		isError(sig.Results().At(0).Type())
}

func lookupMethod(t types.Type, name string) *types.Signature {
	sel := types.NewMethodSet(t).Lookup(nil, name)
	if sel == nil {
		return nil
	}
	sig, _ := sel.Type().(*types.Signature)
	return sig
}

func isBytes(t types.Type) bool {
	s, ok := types.Unalias(t).(*types.Slice)
	if !ok {
		return false
	}
	b, ok := types.Unalias(s.Elem()).(*types.Basic)
	return ok && b.Kind() == types.Uint8
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}
