package schema

import (
	"slices"
	"strconv"
	"strings"
)

// TypeKind classifies a TypeRef.
type TypeKind uint8

// Type kinds.
const (
	KindInvalid TypeKind = iota
	KindBasic            // bool, int32, string, ...
	KindNamed            // a declared type, possibly instantiated
	KindPointer          // *Elem
	KindSlice            // []Elem
	KindArray            // [Len]Elem
	KindMap              // map[Key]Value
	KindOther            // func, chan, struct and interface literals
)

// MarshalMode tells how a type implements binary (un)marshaling.
type MarshalMode uint8

// Marshal modes.
const (
	MarshalNone    MarshalMode = iota
	MarshalValue               // T implements BinaryMarshaler
	MarshalPointer             // only *T implements BinaryMarshaler
)

// Enum describes a named integer type whose constants are exactly 0..Size-1.
type Enum struct {
	Size int
}

// TypeRef is a structural type reference.
type TypeRef struct {
	Kind    TypeKind
	PkgPath string // Named types only
	Name    string // Basic or named type name
	// Args holds the type arguments of a named type, the element of a
	// pointer, slice or array, or the key and value of a map.
	Args []*TypeRef
	Len  int64 // Arrays only

	Enum    *Enum
	Marshal MarshalMode
	// Unresolved marks a type that could not be resolved in this round.
	Unresolved bool
}

// Basic returns a reference to a predeclared type.
func Basic(name string) *TypeRef {
	return &TypeRef{Kind: KindBasic, Name: name}
}

// Named returns a reference to a declared type.
func Named(pkgPath, name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindNamed, PkgPath: pkgPath, Name: name, Args: args}
}

// Pointer returns a reference to *elem.
func Pointer(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindPointer, Args: []*TypeRef{elem}}
}

// Slice returns a reference to []elem.
func Slice(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindSlice, Args: []*TypeRef{elem}}
}

// Nullable reports whether the type is a pointer.
func (t *TypeRef) Nullable() bool {
	return t != nil && t.Kind == KindPointer
}

// Elem returns the element of a pointer, slice or array, or nil.
func (t *TypeRef) Elem() *TypeRef {
	switch t.Kind {
	case KindPointer, KindSlice, KindArray:
		return t.Args[0]
	}
	return nil
}

// NonNull strips one level of pointer.
func (t *TypeRef) NonNull() *TypeRef {
	if t.Nullable() {
		return t.Args[0]
	}
	return t
}

// IsBasic reports whether t is the predeclared type name.
func (t *TypeRef) IsBasic(name string) bool {
	return t != nil && t.Kind == KindBasic && t.Name == name
}

// Is reports whether t is the declared type pkgPath.name.
func (t *TypeRef) Is(pkgPath, name string) bool {
	return t != nil && t.Kind == KindNamed && t.PkgPath == pkgPath && t.Name == name
}

// IsUnresolved reports whether t or any type it refers to is unresolved.
func (t *TypeRef) IsUnresolved() bool {
	if t == nil || t.Kind == KindInvalid || t.Unresolved {
		return true
	}
	return slices.ContainsFunc(t.Args, (*TypeRef).IsUnresolved)
}

// Equal reports whether t and o have the same name, equal type arguments and
// the same nullability.
func (t *TypeRef) Equal(o *TypeRef) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.PkgPath != o.PkgPath || t.Name != o.Name || t.Len != o.Len {
		return false
	}
	return slices.EqualFunc(t.Args, o.Args, (*TypeRef).Equal)
}

// String returns the Go spelling of t with package paths in place of names.
func (t *TypeRef) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *TypeRef) write(b *strings.Builder) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	switch t.Kind {
	case KindBasic:
		if t.Name == "uint8" {
			b.WriteString("byte")
			return
		}
		b.WriteString(t.Name)
	case KindNamed:
		if t.PkgPath != "" {
			b.WriteString(t.PkgPath)
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteByte('[')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.write(b)
			}
			b.WriteByte(']')
		}
	case KindPointer:
		b.WriteByte('*')
		t.Args[0].write(b)
	case KindSlice:
		b.WriteString("[]")
		t.Args[0].write(b)
	case KindArray:
		b.WriteByte('[')
		b.WriteString(strconv.FormatInt(t.Len, 10))
		b.WriteByte(']')
		t.Args[0].write(b)
	case KindMap:
		b.WriteString("map[")
		t.Args[0].write(b)
		b.WriteByte(']')
		t.Args[1].write(b)
	default:
		if t.Name != "" {
			b.WriteString(t.Name)
		} else {
			b.WriteString("<invalid>")
		}
	}
}
