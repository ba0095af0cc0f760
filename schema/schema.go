package schema

import (
	"go/ast"
	"time"
)

// Schema is a preference record type.
type Schema struct {
	Name    string // Type name
	PkgPath string // Import path of the declaring package
	PkgName string // Name of the declaring package
	File    string // Originating source file
	Pos     string // file:line:col of the declaration

	// ID is the storage identifier. It defaults to Name.
	ID string
	// Accessor is the factory method name. It defaults to Name.
	Accessor string
	// Expire is the lifetime of written entries. Zero never expires.
	Expire time.Duration
	// CryptKey enables value encryption when not empty.
	CryptKey string

	Fields []*Field
}

// Field is a single setting of a Schema.
type Field struct {
	Name    string
	Key     string // Storage key
	Type    *TypeRef
	Persist bool // Write the default the first time the field is read
	Default *Default
	Pos     string
}

// Default is the default value expression of a field, written in the scope of
// the schema's package.
type Default struct {
	Text string
	Expr ast.Expr
	// Imports maps package identifiers in Expr to their import path.
	Imports map[*ast.Ident]string
	// Locals marks identifiers in Expr declared at the schema package level.
	Locals map[*ast.Ident]bool
}

// QualifiedName returns the package-qualified name of the schema.
func (s *Schema) QualifiedName() string {
	return s.PkgPath + "." + s.Name
}

// Field returns the field with the given name, or nil.
func (s *Schema) Field(name string) *Field {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Unresolved returns the fields whose type is not yet known.
func (s *Schema) Unresolved() []*Field {
	var out []*Field
	for _, f := range s.Fields {
		if f.Type.IsUnresolved() {
			out = append(out, f)
		}
	}
	return out
}
