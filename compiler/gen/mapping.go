package gen

import (
	"errors"
	"fmt"

	"github.com/prefkit/prefkit/schema"
)

// MappingKind tells how a field is stored.
type MappingKind uint8

// Mapping kinds, in resolution order.
const (
	MapDirect    MappingKind = iota // The field type is a storage kind
	MapEnum                         // Ordinal stored as Int
	MapConverter                    // Converted by a type converter
	MapMarshal                      // BinaryMarshaler stored as Bytes
)

var mappingNames = [...]string{
	MapDirect:    "direct",
	MapEnum:      "enum",
	MapConverter: "converter",
	MapMarshal:   "marshal",
}

func (k MappingKind) String() string {
	if int(k) < len(mappingNames) {
		return mappingNames[k]
	}
	return fmt.Sprintf("MappingKind(%d)", k)
}

// Mapping is the resolved storage of one field.
type Mapping struct {
	Field     *schema.Field
	Kind      MappingKind
	Storage   *Storage
	Enum      *schema.Enum   // MapEnum only
	Converter *ConverterPair // MapConverter only
}

// Nullable reports whether the field type is a pointer.
func (m *Mapping) Nullable() bool {
	return m.Field.Type.Nullable()
}

// Elem returns the field type without its pointer.
func (m *Mapping) Elem() *schema.TypeRef {
	return m.Field.Type.NonNull()
}

// MapField resolves the storage of f. Direct kinds win, then enums, then
// converters, then binary marshalers. A declared converter overrides the
// marshaler of types such as time.Time. An unresolved field type returns an
// error wrapping ErrUnresolved.
func MapField(s *schema.Schema, f *schema.Field, providers []*schema.ConverterProvider) (*Mapping, error) {
	t := f.Type
	if t.IsUnresolved() {
		return nil, NewSchemaError(s.Name, f.Name, "type "+t.String()+" is not known yet", ErrUnresolved)
	}
	m := &Mapping{Field: f}
	if st, ok := Resolve(t); ok && (!t.Nullable() || st.NativeNull) {
		m.Kind, m.Storage = MapDirect, st
		return m, nil
	}
	elem := t.NonNull()
	if elem.Kind == schema.KindNamed && elem.Enum != nil {
		m.Kind, m.Storage, m.Enum = MapEnum, StorageInt, elem.Enum
		return m, nil
	}
	conv, err := FindConverter(t, providers)
	if err != nil {
		return nil, err
	}
	switch {
	case conv != nil:
		m.Kind, m.Storage, m.Converter = MapConverter, conv.Storage, conv
	case elem.Kind == schema.KindNamed && elem.Marshal != schema.MarshalNone:
		m.Kind, m.Storage = MapMarshal, StorageBytes
	default:
		return nil, NewSchemaError(s.Name, f.Name,
			fmt.Sprintf("no storage for type %s: declare a //prefkit:converters provider with an encoder and decoder", t), nil)
	}
	return m, nil
}

// MapSchema resolves every field of s. If any field type is unresolved, only
// those errors are returned so the caller can defer s.
func MapSchema(s *schema.Schema, providers []*schema.ConverterProvider) ([]*Mapping, error) {
	var (
		out        []*Mapping
		errs       []error
		unresolved []error
	)
	for _, f := range s.Fields {
		m, err := MapField(s, f, providers)
		switch {
		case err == nil:
			out = append(out, m)
		case errors.Is(err, ErrUnresolved):
			unresolved = append(unresolved, err)
		default:
			errs = append(errs, err)
		}
	}
	if len(unresolved) > 0 {
		return nil, errors.Join(unresolved...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
