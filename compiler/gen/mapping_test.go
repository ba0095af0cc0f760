package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefkit/prefkit/schema"
)

func testSchema(fields ...*schema.Field) *schema.Schema {
	return &schema.Schema{
		Name:    "Settings",
		PkgPath: modelPkg,
		PkgName: "model",
		ID:      "Settings",
		Fields:  fields,
	}
}

func testField(name string, t *schema.TypeRef) *schema.Field {
	return &schema.Field{Name: name, Key: lowerFirst(name), Type: t}
}

func TestMapField(t *testing.T) {
	theme := schema.Named(modelPkg, "Theme")
	theme.Enum = &schema.Enum{Size: 3}
	point := schema.Named(modelPkg, "Point")
	point.Marshal = schema.MarshalPointer
	conv := provider("Converters",
		fn("DurationToLong", durationType, int64Type),
		fn("LongToDuration", int64Type, durationType),
	)

	tests := []struct {
		name    string
		typ     *schema.TypeRef
		kind    MappingKind
		storage *Storage
	}{
		{"direct", schema.Basic("int32"), MapDirect, StorageInt},
		{"nullable native", schema.Pointer(stringType), MapDirect, StorageString},
		{"string set", schema.Named(prefkitPkg, "Set", stringType), MapDirect, StorageStringSet},
		{"enum", theme, MapEnum, StorageInt},
		{"nullable enum", schema.Pointer(theme), MapEnum, StorageInt},
		{"marshal", point, MapMarshal, StorageBytes},
		{"nullable marshal", schema.Pointer(point), MapMarshal, StorageBytes},
		{"converter", durationType, MapConverter, StorageLong},
		{"builtin converter", schema.Pointer(schema.Basic("bool")), MapConverter, StorageInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testField("Value", tt.typ)
			m, err := MapField(testSchema(f), f, []*schema.ConverterProvider{conv})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, m.Kind, m.Kind.String())
			assert.Same(t, tt.storage, m.Storage)
			assert.Same(t, f, m.Field)
			assert.Equal(t, tt.typ.Nullable(), m.Nullable())
			assert.True(t, m.Elem().Equal(tt.typ.NonNull()))
		})
	}

	t.Run("enum size", func(t *testing.T) {
		f := testField("Theme", theme)
		m, err := MapField(testSchema(f), f, nil)
		require.NoError(t, err)
		require.NotNil(t, m.Enum)
		assert.Equal(t, 3, m.Enum.Size)
	})

	t.Run("no storage", func(t *testing.T) {
		f := testField("Level", schema.Basic("int"))
		_, err := MapField(testSchema(f), f, nil)
		require.Error(t, err)
		assert.True(t, IsSchemaError(err))
		assert.False(t, IsUnresolved(err))
		assert.Contains(t, err.Error(), "field Level")
		assert.Contains(t, err.Error(), "no storage for type int")
	})

	t.Run("unresolved", func(t *testing.T) {
		f := testField("Profile", &schema.TypeRef{Kind: schema.KindNamed, Name: "GeneratedID", Unresolved: true})
		_, err := MapField(testSchema(f), f, nil)
		require.Error(t, err)
		assert.True(t, IsUnresolved(err))
		assert.Contains(t, err.Error(), "GeneratedID")
	})

	t.Run("converter overrides marshaler", func(t *testing.T) {
		date := schema.Named("time", "Time")
		date.Marshal = schema.MarshalValue
		dates := provider("Converters",
			fn("DateToLong", date, int64Type),
			fn("LongToDate", int64Type, date),
		)
		f := testField("Created", date)
		m, err := MapField(testSchema(f), f, []*schema.ConverterProvider{dates})
		require.NoError(t, err)
		assert.Equal(t, MapConverter, m.Kind)
		assert.Same(t, StorageLong, m.Storage)
		assert.Equal(t, "LongToDate", m.Converter.Decoder.Name)

		m, err = MapField(testSchema(f), f, nil)
		require.NoError(t, err)
		assert.Equal(t, MapMarshal, m.Kind)
	})

	t.Run("converter error", func(t *testing.T) {
		bad := provider("Bad",
			fn("ToLong", durationType, schema.Pointer(int64Type)),
			fn("FromLong", schema.Pointer(int64Type), durationType),
		)
		f := testField("Timeout", durationType)
		_, err := MapField(testSchema(f), f, []*schema.ConverterProvider{bad})
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestMapSchema(t *testing.T) {
	t.Run("maps all fields", func(t *testing.T) {
		s := testSchema(
			testField("Enabled", schema.Basic("bool")),
			testField("Name", stringType),
		)
		ms, err := MapSchema(s, nil)
		require.NoError(t, err)
		require.Len(t, ms, 2)
		assert.Equal(t, "Enabled", ms[0].Field.Name)
		assert.Equal(t, "Name", ms[1].Field.Name)
	})

	t.Run("joins errors", func(t *testing.T) {
		s := testSchema(
			testField("A", schema.Basic("int")),
			testField("B", schema.Basic("uint")),
		)
		_, err := MapSchema(s, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field A")
		assert.Contains(t, err.Error(), "field B")
	})

	t.Run("unresolved errors only", func(t *testing.T) {
		s := testSchema(
			testField("A", schema.Basic("int")),
			testField("B", &schema.TypeRef{Kind: schema.KindNamed, Name: "Later", Unresolved: true}),
		)
		_, err := MapSchema(s, nil)
		require.Error(t, err)
		assert.True(t, IsUnresolved(err))
		assert.NotContains(t, err.Error(), "field A")
	})
}

func TestMappingKindString(t *testing.T) {
	assert.Equal(t, "direct", MapDirect.String())
	assert.Equal(t, "converter", MapConverter.String())
	assert.Equal(t, "MappingKind(9)", MappingKind(9).String())
}
