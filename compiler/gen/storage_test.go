package gen

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefkit/prefkit"
	"github.com/prefkit/prefkit/kv"
	"github.com/prefkit/prefkit/schema"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		typ  *schema.TypeRef
		want *Storage
	}{
		{"bool", schema.Basic("bool"), StorageBool},
		{"int32", schema.Basic("int32"), StorageInt},
		{"int64", schema.Basic("int64"), StorageLong},
		{"float32", schema.Basic("float32"), StorageFloat},
		{"float64", schema.Basic("float64"), StorageDouble},
		{"bytes", schema.Slice(schema.Basic("uint8")), StorageBytes},
		{"string", schema.Basic("string"), StorageString},
		{"string set", schema.Named(prefkitPkg, "Set", schema.Basic("string")), StorageStringSet},
		{"pointer", schema.Pointer(schema.Basic("string")), StorageString},
		{"int", schema.Basic("int"), nil},
		{"named int64", schema.Named("time", "Duration"), nil},
		{"int set", schema.Named(prefkitPkg, "Set", schema.Basic("int32")), nil},
		{"string slice", schema.Slice(schema.Basic("string")), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.typ)
			assert.Equal(t, tt.want != nil, ok)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestStorageNativeNull(t *testing.T) {
	var native []string
	for _, s := range storages {
		if s.NativeNull {
			native = append(native, s.Name)
		}
	}
	assert.Equal(t, []string{"Bytes", "String", "StringSet"}, native)
}

// The generated code calls these methods on kv.Store.
func TestStorageMatchesStore(t *testing.T) {
	store := reflect.TypeOf((*kv.Store)(nil)).Elem()
	for _, s := range storages {
		t.Run(s.Name, func(t *testing.T) {
			enc, ok := store.MethodByName(s.Encode())
			require.True(t, ok, s.Encode())
			dec, ok := store.MethodByName(s.Decode())
			require.True(t, ok, s.Decode())
			assert.Equal(t, enc.Type.In(1), dec.Type.Out(0))
			assert.Equal(t, enc.Type.In(1), dec.Type.In(1))
			lookup, ok := store.MethodByName(s.Lookup())
			require.True(t, ok, s.Lookup())
			assert.Equal(t, enc.Type.In(1), lookup.Type.Out(0))
			assert.Equal(t, reflect.TypeOf(true), lookup.Type.Out(1))
		})
	}
	set, _ := store.MethodByName(StorageStringSet.Encode())
	assert.Equal(t, reflect.TypeOf(prefkit.Set[string]{}), set.Type.In(1))
}
