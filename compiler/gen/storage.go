package gen

import (
	"github.com/prefkit/prefkit/schema"
)

// Storage is a primitive kind the key-value store encodes natively.
type Storage struct {
	Name string          // Method suffix on kv.Store, e.g. "Bool" for EncodeBool.
	Type *schema.TypeRef // Go type accepted and returned by the store.
	// NativeNull kinds have a representation for "absent" and may back a
	// nullable field directly.
	NativeNull bool
}

// Encode returns the name of the store method writing this kind.
func (s *Storage) Encode() string { return "Encode" + s.Name }

// Decode returns the name of the store method reading this kind with a default.
func (s *Storage) Decode() string { return "Decode" + s.Name }

// Lookup returns the name of the store method reading this kind with an ok result.
func (s *Storage) Lookup() string { return "Lookup" + s.Name }

// Storage kinds, in resolution order.
var (
	StorageBool = &Storage{
		Name: "Bool",
		Type: schema.Basic("bool"),
	}
	StorageInt = &Storage{
		Name: "Int",
		Type: schema.Basic("int32"),
	}
	StorageLong = &Storage{
		Name: "Long",
		Type: schema.Basic("int64"),
	}
	StorageFloat = &Storage{
		Name: "Float",
		Type: schema.Basic("float32"),
	}
	StorageDouble = &Storage{
		Name: "Double",
		Type: schema.Basic("float64"),
	}
	StorageBytes = &Storage{
		Name:       "Bytes",
		Type:       schema.Slice(schema.Basic("uint8")),
		NativeNull: true,
	}
	StorageString = &Storage{
		Name:       "String",
		Type:       schema.Basic("string"),
		NativeNull: true,
	}
	StorageStringSet = &Storage{
		Name:       "StringSet",
		Type:       schema.Named(prefkitPkg, "Set", schema.Basic("string")),
		NativeNull: true,
	}
)

// storages lists every supported kind.
var storages = []*Storage{
	StorageBool,
	StorageInt,
	StorageLong,
	StorageFloat,
	StorageDouble,
	StorageBytes,
	StorageString,
	StorageStringSet,
}

// Resolve returns the storage kind of t, looking through one pointer.
// Only the exact Go types of the store are recognized; named types such as
// time.Duration need a converter.
func Resolve(t *schema.TypeRef) (*Storage, bool) {
	t = t.NonNull()
	for _, s := range storages {
		if s.Type.Equal(t) {
			return s, true
		}
	}
	return nil, false
}
