// Package gen generates thread-safe accessors for preference schemas.
//
// # Pipeline
//
// Generation runs in rounds:
//
//	load (compiler/load)
//	        ↓
//	   Context (schemas, converter providers, field mappings)
//	        ↓
//	   Scheduler (mutable → facade → facade-impl → factory → factory-impl)
//	        ↓
//	   Sink (rendered files) → Writer (target dir + prefkit.sum.yaml)
//
// A step that meets a type the loader could not resolve returns an error
// wrapping ErrUnresolved. The scheduler defers the symbol and the host loop
// reloads packages and runs another round. Any other error is a
// configuration error and fails generation.
//
// # Storage mapping
//
// Every field is stored as one of eight primitive kinds (see Storage). A field
// maps, in order of preference, directly to a kind, to the ordinal of an
// enum, to the bytes of an encoding.BinaryMarshaler, or through a pair of
// converter methods declared on a //prefkit:converters type. Nullable bool and
// numeric fields use the built-in converters of package prefkit.
//
// # Generated API
//
// For a schema type T the generated package contains:
//
//	MutableT          write-only builder: SetX(v) MutableT, ToImmutable() *T
//	TPreferences      Get() *T, Mutable() MutableT, Update(MutableT) error, State()
//	PreferencesFactory one accessor per schema
//	NewPreferencesFactory(opener kv.Opener, providers...) PreferencesFactory
//
// # Error Handling
//
// Errors are typed (SchemaError, ConfigError, GenerationError and the
// loader's ValidationError) and match their sentinels with errors.Is.
package gen
