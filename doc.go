// Package prefkit holds the runtime support used by code generated with the
// prefkit generator.
//
// A preference schema is a plain Go struct marked with a directive. Every
// field declares its default value in a struct tag:
//
//	//prefkit:schema id=general name=Settings
//	type GeneralSettings struct {
//		Theme        Theme               `default:"ThemeAuto"`
//		CheckUpdates bool                `default:"true"`
//		Tags         prefkit.Set[string] `default:"prefkit.NewSet[string]()" prefkit:"key=tag_set"`
//	}
//
// Default expressions are Go source copied into the generated code and
// resolved against the imports of the schema file. A package referenced only
// from a default tag must still be imported there, and the compiler needs a
// use of it to keep the import:
//
//	import "github.com/google/uuid"
//
//	var _ = uuid.Nil
//
// The generator emits a Mutable<Schema> builder, a <Schema>Preferences facade
// and a PreferencesFactory that wires every facade to a kv.Store. This package
// provides the types those files reference: Set, State and Observable, the
// nullable built-in converters and the runtime errors.
package prefkit
