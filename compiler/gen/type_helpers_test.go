package gen

import (
	"testing"
	"time"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"

	"github.com/prefkit/prefkit/schema"
)

func TestBuilderField(t *testing.T) {
	tests := map[string]string{
		"Converters": "converters",
		"URLPath":    "urlPath",
		"Type":       "_type",
		"Opener":     "_opener",
		"Conv":       "_conv",
		"Mu":         "_mu",
		"func":       "_func",
	}
	for in, want := range tests {
		assert.Equal(t, want, builderField(in), in)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "general_settings_preferences.go", fileName("GeneralSettings", "Preferences"))
	assert.Equal(t, "mutable_window.go", fileName("Mutable", "Window"))
	assert.Equal(t, "preferences_factory.go", fileName("PreferencesFactory"))
}

func TestNamesOf(t *testing.T) {
	n := namesOf(&schema.Schema{Name: "Window", PkgPath: modelPkg})
	assert.Equal(t, "MutableWindow", n.MutableType)
	assert.Equal(t, "mutableWindow", n.MutableImpl)
	assert.Equal(t, "WindowPreferences", n.Facade)
	assert.Equal(t, "windowPreferences", n.FacadeImpl)
	assert.Equal(t, "newWindowPreferences", n.NewFacade)
	assert.Equal(t, "defaultWindow", n.DefaultFunc)
	assert.Equal(t, "model.Window", jen.Add(n.Model).GoString())
}

func TestTypeCode(t *testing.T) {
	point := schema.Named(modelPkg, "Point")
	tests := []struct {
		typ  *schema.TypeRef
		want string
	}{
		{schema.Basic("int32"), "int32"},
		{schema.Slice(schema.Basic("uint8")), "[]byte"},
		{schema.Pointer(point), "*model.Point"},
		{schema.Named(prefkitPkg, "Set", stringType), "prefkit.Set[string]"},
		{&schema.TypeRef{Kind: schema.KindArray, Len: 3, Args: []*schema.TypeRef{schema.Basic("int32")}}, "[3]int32"},
		{&schema.TypeRef{Kind: schema.KindMap, Args: []*schema.TypeRef{stringType, point}}, "map[string]model.Point"},
		{schema.Slice(schema.Pointer(stringType)), "[]*string"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, typeCode(tt.typ).GoString())
	}
}

func TestDurationCode(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{24 * time.Hour, "24 * time.Hour"},
		{90 * time.Minute, "90 * time.Minute"},
		{45 * time.Second, "45 * time.Second"},
		{1500 * time.Millisecond, "1500 * time.Millisecond"},
		{1500 * time.Microsecond, "time.Duration(1500000)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, jen.Add(durationCode(tt.d)).GoString(), tt.d.String())
	}
}
