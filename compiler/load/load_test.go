package load

import (
	"context"
	"go/ast"
	"maps"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/prefkit/prefkit/schema"
)

const (
	prefkitPkg = "github.com/prefkit/prefkit"
	validPkg   = "github.com/prefkit/prefkit/compiler/load/testdata/valid"
)

func load(t *testing.T, cfg Config, patterns ...string) (*Result, error) {
	t.Helper()
	cfg.Logger = zaptest.NewLogger(t)
	return NewLoader(cfg).Load(context.Background(), patterns...)
}

func TestLoadValid(t *testing.T) {
	res, err := load(t, Config{}, "./testdata/valid")
	require.NoError(t, err)
	require.Len(t, res.Schemas, 2)

	t.Run("schema options", func(t *testing.T) {
		s := res.Schemas[0]
		assert.Equal(t, "GeneralSettings", s.Name)
		assert.Equal(t, validPkg, s.PkgPath)
		assert.Equal(t, "valid", s.PkgName)
		assert.Equal(t, "settings.go", filepath.Base(s.File))
		assert.Equal(t, "general", s.ID)
		assert.Equal(t, "Settings", s.Accessor)
		assert.Equal(t, 24*time.Hour, s.Expire)
		assert.Equal(t, "s3cr3t key", s.CryptKey)
		assert.Len(t, s.Fields, 10)
	})

	t.Run("default options", func(t *testing.T) {
		s := res.Schemas[1]
		assert.Equal(t, "Window", s.Name)
		assert.Equal(t, "Window", s.ID)
		assert.Equal(t, "Window", s.Accessor)
		assert.Zero(t, s.Expire)
		assert.Empty(t, s.CryptKey)
	})

	s := res.Schemas[0]
	t.Run("enum", func(t *testing.T) {
		f := s.Field("Theme")
		require.NotNil(t, f)
		assert.Equal(t, "theme", f.Key)
		require.NotNil(t, f.Type.Enum)
		assert.Equal(t, 3, f.Type.Enum.Size)
		assert.True(t, f.Default.Locals[f.Default.Expr.(*ast.Ident)])
		assert.Nil(t, s.Field("Level").Type.Enum)
	})

	t.Run("set with explicit key", func(t *testing.T) {
		f := s.Field("Tags")
		assert.Equal(t, "tag_set", f.Key)
		assert.True(t, f.Type.Is(prefkitPkg, "Set"))
		require.Len(t, f.Type.Args, 1)
		assert.True(t, f.Type.Args[0].IsBasic("string"))
		assert.Contains(t, slices.Collect(maps.Values(f.Default.Imports)), prefkitPkg)
	})

	t.Run("persist", func(t *testing.T) {
		f := s.Field("DeviceID")
		assert.True(t, f.Persist)
		assert.Equal(t, "deviceID", f.Key)
		assert.Contains(t, slices.Collect(maps.Values(f.Default.Imports)), "github.com/google/uuid")
		assert.False(t, s.Field("Theme").Persist)
	})

	t.Run("marshaler", func(t *testing.T) {
		f := s.Field("Origin")
		assert.True(t, f.Type.Nullable())
		assert.Equal(t, schema.MarshalPointer, f.Type.NonNull().Marshal)
		// Date promotes the marshaler of its embedded time.Time.
		assert.Equal(t, schema.MarshalValue, s.Field("LastSync").Type.Marshal)
		assert.Equal(t, schema.MarshalNone, s.Field("Theme").Type.Marshal)
	})

	t.Run("basic types", func(t *testing.T) {
		assert.True(t, s.Field("Blob").Type.Equal(schema.Slice(schema.Basic("uint8"))))
		assert.True(t, s.Field("Enabled").Type.Equal(schema.Pointer(schema.Basic("bool"))))
		assert.True(t, s.Field("Retries").Type.IsBasic("int32"))
		assert.Len(t, s.Field("Retries").Default.Locals, 1)
	})

	t.Run("converters", func(t *testing.T) {
		require.Len(t, res.Providers, 2)
		conv, js := res.Providers[0], res.Providers[1]
		assert.Equal(t, "Converters", conv.Name)
		assert.True(t, conv.Stateless)
		assert.Equal(t, "JSONConverters", js.Name)
		assert.False(t, js.Stateless)

		byName := make(map[string]*schema.ConverterFunc)
		for _, f := range conv.Funcs {
			byName[f.Name] = f
		}
		require.Contains(t, byName, "DateToLong")
		assert.True(t, byName["DateToLong"].Exported)
		assert.True(t, byName["DateToLong"].Unary())
		assert.True(t, byName["DateToLong"].Params[0].Is(validPkg, "Date"))
		assert.True(t, byName["DateToLong"].Results[0].IsBasic("int64"))
		require.Contains(t, byName, "unexported")
		assert.False(t, byName["unexported"].Exported)
	})
}

func TestLoadInvalid(t *testing.T) {
	res, err := load(t, Config{}, "./testdata/invalid")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.True(t, IsValidationError(err))

	msg := err.Error()
	for _, want := range []string{
		"on type Generic: must not be generic",
		"on type NotStruct: must be a struct type",
		"on type Alias: must be a defined type, not an alias",
		"on type unexported: must be exported",
		"on type MissingDefault field Name: missing default value",
		"on type Embedded field Base: embedded fields are not supported",
		"on type Hidden field name: field must be exported",
		`on type BadExpire: expire "soon" must be a positive duration`,
		`on type UnknownOption: unknown option "color"`,
		`on type DuplicateKey field B: key "same" already used by field A`,
		"is not assignable to int32",
		"refers to unexported secret",
		`accessor "Dup" already used by`,
		"on type ConvAlias: must be a defined type, not an alias",
	} {
		assert.Contains(t, msg, want)
	}

	require.NotNil(t, res)
	require.Len(t, res.Schemas, 1)
	assert.Equal(t, "First", res.Schemas[0].Name)
}

func TestLoadUnresolved(t *testing.T) {
	res, err := load(t, Config{}, "./testdata/unresolved")
	require.NoError(t, err)
	require.Len(t, res.Schemas, 1)

	s := res.Schemas[0]
	unresolved := s.Unresolved()
	require.Len(t, unresolved, 1)
	assert.Equal(t, "Profile", unresolved[0].Name)
	assert.Equal(t, "GeneratedID", unresolved[0].Type.Name)
	assert.Equal(t, "GeneratedID{}", unresolved[0].Default.Text)
	assert.False(t, s.Field("Ready").Type.IsUnresolved())

	t.Run("list errors stay fatal", func(t *testing.T) {
		_, err := load(t, Config{}, "./testdata/nosuchdir")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prefkit: loading ./testdata/nosuchdir")
	})
}

func TestLoadBuildFlags(t *testing.T) {
	res, err := load(t, Config{}, "./testdata/buildflags")
	require.NoError(t, err)
	assert.Len(t, res.Schemas, 2)

	res, err = load(t, Config{BuildFlags: []string{"-tags=hidegroups"}}, "./testdata/buildflags")
	require.NoError(t, err)
	require.Len(t, res.Schemas, 1)
	assert.Equal(t, "User", res.Schemas[0].Name)
}

func TestLoaderCache(t *testing.T) {
	l := NewLoader(Config{Logger: zaptest.NewLogger(t)})
	ctx := context.Background()

	first, err := l.Load(ctx, "./testdata/buildflags")
	require.NoError(t, err)
	second, err := l.Load(ctx, "./testdata/buildflags")
	require.NoError(t, err)
	assert.Same(t, first.Packages[0], second.Packages[0])

	l.Reset()
	third, err := l.Load(ctx, "./testdata/buildflags")
	require.NoError(t, err)
	assert.NotSame(t, first.Packages[0], third.Packages[0])

	_, err = l.Load(ctx)
	require.Error(t, err)
}

func TestDefaultKey(t *testing.T) {
	tests := map[string]string{
		"Theme":    "theme",
		"DeviceID": "deviceID",
		"URLPath":  "urlPath",
		"ID":       "id",
		"X":        "x",
	}
	for in, want := range tests {
		assert.Equal(t, want, DefaultKey(in), in)
	}
}
