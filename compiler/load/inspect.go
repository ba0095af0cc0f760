package load

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"sort"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/prefkit/prefkit/schema"
)

// Decl is a type declaration found in a loaded package.
type Decl struct {
	Name      string
	Pkg       *packages.Package
	Obj       *types.TypeName
	Spec      *ast.TypeSpec
	File      string
	Directive *Directive
}

// Pos returns the position of the declaration.
func (d *Decl) Pos() string {
	return d.Pkg.Fset.Position(d.Spec.Name.Pos()).String()
}

// Inspector validates marked declarations and turns them into schema values.
type Inspector struct {
	logger *zap.Logger
	types  *typeConverter
}

// NewInspector returns an Inspector. A nil logger disables logging.
func NewInspector(logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{logger: logger, types: newTypeConverter()}
}

// FilterPreferences keeps the declarations marked //prefkit:schema and
// converts them. Every invalid declaration is reported; the returned error
// joins one ValidationError per problem.
func (in *Inspector) FilterPreferences(decls []*Decl) ([]*schema.Schema, error) {
	var (
		out       []*schema.Schema
		errs      []error
		accessors = make(map[string]*schema.Schema)
		names     = make(map[string]*schema.Schema)
	)
	for _, d := range decls {
		if d.Directive == nil || d.Directive.Name != DirectiveSchema {
			continue
		}
		s, err := in.schema(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, ok := accessors[s.Accessor]; ok {
			errs = append(errs, NewValidationError(s.Pos, s.Name, "",
				fmt.Sprintf("accessor %q already used by %s", s.Accessor, prev.QualifiedName()), nil))
			continue
		}
		if prev, ok := names[s.Name]; ok {
			errs = append(errs, NewValidationError(s.Pos, s.Name, "",
				fmt.Sprintf("type name already used by %s", prev.QualifiedName()), nil))
			continue
		}
		accessors[s.Accessor] = s
		names[s.Name] = s
		in.logger.Debug("found preferences", zap.String("type", s.QualifiedName()), zap.Int("fields", len(s.Fields)))
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PkgPath != out[j].PkgPath {
			return out[i].PkgPath < out[j].PkgPath
		}
		return out[i].Name < out[j].Name
	})
	return out, errors.Join(errs...)
}

// FilterTypeConverters keeps the declarations marked //prefkit:converters.
// Empty structs are stateless providers; any other struct must be supplied
// to the generated factory.
func (in *Inspector) FilterTypeConverters(decls []*Decl) ([]*schema.ConverterProvider, error) {
	var (
		out  []*schema.ConverterProvider
		errs []error
	)
	for _, d := range decls {
		if d.Directive == nil || d.Directive.Name != DirectiveConverters {
			continue
		}
		st, err := in.structType(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := checkKeys(d.Directive.Args); err != nil {
			errs = append(errs, NewValidationError(d.Pos(), d.Name, "", "", err))
			continue
		}
		p := &schema.ConverterProvider{
			Name:      d.Name,
			PkgPath:   d.Pkg.PkgPath,
			PkgName:   d.Pkg.Name,
			File:      d.File,
			Pos:       d.Pos(),
			Stateless: st.NumFields() == 0,
		}
		mset := types.NewMethodSet(types.NewPointer(d.Obj.Type()))
		for i := range mset.Len() {
			fn, ok := mset.At(i).Obj().(*types.Func)
			if !ok {
				continue
			}
			sig := fn.Signature()
			f := &schema.ConverterFunc{Name: fn.Name(), Exported: fn.Exported()}
			for j := range sig.Params().Len() {
				f.Params = append(f.Params, in.types.typeRef(sig.Params().At(j).Type()))
			}
			for j := range sig.Results().Len() {
				f.Results = append(f.Results, in.types.typeRef(sig.Results().At(j).Type()))
			}
			p.Funcs = append(p.Funcs, f)
		}
		in.logger.Debug("found type converters", zap.String("type", p.QualifiedName()),
			zap.Bool("stateless", p.Stateless), zap.Int("funcs", len(p.Funcs)))
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PkgPath != out[j].PkgPath {
			return out[i].PkgPath < out[j].PkgPath
		}
		return out[i].Name < out[j].Name
	})
	return out, errors.Join(errs...)
}

// structType checks the shape shared by schemas and providers: an exported,
// non-generic, defined struct type.
func (in *Inspector) structType(d *Decl) (*types.Struct, error) {
	invalid := func(msg string) error {
		return NewValidationError(d.Pos(), d.Name, "", msg, nil)
	}
	switch {
	case d.Spec.Assign.IsValid():
		return nil, invalid("must be a defined type, not an alias")
	case d.Spec.TypeParams != nil && d.Spec.TypeParams.NumFields() > 0:
		return nil, invalid("must not be generic")
	case !ast.IsExported(d.Name):
		return nil, invalid("must be exported")
	}
	st, ok := d.Obj.Type().Underlying().(*types.Struct)
	if !ok {
		return nil, invalid(fmt.Sprintf("must be a struct type, got %s", d.Obj.Type().Underlying()))
	}
	return st, nil
}

func (in *Inspector) schema(d *Decl) (*schema.Schema, error) {
	st, err := in.structType(d)
	if err != nil {
		return nil, err
	}
	args := d.Directive.Args
	if err := checkKeys(args, "id", "name", "expire", "crypt"); err != nil {
		return nil, NewValidationError(d.Pos(), d.Name, "", "", err)
	}
	s := &schema.Schema{
		Name:     d.Name,
		PkgPath:  d.Pkg.PkgPath,
		PkgName:  d.Pkg.Name,
		File:     d.File,
		Pos:      d.Pos(),
		ID:       d.Name,
		Accessor: d.Name,
		CryptKey: args["crypt"],
	}
	if id, ok := args["id"]; ok {
		if id == "" {
			return nil, NewValidationError(s.Pos, s.Name, "", "id must not be empty", nil)
		}
		s.ID = id
	}
	if name, ok := args["name"]; ok {
		if !token.IsIdentifier(name) {
			return nil, NewValidationError(s.Pos, s.Name, "", fmt.Sprintf("name %q is not an identifier", name), nil)
		}
		s.Accessor = exported(name)
	}
	if v, ok := args["expire"]; ok {
		exp, err := time.ParseDuration(v)
		if err != nil || exp <= 0 {
			return nil, NewValidationError(s.Pos, s.Name, "", fmt.Sprintf("expire %q must be a positive duration", v), err)
		}
		s.Expire = exp
	}

	astFields := flattenFields(d.Spec)
	var errs []error
	keys := make(map[string]string)
	for i := range st.NumFields() {
		v := st.Field(i)
		var expr ast.Expr
		if i < len(astFields) {
			expr = astFields[i]
		}
		f, err := in.field(d, v, reflect.StructTag(st.Tag(i)), expr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, ok := keys[f.Key]; ok {
			errs = append(errs, NewValidationError(f.Pos, s.Name, f.Name,
				fmt.Sprintf("key %q already used by field %s", f.Key, prev), nil))
			continue
		}
		keys[f.Key] = f.Name
		s.Fields = append(s.Fields, f)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func (in *Inspector) field(d *Decl, v *types.Var, tag reflect.StructTag, expr ast.Expr) (*schema.Field, error) {
	pos := d.Pkg.Fset.Position(v.Pos()).String()
	invalid := func(msg string, cause error) error {
		return NewValidationError(pos, d.Name, v.Name(), msg, cause)
	}
	switch {
	case v.Embedded():
		return nil, invalid("embedded fields are not supported", nil)
	case !v.Exported():
		return nil, invalid("field must be exported", nil)
	}
	f := &schema.Field{
		Name: v.Name(),
		Key:  DefaultKey(v.Name()),
		Type: in.types.typeRef(v.Type()),
		Pos:  pos,
	}
	if f.Type.IsUnresolved() && expr != nil {
		// Keep the spelled name for diagnostics.
		f.Type = &schema.TypeRef{Kind: schema.KindNamed, Name: types.ExprString(expr), Unresolved: true}
	}
	if opts, ok := tag.Lookup(TagPrefkit); ok {
		args, err := ParseArgs(opts)
		if err != nil {
			return nil, invalid("", err)
		}
		if err := checkKeys(args, "key", "persist"); err != nil {
			return nil, invalid("", err)
		}
		if key, ok := args["key"]; ok {
			if key == "" {
				return nil, invalid("key must not be empty", nil)
			}
			f.Key = key
		}
		if p, ok := args["persist"]; ok {
			if p != "" {
				return nil, invalid(fmt.Sprintf("persist takes no value, got %q", p), nil)
			}
			f.Persist = true
		}
	}
	text, ok := tag.Lookup(TagDefault)
	if !ok {
		return nil, invalid(`missing default value: add a default:"<expr>" tag`, nil)
	}
	if f.Type.IsUnresolved() {
		// The default is checked once the type resolves in a later round.
		expr, err := parser.ParseExpr(text)
		if err != nil {
			return nil, invalid("", fmt.Errorf("parse default %q: %w", text, err))
		}
		f.Default = &schema.Default{Text: text, Expr: expr}
		return f, nil
	}
	def, err := checkDefault(d.Pkg.Fset, d.Pkg.Types, v.Pos(), text, v.Type())
	if err != nil {
		return nil, invalid("", err)
	}
	f.Default = def
	return f, nil
}

// flattenFields returns the type expression of every struct field in
// declaration order, one entry per name.
func flattenFields(spec *ast.TypeSpec) []ast.Expr {
	st, ok := spec.Type.(*ast.StructType)
	if !ok || st.Fields == nil {
		return nil
	}
	var out []ast.Expr
	for _, f := range st.Fields.List {
		n := max(len(f.Names), 1)
		for range n {
			out = append(out, f.Type)
		}
	}
	return out
}

// DefaultKey returns the storage key of a field without an explicit key: the
// field name with its leading initialism lowered.
//
//	DefaultKey("Theme")    // "theme"
//	DefaultKey("DeviceID") // "deviceID"
//	DefaultKey("URLPath")  // "urlPath"
//	DefaultKey("ID")       // "id"
func DefaultKey(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) {
		// Keep the last capital: it starts the next word.
		n--
	}
	for i := range n {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func exported(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
