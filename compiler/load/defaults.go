package load

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"

	"github.com/prefkit/prefkit/schema"
)

// checkDefault parses text as a Go expression, type-checks it in the scope
// enclosing pos and verifies it is assignable to want. Identifiers are
// classified so the expression can be rewritten in another package.
func checkDefault(fset *token.FileSet, pkg *types.Package, pos token.Pos, text string, want types.Type) (*schema.Default, error) {
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return nil, fmt.Errorf("parse default %q: %w", text, err)
	}
	info := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	if err := types.CheckExpr(fset, pkg, pos, expr, info); err != nil {
		return nil, fmt.Errorf("check default %q: %w", text, err)
	}
	tv := info.Types[expr]
	if !tv.IsValue() {
		return nil, fmt.Errorf("default %q is not a value", text)
	}
	if !isInvalid(want) && !types.AssignableTo(tv.Type, want) {
		return nil, fmt.Errorf("default %q of type %s is not assignable to %s",
			text, types.TypeString(tv.Type, types.RelativeTo(pkg)), types.TypeString(want, types.RelativeTo(pkg)))
	}

	d := &schema.Default{
		Text:    text,
		Expr:    expr,
		Imports: make(map[*ast.Ident]string),
		Locals:  make(map[*ast.Ident]bool),
	}
	ast.Inspect(expr, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		switch obj := info.Uses[id].(type) {
		case *types.PkgName:
			d.Imports[id] = obj.Imported().Path()
		case nil:
		default:
			if obj.Pkg() != pkg || obj.Parent() != pkg.Scope() {
				return true
			}
			if !obj.Exported() {
				err = fmt.Errorf("default %q refers to unexported %s", text, obj.Name())
				return false
			}
			d.Locals[id] = true
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
