package gen

import (
	"fmt"
	"go/ast"

	"github.com/dave/jennifer/jen"

	"github.com/prefkit/prefkit/schema"
)

// defaultCode renders the default expression of a field for use outside the
// schema package: package identifiers become qualified references and the
// schema package's own identifiers are qualified with its path.
func defaultCode(s *schema.Schema, d *schema.Default) (jen.Code, error) {
	r := exprRenderer{pkgPath: s.PkgPath, d: d}
	return r.expr(d.Expr)
}

type exprRenderer struct {
	pkgPath string
	d       *schema.Default
}

func (r exprRenderer) expr(e ast.Expr) (*jen.Statement, error) {
	switch e := e.(type) {
	case *ast.BasicLit:
		return jen.Id(e.Value), nil
	case *ast.Ident:
		if r.d.Locals[e] {
			return jen.Qual(r.pkgPath, e.Name), nil
		}
		return jen.Id(e.Name), nil
	case *ast.SelectorExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			if path, ok := r.d.Imports[id]; ok {
				return jen.Qual(path, e.Sel.Name), nil
			}
		}
		x, err := r.expr(e.X)
		if err != nil {
			return nil, err
		}
		return x.Dot(e.Sel.Name), nil
	case *ast.CallExpr:
		fn, err := r.expr(e.Fun)
		if err != nil {
			return nil, err
		}
		args, err := r.list(e.Args)
		if err != nil {
			return nil, err
		}
		if e.Ellipsis.IsValid() && len(args) > 0 {
			args[len(args)-1] = jen.Add(args[len(args)-1]).Op("...")
		}
		return fn.Call(args...), nil
	case *ast.IndexExpr:
		x, err := r.expr(e.X)
		if err != nil {
			return nil, err
		}
		idx, err := r.expr(e.Index)
		if err != nil {
			return nil, err
		}
		return x.Index(idx), nil
	case *ast.IndexListExpr:
		x, err := r.expr(e.X)
		if err != nil {
			return nil, err
		}
		idx, err := r.list(e.Indices)
		if err != nil {
			return nil, err
		}
		return x.Types(idx...), nil
	case *ast.UnaryExpr:
		x, err := r.expr(e.X)
		if err != nil {
			return nil, err
		}
		return jen.Op(e.Op.String()).Add(x), nil
	case *ast.BinaryExpr:
		x, err := r.expr(e.X)
		if err != nil {
			return nil, err
		}
		y, err := r.expr(e.Y)
		if err != nil {
			return nil, err
		}
		return x.Op(e.Op.String()).Add(y), nil
	case *ast.ParenExpr:
		x, err := r.expr(e.X)
		if err != nil {
			return nil, err
		}
		return jen.Parens(x), nil
	case *ast.StarExpr:
		x, err := r.expr(e.X)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(x), nil
	case *ast.CompositeLit:
		elts, err := r.list(e.Elts)
		if err != nil {
			return nil, err
		}
		if e.Type == nil {
			return jen.Values(elts...), nil
		}
		typ, err := r.expr(e.Type)
		if err != nil {
			return nil, err
		}
		return typ.Values(elts...), nil
	case *ast.KeyValueExpr:
		k, err := r.expr(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := r.expr(e.Value)
		if err != nil {
			return nil, err
		}
		return k.Op(":").Add(v), nil
	case *ast.ArrayType:
		elt, err := r.expr(e.Elt)
		if err != nil {
			return nil, err
		}
		switch l := e.Len.(type) {
		case nil:
			return jen.Index().Add(elt), nil
		case *ast.Ellipsis:
			return jen.Index(jen.Op("...")).Add(elt), nil
		default:
			n, err := r.expr(l)
			if err != nil {
				return nil, err
			}
			return jen.Index(n).Add(elt), nil
		}
	case *ast.MapType:
		k, err := r.expr(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := r.expr(e.Value)
		if err != nil {
			return nil, err
		}
		return jen.Map(k).Add(v), nil
	default:
		return nil, fmt.Errorf("unsupported expression %T in default value", e)
	}
}

func (r exprRenderer) list(es []ast.Expr) ([]jen.Code, error) {
	out := make([]jen.Code, len(es))
	for i, e := range es {
		c, err := r.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
