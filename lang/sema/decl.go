package sema

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/consteval"
	"nanocc/lang/scope"
	"nanocc/lang/types"
)

func (r *resolver) declStmt(ds *ast.DeclStmt) ([]ast.SemaStmt, error) {
	var out []ast.SemaStmt
	for _, d := range ds.Decls {
		switch dd := d.(type) {
		case *ast.VarDecl:
			vd, err := r.varDecl(dd)
			if err != nil {
				return nil, err
			}
			if vd != nil {
				out = append(out, vd)
			}
		case *ast.TagDecl:
			if err := r.tagDecl(dd); err != nil {
				return nil, err
			}
		case *ast.TypedefDecl:
			// the parser registered the alias; nothing left to check.
		default:
			return nil, cerr.Syntax("unexpected declaration form after simplification")
		}
	}
	return out, nil
}

// tagDecl registers enum member constants; struct and union tags were
// already bound by the parser.
func (r *resolver) tagDecl(td *ast.TagDecl) error {
	if _, ok := td.Type.(*types.Enum); !ok {
		return nil
	}
	next := int64(0)
	for _, ec := range td.Consts {
		if ec.Value != nil {
			tv, err := r.expr(ec.Value)
			if err != nil {
				return err
			}
			n, err := consteval.Eval(tv)
			if err != nil {
				return err
			}
			next = n
		}
		r.scope.DeclareEnumConst(ec.Name, next)
		next++
	}
	return nil
}

// varDecl resolves one variable declaration. The flattened declared type
// becomes the symbol's registered type; a function-typed declarator is a
// prototype and produces no statement.
func (r *resolver) varDecl(vd *ast.VarDecl) (*ast.SemaVarDecl, error) {
	t := types.Flat(vd.Type)
	if _, ok := t.(*types.Func); ok {
		r.scope.DeclareFunc(vd.Name, t)
		return nil, nil
	}

	t, err := r.completeType(t)
	if err != nil {
		return nil, err
	}

	var init ast.SemaInitializer
	if vd.Init != nil {
		t, init, err = r.initializer(t, vd.Init)
		if err != nil {
			return nil, err
		}
	}
	if arr, ok := t.(*types.Array); ok && arr.Len == nil {
		return nil, cerr.Syntax("array %q has no size and no initializer to infer one from", vd.Name)
	}

	r.scope.DeclareVar(vd.Name, t)
	return &ast.SemaVarDecl{
		Sym:  scope.Symbol{Name: vd.Name, Scope: r.scope},
		Init: init,
	}, nil
}

// completeType constant-evaluates any pending array length expressions,
// recursing through pointer, array and function constructors.
func (r *resolver) completeType(t types.Type) (types.Type, error) {
	switch tt := t.(type) {
	case *types.Array:
		elem, err := r.completeType(tt.Elem)
		if err != nil {
			return nil, err
		}
		out := &types.Array{Elem: elem, Len: tt.Len}
		if tt.Len == nil && tt.LenExpr != nil {
			sizeExpr, ok := tt.LenExpr.(ast.Expr)
			if !ok {
				return nil, cerr.ConstEval("unsupported array size expression")
			}
			tv, err := r.expr(sizeExpr)
			if err != nil {
				return nil, err
			}
			n, err := consteval.Eval(tv)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, cerr.ConstEval("negative array size %d", n)
			}
			ln := int(n)
			out.Len = &ln
		}
		return out, nil
	case *types.Pointer:
		elem, err := r.completeType(tt.Elem)
		if err != nil {
			return nil, err
		}
		return &types.Pointer{Elem: elem}, nil
	case *types.Func:
		ret, err := r.completeType(tt.Return)
		if err != nil {
			return nil, err
		}
		out := &types.Func{Return: ret, Variadic: tt.Variadic}
		for _, p := range tt.Params {
			cp, err := r.completeType(p)
			if err != nil {
				return nil, err
			}
			out.Params = append(out.Params, cp)
		}
		return out, nil
	default:
		return t, nil
	}
}

// initializer resolves an initializer against the declared type, inferring
// the length of an incomplete array from a compound list or a string
// literal. It returns the (possibly completed) type.
func (r *resolver) initializer(t types.Type, init ast.Initializer) (types.Type, ast.SemaInitializer, error) {
	switch in := init.(type) {
	case *ast.ExprInit:
		x, err := r.expr(in.X)
		if err != nil {
			return nil, nil, err
		}
		if arr, ok := t.(*types.Array); ok && arr.Len == nil {
			// "char s[] = "hi";" takes its length from the literal,
			// trailing NUL included.
			if lit, ok := types.Flat(x.Type).(*types.Array); ok && lit.Len != nil {
				t = &types.Array{Elem: arr.Elem, Len: lit.Len}
			}
		}
		if !types.Equal(t, x.Type) {
			return nil, nil, cerr.Incompatible(
				types.ToRustFormat(types.Flat(t)),
				types.ToRustFormat(types.Flat(x.Type)),
				"initialization",
			)
		}
		return t, &ast.SemaExprInit{X: x}, nil

	case *ast.CompoundInit:
		switch tt := types.Flat(t).(type) {
		case *types.Array:
			if tt.Len == nil {
				n := len(in.Elems)
				tt = &types.Array{Elem: tt.Elem, Len: &n}
			} else if *tt.Len != len(in.Elems) {
				return nil, nil, cerr.Incompatible(
					types.ToRustFormat(tt),
					"{...} with a different element count",
					"initialization",
				)
			}
			out := &ast.SemaCompoundInit{}
			for _, e := range in.Elems {
				_, se, err := r.initializer(tt.Elem, e)
				if err != nil {
					return nil, nil, err
				}
				out.Elems = append(out.Elems, se)
			}
			return tt, out, nil

		case *types.Struct:
			if len(in.Elems) != len(tt.Def.Fields) {
				return nil, nil, cerr.Incompatible(
					types.ToRustFormat(tt),
					"{...} with a different member count",
					"initialization",
				)
			}
			out := &ast.SemaCompoundInit{}
			for i, e := range in.Elems {
				_, se, err := r.initializer(tt.Def.Fields[i].Type, e)
				if err != nil {
					return nil, nil, err
				}
				out.Elems = append(out.Elems, se)
			}
			return t, out, nil

		default:
			return nil, nil, cerr.Incompatible(
				types.ToRustFormat(types.Flat(t)),
				"{...}",
				"initialization",
			)
		}
	}
	return nil, nil, cerr.Syntax("malformed initializer")
}
