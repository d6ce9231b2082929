package sema

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/scope"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// expr resolves one expression to its typed form. The caller is expected
// to have simplified the tree first: postfix, compound assignment, unary
// minus and "->" never reach this walk.
func (r *resolver) expr(e ast.Expr) (*ast.TypedExpr, error) {
	switch ex := e.(type) {
	case *ast.IntLit:
		return typed(types.TheInt, &ast.SemaInt{Value: ex.Value}), nil
	case *ast.FloatLit:
		return typed(types.TheDouble, &ast.SemaFloat{Value: ex.Value}), nil
	case *ast.CharLit:
		return typed(types.TheChar, &ast.SemaChar{Value: ex.Value}), nil
	case *ast.StringLit:
		// a string literal is an array of char including the trailing NUL.
		n := len(ex.Value) + 1
		return typed(&types.Array{Elem: types.TheChar, Len: &n}, &ast.SemaString{Value: ex.Value}), nil

	case *ast.IdentExpr:
		if v, ok := r.scope.ResolveEnumConst(ex.Name); ok {
			return typed(types.TheInt, &ast.SemaInt{Value: v}), nil
		}
		t, declScope, ok := r.scope.ResolveVar(ex.Name)
		if !ok {
			return nil, cerr.Undefined(ex.Name)
		}
		sym := scope.Symbol{Name: ex.Name, Scope: declScope}
		return typed(t, &ast.SemaSymbol{Sym: sym}), nil

	case *ast.Unary:
		return r.unary(ex)
	case *ast.Binary:
		return r.binary(ex)
	case *ast.Assign:
		return r.assign(ex)
	case *ast.Ternary:
		return r.ternary(ex)
	case *ast.Cast:
		x, err := r.expr(ex.X)
		if err != nil {
			return nil, err
		}
		to, err := r.completeType(ex.To)
		if err != nil {
			return nil, err
		}
		return typed(to, &ast.SemaCast{To: to, From: x.Type, X: x}), nil

	case *ast.Sizeof:
		out := &ast.SemaSizeof{Type: ex.Type}
		if ex.X != nil {
			// the operand is resolved for its effect on typing only; it is
			// never evaluated.
			x, err := r.expr(ex.X)
			if err != nil {
				return nil, err
			}
			out.X = x
			out.Type = x.Type
		}
		return typed(types.TheInt, out), nil

	case *ast.Comma:
		out := &ast.SemaComma{}
		var last types.Type = types.TheVoid
		for _, sub := range ex.List {
			tv, err := r.expr(sub)
			if err != nil {
				return nil, err
			}
			out.List = append(out.List, tv)
			last = tv.Type
		}
		return typed(last, out), nil

	case *ast.Call:
		return r.call(ex)
	case *ast.Subscript:
		return r.subscript(ex)
	case *ast.Member:
		return r.member(ex)

	default:
		return nil, cerr.Syntax("unexpected expression form after simplification")
	}
}

func typed(t types.Type, e ast.SemaExpr) *ast.TypedExpr {
	return &ast.TypedExpr{Type: t, Expr: e}
}

func (r *resolver) unary(ex *ast.Unary) (*ast.TypedExpr, error) {
	x, err := r.expr(ex.X)
	if err != nil {
		return nil, err
	}
	mk := func(t types.Type) *ast.TypedExpr {
		return typed(t, &ast.SemaUnary{Op: ex.Op, X: x})
	}

	switch ex.Op {
	case token.BANG:
		return mk(types.TheInt), nil
	case token.TILDE:
		if !types.IsInteger(x.Type) {
			return nil, cerr.InvalidOp("~", types.ToRustFormat(types.Flat(x.Type)))
		}
		return mk(types.Flat(x.Type)), nil
	case token.AMP:
		return mk(&types.Pointer{Elem: x.Type}), nil
	case token.STAR:
		pt, ok := types.Flat(x.Type).(*types.Pointer)
		if !ok {
			return nil, cerr.InvalidOp("*", types.ToRustFormat(types.Flat(x.Type)))
		}
		return mk(pt.Elem), nil
	default:
		return nil, cerr.Syntax("unexpected unary operator %#v after simplification", ex.Op)
	}
}

func (r *resolver) binary(ex *ast.Binary) (*ast.TypedExpr, error) {
	l, err := r.expr(ex.L)
	if err != nil {
		return nil, err
	}
	rr, err := r.expr(ex.R)
	if err != nil {
		return nil, err
	}
	out := &ast.SemaBinary{Op: ex.Op, L: l, R: rr}

	switch ex.Op {
	case token.EQEQ, token.NEQ, token.LT, token.LE, token.GT, token.GE,
		token.ANDAND, token.OROR:
		// comparisons and logical connectives always yield int.
		return typed(types.TheInt, out), nil
	}

	if !types.Equal(l.Type, rr.Type) {
		return nil, cerr.Incompatible(
			types.ToRustFormat(types.Flat(l.Type)),
			types.ToRustFormat(types.Flat(rr.Type)),
			"arithmetic operation",
		)
	}
	return typed(types.Flat(l.Type), out), nil
}

func (r *resolver) assign(ex *ast.Assign) (*ast.TypedExpr, error) {
	l, err := r.expr(ex.L)
	if err != nil {
		return nil, err
	}
	rr, err := r.expr(ex.R)
	if err != nil {
		return nil, err
	}
	if !types.Equal(l.Type, rr.Type) {
		return nil, cerr.Incompatible(
			types.ToRustFormat(types.Flat(l.Type)),
			types.ToRustFormat(types.Flat(rr.Type)),
			"assignment",
		)
	}
	return typed(l.Type, &ast.SemaAssign{L: l, R: rr}), nil
}

func (r *resolver) ternary(ex *ast.Ternary) (*ast.TypedExpr, error) {
	cond, err := r.expr(ex.Cond)
	if err != nil {
		return nil, err
	}
	then, err := r.expr(ex.Then)
	if err != nil {
		return nil, err
	}
	els, err := r.expr(ex.Else)
	if err != nil {
		return nil, err
	}
	if !types.Equal(then.Type, els.Type) {
		return nil, cerr.Incompatible(
			types.ToRustFormat(types.Flat(then.Type)),
			types.ToRustFormat(types.Flat(els.Type)),
			"ternary branch",
		)
	}
	return typed(then.Type, &ast.SemaTernary{Cond: cond, Then: then, Else: els}), nil
}

func (r *resolver) call(ex *ast.Call) (*ast.TypedExpr, error) {
	fun, err := r.expr(ex.Fun)
	if err != nil {
		return nil, err
	}
	ft, ok := types.Flat(fun.Type).(*types.Func)
	if !ok {
		return nil, cerr.InvalidOp("call", types.ToRustFormat(types.Flat(fun.Type)))
	}

	// a single void parameter means "no parameters"; a trailing ellipsis
	// accepts any extra arguments.
	params := ft.Params
	if len(params) == 1 && isVoid(params[0]) {
		params = nil
	}
	variadic := ft.Variadic
	if variadic && len(params) > 0 {
		params = params[:len(params)-1]
	}
	if len(ex.Args) < len(params) || (!variadic && len(ex.Args) > len(params)) {
		return nil, cerr.Incompatible(
			types.ToRustFormat(ft),
			"call with a different argument count",
			"function call",
		)
	}

	out := &ast.SemaCall{Fun: fun}
	for i, a := range ex.Args {
		ta, err := r.expr(a)
		if err != nil {
			return nil, err
		}
		if i < len(params) && !types.Equal(params[i], ta.Type) {
			return nil, cerr.Incompatible(
				types.ToRustFormat(types.Flat(params[i])),
				types.ToRustFormat(types.Flat(ta.Type)),
				"call argument",
			)
		}
		out.Args = append(out.Args, ta)
	}
	return typed(ft.Return, out), nil
}

func (r *resolver) subscript(ex *ast.Subscript) (*ast.TypedExpr, error) {
	x, err := r.expr(ex.X)
	if err != nil {
		return nil, err
	}
	idx, err := r.expr(ex.Index)
	if err != nil {
		return nil, err
	}
	if !types.IsInteger(idx.Type) {
		return nil, cerr.InvalidOp("subscript index", types.ToRustFormat(types.Flat(idx.Type)))
	}

	var elem types.Type
	switch tt := types.Flat(x.Type).(type) {
	case *types.Array:
		elem = tt.Elem
	case *types.Pointer:
		elem = tt.Elem
	default:
		return nil, cerr.InvalidOp("subscript", types.ToRustFormat(types.Flat(x.Type)))
	}
	return typed(elem, &ast.SemaSubscript{X: x, Index: idx}), nil
}

func (r *resolver) member(ex *ast.Member) (*ast.TypedExpr, error) {
	x, err := r.expr(ex.X)
	if err != nil {
		return nil, err
	}

	var f types.Field
	var ok bool
	switch tt := types.Flat(x.Type).(type) {
	case *types.Struct:
		f, ok = tt.Def.Field(ex.Name)
	case *types.Union:
		f, ok = tt.Def.Field(ex.Name)
	default:
		return nil, cerr.InvalidMember(types.ToRustFormat(types.Flat(x.Type)), ex.Name)
	}
	if !ok {
		return nil, cerr.InvalidMember(types.ToRustFormat(types.Flat(x.Type)), ex.Name)
	}
	return typed(f.Type, &ast.SemaMember{X: x, Name: ex.Name}), nil
}
