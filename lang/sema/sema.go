// Package sema implements the type resolver: it walks the simplified AST
// and produces a new, typed tree in which every expression carries its
// resolved type and every identifier has been replaced by a symbol bound
// to its declaring scope. All checks follow the compatibility rule
// Flat(a) == Flat(b); the walk short-circuits on the first error.
package sema

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/consteval"
	"nanocc/lang/scope"
	"nanocc/lang/types"
)

// Resolve type-checks prog, which must already be simplified. The returned
// error, if non-nil, is a *cerr.Error.
func Resolve(prog *ast.Program) (*ast.SemaProgram, error) {
	r := &resolver{scope: prog.Scope}
	r.declareBuiltins()

	out := &ast.SemaProgram{Scope: prog.Scope}
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.FuncDef:
			fd, err := r.funcDef(it)
			if err != nil {
				return nil, err
			}
			out.Funcs = append(out.Funcs, fd)
		case *ast.FuncProto:
			r.scope.DeclareFunc(it.Name, flatFunc(it.Type))
		case *ast.DeclStmt:
			stmts, err := r.declStmt(it)
			if err != nil {
				return nil, err
			}
			out.Globals = append(out.Globals, stmts...)
		}
	}
	return out, nil
}

type resolver struct {
	scope *scope.Scope
}

// declareBuiltins registers the two I/O primitives the stack machine and
// the Brainfuck tape expose directly. A user definition of the same name
// simply overwrites the builtin.
func (r *resolver) declareBuiltins() {
	r.scope.DeclareFunc("putchar", &types.Func{
		Return: types.TheInt,
		Params: []types.Type{types.TheInt},
	})
	r.scope.DeclareFunc("getchar", &types.Func{
		Return: types.TheInt,
		Params: []types.Type{types.TheVoid},
	})
}

// flatFunc flattens a function type's components while preserving the
// *types.Func constructor.
func flatFunc(ft *types.Func) *types.Func {
	out, _ := types.Flat(ft).(*types.Func)
	if out == nil {
		return ft
	}
	return out
}

func (r *resolver) funcDef(fd *ast.FuncDef) (*ast.SemaFuncDef, error) {
	ft := flatFunc(fd.Type)
	r.scope.DeclareFunc(fd.Name, ft)
	sym := scope.Symbol{Name: fd.Name, Scope: r.scope.Root()}

	paramScope := fd.Body.Scope.Parent()
	var params []scope.Symbol
	for i, name := range fd.Params {
		if i >= len(ft.Params) {
			break
		}
		pt := ft.Params[i]
		if isVoid(pt) {
			continue
		}
		if name == "" {
			return nil, cerr.Syntax("unnamed parameter in definition of %q", fd.Name)
		}
		paramScope.DeclareVar(name, types.Flat(pt))
		params = append(params, scope.Symbol{Name: name, Scope: paramScope})
	}

	body, err := r.block(fd.Body)
	if err != nil {
		return nil, err
	}
	return &ast.SemaFuncDef{Sym: sym, Type: ft, Params: params, Body: body}, nil
}

func isVoid(t types.Type) bool {
	b, ok := types.Flat(t).(*types.Basic)
	return ok && b.Kind == types.Void
}

func (r *resolver) block(b *ast.Block) (*ast.SemaBlock, error) {
	prev := r.scope
	r.scope = b.Scope
	defer func() { r.scope = prev }()

	out := &ast.SemaBlock{Scope: b.Scope}
	for _, st := range b.Stmts {
		ts, err := r.stmts(st)
		if err != nil {
			return nil, err
		}
		out.Stmts = append(out.Stmts, ts...)
	}
	return out, nil
}

// stmts resolves one raw statement; a declaration statement expands into
// one typed statement per declarator, so a list is returned.
func (r *resolver) stmts(stmt ast.Stmt) ([]ast.SemaStmt, error) {
	if ds, ok := stmt.(*ast.DeclStmt); ok {
		return r.declStmt(ds)
	}
	s, err := r.stmt(stmt)
	if err != nil {
		return nil, err
	}
	return []ast.SemaStmt{s}, nil
}

func (r *resolver) stmt(stmt ast.Stmt) (ast.SemaStmt, error) {
	switch st := stmt.(type) {
	case *ast.Block:
		return r.block(st)

	case *ast.Return:
		if st.Value == nil {
			return &ast.SemaReturn{}, nil
		}
		v, err := r.expr(st.Value)
		if err != nil {
			return nil, err
		}
		return &ast.SemaReturn{Value: v}, nil

	case *ast.If:
		cond, err := r.expr(st.Cond)
		if err != nil {
			return nil, err
		}
		then, err := r.stmt(st.Then)
		if err != nil {
			return nil, err
		}
		out := &ast.SemaIf{Cond: cond, Then: then}
		if st.Else != nil {
			if out.Else, err = r.stmt(st.Else); err != nil {
				return nil, err
			}
		}
		return out, nil

	case *ast.While:
		cond, err := r.expr(st.Cond)
		if err != nil {
			return nil, err
		}
		body, err := r.stmt(st.Body)
		if err != nil {
			return nil, err
		}
		return &ast.SemaWhile{Cond: cond, Body: body}, nil

	case *ast.DoWhile:
		body, err := r.stmt(st.Body)
		if err != nil {
			return nil, err
		}
		cond, err := r.expr(st.Cond)
		if err != nil {
			return nil, err
		}
		return &ast.SemaDoWhile{Body: body, Cond: cond}, nil

	case *ast.For:
		out := &ast.SemaFor{}
		var err error
		if st.Init != nil {
			if out.Init, err = r.expr(st.Init); err != nil {
				return nil, err
			}
		}
		if st.Cond != nil {
			if out.Cond, err = r.expr(st.Cond); err != nil {
				return nil, err
			}
		}
		if st.Step != nil {
			if out.Step, err = r.expr(st.Step); err != nil {
				return nil, err
			}
		}
		if out.Body, err = r.stmt(st.Body); err != nil {
			return nil, err
		}
		return out, nil

	case *ast.Break:
		return &ast.SemaBreak{}, nil
	case *ast.Continue:
		return &ast.SemaContinue{}, nil

	case *ast.Switch:
		return r.switchStmt(st)

	case *ast.Goto:
		return &ast.SemaGoto{Label: st.Label}, nil

	case *ast.Labeled:
		inner, err := r.stmt(st.Stmt)
		if err != nil {
			return nil, err
		}
		return &ast.SemaLabeled{Name: st.Name, Stmt: inner}, nil

	case *ast.ExprStmt:
		x, err := r.expr(st.X)
		if err != nil {
			return nil, err
		}
		return &ast.SemaExprStmt{X: x}, nil

	default:
		return nil, cerr.Syntax("unexpected statement form")
	}
}

func (r *resolver) switchStmt(st *ast.Switch) (ast.SemaStmt, error) {
	subject, err := r.expr(st.Subject)
	if err != nil {
		return nil, err
	}
	out := &ast.SemaSwitch{Subject: subject}
	for _, c := range st.Cases {
		cv, err := r.expr(c.Value)
		if err != nil {
			return nil, err
		}
		n, err := consteval.Eval(cv)
		if err != nil {
			return nil, err
		}
		body, err := r.stmtList(c.Body)
		if err != nil {
			return nil, err
		}
		out.Cases = append(out.Cases, ast.SemaSwitchCase{Value: n, Body: body})
	}
	if st.Default != nil {
		if out.Default, err = r.stmtList(st.Default); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *resolver) stmtList(list []ast.Stmt) ([]ast.SemaStmt, error) {
	var out []ast.SemaStmt
	for _, st := range list {
		ts, err := r.stmts(st)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}
