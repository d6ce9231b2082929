// Package simplify implements the mandatory desugaring pass that runs
// between parsing and type resolution. After it, the AST contains no
// postfix increment/decrement, no prefix increment/decrement, no compound
// assignment, no unary plus or minus, no "->" member access, and no inline
// tagged definition inside a typedef. The type resolver and the back ends
// rely on these post-conditions.
package simplify

import (
	"fmt"

	"nanocc/lang/ast"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// Program returns a simplified copy of prog. The scope tree is shared with
// the input: simplification rewrites syntax only, never bindings.
func Program(prog *ast.Program) *ast.Program {
	s := &simplifier{}
	out := &ast.Program{Scope: prog.Scope}
	for _, item := range prog.Items {
		out.Items = append(out.Items, s.topLevel(item))
	}
	return out
}

type simplifier struct {
	// anonTags counts the synthetic tags handed to anonymous aggregates
	// pulled out of typedefs.
	anonTags int
}

func (s *simplifier) topLevel(item ast.TopLevel) ast.TopLevel {
	switch it := item.(type) {
	case *ast.FuncDef:
		return &ast.FuncDef{
			Name:   it.Name,
			Type:   it.Type,
			Params: it.Params,
			Body:   s.block(it.Body),
		}
	case *ast.FuncProto:
		return it
	case *ast.DeclStmt:
		return s.declStmt(it)
	default:
		return item
	}
}

func (s *simplifier) stmt(stmt ast.Stmt) ast.Stmt {
	switch st := stmt.(type) {
	case *ast.Block:
		return s.block(st)
	case *ast.Return:
		return &ast.Return{Value: s.exprOrNil(st.Value)}
	case *ast.If:
		out := &ast.If{Cond: s.expr(st.Cond), Then: s.stmt(st.Then)}
		if st.Else != nil {
			out.Else = s.stmt(st.Else)
		}
		return out
	case *ast.While:
		return &ast.While{Cond: s.expr(st.Cond), Body: s.stmt(st.Body)}
	case *ast.DoWhile:
		return &ast.DoWhile{Body: s.stmt(st.Body), Cond: s.expr(st.Cond)}
	case *ast.For:
		return &ast.For{
			Init: s.exprOrNil(st.Init),
			Cond: s.exprOrNil(st.Cond),
			Step: s.exprOrNil(st.Step),
			Body: s.stmt(st.Body),
		}
	case *ast.Switch:
		out := &ast.Switch{Subject: s.expr(st.Subject)}
		for _, c := range st.Cases {
			out.Cases = append(out.Cases, ast.SwitchCase{
				Value: s.expr(c.Value),
				Body:  s.stmts(c.Body),
			})
		}
		if st.Default != nil {
			out.Default = s.stmts(st.Default)
		}
		return out
	case *ast.Labeled:
		return &ast.Labeled{Name: st.Name, Stmt: s.stmt(st.Stmt)}
	case *ast.ExprStmt:
		return &ast.ExprStmt{X: s.expr(st.X)}
	case *ast.DeclStmt:
		return s.declStmt(st)
	default:
		// Break, Continue, Goto carry nothing to simplify.
		return stmt
	}
}

func (s *simplifier) block(b *ast.Block) *ast.Block {
	return &ast.Block{Stmts: s.stmts(b.Stmts), Scope: b.Scope}
}

func (s *simplifier) stmts(list []ast.Stmt) []ast.Stmt {
	if list == nil {
		return nil
	}
	out := make([]ast.Stmt, len(list))
	for i, st := range list {
		out[i] = s.stmt(st)
	}
	return out
}

// declStmt simplifies initializers and splits tagged-typedef declarations:
// "typedef struct T {...} A;" becomes the definition of T followed by a
// typedef that merely aliases the tag. Anonymous aggregates get a fresh
// synthetic tag first.
func (s *simplifier) declStmt(ds *ast.DeclStmt) *ast.DeclStmt {
	out := &ast.DeclStmt{}
	for _, d := range ds.Decls {
		switch dd := d.(type) {
		case *ast.VarDecl:
			vd := &ast.VarDecl{Name: dd.Name, Type: dd.Type}
			if dd.Init != nil {
				vd.Init = s.initializer(dd.Init)
			}
			out.Decls = append(out.Decls, vd)
		case *ast.TypedefInline:
			tag := dd.Tag
			if tagName(tag.Type) == "" {
				s.anonTags++
				setTagName(tag.Type, fmt.Sprintf("__anon%d", s.anonTags))
			}
			out.Decls = append(out.Decls, tag)
			out.Decls = append(out.Decls, &ast.TypedefDecl{
				Name: dd.Typedef.Name,
				Type: dd.Typedef.Type,
			})
		default:
			out.Decls = append(out.Decls, d)
		}
	}
	return out
}

func tagName(t types.Type) string {
	switch tt := t.(type) {
	case *types.Struct:
		return tt.Def.Tag
	case *types.Union:
		return tt.Def.Tag
	case *types.Enum:
		return tt.Def.Tag
	}
	return ""
}

func setTagName(t types.Type, tag string) {
	switch tt := t.(type) {
	case *types.Struct:
		tt.Def.Tag = tag
	case *types.Union:
		tt.Def.Tag = tag
	case *types.Enum:
		tt.Def.Tag = tag
	}
}

func (s *simplifier) initializer(init ast.Initializer) ast.Initializer {
	switch in := init.(type) {
	case *ast.ExprInit:
		return &ast.ExprInit{X: s.expr(in.X)}
	case *ast.CompoundInit:
		out := &ast.CompoundInit{Elems: make([]ast.Initializer, len(in.Elems))}
		for i, e := range in.Elems {
			out.Elems[i] = s.initializer(e)
		}
		return out
	}
	return init
}

func (s *simplifier) exprOrNil(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	return s.expr(e)
}

// expr rewrites one expression bottom-up.
func (s *simplifier) expr(e ast.Expr) ast.Expr {
	switch ex := e.(type) {
	case *ast.Unary:
		x := s.expr(ex.X)
		switch ex.Op {
		case token.PLUS:
			return x
		case token.MINUS:
			// -e is 0 - e.
			return &ast.Binary{Op: token.MINUS, L: &ast.IntLit{Value: 0}, R: x}
		case token.PLUSPLUS:
			return &ast.Assign{Op: token.EQ, L: x, R: &ast.Binary{
				Op: token.PLUS, L: x, R: &ast.IntLit{Value: 1},
			}}
		case token.MINUSMINUS:
			return &ast.Assign{Op: token.EQ, L: x, R: &ast.Binary{
				Op: token.MINUS, L: x, R: &ast.IntLit{Value: 1},
			}}
		default:
			return &ast.Unary{Op: ex.Op, X: x}
		}

	case *ast.Postfix:
		// x++ is (x = x + 1, x - 1): the operand is re-evaluated, which
		// matches the postfix convention only for side-effect-free
		// operands.
		x := s.expr(ex.X)
		step, undo := token.PLUS, token.MINUS
		if ex.Op == token.MINUSMINUS {
			step, undo = token.MINUS, token.PLUS
		}
		return &ast.Comma{List: []ast.Expr{
			&ast.Assign{Op: token.EQ, L: x, R: &ast.Binary{
				Op: step, L: x, R: &ast.IntLit{Value: 1},
			}},
			&ast.Binary{Op: undo, L: x, R: &ast.IntLit{Value: 1}},
		}}

	case *ast.Assign:
		l, r := s.expr(ex.L), s.expr(ex.R)
		if ex.Op == token.EQ {
			return &ast.Assign{Op: token.EQ, L: l, R: r}
		}
		// x op= e is x = x op e.
		return &ast.Assign{Op: token.EQ, L: l, R: &ast.Binary{
			Op: ex.Op.BinOpForAssign(), L: l, R: r,
		}}

	case *ast.Member:
		x := s.expr(ex.X)
		if ex.Kind == token.ARROW {
			// p->m is (*p).m.
			return &ast.Member{
				X:    &ast.Unary{Op: token.STAR, X: x},
				Kind: token.DOT,
				Name: ex.Name,
			}
		}
		return &ast.Member{X: x, Kind: token.DOT, Name: ex.Name}

	case *ast.Binary:
		return &ast.Binary{Op: ex.Op, L: s.expr(ex.L), R: s.expr(ex.R)}
	case *ast.Ternary:
		return &ast.Ternary{Cond: s.expr(ex.Cond), Then: s.expr(ex.Then), Else: s.expr(ex.Else)}
	case *ast.Cast:
		return &ast.Cast{To: ex.To, X: s.expr(ex.X)}
	case *ast.Sizeof:
		if ex.X != nil {
			return &ast.Sizeof{X: s.expr(ex.X)}
		}
		return ex
	case *ast.Comma:
		out := &ast.Comma{List: make([]ast.Expr, len(ex.List))}
		for i, sub := range ex.List {
			out.List[i] = s.expr(sub)
		}
		return out
	case *ast.Call:
		out := &ast.Call{Fun: s.expr(ex.Fun)}
		for _, a := range ex.Args {
			out.Args = append(out.Args, s.expr(a))
		}
		return out
	case *ast.Subscript:
		return &ast.Subscript{X: s.expr(ex.X), Index: s.expr(ex.Index)}
	default:
		// literals and identifier references are already in simplest form.
		return e
	}
}
