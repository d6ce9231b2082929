package ir

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/consteval"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// Expressions lower in one of three modes:
//
//   - rvalue pushes the expression's value;
//   - addr pushes its global address (the form pointers hold);
//   - lvalue pushes the local, distance-from-top address the Store
//     command consumes.
//
// A symbol's plain lvalue is local by construction (Symbol then
// AccessUseLA); every other lvalue goes through its global address and a
// final AccessUseGA conversion.

func (g *generator) rvalue(e *ast.TypedExpr) error {
	switch ex := e.Expr.(type) {
	case *ast.SemaInt:
		g.emit(Command{Kind: KindPush, Value: int(ex.Value)})
		return nil
	case *ast.SemaChar:
		g.emit(Command{Kind: KindPush, Value: int(ex.Value)})
		return nil
	case *ast.SemaFloat:
		return cerr.ConstEval("floating-point code generation is not supported by the stack back end")
	case *ast.SemaString:
		return cerr.ConstEval("a string literal can only initialize a char array in the stack back end")

	case *ast.SemaSymbol:
		t, ok := ex.Sym.Type()
		if !ok {
			return cerr.Undefined(ex.Sym.Name)
		}
		switch types.Flat(t).(type) {
		case *types.Func:
			// a function's value is its entry label.
			g.emit(Command{Kind: KindSymbol, Sym: ex.Sym})
			return nil
		case *types.Array:
			// arrays decay to the address of their first element.
			return g.addr(e)
		default:
			g.emit(
				Command{Kind: KindSymbol, Sym: ex.Sym},
				Command{Kind: KindAccessUseLA},
				Command{Kind: KindLoad, Type: t},
			)
			return nil
		}

	case *ast.SemaBinary:
		if err := g.rvalue(ex.L); err != nil {
			return err
		}
		if err := g.rvalue(ex.R); err != nil {
			return err
		}
		g.emit(Command{Kind: KindBinary, Bin: binOpFor[ex.Op]})
		return nil

	case *ast.SemaUnary:
		return g.unaryRvalue(e, ex)

	case *ast.SemaAssign:
		if err := g.assign(ex); err != nil {
			return err
		}
		// reload the target so the assignment yields a value; the target
		// is re-evaluated, so side effects in it happen twice.
		return g.rvalue(ex.L)

	case *ast.SemaTernary:
		return g.ternary(ex)

	case *ast.SemaCast:
		// int/char casts are value-preserving on one-cell operands.
		return g.rvalue(ex.X)

	case *ast.SemaSizeof:
		g.emit(Command{Kind: KindPush, Value: consteval.SizeofValue})
		return nil

	case *ast.SemaComma:
		for i, sub := range ex.List {
			if i == len(ex.List)-1 {
				return g.rvalue(sub)
			}
			if err := g.exprStmt(sub); err != nil {
				return err
			}
		}
		return nil

	case *ast.SemaCall:
		return g.call(ex)

	case *ast.SemaSubscript, *ast.SemaMember:
		if _, ok := types.Flat(e.Type).(*types.Array); ok {
			return g.addr(e)
		}
		if err := g.addr(e); err != nil {
			return err
		}
		g.emit(
			Command{Kind: KindAccessUseGA},
			Command{Kind: KindLoad, Type: e.Type},
		)
		return nil

	default:
		return cerr.Syntax("unexpected expression form in code generation")
	}
}

func (g *generator) unaryRvalue(e *ast.TypedExpr, ex *ast.SemaUnary) error {
	switch ex.Op {
	case token.BANG:
		if err := g.rvalue(ex.X); err != nil {
			return err
		}
		g.emit(Command{Kind: KindUnary, Un: LogNot})
		return nil
	case token.TILDE:
		if err := g.rvalue(ex.X); err != nil {
			return err
		}
		g.emit(Command{Kind: KindUnary, Un: BitNot})
		return nil
	case token.AMP:
		return g.addr(ex.X)
	case token.STAR:
		if err := g.rvalue(ex.X); err != nil {
			return err
		}
		if _, ok := types.Flat(e.Type).(*types.Array); ok {
			// dereferencing a pointer to an array yields the array,
			// which decays right back to the same address.
			return nil
		}
		g.emit(
			Command{Kind: KindAccessUseGA},
			Command{Kind: KindLoad, Type: e.Type},
		)
		return nil
	default:
		return cerr.Syntax("unexpected unary operator in code generation")
	}
}

// addr pushes the global address of e.
func (g *generator) addr(e *ast.TypedExpr) error {
	switch ex := e.Expr.(type) {
	case *ast.SemaSymbol:
		t, ok := ex.Sym.Type()
		if !ok {
			return cerr.Undefined(ex.Sym.Name)
		}
		if _, isFunc := types.Flat(t).(*types.Func); isFunc {
			g.emit(Command{Kind: KindSymbol, Sym: ex.Sym})
			return nil
		}
		g.emit(Command{Kind: KindSymbol, Sym: ex.Sym})
		// the symbol anchors to the top cell of its allocation; the
		// object's address is its lowest cell.
		if size := types.CellSize(t); size > 1 {
			g.emit(
				Command{Kind: KindPush, Value: size - 1},
				Command{Kind: KindBinary, Bin: Sub},
			)
		}
		g.emit(Command{Kind: KindAddress})
		return nil

	case *ast.SemaUnary:
		if ex.Op != token.STAR {
			return cerr.Syntax("cannot take the address of this expression")
		}
		// the address of *p is the value of p.
		return g.rvalue(ex.X)

	case *ast.SemaSubscript:
		if err := g.decayAddr(ex.X); err != nil {
			return err
		}
		if err := g.rvalue(ex.Index); err != nil {
			return err
		}
		g.emit(Command{Kind: KindIndexAccess, Type: elemType(ex.X.Type)})
		return nil

	case *ast.SemaMember:
		if err := g.addr(ex.X); err != nil {
			return err
		}
		if off := fieldOffset(ex.X.Type, ex.Name); off != 0 {
			g.emit(
				Command{Kind: KindPush, Value: off},
				Command{Kind: KindBinary, Bin: Add},
			)
		}
		return nil

	default:
		return cerr.Syntax("cannot take the address of this expression")
	}
}

// decayAddr pushes the address a subscript base designates: the value of
// a pointer, or the decayed address of an array.
func (g *generator) decayAddr(base *ast.TypedExpr) error {
	if _, ok := types.Flat(base.Type).(*types.Array); ok {
		return g.addr(base)
	}
	return g.rvalue(base)
}

func elemType(t types.Type) types.Type {
	switch tt := types.Flat(t).(type) {
	case *types.Array:
		return tt.Elem
	case *types.Pointer:
		return tt.Elem
	}
	return types.TheInt
}

// fieldOffset is the cell offset of a member from the aggregate's lowest
// cell: fields lay out lowest-first in a struct, and all share offset 0 in
// a union.
func fieldOffset(t types.Type, name string) int {
	st, ok := types.Flat(t).(*types.Struct)
	if !ok {
		return 0
	}
	off := 0
	for _, f := range st.Def.Fields {
		if f.Name == name {
			return off
		}
		off += types.CellSize(f.Type)
	}
	return 0
}

// lvalue pushes the local address Store consumes.
func (g *generator) lvalue(e *ast.TypedExpr) error {
	if ex, ok := e.Expr.(*ast.SemaSymbol); ok {
		t, tok := ex.Sym.Type()
		if !tok {
			return cerr.Undefined(ex.Sym.Name)
		}
		if types.CellSize(t) == 1 {
			g.emit(
				Command{Kind: KindSymbol, Sym: ex.Sym},
				Command{Kind: KindAccessUseLA},
			)
			return nil
		}
	}
	if err := g.addr(e); err != nil {
		return err
	}
	g.emit(Command{Kind: KindAccessUseGA})
	return nil
}

// assign stores rhs into lhs and leaves nothing on the stack. One-cell
// values go through a single Store; aggregates copy cell by cell.
func (g *generator) assign(ex *ast.SemaAssign) error {
	size := types.CellSize(ex.L.Type)
	if size == 1 {
		if err := g.rvalue(ex.R); err != nil {
			return err
		}
		if err := g.lvalue(ex.L); err != nil {
			return err
		}
		g.emit(Command{Kind: KindStore, Type: ex.L.Type})
		return nil
	}

	for k := 0; k < size; k++ {
		if err := g.addr(ex.R); err != nil {
			return err
		}
		if k != 0 {
			g.emit(
				Command{Kind: KindPush, Value: k},
				Command{Kind: KindBinary, Bin: Add},
			)
		}
		g.emit(
			Command{Kind: KindAccessUseGA},
			Command{Kind: KindLoad, Type: types.TheInt},
		)
		if err := g.addr(ex.L); err != nil {
			return err
		}
		if k != 0 {
			g.emit(
				Command{Kind: KindPush, Value: k},
				Command{Kind: KindBinary, Bin: Add},
			)
		}
		g.emit(
			Command{Kind: KindAccessUseGA},
			Command{Kind: KindStore, Type: types.TheInt},
		)
	}
	return nil
}

// ternary lowers to a branch where each arm pushes the result value and
// jumps to the join. Exactly one arm runs, so the net effect is one push;
// the stack-model adjustment between the arms keeps the resolver's linear
// accounting in step with that.
func (g *generator) ternary(ex *ast.SemaTernary) error {
	if err := g.rvalue(ex.Cond); err != nil {
		return err
	}
	lthen, lelse, lend := g.newLabel(), g.newLabel(), g.newLabel()
	g.emit(
		Command{Kind: KindBranch, True: lthen, False: lelse},
		Command{Kind: KindLabel, Label: lthen},
	)
	if err := g.rvalue(ex.Then); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindGoto, Label: lend},
		Command{Kind: KindStackAdjust, Value: -1},
		Command{Kind: KindLabel, Label: lelse},
	)
	if err := g.rvalue(ex.Else); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindGoto, Label: lend},
		Command{Kind: KindLabel, Label: lend},
	)
	return nil
}

// call lowers a function call: allocate the return slot, push the return
// point and the callee's frame anchor, push the arguments in order, push
// the callee's address, then transfer control.
func (g *generator) call(ex *ast.SemaCall) error {
	if sym, ok := ex.Fun.Expr.(*ast.SemaSymbol); ok && !g.defined[sym.Sym] {
		switch sym.Sym.Name {
		case "putchar":
			if err := g.rvalue(ex.Args[0]); err != nil {
				return err
			}
			g.emit(
				Command{Kind: KindPutChar},
				// the written character is consumed; putchar's own result
				// is a plain zero.
				Command{Kind: KindPush, Value: 0},
			)
			return nil
		case "getchar":
			g.emit(Command{Kind: KindInput})
			return nil
		}
	}

	ft, ok := types.Flat(ex.Fun.Type).(*types.Func)
	if !ok {
		return cerr.InvalidOp("call", types.ToRustFormat(ex.Fun.Type))
	}

	g.emit(Command{Kind: KindComment, Text: "call " + funName(ex.Fun)})
	if !isVoidType(ft.Return) {
		g.emit(Command{Kind: KindAlloc, Type: ft.Return})
	}
	ret := g.newLabel()
	g.emit(
		Command{Kind: KindReturnPoint, Label: ret},
		Command{Kind: KindGlobalAddress},
	)
	for _, a := range ex.Args {
		if err := g.rvalue(a); err != nil {
			return err
		}
	}
	if err := g.rvalue(ex.Fun); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindCall, Func: ft},
		Command{Kind: KindLabel, Label: ret},
	)
	return nil
}

func funName(fun *ast.TypedExpr) string {
	if sym, ok := fun.Expr.(*ast.SemaSymbol); ok {
		return sym.Sym.Name
	}
	return "<indirect>"
}

func isVoidType(t types.Type) bool {
	b, ok := types.Flat(t).(*types.Basic)
	return ok && b.Kind == types.Void
}

// exprStmt lowers an expression in statement position: its value, if any,
// is popped. Assignments and comma chains store without materializing a
// value at all.
func (g *generator) exprStmt(e *ast.TypedExpr) error {
	switch ex := e.Expr.(type) {
	case *ast.SemaAssign:
		return g.assign(ex)
	case *ast.SemaComma:
		for _, sub := range ex.List {
			if err := g.exprStmt(sub); err != nil {
				return err
			}
		}
		return nil
	}

	if err := g.rvalue(e); err != nil {
		return err
	}
	if !isVoidType(e.Type) {
		// aggregates reach statement position as a decayed one-cell
		// address, so the pop is always one cell wide.
		popType := e.Type
		if types.CellSize(popType) > 1 {
			popType = types.TheInt
		}
		g.emit(Command{Kind: KindPop, Type: popType})
	}
	return nil
}
