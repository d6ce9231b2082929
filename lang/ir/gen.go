package ir

import (
	"golang.org/x/exp/slices"

	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/scope"
	"nanocc/lang/types"
)

// Generate lowers a typed program to symbolic stack commands, one command
// list per function. Global variable declarations are not representable in
// the stack frame model and are rejected; tag and typedef declarations at
// file scope carry no code and are fine.
func Generate(prog *ast.SemaProgram) (*Program, error) {
	g := &generator{
		nextLabel: labelFirst,
		defined:   make(map[scope.Symbol]bool),
	}
	out := &Program{}

	for _, st := range prog.Globals {
		if vd, ok := st.(*ast.SemaVarDecl); ok {
			return nil, cerr.Syntax("global variable %q is not supported by the stack back end", vd.Sym.Name)
		}
	}

	// entry labels are handed out before any body is generated so that a
	// call to a function defined later in the file resolves.
	for _, fd := range prog.Funcs {
		f := &Func{
			Sym:    fd.Sym,
			Type:   fd.Type,
			Entry:  g.newLabel(),
			Params: fd.Params,
		}
		out.Funcs = append(out.Funcs, f)
		g.defined[fd.Sym] = true
	}

	for i, fd := range prog.Funcs {
		g.out = nil
		g.breaks = g.breaks[:0]
		g.continues = g.continues[:0]
		g.userLabels = make(map[string]Label)
		if err := g.stmt(fd.Body); err != nil {
			return nil, err
		}
		// a function that falls off the end still pops its frame.
		if n := len(g.out); n == 0 || g.out[n-1].Kind != KindFramePop {
			g.emit(Command{Kind: KindFramePop})
		}
		out.Funcs[i].Body = g.out
	}
	return out, nil
}

// loopLabels records the unwind reference and jump target for one
// enclosing breakable (or continuable) construct.
type loopLabels struct {
	from   Label // label whose allocation snapshot bounds the unwind
	target Label // where to jump
}

type generator struct {
	out       []Command
	nextLabel Label

	breaks    []loopLabels
	continues []loopLabels

	// userLabels maps goto labels to stack labels, per function.
	userLabels map[string]Label

	// defined marks function symbols with a definition in this unit, to
	// tell a real call from a builtin.
	defined map[scope.Symbol]bool

	// tmps numbers the synthetic temporaries used by switch lowering.
	tmps int
}

func (g *generator) newLabel() Label {
	l := g.nextLabel
	g.nextLabel++
	return l
}

func (g *generator) emit(cmds ...Command) {
	g.out = append(g.out, cmds...)
}

func (g *generator) userLabel(name string) Label {
	if l, ok := g.userLabels[name]; ok {
		return l
	}
	l := g.newLabel()
	g.userLabels[name] = l
	return l
}

// newTemp allocates one hidden local bound to a synthetic symbol and
// returns the symbol. The cell is deallocated with the enclosing block
// like any other local.
func (g *generator) newTemp(t types.Type) scope.Symbol {
	g.tmps++
	sym := scope.Symbol{Name: "", Scope: nil}
	sym.Name = tempName(g.tmps)
	g.emit(
		Command{Kind: KindAlloc, Type: t},
		Command{Kind: KindName, Sym: sym},
	)
	return sym
}

func tempName(n int) string {
	// a name no C identifier can collide with.
	const digits = "0123456789"
	buf := []byte(".t")
	if n == 0 {
		return string(append(buf, '0'))
	}
	var rev []byte
	for n > 0 {
		rev = append(rev, digits[n%10])
		n /= 10
	}
	for i := len(rev) - 1; i >= 0; i-- {
		buf = append(buf, rev[i])
	}
	return string(buf)
}

func (g *generator) stmt(stmt ast.SemaStmt) error {
	switch st := stmt.(type) {
	case *ast.SemaBlock:
		l := g.newLabel()
		g.emit(Command{Kind: KindBlockStart, Label: l})
		for _, sub := range st.Stmts {
			if err := g.stmt(sub); err != nil {
				return err
			}
		}
		g.emit(Command{Kind: KindBlockEnd, Label: l})
		return nil

	case *ast.SemaVarDecl:
		return g.varDecl(st)

	case *ast.SemaExprStmt:
		return g.exprStmt(st.X)

	case *ast.SemaReturn:
		if st.Value != nil {
			if err := g.rvalue(st.Value); err != nil {
				return err
			}
			g.emit(Command{Kind: KindReturn, Type: st.Value.Type})
		}
		g.emit(
			Command{Kind: KindFramePop},
			// fence off the dead block cleanup that follows a mid-block
			// return, as for break and continue.
			Command{Kind: KindLabel, Label: g.newLabel()},
		)
		return nil

	case *ast.SemaIf:
		return g.ifStmt(st)
	case *ast.SemaWhile:
		return g.whileStmt(st)
	case *ast.SemaDoWhile:
		return g.doWhileStmt(st)
	case *ast.SemaFor:
		return g.forStmt(st)
	case *ast.SemaSwitch:
		return g.switchStmt(st)

	case *ast.SemaBreak:
		if len(g.breaks) == 0 {
			return cerr.Syntax("break outside of a loop or switch")
		}
		g.unwindJump(g.breaks[len(g.breaks)-1])
		return nil

	case *ast.SemaContinue:
		if len(g.continues) == 0 {
			return cerr.Syntax("continue outside of a loop")
		}
		g.unwindJump(g.continues[len(g.continues)-1])
		return nil

	case *ast.SemaGoto:
		l := g.userLabel(st.Label)
		g.emit(
			Command{Kind: KindGoto, Label: l},
			// control never falls through into a label region, so the
			// code after an unconditional jump hides behind a label
			// nothing jumps to.
			Command{Kind: KindLabel, Label: g.newLabel()},
		)
		return nil

	case *ast.SemaLabeled:
		l := g.userLabel(st.Name)
		g.emit(
			Command{Kind: KindGoto, Label: l},
			Command{Kind: KindLabel, Label: l},
		)
		return g.stmt(st.Stmt)

	default:
		return cerr.Syntax("unexpected statement form in code generation")
	}
}

// unwindJump emits the break/continue sequence: deallocate everything
// allocated since the reference label, jump, and fence off the dead code
// that follows.
func (g *generator) unwindJump(ll loopLabels) {
	g.emit(
		Command{Kind: KindClearStackFrom, Label: ll.from},
		Command{Kind: KindGoto, Label: ll.target},
		Command{Kind: KindLabel, Label: g.newLabel()},
	)
}

func (g *generator) ifStmt(st *ast.SemaIf) error {
	if err := g.rvalue(st.Cond); err != nil {
		return err
	}
	lthen, lend := g.newLabel(), g.newLabel()
	if st.Else == nil {
		g.emit(
			Command{Kind: KindBranch, True: lthen, False: lend},
			Command{Kind: KindLabel, Label: lthen},
		)
		if err := g.stmt(st.Then); err != nil {
			return err
		}
		g.emit(
			Command{Kind: KindGoto, Label: lend},
			Command{Kind: KindLabel, Label: lend},
		)
		return nil
	}

	lelse := g.newLabel()
	g.emit(
		Command{Kind: KindBranch, True: lthen, False: lelse},
		Command{Kind: KindLabel, Label: lthen},
	)
	if err := g.stmt(st.Then); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindGoto, Label: lend},
		Command{Kind: KindLabel, Label: lelse},
	)
	if err := g.stmt(st.Else); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindGoto, Label: lend},
		Command{Kind: KindLabel, Label: lend},
	)
	return nil
}

func (g *generator) whileStmt(st *ast.SemaWhile) error {
	lstart, lbody, lend := g.newLabel(), g.newLabel(), g.newLabel()
	g.breaks = append(g.breaks, loopLabels{from: lstart, target: lend})
	g.continues = append(g.continues, loopLabels{from: lstart, target: lstart})

	g.emit(
		Command{Kind: KindGoto, Label: lstart},
		Command{Kind: KindLabel, Label: lstart},
	)
	if err := g.rvalue(st.Cond); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindBranch, True: lbody, False: lend},
		Command{Kind: KindLabel, Label: lbody},
	)
	if err := g.stmt(st.Body); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindGoto, Label: lstart},
		Command{Kind: KindLabel, Label: lend},
	)

	g.breaks = g.breaks[:len(g.breaks)-1]
	g.continues = g.continues[:len(g.continues)-1]
	return nil
}

func (g *generator) doWhileStmt(st *ast.SemaDoWhile) error {
	lstart, lcond, lend := g.newLabel(), g.newLabel(), g.newLabel()
	g.breaks = append(g.breaks, loopLabels{from: lstart, target: lend})
	g.continues = append(g.continues, loopLabels{from: lstart, target: lcond})

	g.emit(
		Command{Kind: KindGoto, Label: lstart},
		Command{Kind: KindLabel, Label: lstart},
	)
	if err := g.stmt(st.Body); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindGoto, Label: lcond},
		Command{Kind: KindLabel, Label: lcond},
	)
	if err := g.rvalue(st.Cond); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindBranch, True: lstart, False: lend},
		Command{Kind: KindLabel, Label: lend},
	)

	g.breaks = g.breaks[:len(g.breaks)-1]
	g.continues = g.continues[:len(g.continues)-1]
	return nil
}

func (g *generator) forStmt(st *ast.SemaFor) error {
	lstart, lbody, lstep, lend := g.newLabel(), g.newLabel(), g.newLabel(), g.newLabel()
	g.breaks = append(g.breaks, loopLabels{from: lstart, target: lend})
	g.continues = append(g.continues, loopLabels{from: lstart, target: lstep})

	if st.Init != nil {
		if err := g.exprStmt(st.Init); err != nil {
			return err
		}
	}
	g.emit(
		Command{Kind: KindGoto, Label: lstart},
		Command{Kind: KindLabel, Label: lstart},
	)
	if st.Cond != nil {
		if err := g.rvalue(st.Cond); err != nil {
			return err
		}
		g.emit(Command{Kind: KindBranch, True: lbody, False: lend})
	} else {
		g.emit(Command{Kind: KindGoto, Label: lbody})
	}
	g.emit(Command{Kind: KindLabel, Label: lbody})
	if err := g.stmt(st.Body); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindGoto, Label: lstep},
		Command{Kind: KindLabel, Label: lstep},
	)
	if st.Step != nil {
		if err := g.exprStmt(st.Step); err != nil {
			return err
		}
	}
	g.emit(
		Command{Kind: KindGoto, Label: lstart},
		Command{Kind: KindLabel, Label: lend},
	)

	g.breaks = g.breaks[:len(g.breaks)-1]
	g.continues = g.continues[:len(g.continues)-1]
	return nil
}

// switchStmt evaluates the subject once into a hidden temporary, compares
// it against each case value in order, and threads the case bodies so
// that C's fall-through works under the no-fall-through-into-a-label
// rule: each body ends with an explicit jump to the next one.
func (g *generator) switchStmt(st *ast.SemaSwitch) error {
	lsw, lend := g.newLabel(), g.newLabel()

	// the subject lands in a hidden temporary before the dispatch label,
	// so a break's unwind (anchored at the label) leaves the temporary to
	// the enclosing block's own cleanup.
	tmp := g.newTemp(types.TheInt)
	if err := g.rvalue(st.Subject); err != nil {
		return err
	}
	g.emit(
		Command{Kind: KindSymbol, Sym: tmp},
		Command{Kind: KindAccessUseLA},
		Command{Kind: KindStore, Type: types.TheInt},
	)

	g.emit(
		Command{Kind: KindGoto, Label: lsw},
		Command{Kind: KindLabel, Label: lsw},
	)
	g.breaks = append(g.breaks, loopLabels{from: lsw, target: lend})

	bodies := make([]Label, len(st.Cases))
	for i := range st.Cases {
		bodies[i] = g.newLabel()
	}
	ldefault := lend
	if st.Default != nil {
		ldefault = g.newLabel()
	}

	// dispatch chain: each failed comparison falls to the next check
	// through its own label.
	for i, c := range st.Cases {
		g.emit(
			Command{Kind: KindSymbol, Sym: tmp},
			Command{Kind: KindAccessUseLA},
			Command{Kind: KindLoad, Type: types.TheInt},
			Command{Kind: KindPush, Value: int(c.Value)},
			Command{Kind: KindBinary, Bin: Eq},
		)
		next := g.newLabel()
		g.emit(
			Command{Kind: KindBranch, True: bodies[i], False: next},
			Command{Kind: KindLabel, Label: next},
		)
	}
	g.emit(Command{Kind: KindGoto, Label: ldefault})

	for i, c := range st.Cases {
		g.emit(Command{Kind: KindLabel, Label: bodies[i]})
		// each body is its own allocation block so that a break in it
		// keeps the unwind accounting balanced.
		bl := g.newLabel()
		g.emit(Command{Kind: KindBlockStart, Label: bl})
		for _, sub := range c.Body {
			if err := g.stmt(sub); err != nil {
				return err
			}
		}
		g.emit(Command{Kind: KindBlockEnd, Label: bl})
		// fall through to the next body, or into default, or out.
		next := ldefault
		if i+1 < len(bodies) {
			next = bodies[i+1]
		}
		g.emit(Command{Kind: KindGoto, Label: next})
	}
	if st.Default != nil {
		g.emit(Command{Kind: KindLabel, Label: ldefault})
		bl := g.newLabel()
		g.emit(Command{Kind: KindBlockStart, Label: bl})
		for _, sub := range st.Default {
			if err := g.stmt(sub); err != nil {
				return err
			}
		}
		g.emit(Command{Kind: KindBlockEnd, Label: bl})
		g.emit(Command{Kind: KindGoto, Label: lend})
	}
	g.emit(Command{Kind: KindLabel, Label: lend})

	g.breaks = g.breaks[:len(g.breaks)-1]
	return nil
}

// varDecl allocates the local, binds its symbol to the fresh cells, and
// stores the initializer. Compound initializers are flattened to one
// value per cell in row-major order and pushed in reverse, so the value
// for the lowest cell ends on top; each per-cell store then consumes the
// top of the stack.
func (g *generator) varDecl(st *ast.SemaVarDecl) error {
	t, ok := st.Sym.Type()
	if !ok {
		return cerr.Undefined(st.Sym.Name)
	}
	g.emit(
		Command{Kind: KindAlloc, Type: t},
		Command{Kind: KindName, Sym: st.Sym},
	)
	if st.Init == nil {
		return nil
	}

	size := types.CellSize(t)
	if ei, ok := st.Init.(*ast.SemaExprInit); ok && size == 1 {
		if err := g.rvalue(ei.X); err != nil {
			return err
		}
		g.emit(
			Command{Kind: KindSymbol, Sym: st.Sym},
			Command{Kind: KindAccessUseLA},
			Command{Kind: KindStore, Type: t},
		)
		return nil
	}

	cells, err := flattenInit(t, st.Init)
	if err != nil {
		return err
	}
	rev := slices.Clone(cells)
	slices.Reverse(rev)
	for _, cell := range rev {
		if err := g.initCellValue(cell); err != nil {
			return err
		}
	}
	for k := range cells {
		// cell k sits size-1-k below the symbol's anchor (the top cell of
		// the allocation).
		g.emit(Command{Kind: KindSymbol, Sym: st.Sym})
		if off := size - 1 - k; off != 0 {
			g.emit(
				Command{Kind: KindPush, Value: off},
				Command{Kind: KindBinary, Bin: Sub},
			)
		}
		g.emit(
			Command{Kind: KindAccessUseLA},
			Command{Kind: KindStore, Type: types.TheInt},
		)
	}
	return nil
}

// initCell is one scalar cell of a flattened initializer: either an
// expression to evaluate or a literal byte from a string initializer.
type initCell struct {
	expr *ast.TypedExpr
	b    byte
}

func (g *generator) initCellValue(c initCell) error {
	if c.expr != nil {
		return g.rvalue(c.expr)
	}
	g.emit(Command{Kind: KindPush, Value: int(c.b)})
	return nil
}

// flattenInit linearizes an initializer into one entry per stack cell, in
// row-major (outer-first) order.
func flattenInit(t types.Type, init ast.SemaInitializer) ([]initCell, error) {
	var out []initCell
	var walk func(t types.Type, init ast.SemaInitializer) error
	walk = func(t types.Type, init ast.SemaInitializer) error {
		switch in := init.(type) {
		case *ast.SemaExprInit:
			if s, ok := in.X.Expr.(*ast.SemaString); ok {
				if arr, isArr := types.Flat(t).(*types.Array); isArr {
					n := types.CellSize(arr)
					for i := 0; i < n; i++ {
						var b byte
						if i < len(s.Value) {
							b = s.Value[i]
						}
						out = append(out, initCell{b: b})
					}
					return nil
				}
			}
			out = append(out, initCell{expr: in.X})
			return nil
		case *ast.SemaCompoundInit:
			switch tt := types.Flat(t).(type) {
			case *types.Array:
				for _, e := range in.Elems {
					if err := walk(tt.Elem, e); err != nil {
						return err
					}
				}
				return nil
			case *types.Struct:
				for i, e := range in.Elems {
					if err := walk(tt.Def.Fields[i].Type, e); err != nil {
						return err
					}
				}
				return nil
			default:
				return cerr.Syntax("compound initializer for a non-aggregate type")
			}
		}
		return cerr.Syntax("malformed initializer in code generation")
	}
	if err := walk(t, init); err != nil {
		return nil, err
	}
	return out, nil
}
