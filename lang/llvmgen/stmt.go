package llvmgen

import (
	"fmt"

	"nanocc/lang/ast"
	"nanocc/lang/cerr"
)

func (e *emitter) stmt(stmt ast.SemaStmt) error {
	switch st := stmt.(type) {
	case *ast.SemaBlock:
		for _, sub := range st.Stmts {
			if err := e.stmt(sub); err != nil {
				return err
			}
		}
		return nil

	case *ast.SemaVarDecl:
		return e.varDecl(st)

	case *ast.SemaExprStmt:
		_, err := e.rvalue(st.X)
		return err

	case *ast.SemaReturn:
		if st.Value != nil {
			v, err := e.rvalue(st.Value)
			if err != nil {
				return err
			}
			t := llvmType(st.Value.Type)
			e.ins("store %s %s, %s* %s", t, v, t, e.retPtr)
		}
		e.term("br label %%%s", e.retLabel)
		return nil

	case *ast.SemaIf:
		return e.ifStmt(st)
	case *ast.SemaWhile:
		return e.whileStmt(st)
	case *ast.SemaDoWhile:
		return e.doWhileStmt(st)
	case *ast.SemaFor:
		return e.forStmt(st)
	case *ast.SemaSwitch:
		return e.switchStmt(st)

	case *ast.SemaBreak:
		if len(e.breaks) == 0 {
			return cerr.Syntax("break outside of a loop or switch")
		}
		e.term("br label %%%s", e.breaks[len(e.breaks)-1])
		return nil

	case *ast.SemaContinue:
		if len(e.continues) == 0 {
			return cerr.Syntax("continue outside of a loop")
		}
		e.term("br label %%%s", e.continues[len(e.continues)-1])
		return nil

	case *ast.SemaGoto:
		e.term("br label %%usr_%s", st.Label)
		return nil

	case *ast.SemaLabeled:
		e.label("usr_" + st.Name)
		return e.stmt(st.Stmt)

	default:
		return cerr.Syntax("unexpected statement form in LLVM emission")
	}
}

func (e *emitter) varDecl(st *ast.SemaVarDecl) error {
	t, ok := st.Sym.Type()
	if !ok {
		return cerr.Undefined(st.Sym.Name)
	}
	ptr := e.newTmp()
	e.ins("%s = alloca %s", ptr, llvmType(t))
	e.vars[st.Sym] = ptr

	switch init := st.Init.(type) {
	case nil:
		return nil
	case *ast.SemaExprInit:
		v, err := e.rvalue(init.X)
		if err != nil {
			return err
		}
		lt := llvmType(t)
		e.ins("store %s %s, %s* %s", lt, v, lt, ptr)
		return nil
	case *ast.SemaCompoundInit:
		return e.compoundInit(t, ptr, init)
	default:
		return cerr.Syntax("malformed initializer in LLVM emission")
	}
}

func (e *emitter) ifStmt(st *ast.SemaIf) error {
	cond, err := e.condValue(st.Cond)
	if err != nil {
		return err
	}
	lthen := e.newLabel("if_true")
	lelse := e.newLabel("if_false")
	lend := e.newLabel("if_end")

	if st.Else == nil {
		e.term("br i1 %s, label %%%s, label %%%s", cond, lthen, lend)
		e.label(lthen)
		if err := e.stmt(st.Then); err != nil {
			return err
		}
		e.label(lend)
		return nil
	}

	e.term("br i1 %s, label %%%s, label %%%s", cond, lthen, lelse)
	e.label(lthen)
	if err := e.stmt(st.Then); err != nil {
		return err
	}
	e.term("br label %%%s", lend)
	e.label(lelse)
	if err := e.stmt(st.Else); err != nil {
		return err
	}
	e.label(lend)
	return nil
}

func (e *emitter) whileStmt(st *ast.SemaWhile) error {
	lbegin := e.newLabel("begin")
	lbody := e.newLabel("while_true")
	lend := e.newLabel("end")
	e.breaks = append(e.breaks, lend)
	e.continues = append(e.continues, lbegin)

	e.label(lbegin)
	cond, err := e.condValue(st.Cond)
	if err != nil {
		return err
	}
	e.term("br i1 %s, label %%%s, label %%%s", cond, lbody, lend)
	e.label(lbody)
	if err := e.stmt(st.Body); err != nil {
		return err
	}
	e.term("br label %%%s", lbegin)
	e.label(lend)

	e.breaks = e.breaks[:len(e.breaks)-1]
	e.continues = e.continues[:len(e.continues)-1]
	return nil
}

func (e *emitter) doWhileStmt(st *ast.SemaDoWhile) error {
	lbody := e.newLabel("do_body")
	lcond := e.newLabel("do_cond")
	lend := e.newLabel("end")
	e.breaks = append(e.breaks, lend)
	e.continues = append(e.continues, lcond)

	e.label(lbody)
	if err := e.stmt(st.Body); err != nil {
		return err
	}
	e.label(lcond)
	cond, err := e.condValue(st.Cond)
	if err != nil {
		return err
	}
	e.term("br i1 %s, label %%%s, label %%%s", cond, lbody, lend)
	e.label(lend)

	e.breaks = e.breaks[:len(e.breaks)-1]
	e.continues = e.continues[:len(e.continues)-1]
	return nil
}

func (e *emitter) forStmt(st *ast.SemaFor) error {
	lbegin := e.newLabel("begin")
	lbody := e.newLabel("for_true")
	lstep := e.newLabel("for_step")
	lend := e.newLabel("end")
	e.breaks = append(e.breaks, lend)
	e.continues = append(e.continues, lstep)

	if st.Init != nil {
		if _, err := e.rvalue(st.Init); err != nil {
			return err
		}
	}
	e.label(lbegin)
	if st.Cond != nil {
		cond, err := e.condValue(st.Cond)
		if err != nil {
			return err
		}
		e.term("br i1 %s, label %%%s, label %%%s", cond, lbody, lend)
	}
	e.label(lbody)
	if err := e.stmt(st.Body); err != nil {
		return err
	}
	e.label(lstep)
	if st.Step != nil {
		if _, err := e.rvalue(st.Step); err != nil {
			return err
		}
	}
	e.term("br label %%%s", lbegin)
	e.label(lend)

	e.breaks = e.breaks[:len(e.breaks)-1]
	e.continues = e.continues[:len(e.continues)-1]
	return nil
}

func (e *emitter) switchStmt(st *ast.SemaSwitch) error {
	subject, err := e.rvalue(st.Subject)
	if err != nil {
		return err
	}
	lend := e.newLabel("end")
	e.breaks = append(e.breaks, lend)

	bodies := make([]string, len(st.Cases))
	for i := range st.Cases {
		bodies[i] = e.newLabel("case")
	}
	ldefault := lend
	if st.Default != nil {
		ldefault = e.newLabel("default")
	}

	t := llvmType(st.Subject.Type)
	var cases string
	for i, c := range st.Cases {
		cases += fmt.Sprintf(" %s %d, label %%%s", t, c.Value, bodies[i])
	}
	e.term("switch %s %s, label %%%s [%s ]", t, subject, ldefault, cases)

	for i, c := range st.Cases {
		e.label(bodies[i])
		for _, sub := range c.Body {
			if err := e.stmt(sub); err != nil {
				return err
			}
		}
		// C fall-through into the next arm.
		next := ldefault
		if i+1 < len(bodies) {
			next = bodies[i+1]
		}
		e.term("br label %%%s", next)
	}
	if st.Default != nil {
		e.label(ldefault)
		for _, sub := range st.Default {
			if err := e.stmt(sub); err != nil {
				return err
			}
		}
	}
	e.label(lend)

	e.breaks = e.breaks[:len(e.breaks)-1]
	return nil
}
