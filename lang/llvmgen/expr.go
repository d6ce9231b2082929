package llvmgen

import (
	"fmt"

	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/consteval"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// rvalue emits the code computing e and returns the operand holding its
// value (a register or an immediate).
func (e *emitter) rvalue(x *ast.TypedExpr) (string, error) {
	switch ex := x.Expr.(type) {
	case *ast.SemaInt:
		return fmt.Sprintf("%d", ex.Value), nil
	case *ast.SemaChar:
		return fmt.Sprintf("%d", ex.Value), nil
	case *ast.SemaFloat:
		return fmt.Sprintf("%g", ex.Value), nil
	case *ast.SemaString:
		return e.stringConst(ex.Value), nil

	case *ast.SemaSymbol:
		t, ok := ex.Sym.Type()
		if !ok {
			return "", cerr.Undefined(ex.Sym.Name)
		}
		if _, isFunc := types.Flat(t).(*types.Func); isFunc {
			return "@" + ex.Sym.Name, nil
		}
		if _, isArr := types.Flat(t).(*types.Array); isArr {
			return e.arrayDecay(x)
		}
		ptr, perr := e.lvalue(x)
		if perr != nil {
			return "", perr
		}
		return e.load(t, ptr), nil

	case *ast.SemaBinary:
		return e.binary(ex)

	case *ast.SemaUnary:
		return e.unary(x, ex)

	case *ast.SemaAssign:
		v, err := e.rvalue(ex.R)
		if err != nil {
			return "", err
		}
		ptr, err := e.lvalue(ex.L)
		if err != nil {
			return "", err
		}
		t := llvmType(ex.L.Type)
		e.ins("store %s %s, %s* %s", t, v, t, ptr)
		return v, nil

	case *ast.SemaTernary:
		return e.ternary(x, ex)

	case *ast.SemaCast:
		return e.cast(ex)

	case *ast.SemaSizeof:
		return fmt.Sprintf("%d", consteval.SizeofValue), nil

	case *ast.SemaComma:
		var last string
		for _, sub := range ex.List {
			v, err := e.rvalue(sub)
			if err != nil {
				return "", err
			}
			last = v
		}
		return last, nil

	case *ast.SemaCall:
		return e.call(ex)

	case *ast.SemaSubscript, *ast.SemaMember:
		if _, isArr := types.Flat(x.Type).(*types.Array); isArr {
			return e.arrayDecay(x)
		}
		ptr, err := e.lvalue(x)
		if err != nil {
			return "", err
		}
		return e.load(x.Type, ptr), nil

	default:
		return "", cerr.Syntax("unexpected expression form in LLVM emission")
	}
}

func (e *emitter) load(t types.Type, ptr string) string {
	v := e.newTmp()
	lt := llvmType(t)
	e.ins("%s = load %s, %s* %s", v, lt, lt, ptr)
	return v
}

// condValue computes x and narrows it to i1 for a branch.
func (e *emitter) condValue(x *ast.TypedExpr) (string, error) {
	v, err := e.rvalue(x)
	if err != nil {
		return "", err
	}
	out := e.newTmp()
	e.ins("%s = icmp ne %s %s, 0", out, llvmType(x.Type), v)
	return out, nil
}

// boolToInt widens an i1 back to the canonical integer width.
func (e *emitter) boolToInt(v string) string {
	out := e.newTmp()
	e.ins("%s = zext i1 %s to i64", out, v)
	return out
}

func (e *emitter) binary(ex *ast.SemaBinary) (string, error) {
	l, err := e.rvalue(ex.L)
	if err != nil {
		return "", err
	}
	r, err := e.rvalue(ex.R)
	if err != nil {
		return "", err
	}

	if mn, ok := arithMnemonic[ex.Op]; ok {
		out := e.newTmp()
		e.ins("%s = %s %s %s, %s", out, mn, llvmType(ex.L.Type), l, r)
		return out, nil
	}
	if mn, ok := cmpMnemonic[ex.Op]; ok {
		out := e.newTmp()
		e.ins("%s = %s %s %s, %s", out, mn, llvmType(ex.L.Type), l, r)
		return e.boolToInt(out), nil
	}

	switch ex.Op {
	case token.ANDAND, token.OROR:
		lb := e.newTmp()
		e.ins("%s = icmp ne %s %s, 0", lb, llvmType(ex.L.Type), l)
		rb := e.newTmp()
		e.ins("%s = icmp ne %s %s, 0", rb, llvmType(ex.R.Type), r)
		out := e.newTmp()
		mn := "and"
		if ex.Op == token.OROR {
			mn = "or"
		}
		e.ins("%s = %s i1 %s, %s", out, mn, lb, rb)
		return e.boolToInt(out), nil
	}
	return "", cerr.Syntax("unexpected binary operator in LLVM emission")
}

func (e *emitter) unary(x *ast.TypedExpr, ex *ast.SemaUnary) (string, error) {
	switch ex.Op {
	case token.BANG:
		v, err := e.rvalue(ex.X)
		if err != nil {
			return "", err
		}
		out := e.newTmp()
		e.ins("%s = icmp eq %s %s, 0", out, llvmType(ex.X.Type), v)
		return e.boolToInt(out), nil

	case token.TILDE:
		v, err := e.rvalue(ex.X)
		if err != nil {
			return "", err
		}
		out := e.newTmp()
		e.ins("%s = xor %s %s, -1", out, llvmType(ex.X.Type), v)
		return out, nil

	case token.AMP:
		return e.lvalue(ex.X)

	case token.STAR:
		ptr, err := e.rvalue(ex.X)
		if err != nil {
			return "", err
		}
		return e.load(x.Type, ptr), nil

	default:
		return "", cerr.Syntax("unexpected unary operator in LLVM emission")
	}
}

// ternary evaluates both arms into a shared slot; short-circuit selection
// happens through the branch, exactly like the stack back end.
func (e *emitter) ternary(x *ast.TypedExpr, ex *ast.SemaTernary) (string, error) {
	slot := e.newTmp()
	t := llvmType(x.Type)
	e.ins("%s = alloca %s", slot, t)

	cond, err := e.condValue(ex.Cond)
	if err != nil {
		return "", err
	}
	lthen := e.newLabel("sel_true")
	lelse := e.newLabel("sel_false")
	lend := e.newLabel("sel_end")

	e.term("br i1 %s, label %%%s, label %%%s", cond, lthen, lelse)
	e.label(lthen)
	v, err := e.rvalue(ex.Then)
	if err != nil {
		return "", err
	}
	e.ins("store %s %s, %s* %s", t, v, t, slot)
	e.term("br label %%%s", lend)
	e.label(lelse)
	v, err = e.rvalue(ex.Else)
	if err != nil {
		return "", err
	}
	e.ins("store %s %s, %s* %s", t, v, t, slot)
	e.label(lend)
	return e.load(x.Type, slot), nil
}

func (e *emitter) cast(ex *ast.SemaCast) (string, error) {
	v, err := e.rvalue(ex.X)
	if err != nil {
		return "", err
	}
	from, to := llvmType(ex.From), llvmType(ex.To)
	if from == to {
		return v, nil
	}
	out := e.newTmp()
	switch {
	case from == "i8" && to == "i64":
		e.ins("%s = sext i8 %s to i64", out, v)
	case from == "i64" && to == "i8":
		e.ins("%s = trunc i64 %s to i8", out, v)
	default:
		e.ins("%s = bitcast %s %s to %s", out, from, v, to)
	}
	return out, nil
}

func (e *emitter) call(ex *ast.SemaCall) (string, error) {
	ft, ok := types.Flat(ex.Fun.Type).(*types.Func)
	if !ok {
		return "", cerr.InvalidOp("call", types.ToRustFormat(ex.Fun.Type))
	}

	args := make([]string, 0, len(ex.Args))
	for _, a := range ex.Args {
		v, err := e.rvalue(a)
		if err != nil {
			return "", err
		}
		args = append(args, fmt.Sprintf("%s noundef %s", llvmType(a.Type), v))
	}

	callee, err := e.rvalue(ex.Fun)
	if err != nil {
		return "", err
	}

	ret := llvmType(ft.Return)
	if ret == "void" {
		e.ins("call void %s(%s)", callee, join(args))
		return "", nil
	}
	out := e.newTmp()
	e.ins("%s = call %s %s(%s)", out, ret, callee, join(args))
	return out, nil
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// lvalue emits the code computing the address of x and returns the
// pointer operand.
func (e *emitter) lvalue(x *ast.TypedExpr) (string, error) {
	switch ex := x.Expr.(type) {
	case *ast.SemaSymbol:
		ptr, ok := e.vars[ex.Sym]
		if !ok {
			t, tok := ex.Sym.Type()
			if tok {
				if _, isFunc := types.Flat(t).(*types.Func); isFunc {
					return "@" + ex.Sym.Name, nil
				}
			}
			return "", cerr.Undefined(ex.Sym.Name)
		}
		return ptr, nil

	case *ast.SemaUnary:
		if ex.Op != token.STAR {
			return "", cerr.Syntax("cannot take the address of this expression")
		}
		return e.rvalue(ex.X)

	case *ast.SemaSubscript:
		return e.subscriptPtr(ex)

	case *ast.SemaMember:
		return e.memberPtr(ex)

	default:
		return "", cerr.Syntax("cannot take the address of this expression")
	}
}

func (e *emitter) subscriptPtr(ex *ast.SemaSubscript) (string, error) {
	idx, err := e.rvalue(ex.Index)
	if err != nil {
		return "", err
	}
	it := llvmType(ex.Index.Type)

	switch tt := types.Flat(ex.X.Type).(type) {
	case *types.Array:
		base, err := e.lvalue(ex.X)
		if err != nil {
			return "", err
		}
		at := llvmType(tt)
		out := e.newTmp()
		e.ins("%s = getelementptr %s, %s* %s, i64 0, %s %s", out, at, at, base, it, idx)
		return out, nil
	case *types.Pointer:
		base, err := e.rvalue(ex.X)
		if err != nil {
			return "", err
		}
		et := llvmType(tt.Elem)
		out := e.newTmp()
		e.ins("%s = getelementptr %s, %s* %s, %s %s", out, et, et, base, it, idx)
		return out, nil
	default:
		return "", cerr.InvalidOp("subscript", types.ToRustFormat(ex.X.Type))
	}
}

func (e *emitter) memberPtr(ex *ast.SemaMember) (string, error) {
	base, err := e.lvalue(ex.X)
	if err != nil {
		return "", err
	}
	switch tt := types.Flat(ex.X.Type).(type) {
	case *types.Struct:
		idx := 0
		for i, f := range tt.Def.Fields {
			if f.Name == ex.Name {
				idx = i
				break
			}
		}
		st := llvmType(tt)
		out := e.newTmp()
		e.ins("%s = getelementptr %s, %s* %s, i64 0, i32 %d", out, st, st, base, idx)
		return out, nil
	case *types.Union:
		f, _ := tt.Def.Field(ex.Name)
		out := e.newTmp()
		e.ins("%s = bitcast %s* %s to %s*", out, llvmType(tt), base, llvmType(f.Type))
		return out, nil
	default:
		return "", cerr.InvalidMember(types.ToRustFormat(ex.X.Type), ex.Name)
	}
}

// arrayDecay yields a pointer to the first element of an array-typed
// expression.
func (e *emitter) arrayDecay(x *ast.TypedExpr) (string, error) {
	base, err := e.lvalue(x)
	if err != nil {
		return "", err
	}
	at := llvmType(x.Type)
	out := e.newTmp()
	e.ins("%s = getelementptr %s, %s* %s, i64 0, i64 0", out, at, at, base)
	return out, nil
}

// stringConst interns a string literal as a private global constant and
// returns a pointer to its first byte.
func (e *emitter) stringConst(s string) string {
	name, ok := e.strs[s]
	if !ok {
		name = fmt.Sprintf("@str_%d", len(e.strs))
		e.strs[s] = name
		e.global("%s = private unnamed_addr constant [%d x i8] c\"%s\\00\"", name, len(s)+1, escapeString(s))
	}
	out := e.newTmp()
	e.ins("%s = getelementptr [%d x i8], [%d x i8]* %s, i64 0, i64 0", out, len(s)+1, len(s)+1, name)
	return out
}

func escapeString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			out = append(out, c)
			continue
		}
		out = append(out, fmt.Sprintf("\\%02X", c)...)
	}
	return string(out)
}

// compoundInit stores a brace initializer element by element through
// getelementptr.
func (e *emitter) compoundInit(t types.Type, ptr string, init *ast.SemaCompoundInit) error {
	switch tt := types.Flat(t).(type) {
	case *types.Array:
		at := llvmType(tt)
		for i, elem := range init.Elems {
			ep := e.newTmp()
			e.ins("%s = getelementptr %s, %s* %s, i64 0, i64 %d", ep, at, at, ptr, i)
			if err := e.initInto(tt.Elem, ep, elem); err != nil {
				return err
			}
		}
		return nil
	case *types.Struct:
		st := llvmType(tt)
		for i, elem := range init.Elems {
			ep := e.newTmp()
			e.ins("%s = getelementptr %s, %s* %s, i64 0, i32 %d", ep, st, st, ptr, i)
			if err := e.initInto(tt.Def.Fields[i].Type, ep, elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return cerr.Syntax("compound initializer for a non-aggregate type")
	}
}

func (e *emitter) initInto(t types.Type, ptr string, init ast.SemaInitializer) error {
	switch in := init.(type) {
	case *ast.SemaExprInit:
		v, err := e.rvalue(in.X)
		if err != nil {
			return err
		}
		lt := llvmType(t)
		e.ins("store %s %s, %s* %s", lt, v, lt, ptr)
		return nil
	case *ast.SemaCompoundInit:
		return e.compoundInit(t, ptr, in)
	}
	return cerr.Syntax("malformed initializer in LLVM emission")
}
