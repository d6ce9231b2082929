// Package llvmgen emits textual LLVM IR straight from the typed AST, as
// the alternative back end to the stack IR. It reuses the same scope and
// symbol model and the same break/continue label discipline as the stack
// generator, but maps operations to LLVM mnemonics with i64 as the
// canonical integer width.
package llvmgen

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/consteval"
	"nanocc/lang/scope"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// Emit writes the LLVM IR for prog to w.
func Emit(prog *ast.SemaProgram, w io.Writer) error {
	e := &emitter{
		vars: make(map[scope.Symbol]string),
		strs: make(map[string]string),
	}

	e.global("declare i64 @putchar(i64)")
	e.global("declare i64 @getchar()")

	for _, st := range prog.Globals {
		if vd, ok := st.(*ast.SemaVarDecl); ok {
			if err := e.globalVar(vd); err != nil {
				return err
			}
		}
	}
	for _, fd := range prog.Funcs {
		if err := e.funcDef(fd); err != nil {
			return err
		}
	}

	if _, err := w.Write(e.globals.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(e.body.Bytes())
	return err
}

type emitter struct {
	globals bytes.Buffer
	body    bytes.Buffer

	tmp    int
	labels int
	vars   map[scope.Symbol]string
	strs   map[string]string

	retPtr   string
	retLabel string
	retType  types.Type

	breaks    []string
	continues []string

	// terminated is set right after a ret or br, so no second terminator
	// lands in the same basic block.
	terminated bool
}

func (e *emitter) global(format string, args ...any) {
	fmt.Fprintf(&e.globals, format+"\n", args...)
}

func (e *emitter) ins(format string, args ...any) {
	// an instruction right after a terminator (code after a return) opens
	// an unreachable block so every instruction stays inside one.
	if e.terminated {
		e.labels++
		fmt.Fprintf(&e.body, "dead%d:\n", e.labels)
	}
	fmt.Fprintf(&e.body, "  "+format+"\n", args...)
	e.terminated = false
}

// term emits a terminator unless the block already has one.
func (e *emitter) term(format string, args ...any) {
	if e.terminated {
		return
	}
	fmt.Fprintf(&e.body, "  "+format+"\n", args...)
	e.terminated = true
}

// label opens a new basic block.
func (e *emitter) label(name string) {
	e.term("br label %%%s", name)
	fmt.Fprintf(&e.body, "%s:\n", name)
	e.terminated = false
}

func (e *emitter) newTmp() string {
	e.tmp++
	return fmt.Sprintf("%%tmp%d", e.tmp)
}

func (e *emitter) newLabel(prefix string) string {
	e.labels++
	return fmt.Sprintf("%s%d", prefix, e.labels)
}

// llvmType renders a C type in LLVM syntax.
func llvmType(t types.Type) string {
	switch tt := types.Flat(t).(type) {
	case *types.Basic:
		switch tt.Kind {
		case types.Void:
			return "void"
		case types.Char:
			return "i8"
		case types.Double:
			return "double"
		default:
			return "i64"
		}
	case *types.Pointer:
		return llvmType(tt.Elem) + "*"
	case *types.Array:
		n := 0
		if tt.Len != nil {
			n = *tt.Len
		}
		return fmt.Sprintf("[%d x %s]", n, llvmType(tt.Elem))
	case *types.Struct:
		parts := make([]string, len(tt.Def.Fields))
		for i, f := range tt.Def.Fields {
			parts[i] = llvmType(f.Type)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *types.Union:
		// a union is its widest member, padded as an integer blob.
		return fmt.Sprintf("[%d x i64]", types.CellSize(tt))
	case *types.Enum:
		return "i64"
	case *types.Func:
		parts := make([]string, 0, len(tt.Params))
		for _, p := range tt.Params {
			if isVoid(p) {
				continue
			}
			parts = append(parts, llvmType(p))
		}
		return fmt.Sprintf("%s (%s)", llvmType(tt.Return), strings.Join(parts, ", "))
	default:
		return "i64"
	}
}

func isVoid(t types.Type) bool {
	b, ok := types.Flat(t).(*types.Basic)
	return ok && b.Kind == types.Void
}

var arithMnemonic = map[token.Token]string{
	token.PLUS: "add", token.MINUS: "sub", token.STAR: "mul",
	token.SLASH: "sdiv", token.PERCENT: "srem",
	token.AMP: "and", token.PIPE: "or", token.CARET: "xor",
	token.LTLT: "shl", token.GTGT: "ashr",
}

var cmpMnemonic = map[token.Token]string{
	token.EQEQ: "icmp eq", token.NEQ: "icmp ne",
	token.LT: "icmp slt", token.LE: "icmp sle",
	token.GT: "icmp sgt", token.GE: "icmp sge",
}

func (e *emitter) globalVar(vd *ast.SemaVarDecl) error {
	t, ok := vd.Sym.Type()
	if !ok {
		return cerr.Undefined(vd.Sym.Name)
	}
	init := "zeroinitializer"
	if ei, isExpr := vd.Init.(*ast.SemaExprInit); isExpr {
		if n, err := consteval.Eval(ei.X); err == nil {
			init = fmt.Sprintf("%d", n)
		}
	}
	e.global("@%s = global %s %s", vd.Sym.Name, llvmType(t), init)
	e.vars[vd.Sym] = "@" + vd.Sym.Name
	return nil
}

func (e *emitter) funcDef(fd *ast.SemaFuncDef) error {
	ret := llvmType(fd.Type.Return)

	args := make([]string, 0, len(fd.Params))
	for _, p := range fd.Params {
		t, _ := p.Type()
		args = append(args, fmt.Sprintf("%s %%%s", llvmType(t), p.Name))
	}
	fmt.Fprintf(&e.body, "define %s @%s(%s) {\n", ret, fd.Sym.Name, strings.Join(args, ", "))
	e.terminated = false

	// every parameter gets a stack slot so the body can take its address
	// and assign to it like any local.
	for _, p := range fd.Params {
		t, _ := p.Type()
		ptr := e.newTmp()
		e.ins("%s = alloca %s", ptr, llvmType(t))
		e.ins("store %s %%%s, %s* %s", llvmType(t), p.Name, llvmType(t), ptr)
		e.vars[p] = ptr
	}

	// the shared return slot and label: every return statement stores and
	// branches there.
	e.retType = fd.Type.Return
	e.retLabel = e.newLabel("ret")
	e.retPtr = ""
	if !isVoid(fd.Type.Return) {
		e.retPtr = e.newTmp()
		e.ins("%s = alloca %s", e.retPtr, llvmType(fd.Type.Return))
	}

	if err := e.stmt(fd.Body); err != nil {
		return err
	}

	e.label(e.retLabel)
	if e.retPtr != "" {
		v := e.newTmp()
		e.ins("%s = load %s, %s* %s", v, ret, ret, e.retPtr)
		e.ins("ret %s %s", ret, v)
	} else {
		e.ins("ret void")
	}
	fmt.Fprintf(&e.body, "}\n\n")
	return nil
}
