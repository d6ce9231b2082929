// Package irresolve implements the second pass over the stack IR: it
// rewrites the symbolic command list into concrete stack-machine
// instructions. Symbolic labels become integer addresses, symbol
// references become stack-position arithmetic relative to a shadow stack
// counter, and frame accounting (allocations, parameters, the saved
// global-address anchor) is materialized as explicit deallocations.
//
// The pass is linear: it walks each function's command list once,
// mirroring every push and pop in its counters. Code that is emitted but
// unreachable at run time (the region after a break's jump, the arm of a
// ternary not taken) is fenced by labels and stack-model adjustments so
// the linear account matches the executed path.
package irresolve

import (
	"fmt"

	"nanocc/lang/cerr"
	"nanocc/lang/ir"
	"nanocc/lang/scope"
	"nanocc/lang/stack"
	"nanocc/lang/types"
)

// Resolve lowers the whole program to executable stack instructions. The
// result starts with the entry sequence that calls main and ends with the
// exit label; label 0 is reserved for the exit.
func Resolve(prog *ir.Program) ([]stack.Inst, error) {
	main := prog.Main()
	if main == nil {
		return nil, cerr.Undefined("main")
	}

	r := &resolver{
		symtab:     make(map[scope.Symbol]int),
		labelAlloc: make(map[ir.Label]int),
	}

	// function symbols resolve to their entry labels.
	for _, f := range prog.Funcs {
		r.symtab[f.Sym] = int(f.Entry)
	}

	// entry sequence: a slot for main's return value, the exit label as
	// main's return point, the anchor value for main's frame, then the
	// jump to main.
	r.emit(
		stack.Inst{Op: stack.Label, A: int(ir.LabelEntry)},
		stack.Inst{Op: stack.Alloc, A: 1},
		stack.Inst{Op: stack.Push, A: int(ir.LabelExit)},
		stack.Inst{Op: stack.Push, A: 0},
		stack.Inst{Op: stack.Push, A: int(main.Entry)},
		stack.Inst{Op: stack.Goto},
	)

	for _, f := range prog.Funcs {
		r.function(f)
	}

	r.emit(
		stack.Inst{Op: stack.Label, A: int(ir.LabelExit)},
		stack.Inst{Op: stack.Exit},
	)

	return chainLabels(r.out), nil
}

type resolver struct {
	out []stack.Inst

	// shadow stack accounting, reset per function.
	stackSize     int
	alloced       []int
	paramCount    int
	globalAddress int

	symtab     map[scope.Symbol]int
	labelAlloc map[ir.Label]int
}

func (r *resolver) emit(insts ...stack.Inst) {
	r.out = append(r.out, insts...)
}

func (r *resolver) totalAlloc() int {
	n := 0
	for _, a := range r.alloced {
		n += a
	}
	return n
}

func (r *resolver) function(f *ir.Func) {
	r.stackSize = 0
	r.alloced = []int{0}

	r.emit(
		stack.Inst{Op: stack.Comment, Text: f.Sym.Name},
		stack.Inst{Op: stack.Label, A: int(f.Entry)},
	)
	r.labelAlloc[f.Entry] = 0

	// the frame starts with the inherited global-address anchor, then one
	// slot per parameter, bound in order.
	r.stackSize++
	r.globalAddress = r.stackSize
	r.paramCount = 0
	for _, p := range f.Params {
		r.stackSize++
		r.symtab[p] = r.stackSize
		r.paramCount++
	}

	for _, cmd := range f.Body {
		r.command(cmd)
	}
}

// command rewrites one symbolic command. Inconsistencies here are
// compiler bugs, not user errors: the typed AST was checked and the
// generator is trusted, so they abort.
func (r *resolver) command(cmd ir.Command) {
	switch cmd.Kind {
	case ir.KindNop:

	case ir.KindComment:
		r.emit(stack.Inst{Op: stack.Comment, Text: cmd.Text})

	case ir.KindPush:
		r.push(cmd.Value)

	case ir.KindInput:
		r.emit(stack.Inst{Op: stack.Input})
		r.stackSize++

	case ir.KindPutChar:
		r.emit(stack.Inst{Op: stack.PutChar})
		r.stackSize--

	case ir.KindBinary:
		r.emit(stack.Inst{Op: binInst[cmd.Bin]})
		r.stackSize--

	case ir.KindUnary:
		if cmd.Un == ir.LogNot {
			r.emit(stack.Inst{Op: stack.LNot})
		} else {
			r.emit(stack.Inst{Op: stack.Not})
		}

	case ir.KindSymbol:
		pos, ok := r.symtab[cmd.Sym]
		if !ok {
			panic(fmt.Sprintf("irresolve: symbol %q has no stack position", cmd.Sym.Name))
		}
		r.push(pos)

	case ir.KindName:
		// the symbol anchors to whatever has just been allocated: the
		// current top of the frame.
		r.symtab[cmd.Sym] = r.stackSize

	case ir.KindAlloc:
		size := types.CellSize(cmd.Type)
		r.emit(stack.Inst{Op: stack.Alloc, A: size})
		r.stackSize += size
		r.alloced[len(r.alloced)-1] += size

	case ir.KindPop:
		size := types.CellSize(cmd.Type)
		r.emit(stack.Inst{Op: stack.Dealloc, A: size})
		r.stackSize -= size

	case ir.KindStore:
		r.emit(stack.Inst{Op: stack.StkStr})
		r.stackSize -= 2

	case ir.KindLoad:
		r.load()

	case ir.KindIndexAccess:
		r.mulConst(types.CellSize(cmd.Type))
		r.emit(stack.Inst{Op: stack.Add})
		r.stackSize--

	case ir.KindGoto:
		r.emit(
			stack.Inst{Op: stack.Push, A: int(cmd.Label)},
			stack.Inst{Op: stack.Goto},
		)

	case ir.KindBranch:
		r.emit(stack.Inst{Op: stack.Branch, A: int(cmd.True), B: int(cmd.False)})
		r.stackSize--

	case ir.KindLabel:
		r.emit(stack.Inst{Op: stack.Label, A: int(cmd.Label)})
		r.labelAlloc[cmd.Label] = r.totalAlloc()

	case ir.KindClearStackFrom:
		// unwind for break/continue: free everything allocated since the
		// reference label. The counters stay untouched: the linear model
		// follows the fall-through path, which this jump leaves.
		since, ok := r.labelAlloc[cmd.Label]
		if !ok {
			panic(fmt.Sprintf("irresolve: ClearStackFrom before label %d was resolved", cmd.Label))
		}
		if n := r.totalAlloc() - since; n > 0 {
			r.emit(stack.Inst{Op: stack.Dealloc, A: n})
		}

	case ir.KindCall:
		r.emit(stack.Inst{Op: stack.Goto})
		r.stackSize-- // the callee's entry label
		if !isVoid(cmd.Func.Return) {
			// the return slot stops being block-owned: it survives as
			// the call's value.
			r.alloced[len(r.alloced)-1]--
		}
		r.stackSize-- // return point
		r.stackSize -= countParams(cmd.Func)
		r.stackSize-- // global-address anchor

	case ir.KindReturn:
		// write the value into the slot the caller allocated just below
		// the frame.
		r.emit(
			stack.Inst{Op: stack.Push, A: r.stackSize + 1},
			stack.Inst{Op: stack.StkStr},
		)
		r.stackSize--

	case ir.KindFramePop:
		n := r.totalAlloc() + r.paramCount + 1
		r.emit(stack.Inst{Op: stack.Dealloc, A: n})
		// the counters stay untouched: the jump below leaves the linear
		// path, like ClearStackFrom. The value left on top is the
		// caller's return point.
		r.emit(stack.Inst{Op: stack.Goto})

	case ir.KindReturnPoint:
		r.push(int(cmd.Label))

	case ir.KindGlobalAddress:
		// the callee's anchor value: our own anchor plus the distance
		// from our frame base to the new frame.
		r.emit(stack.Inst{Op: stack.Comment, Text: "push_global_address_start"})
		r.loadGlobalAddress()
		r.emit(
			stack.Inst{Op: stack.Push, A: r.stackSize - 1},
			stack.Inst{Op: stack.Add},
		)
		r.emit(stack.Inst{Op: stack.Comment, Text: "push_global_address_end"})

	case ir.KindAddress:
		// frame position to global address.
		r.loadGlobalAddress()
		r.emit(stack.Inst{Op: stack.Add})
		r.stackSize--

	case ir.KindAccessUseGA:
		// global address back to a frame position, then to a local
		// distance.
		r.loadGlobalAddress()
		r.emit(stack.Inst{Op: stack.Sub})
		r.stackSize--
		r.access()

	case ir.KindAccessUseLA:
		r.access()

	case ir.KindBlockStart:
		r.alloced = append(r.alloced, 0)

	case ir.KindBlockEnd:
		n := r.alloced[len(r.alloced)-1]
		r.alloced = r.alloced[:len(r.alloced)-1]
		if n > 0 {
			r.emit(stack.Inst{Op: stack.Dealloc, A: n})
			r.stackSize -= n
		}

	case ir.KindStackAdjust:
		r.stackSize += cmd.Value

	default:
		panic(fmt.Sprintf("irresolve: unexpected command %s", cmd))
	}
}

var binInst = map[ir.BinOp]stack.Op{
	ir.Add: stack.Add, ir.Sub: stack.Sub, ir.Mul: stack.Mul,
	ir.Div: stack.Div, ir.Mod: stack.Mod,
	ir.Shl: stack.LShift, ir.Shr: stack.RShift,
	ir.BitAnd: stack.And, ir.BitOr: stack.Or, ir.BitXor: stack.Xor,
	ir.Eq: stack.Eq, ir.Neq: stack.Neq,
	ir.Lt: stack.Lt, ir.Le: stack.LtEq, ir.Gt: stack.Gr, ir.Ge: stack.GrEq,
	ir.LogAnd: stack.LAnd, ir.LogOr: stack.LOr,
}

func (r *resolver) push(n int) {
	r.emit(stack.Inst{Op: stack.Push, A: n})
	r.stackSize++
}

// access converts the frame position on top of the stack into the
// distance-from-top form StkRead and StkStr consume.
func (r *resolver) access() {
	r.emit(
		stack.Inst{Op: stack.Push, A: r.stackSize - 1},
		stack.Inst{Op: stack.Sub},
	)
	r.mulConst(-1)
}

// load reads the cell whose local distance is on top of the stack. The
// extra one compensates for the distance value itself occupying the top.
func (r *resolver) load() {
	r.emit(
		stack.Inst{Op: stack.Push, A: 1},
		stack.Inst{Op: stack.Add},
		stack.Inst{Op: stack.StkRead},
	)
}

// loadGlobalAddress pushes the value saved in the frame's anchor cell.
func (r *resolver) loadGlobalAddress() {
	r.push(r.globalAddress)
	r.access()
	r.load()
}

// mulConst multiplies the top of the stack by the constant b using only
// the primitive copy/add/sub instructions.
func (r *resolver) mulConst(b int) {
	r.emit(stack.Inst{Op: stack.Comment, Text: "mul_start"})
	switch {
	case b == 0:
		r.emit(
			stack.Inst{Op: stack.Push, A: 0},
			stack.Inst{Op: stack.Push, A: 1},
			stack.Inst{Op: stack.StkStr},
		)
	case b > 0:
		for i := 1; i < b; i++ {
			r.emit(stack.Inst{Op: stack.Copy})
		}
		for i := 1; i < b; i++ {
			r.emit(stack.Inst{Op: stack.Add})
		}
	default:
		// negate via 0 - x, then scale by the magnitude.
		r.emit(
			stack.Inst{Op: stack.Copy},
			stack.Inst{Op: stack.Push, A: 0},
			stack.Inst{Op: stack.Push, A: 2},
			stack.Inst{Op: stack.StkStr},
		)
		for i := 1; i < -b; i++ {
			r.emit(stack.Inst{Op: stack.Copy})
		}
		for i := 1; i < -b; i++ {
			r.emit(stack.Inst{Op: stack.Add})
		}
		r.emit(stack.Inst{Op: stack.Sub})
	}
	r.emit(stack.Inst{Op: stack.Comment, Text: "mul_end"})
}

func isVoid(t types.Type) bool {
	b, ok := types.Flat(t).(*types.Basic)
	return ok && b.Kind == types.Void
}

func countParams(ft *types.Func) int {
	n := 0
	for _, p := range ft.Params {
		if !isVoid(p) {
			n++
		}
	}
	return n
}

// chainLabels rewrites any label immediately followed by another label
// into an explicit jump from the first to the second, so that control
// never falls from one label region into the next.
func chainLabels(insts []stack.Inst) []stack.Inst {
	out := make([]stack.Inst, 0, len(insts))
	for i, inst := range insts {
		out = append(out, inst)
		if inst.Op != stack.Label || i+1 >= len(insts) {
			continue
		}
		if next := insts[i+1]; next.Op == stack.Label {
			out = append(out,
				stack.Inst{Op: stack.Push, A: next.A},
				stack.Inst{Op: stack.Goto},
			)
		}
	}
	return out
}
