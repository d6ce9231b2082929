// Package stack defines the concrete stack-machine instruction set the
// resolver lowers to: every label is an integer address, every reference
// is explicit stack arithmetic, and frame accounting has been
// materialized. The same instruction list drives the testing interpreter
// (lang/vm) and the Brainfuck emitter (lang/brainfuck).
package stack

import "fmt"

// Op enumerates the instructions.
type Op uint8

//nolint:revive
const (
	Nop Op = iota
	Comment

	// stack manipulation
	Push // push the immediate A
	Move // copy the top of stack A cells down; the top stays in place
	Swap
	Copy

	// arithmetic
	Add
	Sub
	Mul
	Div
	Mod
	Negate

	// bitwise
	LShift
	RShift
	And
	Or
	Xor
	Not

	// comparison; under Expand, Eq reduces to Neq and LNot, the ordering
	// tests to GrEq, Swap and LNot
	Eq
	Neq
	Lt
	LtEq
	Gr
	GrEq

	// logical
	LNot
	LAnd
	LOr

	// memory: addresses are distances from the top of the stack
	Alloc   // grow the stack by A zeroed cells
	Dealloc // shrink the stack by A cells
	LclStr  // pop a value and store it A cells down
	StkRead // pop a distance, push the cell found there
	StkStr  // pop a distance, pop a value, store it there

	// control flow
	Label  // define label A; label 0 is the program exit
	Branch // pop a word, jump to label A if non-zero, else label B
	Goto   // pop a label value and jump to it
	Exit

	// I/O
	PutChar // pop a word and write it as one byte
	Input   // read one byte and push it
)

var opNames = [...]string{
	Nop: "Nop", Comment: "Comment",
	Push: "Push", Move: "Move", Swap: "Swap", Copy: "Copy",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Mod: "Mod", Negate: "Negate",
	LShift: "LShift", RShift: "RShift", And: "And", Or: "Or", Xor: "Xor", Not: "Not",
	Eq: "Eq", Neq: "Neq", Lt: "Lt", LtEq: "LtEq", Gr: "Gr", GrEq: "GrEq",
	LNot: "LNot", LAnd: "LAnd", LOr: "LOr",
	Alloc: "Alloc", Dealloc: "Dealloc", LclStr: "LclStr",
	StkRead: "StkRead", StkStr: "StkStr",
	Label: "Label", Branch: "Branch", Goto: "Goto", Exit: "Exit",
	PutChar: "PutChar", Input: "Input",
}

func (op Op) String() string {
	if int(op) >= len(opNames) || opNames[op] == "" {
		return fmt.Sprintf("<invalid Op %d>", op)
	}
	return opNames[op]
}

// An Inst is one instruction. A holds the immediate for Push, Move,
// Alloc, Dealloc, LclStr and Label; Branch uses A (true) and B (false);
// Text is only set for Comment.
type Inst struct {
	Op   Op
	A, B int
	Text string
}

func (i Inst) String() string {
	switch i.Op {
	case Comment:
		return "// " + i.Text
	case Push, Move, Alloc, Dealloc, LclStr, Label:
		return fmt.Sprintf("%s(%d)", i.Op, i.A)
	case Branch:
		return fmt.Sprintf("Branch(%d, %d)", i.A, i.B)
	default:
		return i.Op.String()
	}
}

// Expand rewrites the derived instructions into the primitive set the
// Brainfuck emitter knows how to translate: Eq reduces to Neq plus logical
// negation, Lt, LtEq and Gr to GrEq (with Swap and logical negation where
// needed), Move to Copy plus LclStr, and Exit to a
// jump to label 0.
func Expand(insts []Inst) []Inst {
	out := make([]Inst, 0, len(insts))
	var push func(i Inst)
	push = func(i Inst) {
		switch i.Op {
		case Move:
			push(Inst{Op: Copy})
			push(Inst{Op: LclStr, A: i.A + 1})
		case Exit:
			push(Inst{Op: Push, A: 0})
			push(Inst{Op: Goto})
		case Eq:
			push(Inst{Op: Neq})
			push(Inst{Op: LNot})
		case LtEq:
			push(Inst{Op: Swap})
			push(Inst{Op: GrEq})
		case Lt:
			push(Inst{Op: GrEq})
			push(Inst{Op: LNot})
		case Gr:
			push(Inst{Op: LtEq})
			push(Inst{Op: LNot})
		default:
			out = append(out, i)
		}
	}
	for _, i := range insts {
		push(i)
	}
	return out
}
