// Package brainfuck translates resolved stack instructions into a
// Brainfuck program, and embeds the interpreter that runs one. The tape
// models the machine stack directly: one wrapping 16-bit cell per stack
// cell, with the head at the top of the stack. Control flow becomes a
// coarse threaded interpreter: the whole program sits inside one outer
// loop, each label guards its region with a dispatch-value check, and a
// goto rewrites the dispatch value. When the dispatch value reaches 0 the
// outer loop exits.
package brainfuck

import (
	"strings"

	"nanocc/lang/stack"
)

// An Inst is one Brainfuck instruction: one of < > + - , . [ ]. A zero Op
// is a profile marker carrying the stack instruction a run of code was
// emitted for; it prints as nothing and executes as nothing.
type Inst struct {
	Op      byte
	Profile stack.Inst
}

// Parse extracts the Brainfuck instructions from code; any other
// character is a comment and ignored.
func Parse(code string) []Inst {
	out := make([]Inst, 0, len(code))
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '<', '>', '+', '-', ',', '.', '[', ']':
			out = append(out, Inst{Op: c})
		}
	}
	return out
}

// Show renders a program as its textual form, dropping profile markers.
func Show(prog []Inst) string {
	var b strings.Builder
	b.Grow(len(prog))
	for _, i := range prog {
		if i.Op != 0 {
			b.WriteByte(i.Op)
		}
	}
	return b.String()
}

// Translate lowers resolved stack instructions to a Brainfuck program.
// Derived instructions are expanded to the primitive set first; each
// primitive then becomes a fixed tape snippet.
func Translate(insts []stack.Inst) []Inst {
	expanded := stack.Expand(insts)

	var bf []Inst
	// reserve an extra cell in case the stack is empty, then enter the
	// dispatch loop.
	bf = append(bf, Parse(">+[>")...)

	for _, inst := range expanded {
		bf = append(bf, Inst{Profile: inst})
		bf = emit(inst, bf)
	}

	bf = append(bf, Parse("<]")...)
	return bf
}

func repeat(op byte, n int) []Inst {
	out := make([]Inst, n)
	for i := range out {
		out[i] = Inst{Op: op}
	}
	return out
}

//nolint:gocyclo
func emit(inst stack.Inst, bf []Inst) []Inst {
	switch inst.Op {
	case stack.Push:
		bf = append(bf, Inst{Op: '>'})
		bf = append(bf, repeat('+', inst.A)...)

	case stack.Input:
		bf = append(bf, Parse(">,")...)

	case stack.PutChar:
		bf = append(bf, Parse(".[-]<")...)

	case stack.Swap:
		bf = append(bf, Parse(`
			<[->>+<<] move 1 into 3
			>[-<+>]   shift 2 into 1
			>[-<+>]   shift 3 into 2
			<         point back at 2
		`)...)

	case stack.Copy:
		bf = append(bf, Parse("[->+>+<<]>>[-<<+>>]<")...)

	case stack.Add:
		bf = append(bf, Parse("[-<+>]<")...)

	case stack.Sub:
		bf = append(bf, Parse("[-<->]<")...)

	case stack.Mul:
		bf = append(bf, Parse(`
			>[-]>[-]>[-]<<<
			<[->>+<<]        make room for the return value
			>[-              repeat x times
			   >[->+>+<<]    copy y to 2 fresh cells
			   >>[-<<+>>]    one copy replaces y
			   <[-<<<+>>>]   the other adds into the return value
			   <<            point back at x
			]
			>[-]<<           clear y and point at x
		`)...)

	case stack.Div:
		bf = append(bf, Parse(`
			<[->-[>+>>]>[+[-<+>]>+>>]<<<<<]
			>[-]>[-]>[-<<<+>>>]<<<
		`)...)

	case stack.Mod:
		bf = append(bf, Parse(`
			>[-]>[-]>[-]<<<
			<[->-[>+>>]>[+[-<+>]>+>>]<<<<<]
			>[-]>[-<<+>>]>[-]<<<
		`)...)

	case stack.Alloc:
		bf = append(bf, repeat('>', inst.A)...)

	case stack.Dealloc:
		for i := 0; i < inst.A; i++ {
			bf = append(bf, Parse("[-]<")...)
		}

	case stack.LclStr:
		left := repeat('<', inst.A)
		right := repeat('>', inst.A)
		bf = append(bf, left...)
		bf = append(bf, Parse("[-]")...)
		bf = append(bf, right...)
		bf = append(bf, Parse("[-")...)
		bf = append(bf, left...)
		bf = append(bf, Inst{Op: '+'})
		bf = append(bf, right...)
		bf = append(bf, Parse("]<")...)

	case stack.StkRead:
		bf = append(bf, Parse(`
			>[-]>[-]<<
			-[->+>+<<]>>>
			<[<<<[->>>>+<<<<]>>[-<+>]>[-<+>]<-]
			<<<[->+>>+<<<]>>>[-<<<+>>>]<
			[[->+<]<[->+<]>>>>[-<<<<+>>>>]<<-]>>
			<<<
		`)...)

	case stack.StkStr:
		bf = append(bf, Parse(`
			>[-]>[-]<<
			-[->+>+<<]>>[-<<+>>]
			<[<<<[->>>>+<<<<]>[-<+>]>[-<+>]>[-<+>]<-]
			<<<[-]>[-<+>]>
			[[->+<]>>>[-<<<<+>>>>]<<-]>>
			<<<<
		`)...)

	case stack.Neq:
		bf = append(bf, Parse("[-<->]<[[-]>+<]>[-<+>]<")...)

	case stack.LNot:
		bf = append(bf, Parse(`
			>+<      place 1
			[[-]>-<] if nonzero then erase it
			>[-<+>]< move the 1 or the 0
		`)...)

	case stack.GrEq:
		bf = append(bf, Parse(`
			>[-]>[-]<+<
			[
				<[>]
				>[<+>[-]+>[-]>>]<<<
				-<->
			]
			<[-]
			>>[-<<+>>]<<
		`)...)

	case stack.LAnd:
		bf = append(bf, Parse(`
			[[-]>+<]<
			[[-]>>+<<]
			>>[-[-<<+>>]]<<
		`)...)

	case stack.LOr:
		bf = append(bf, Parse(`
			[[-]>+<]<
			[[-]>>+<<]
			>>[[-]<<+>>]<<
		`)...)

	case stack.Xor:
		bf = append(bf, bitwise(3)...)

	case stack.And:
		bf = append(bf, bitwise(4)...)

	case stack.Or:
		// NOR, then bitwise negation.
		bf = append(bf, bitwise(2)...)
		bf = append(bf, Parse("[->-<]>-[-<+>]<")...)

	case stack.Not:
		// inverse of two's complement
		bf = append(bf, Parse("[->-<]>-[-<+>]<")...)

	case stack.Negate:
		bf = append(bf, Parse("[->-<]>[-<+>]<")...)

	case stack.LShift:
		bf = append(bf, Parse("[-<[->>+>+<<<]>>[-<<+>>]>[-<<<+>>>]<<]<")...)

	case stack.RShift:
		bf = append(bf, Parse(`
			>[-]>[-]>[-]>[-]<<<<
			<[->>+<<]>
			[->+>+<[-[-[>+>]>[>>]<]>[>>]<<<]>-[-<+>]<<]
			>[-<<+>>]<<
		`)...)

	case stack.Branch:
		t, f := inst.A, inst.B
		bf = append(bf, Inst{Op: '>'})
		bf = append(bf, repeat('+', f)...)
		bf = append(bf, Inst{Op: '<'})
		bf = append(bf, Parse("[[-]>")...)
		if t >= f {
			bf = append(bf, repeat('+', t-f)...)
		} else {
			bf = append(bf, repeat('-', f-t)...)
		}
		bf = append(bf, Parse("<]>[-<+>]<")...)
		bf = append(bf, Parse(">]")...)

	case stack.Goto:
		bf = append(bf, Parse(">]")...)

	case stack.Label:
		// copy the dispatch value, subtract the label, and enter the
		// guarded region only on equality; the region's Goto closes its
		// bracket. Label 0 guards the exit region: entering it clears the
		// dispatch cell, and the Exit sequence inside re-pushes the zero
		// that stops the outer loop.
		bf = append(bf, Parse("<[->+>+<<]>>[-<<+>>]<")...)
		bf = append(bf, repeat('-', inst.A)...)
		bf = append(bf, Parse(`
			>+<
			[[-]>-<]
			>[-<+>]<
		`)...)
		bf = append(bf, Parse("[-<[-]<")...)

	case stack.Nop, stack.Comment:

	default:
		// Eq, Lt, LtEq, Gr, Move and Exit are expanded before emission.
		panic("brainfuck: unexpanded instruction " + inst.String())
	}
	return bf
}

// bitwise emits the 16-cell bit decomposition shared by the bitwise
// operators: both operands explode into bits, the bits recombine
// pairwise, and a threshold check on each pair's sum decides the result
// bit before everything condenses back into one cell. dashes is that
// threshold, encoded as the subtraction count in the recombination loop.
func bitwise(dashes int) []Inst {
	var bf []Inst
	bf = append(bf, Parse(`
		>>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]<[<]<
		[->>[>]<[--[++++[->]>]++<]>--<<[<]<]
		<[->+<]>
		>>[>]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]+>[-]<[<]<
		[->>[>]<[--[++++[->]>]++<]>--<<[<]<]
		>>[>]++++++++++++++++
		[-<[-<<<<<<<<<<<<<<<<+>>>>>>>>>>>>>>>>]>[-<+>]<]
		<[<]<+>>[>]
		<[>+<`)...)
	bf = append(bf, repeat('-', dashes)...)
	bf = append(bf, Parse("[[-]>-<]>[-<<[<]<[-<+>>+<]>[-<+>]>[>]>]<<[<]<[->++<]>[-<+>]>>[>]<]<<<")...)
	return bf
}
