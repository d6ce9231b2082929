package stack_test

import (
	"testing"

	"nanocc/lang/stack"

	"github.com/stretchr/testify/require"
)

func ops(insts []stack.Inst) []stack.Op {
	out := make([]stack.Op, len(insts))
	for i, inst := range insts {
		out[i] = inst.Op
	}
	return out
}

func TestExpandDerivedComparisons(t *testing.T) {
	require.Equal(t,
		[]stack.Op{stack.Neq, stack.LNot},
		ops(stack.Expand([]stack.Inst{{Op: stack.Eq}})))

	require.Equal(t,
		[]stack.Op{stack.Swap, stack.GrEq},
		ops(stack.Expand([]stack.Inst{{Op: stack.LtEq}})))

	require.Equal(t,
		[]stack.Op{stack.GrEq, stack.LNot},
		ops(stack.Expand([]stack.Inst{{Op: stack.Lt}})))

	// Gr reduces through LtEq, so the expansion is recursive.
	require.Equal(t,
		[]stack.Op{stack.Swap, stack.GrEq, stack.LNot},
		ops(stack.Expand([]stack.Inst{{Op: stack.Gr}})))
}

func TestExpandExitAndMove(t *testing.T) {
	got := stack.Expand([]stack.Inst{{Op: stack.Exit}})
	require.Equal(t, []stack.Inst{{Op: stack.Push, A: 0}, {Op: stack.Goto}}, got)

	got = stack.Expand([]stack.Inst{{Op: stack.Move, A: 3}})
	require.Equal(t, []stack.Inst{{Op: stack.Copy}, {Op: stack.LclStr, A: 4}}, got)
}

func TestExpandLeavesPrimitivesAlone(t *testing.T) {
	in := []stack.Inst{
		{Op: stack.Push, A: 7},
		{Op: stack.Add},
		{Op: stack.Branch, A: 3, B: 4},
		{Op: stack.Comment, Text: "x"},
	}
	require.Equal(t, in, stack.Expand(in))
}

func TestInstString(t *testing.T) {
	require.Equal(t, "Push(7)", stack.Inst{Op: stack.Push, A: 7}.String())
	require.Equal(t, "Branch(3, 4)", stack.Inst{Op: stack.Branch, A: 3, B: 4}.String())
	require.Equal(t, "// hi", stack.Inst{Op: stack.Comment, Text: "hi"}.String())
	require.Equal(t, "StkRead", stack.Inst{Op: stack.StkRead}.String())
}
