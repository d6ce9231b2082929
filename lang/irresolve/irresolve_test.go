package irresolve_test

import (
	"testing"

	"nanocc/lang/ir"
	"nanocc/lang/irresolve"
	"nanocc/lang/parser"
	"nanocc/lang/sema"
	"nanocc/lang/simplify"
	"nanocc/lang/stack"

	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, src string) []stack.Inst {
	t.Helper()
	raw, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	typed, err := sema.Resolve(simplify.Program(raw))
	require.NoError(t, err)
	prog, err := ir.Generate(typed)
	require.NoError(t, err)
	insts, err := irresolve.Resolve(prog)
	require.NoError(t, err)
	return insts
}

func TestEntryAndExitFraming(t *testing.T) {
	insts := resolve(t, "int main(void) { return 0; }")

	require.Equal(t, stack.Label, insts[0].Op)
	require.Equal(t, 1, insts[0].A, "the program starts at the entry label")

	last := insts[len(insts)-1]
	require.Equal(t, stack.Exit, last.Op)
	require.Equal(t, stack.Label, insts[len(insts)-2].Op)
	require.Equal(t, 0, insts[len(insts)-2].A, "label 0 is the exit label")
}

func TestMissingMainRejected(t *testing.T) {
	raw, err := parser.Parse([]byte("int f(void) { return 0; }"))
	require.NoError(t, err)
	typed, err := sema.Resolve(simplify.Program(raw))
	require.NoError(t, err)
	prog, err := ir.Generate(typed)
	require.NoError(t, err)
	_, err = irresolve.Resolve(prog)
	require.Error(t, err)
}

func TestNoSymbolicCommandsRemain(t *testing.T) {
	insts := resolve(t, `
		int add(int a, int b) { return a + b; }
		int main(void) {
			int i, s = 0;
			for (i = 0; i < 3; i = i + 1) s = add(s, i);
			return s;
		}
	`)
	for _, inst := range insts {
		switch inst.Op {
		case stack.Push, stack.Move, stack.Alloc, stack.Dealloc, stack.LclStr,
			stack.Label, stack.Branch:
			require.GreaterOrEqual(t, inst.A, 0, "%s", inst)
		}
	}
}

// no label is ever entered by falling through from the preceding
// instruction: every Label is preceded by a Goto, a Branch, or another
// rewritten Label pair.
func TestNoFallThroughIntoLabels(t *testing.T) {
	insts := resolve(t, `
		int f(int n) { if (n > 0) return 1; return 2; }
		int main(void) {
			int i, s = 0;
			while (i < 3) { s = s + f(i); i = i + 1; }
			return s;
		}
	`)
	// strip comments, they emit nothing.
	var code []stack.Inst
	for _, inst := range insts {
		if inst.Op != stack.Comment {
			code = append(code, inst)
		}
	}
	for i := 1; i < len(code); i++ {
		if code[i].Op != stack.Label {
			continue
		}
		prev := code[i-1]
		switch prev.Op {
		case stack.Goto, stack.Branch, stack.Label:
		default:
			t.Fatalf("label %d reachable by fall-through from %s", code[i].A, prev)
		}
	}
}

func TestAdjacentLabelsChained(t *testing.T) {
	out := resolve(t, "int main(void) { return 7; }")
	for i := 0; i+1 < len(out); i++ {
		if out[i].Op == stack.Label && out[i+1].Op == stack.Label {
			t.Fatalf("adjacent labels %d and %d not chained", out[i].A, out[i+1].A)
		}
	}
}
