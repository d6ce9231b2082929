package ir_test

import (
	"testing"

	"nanocc/lang/ir"
	"nanocc/lang/parser"
	"nanocc/lang/sema"
	"nanocc/lang/simplify"

	"github.com/stretchr/testify/require"
)

func lower(t *testing.T, src string) *ir.Program {
	t.Helper()
	raw, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	typed, err := sema.Resolve(simplify.Program(raw))
	require.NoError(t, err)
	prog, err := ir.Generate(typed)
	require.NoError(t, err)
	return prog
}

func kinds(cmds []ir.Command) []ir.Kind {
	out := make([]ir.Kind, len(cmds))
	for i, c := range cmds {
		out[i] = c.Kind
	}
	return out
}

func indexOf(ks []ir.Kind, k ir.Kind) int {
	for i, kk := range ks {
		if kk == k {
			return i
		}
	}
	return -1
}

func TestFunctionBodyShape(t *testing.T) {
	prog := lower(t, "int main(void) { return 42; }")
	require.Len(t, prog.Funcs, 1)
	main := prog.Main()
	require.NotNil(t, main)
	require.GreaterOrEqual(t, int(main.Entry), 2, "labels 0 and 1 are reserved")

	ks := kinds(main.Body)
	require.Equal(t, ir.KindBlockStart, ks[0])
	require.Contains(t, ks, ir.KindPush)
	require.Contains(t, ks, ir.KindReturn)
	require.Contains(t, ks, ir.KindFramePop)
}

func TestDeclEmitsAllocThenName(t *testing.T) {
	prog := lower(t, "int main(void) { int x; return 0; }")
	ks := kinds(prog.Main().Body)
	ai := indexOf(ks, ir.KindAlloc)
	require.GreaterOrEqual(t, ai, 0)
	require.Equal(t, ir.KindName, ks[ai+1], "Name binds the symbol right after Alloc")
}

func TestAssignmentOrderRHSThenLValueThenStore(t *testing.T) {
	prog := lower(t, "int main(void) { int x; x = 5; return x; }")
	body := prog.Main().Body
	si := indexOf(kinds(body), ir.KindStore)
	require.Greater(t, si, 2)
	require.Equal(t, ir.KindAccessUseLA, body[si-1].Kind)
	require.Equal(t, ir.KindSymbol, body[si-2].Kind)
	require.Equal(t, ir.KindPush, body[si-3].Kind)
	require.Equal(t, 5, body[si-3].Value)
}

func TestAddressOfSkipsLoad(t *testing.T) {
	prog := lower(t, "int main(void) { int x; int *p; x = 1; p = &x; return x; }")
	body := prog.Main().Body
	// &x lowers to Symbol then Address, no Load in between.
	for i, c := range body {
		if c.Kind == ir.KindAddress {
			require.Equal(t, ir.KindSymbol, body[i-1].Kind)
			return
		}
	}
	t.Fatal("no Address command emitted for &x")
}

func TestBreakEmitsUnwindSequence(t *testing.T) {
	prog := lower(t, "int main(void) { while (1) break; return 0; }")
	body := prog.Main().Body
	ci := indexOf(kinds(body), ir.KindClearStackFrom)
	require.GreaterOrEqual(t, ci, 0)
	require.Equal(t, ir.KindGoto, body[ci+1].Kind)
	require.Equal(t, ir.KindLabel, body[ci+2].Kind, "dead code after break hides behind a fresh label")
}

func TestCallSequence(t *testing.T) {
	prog := lower(t, "int f(int a) { return a; } int main(void) { return f(3); }")
	body := prog.Main().Body
	ks := kinds(body)
	ci := indexOf(ks, ir.KindCall)
	require.Greater(t, ci, 0)

	// return slot, return point and frame anchor precede the arguments;
	// the callee's address is pushed last, and the return-point label
	// closes the sequence.
	ai := indexOf(ks, ir.KindAlloc)
	ri := indexOf(ks, ir.KindReturnPoint)
	gi := indexOf(ks, ir.KindGlobalAddress)
	require.True(t, ai < ri && ri < gi && gi < ci)
	require.Equal(t, ir.KindSymbol, body[ci-1].Kind)
	require.Equal(t, ir.KindLabel, body[ci+1].Kind)

	// the function value for a direct call is the callee's entry label.
	require.Equal(t, "f", body[ci-1].Sym.Name)
}

func TestGlobalVariableRejected(t *testing.T) {
	raw, err := parser.Parse([]byte("int g; int main(void) { return 0; }"))
	require.NoError(t, err)
	typed, err := sema.Resolve(simplify.Program(raw))
	require.NoError(t, err)
	_, err = ir.Generate(typed)
	require.Error(t, err)
}

func TestEntryLabelsAreUniquePerFunction(t *testing.T) {
	prog := lower(t, "int a(void) { return 1; } int b(void) { return 2; } int main(void) { return a() + b(); }")
	seen := map[ir.Label]bool{}
	for _, f := range prog.Funcs {
		require.False(t, seen[f.Entry])
		seen[f.Entry] = true
	}
}
