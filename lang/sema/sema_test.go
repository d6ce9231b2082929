package sema_test

import (
	"errors"
	"testing"

	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/parser"
	"nanocc/lang/sema"
	"nanocc/lang/simplify"
	"nanocc/lang/types"

	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, src string) (*ast.SemaProgram, error) {
	t.Helper()
	raw, err := parser.Parse([]byte(src))
	require.NoError(t, err, "parse error, the test source is broken")
	return sema.Resolve(simplify.Program(raw))
}

func mustResolve(t *testing.T, src string) *ast.SemaProgram {
	t.Helper()
	prog, err := resolve(t, src)
	require.NoError(t, err)
	return prog
}

func kindOf(t *testing.T, err error) cerr.Kind {
	t.Helper()
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce), "error is not a *cerr.Error: %v", err)
	return ce.Kind
}

func TestTypedefEquivalence(t *testing.T) {
	// flat(Typedef(T)) == Int, so the call type-checks.
	mustResolve(t, `
		typedef int T;
		int f(T x) { return x + 1; }
		int main(void) { return f(4); }
	`)
}

func TestAssignmentMismatchRejected(t *testing.T) {
	_, err := resolve(t, "int main(void) { int *p; int x; x = 3; p = x; return 0; }")
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	require.Equal(t, cerr.IncompatibleTypes, ce.Kind)
	require.Equal(t, "*int", ce.Expected)
	require.Equal(t, "int", ce.Found)
	require.Equal(t, "assignment", ce.Context)
}

func TestUndefinedVariable(t *testing.T) {
	_, err := resolve(t, "int main(void) { return y; }")
	require.Equal(t, cerr.UndefinedVariable, kindOf(t, err))
}

func TestUseBeforeDeclarationRejected(t *testing.T) {
	_, err := resolve(t, "int main(void) { int x; x = y; int y; return 0; }")
	require.Equal(t, cerr.UndefinedVariable, kindOf(t, err))
}

func TestStructMemberAccess(t *testing.T) {
	prog := mustResolve(t, `
		struct P { int a; int b; };
		int main(void) { struct P p; p.a = 2; p.b = 3; return p.a + p.b; }
	`)
	require.Len(t, prog.Funcs, 1)
}

func TestMissingMemberRejected(t *testing.T) {
	_, err := resolve(t, `
		struct P { int a; };
		int main(void) { struct P p; return p.z; }
	`)
	require.Equal(t, cerr.InvalidMemberAccess, kindOf(t, err))
}

func TestMemberAccessOnScalarRejected(t *testing.T) {
	_, err := resolve(t, "int main(void) { int x; return x.a; }")
	require.Equal(t, cerr.InvalidMemberAccess, kindOf(t, err))
}

func TestDerefNonPointerRejected(t *testing.T) {
	_, err := resolve(t, "int main(void) { int x; return *x; }")
	require.Equal(t, cerr.InvalidOperation, kindOf(t, err))
}

func TestCallNonFunctionRejected(t *testing.T) {
	_, err := resolve(t, "int main(void) { int x; return x(1); }")
	require.Equal(t, cerr.InvalidOperation, kindOf(t, err))
}

func TestCallArgumentMismatch(t *testing.T) {
	_, err := resolve(t, `
		int f(int *p) { return 0; }
		int main(void) { return f(3); }
	`)
	require.Equal(t, cerr.IncompatibleTypes, kindOf(t, err))
}

func TestCallArgumentCountMismatch(t *testing.T) {
	_, err := resolve(t, `
		int f(int a, int b) { return a; }
		int main(void) { return f(1); }
	`)
	require.Equal(t, cerr.IncompatibleTypes, kindOf(t, err))
}

func TestVoidParameterMeansZeroArgs(t *testing.T) {
	mustResolve(t, "int f(void) { return 1; } int main(void) { return f(); }")
}

func TestTernaryBranchMismatch(t *testing.T) {
	_, err := resolve(t, "int main(void) { int x; int *p; p = &x; return 1 ? x : p; }")
	require.Equal(t, cerr.IncompatibleTypes, kindOf(t, err))
}

func TestComparisonYieldsInt(t *testing.T) {
	prog := mustResolve(t, "int main(void) { int x; x = 1 < 2; return x; }")
	require.Len(t, prog.Funcs, 1)
}

func TestPointerRoundTrip(t *testing.T) {
	mustResolve(t, "int main(void) { int x; int *p; x = 7; p = &x; *p = *p + 1; return x; }")
}

func TestArrayLengthInferredFromInitializer(t *testing.T) {
	prog := mustResolve(t, "int main(void) { int a[] = {1, 2, 3}; return a[0]; }")
	body := prog.Funcs[0].Body
	vd := body.Stmts[0].(*ast.SemaVarDecl)
	typ, ok := vd.Sym.Type()
	require.True(t, ok)
	arr := typ.(*types.Array)
	require.NotNil(t, arr.Len)
	require.Equal(t, 3, *arr.Len)
}

func TestCharArrayLengthFromStringIncludesNul(t *testing.T) {
	prog := mustResolve(t, `int main(void) { char s[] = "hi"; return 0; }`)
	vd := prog.Funcs[0].Body.Stmts[0].(*ast.SemaVarDecl)
	typ, _ := vd.Sym.Type()
	arr := typ.(*types.Array)
	require.NotNil(t, arr.Len)
	require.Equal(t, 3, *arr.Len)
}

func TestArraySizeConstantEvaluated(t *testing.T) {
	prog := mustResolve(t, "int main(void) { int a[2 * 3]; return 0; }")
	vd := prog.Funcs[0].Body.Stmts[0].(*ast.SemaVarDecl)
	typ, _ := vd.Sym.Type()
	arr := typ.(*types.Array)
	require.NotNil(t, arr.Len)
	require.Equal(t, 6, *arr.Len)
}

func TestEnumConstantsResolveToInts(t *testing.T) {
	mustResolve(t, `
		enum Color { RED, GREEN, BLUE };
		int main(void) { int x; x = GREEN; return x + BLUE; }
	`)
}

func TestScopeShadowing(t *testing.T) {
	// the inner char* x must not leak: the assignment after the block
	// still sees the outer int x.
	mustResolve(t, `
		int main(void) {
			int x;
			x = 1;
			{ char *x; }
			x = 2;
			return x;
		}
	`)
}

func TestShadowingTypeMismatchInside(t *testing.T) {
	_, err := resolve(t, `
		int main(void) {
			int x;
			{ char *x; x = 5; }
			return 0;
		}
	`)
	require.Equal(t, cerr.IncompatibleTypes, kindOf(t, err))
}

func TestArithmeticTypeMismatch(t *testing.T) {
	_, err := resolve(t, "int main(void) { int x; int *p; p = &x; return x + p; }")
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "arithmetic operation", ce.Context)
}

func TestSizeofOperandTypedButNotEvaluated(t *testing.T) {
	// sizeof on an undefined name is still an error: the operand is
	// resolved for typing even though it is never evaluated.
	_, err := resolve(t, "int main(void) { return sizeof nope; }")
	require.Equal(t, cerr.UndefinedVariable, kindOf(t, err))
}

func TestBuiltinPutcharKnown(t *testing.T) {
	mustResolve(t, "int main(void) { putchar(65); return 0; }")
}
