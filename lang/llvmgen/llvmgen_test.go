package llvmgen_test

import (
	"bytes"
	"strings"
	"testing"

	"nanocc/lang/llvmgen"
	"nanocc/lang/parser"
	"nanocc/lang/sema"
	"nanocc/lang/simplify"

	"github.com/stretchr/testify/require"
)

func emit(t *testing.T, src string) string {
	t.Helper()
	raw, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	typed, err := sema.Resolve(simplify.Program(raw))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, llvmgen.Emit(typed, &buf))
	return buf.String()
}

func TestEmitReturnConstant(t *testing.T) {
	out := emit(t, "int main(void) { return 42; }")
	require.Contains(t, out, "define i64 @main()")
	require.Contains(t, out, "store i64 42")
	require.Contains(t, out, "ret i64")
	require.Equal(t, 1, strings.Count(out, "ret i64"), "exactly one shared return")
}

func TestEmitParamsGetAllocas(t *testing.T) {
	out := emit(t, "int add(int a, int b) { return a + b; } int main(void) { return add(1, 2); }")
	require.Contains(t, out, "define i64 @add(i64 %a, i64 %b)")
	require.Contains(t, out, "store i64 %a")
	require.Contains(t, out, "store i64 %b")
	require.Contains(t, out, "add i64")
	require.Contains(t, out, "call i64 @add(i64 noundef 1, i64 noundef 2)")
}

func TestEmitComparisonMnemonics(t *testing.T) {
	out := emit(t, "int main(void) { int x; x = 1 < 2; return x == 1; }")
	require.Contains(t, out, "icmp slt i64")
	require.Contains(t, out, "icmp eq i64")
	require.Contains(t, out, "zext i1")
}

func TestEmitArithmeticMnemonics(t *testing.T) {
	out := emit(t, "int main(void) { return ((7 / 2) * (8 % 3)) + (1 << 3) - (16 >> 2); }")
	require.Contains(t, out, "sdiv i64")
	require.Contains(t, out, "srem i64")
	require.Contains(t, out, "mul i64")
	require.Contains(t, out, "shl i64")
	require.Contains(t, out, "ashr i64")
}

func TestEmitWhileShape(t *testing.T) {
	out := emit(t, "int main(void) { int i; i = 0; while (i < 3) i = i + 1; return i; }")
	require.Contains(t, out, "br label %begin")
	require.Contains(t, out, "br i1")
	require.Contains(t, out, "icmp ne i64")
}

func TestEmitPointers(t *testing.T) {
	out := emit(t, "int main(void) { int x; int *p; x = 7; p = &x; *p = *p + 1; return x; }")
	require.Contains(t, out, "alloca i64*")
	require.Contains(t, out, "load i64*, i64**")
}

func TestEmitSubscriptUsesGEP(t *testing.T) {
	out := emit(t, "int main(void) { int a[3]; a[1] = 5; return a[1]; }")
	require.Contains(t, out, "alloca [3 x i64]")
	require.Contains(t, out, "getelementptr [3 x i64]")
}

func TestEmitStructMember(t *testing.T) {
	out := emit(t, `
		struct P { int a; int b; };
		int main(void) { struct P p; p.b = 3; return p.b; }
	`)
	require.Contains(t, out, "alloca { i64, i64 }")
	require.Contains(t, out, "getelementptr { i64, i64 }, { i64, i64 }* ")
	require.Contains(t, out, "i32 1")
}

func TestEmitCharIsI8(t *testing.T) {
	out := emit(t, "int main(void) { char c; c = 'A'; return (int)c; }")
	require.Contains(t, out, "alloca i8")
	require.Contains(t, out, "store i8 65")
	require.Contains(t, out, "sext i8")
}

func TestEmitStringConstant(t *testing.T) {
	out := emit(t, `int main(void) { char s[] = "hi"; return 0; }`)
	require.Contains(t, out, `@str_0 = private unnamed_addr constant [3 x i8] c"hi\00"`)
}

func TestEmitGlobalVariable(t *testing.T) {
	out := emit(t, "int g = 7; int main(void) { return g; }")
	require.Contains(t, out, "@g = global i64 7")
	require.Contains(t, out, "load i64, i64* @g")
}

func TestEmitBuiltinDeclarations(t *testing.T) {
	out := emit(t, "int main(void) { putchar(65); return 0; }")
	require.Contains(t, out, "declare i64 @putchar(i64)")
	require.Contains(t, out, "call i64 @putchar(i64 noundef 65)")
}

func TestVoidFunction(t *testing.T) {
	out := emit(t, "void noop(void) { return; } int main(void) { noop(); return 0; }")
	require.Contains(t, out, "define void @noop()")
	require.Contains(t, out, "ret void")
	require.Contains(t, out, "call void @noop()")
}
