package parser_test

import (
	"errors"
	"testing"

	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/parser"
	"nanocc/lang/types"

	"github.com/stretchr/testify/require"
)

// declType parses a single declaration statement and returns the declared
// type of its first variable declarator, printed in the canonical form.
func declType(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	require.NoError(t, err, src)
	require.Len(t, prog.Items, 1)
	ds, ok := prog.Items[0].(*ast.DeclStmt)
	require.True(t, ok, "expected a declaration statement for %q", src)
	for _, d := range ds.Decls {
		if vd, isVar := d.(*ast.VarDecl); isVar {
			return types.ToRustFormat(vd.Type)
		}
	}
	t.Fatalf("no variable declarator in %q", src)
	return ""
}

func TestDeclaratorArrayOfPointers(t *testing.T) {
	require.Equal(t, "[*int; 3]", declType(t, "int *x[3];"))
}

func TestDeclaratorPointerToArray(t *testing.T) {
	require.Equal(t, "*[int; 3]", declType(t, "int (*x)[3];"))
}

func TestDeclaratorFunctionReturningPointer(t *testing.T) {
	require.Equal(t, "fn(int) -> *int", declType(t, "int *f(int);"))
}

func TestDeclaratorPointerToFunction(t *testing.T) {
	require.Equal(t, "*fn(int) -> int", declType(t, "int (*f)(int);"))
}

func TestDeclaratorSignal(t *testing.T) {
	require.Equal(t,
		"fn(int, *fn(int) -> void) -> *fn(int) -> void",
		declType(t, "void (*signal(int, void (*)(int)))(int);"))
}

func TestDeclaratorMultiDimensionalArray(t *testing.T) {
	require.Equal(t, "[[int; 3]; 2]", declType(t, "int x[2][3];"))
}

func TestDeclaratorSharedBaseType(t *testing.T) {
	prog, err := parser.Parse([]byte("int a, *b, c[2];"))
	require.NoError(t, err)
	ds := prog.Items[0].(*ast.DeclStmt)
	require.Len(t, ds.Decls, 3)
	require.Equal(t, "int", types.ToRustFormat(ds.Decls[0].(*ast.VarDecl).Type))
	require.Equal(t, "*int", types.ToRustFormat(ds.Decls[1].(*ast.VarDecl).Type))
	require.Equal(t, "[int; 2]", types.ToRustFormat(ds.Decls[2].(*ast.VarDecl).Type))
}

func TestTypedefNameBecomesBaseType(t *testing.T) {
	prog, err := parser.Parse([]byte("typedef int T; T x;"))
	require.NoError(t, err)
	require.Len(t, prog.Items, 2)
	vd := prog.Items[1].(*ast.DeclStmt).Decls[0].(*ast.VarDecl)
	require.Equal(t, "T", types.ToRustFormat(vd.Type))
	require.True(t, types.Equal(vd.Type, types.TheInt))
}

func TestStructDefinitionRegistersTag(t *testing.T) {
	prog, err := parser.Parse([]byte("struct P { int a; int b; }; struct P p;"))
	require.NoError(t, err)
	vd := prog.Items[1].(*ast.DeclStmt).Decls[0].(*ast.VarDecl)
	st, ok := vd.Type.(*types.Struct)
	require.True(t, ok)
	require.Equal(t, "P", st.Def.Tag)
	require.Len(t, st.Def.Fields, 2)
}

func TestSelfReferentialStruct(t *testing.T) {
	prog, err := parser.Parse([]byte("struct Node { int v; struct Node *next; };"))
	require.NoError(t, err)
	td := prog.Items[0].(*ast.DeclStmt).Decls[0].(*ast.TagDecl)
	st := td.Type.(*types.Struct)
	next := st.Def.Fields[1].Type.(*types.Pointer)
	require.Same(t, st.Def, next.Elem.(*types.Struct).Def)
}

func TestFunctionDefinition(t *testing.T) {
	prog, err := parser.Parse([]byte("int add(int a, int b) { return a + b; }"))
	require.NoError(t, err)
	fd, ok := prog.Items[0].(*ast.FuncDef)
	require.True(t, ok)
	require.Equal(t, "add", fd.Name)
	require.Equal(t, []string{"a", "b"}, fd.Params)
	require.Equal(t, "fn(int, int) -> int", types.ToRustFormat(fd.Type))
	require.Len(t, fd.Body.Stmts, 1)
}

func TestCastVsParenExpr(t *testing.T) {
	prog, err := parser.Parse([]byte("int main(void) { int x; x = (int)'a'; x = (x); return x; }"))
	require.NoError(t, err)
	body := prog.Items[0].(*ast.FuncDef).Body.Stmts
	cast := body[1].(*ast.ExprStmt).X.(*ast.Assign).R
	require.IsType(t, &ast.Cast{}, cast)
	paren := body[2].(*ast.ExprStmt).X.(*ast.Assign).R
	require.IsType(t, &ast.IdentExpr{}, paren)
}

func TestPrecedenceShiftBindsTighterThanRelational(t *testing.T) {
	// in this grammar the bitwise and shift levels bind tighter than
	// comparisons, so a < b << c parses as a < (b << c).
	prog, err := parser.Parse([]byte("int main(void) { return 1 < 2 << 3; }"))
	require.NoError(t, err)
	ret := prog.Items[0].(*ast.FuncDef).Body.Stmts[0].(*ast.Return)
	bin := ret.Value.(*ast.Binary)
	require.Equal(t, "<", bin.Op.String())
	require.Equal(t, "<<", bin.R.(*ast.Binary).Op.String())
}

func TestLabelledStatementLookahead(t *testing.T) {
	prog, err := parser.Parse([]byte("int main(void) { again: return 0; }"))
	require.NoError(t, err)
	lbl, ok := prog.Items[0].(*ast.FuncDef).Body.Stmts[0].(*ast.Labeled)
	require.True(t, ok)
	require.Equal(t, "again", lbl.Name)
}

func TestSyntaxErrorKind(t *testing.T) {
	_, err := parser.Parse([]byte("int main(void) { return 1 }"))
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	require.Equal(t, cerr.SyntaxError, ce.Kind)
}

func TestMissingDeclaratorName(t *testing.T) {
	_, err := parser.Parse([]byte("int = 5;"))
	require.Error(t, err)
	require.True(t, errors.Is(err, &cerr.Error{Kind: cerr.SyntaxError}))
}
