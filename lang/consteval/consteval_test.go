package consteval_test

import (
	"errors"
	"testing"

	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/consteval"
	"nanocc/lang/scope"
	"nanocc/lang/token"
	"nanocc/lang/types"

	"github.com/stretchr/testify/require"
)

func num(n int64) *ast.TypedExpr {
	return &ast.TypedExpr{Type: types.TheInt, Expr: &ast.SemaInt{Value: n}}
}

func bin(op token.Token, l, r *ast.TypedExpr) *ast.TypedExpr {
	return &ast.TypedExpr{Type: types.TheInt, Expr: &ast.SemaBinary{Op: op, L: l, R: r}}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		op   token.Token
		l, r int64
		want int64
	}{
		{token.PLUS, 2, 3, 5},
		{token.MINUS, 2, 3, -1},
		{token.STAR, 4, 3, 12},
		{token.SLASH, 7, 2, 3},
		{token.PERCENT, 7, 2, 1},
		{token.LTLT, 1, 4, 16},
		{token.GTGT, 16, 2, 4},
		{token.AMP, 6, 3, 2},
		{token.PIPE, 6, 3, 7},
		{token.CARET, 6, 3, 5},
		{token.EQEQ, 3, 3, 1},
		{token.NEQ, 3, 3, 0},
		{token.LT, 2, 3, 1},
		{token.GE, 2, 3, 0},
	}
	for _, c := range cases {
		got, err := consteval.Eval(bin(c.op, num(c.l), num(c.r)))
		require.NoError(t, err, c.op)
		require.Equal(t, c.want, got, c.op)
	}
}

func TestShortCircuit(t *testing.T) {
	// the right operand divides by zero; short-circuiting must skip it.
	bad := bin(token.SLASH, num(1), num(0))

	got, err := consteval.Eval(bin(token.ANDAND, num(0), bad))
	require.NoError(t, err)
	require.EqualValues(t, 0, got)

	got, err = consteval.Eval(bin(token.OROR, num(1), bad))
	require.NoError(t, err)
	require.EqualValues(t, 1, got)

	_, err = consteval.Eval(bin(token.ANDAND, num(1), bad))
	require.Error(t, err)
}

func TestTernaryShortCircuit(t *testing.T) {
	bad := bin(token.PERCENT, num(1), num(0))
	e := &ast.TypedExpr{Type: types.TheInt, Expr: &ast.SemaTernary{
		Cond: num(1), Then: num(7), Else: bad,
	}}
	got, err := consteval.Eval(e)
	require.NoError(t, err)
	require.EqualValues(t, 7, got)
}

func TestDivideByZero(t *testing.T) {
	_, err := consteval.Eval(bin(token.SLASH, num(1), num(0)))
	require.True(t, errors.Is(err, &cerr.Error{Kind: cerr.ConstEvalError}))
	_, err = consteval.Eval(bin(token.PERCENT, num(1), num(0)))
	require.Error(t, err)
}

func TestShiftOutOfRange(t *testing.T) {
	_, err := consteval.Eval(bin(token.LTLT, num(1), num(64)))
	require.Error(t, err)
	_, err = consteval.Eval(bin(token.LTLT, num(1), num(-1)))
	require.Error(t, err)
	_, err = consteval.Eval(bin(token.GTGT, num(1), num(63)))
	require.NoError(t, err)
}

func TestCharCastRangeCheck(t *testing.T) {
	ok := &ast.TypedExpr{Type: types.TheChar, Expr: &ast.SemaCast{
		To: types.TheChar, From: types.TheInt, X: num(255),
	}}
	got, err := consteval.Eval(ok)
	require.NoError(t, err)
	require.EqualValues(t, 255, got)

	bad := &ast.TypedExpr{Type: types.TheChar, Expr: &ast.SemaCast{
		To: types.TheChar, From: types.TheInt, X: num(256),
	}}
	_, err = consteval.Eval(bad)
	require.Error(t, err)
}

func TestSizeofIsFour(t *testing.T) {
	e := &ast.TypedExpr{Type: types.TheInt, Expr: &ast.SemaSizeof{Type: types.TheDouble}}
	got, err := consteval.Eval(e)
	require.NoError(t, err)
	require.EqualValues(t, 4, got)
}

func TestCommaEvaluatesAllYieldsLast(t *testing.T) {
	e := &ast.TypedExpr{Type: types.TheInt, Expr: &ast.SemaComma{
		List: []*ast.TypedExpr{num(1), num(2), num(3)},
	}}
	got, err := consteval.Eval(e)
	require.NoError(t, err)
	require.EqualValues(t, 3, got)
}

func TestSymbolReferenceIsError(t *testing.T) {
	e := &ast.TypedExpr{Type: types.TheInt, Expr: &ast.SemaSymbol{
		Sym: scope.Symbol{Name: "x"},
	}}
	_, err := consteval.Eval(e)
	require.True(t, errors.Is(err, &cerr.Error{Kind: cerr.ConstEvalError}))
}

func TestNonIntegerTypeRejected(t *testing.T) {
	e := &ast.TypedExpr{Type: types.TheDouble, Expr: &ast.SemaFloat{Value: 1.5}}
	_, err := consteval.Eval(e)
	require.Error(t, err)
}

func TestUnaryOps(t *testing.T) {
	not := &ast.TypedExpr{Type: types.TheInt, Expr: &ast.SemaUnary{Op: token.BANG, X: num(0)}}
	got, err := consteval.Eval(not)
	require.NoError(t, err)
	require.EqualValues(t, 1, got)

	inv := &ast.TypedExpr{Type: types.TheInt, Expr: &ast.SemaUnary{Op: token.TILDE, X: num(0)}}
	got, err = consteval.Eval(inv)
	require.NoError(t, err)
	require.EqualValues(t, -1, got)
}

// evaluating an already-evaluated literal yields the same value.
func TestIdempotence(t *testing.T) {
	e := bin(token.PLUS, num(20), bin(token.STAR, num(11), num(2)))
	v1, err := consteval.Eval(e)
	require.NoError(t, err)
	v2, err := consteval.Eval(num(v1))
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}
