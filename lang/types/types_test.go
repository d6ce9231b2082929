package types_test

import (
	"testing"

	"nanocc/lang/types"

	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

// int *x[3] -> array of pointers to int -> "[*int; 3]"
func TestFormatArrayOfPointers(t *testing.T) {
	ty := &types.Array{Elem: &types.Pointer{Elem: types.TheInt}, Len: intPtr(3)}
	require.Equal(t, "[*int; 3]", types.ToRustFormat(ty))
}

// int (*x)[3] -> pointer to array of int -> "*[int; 3]"
func TestFormatPointerToArray(t *testing.T) {
	ty := &types.Pointer{Elem: &types.Array{Elem: types.TheInt, Len: intPtr(3)}}
	require.Equal(t, "*[int; 3]", types.ToRustFormat(ty))
}

// int *f(int) -> function returning pointer -> "fn(int) -> *int"
func TestFormatFunctionReturningPointer(t *testing.T) {
	ty := &types.Func{Return: &types.Pointer{Elem: types.TheInt}, Params: []types.Type{types.TheInt}}
	require.Equal(t, "fn(int) -> *int", types.ToRustFormat(ty))
}

// int (*f)(int) -> pointer to function -> "*fn(int) -> int"
func TestFormatPointerToFunction(t *testing.T) {
	ty := &types.Pointer{Elem: &types.Func{Return: types.TheInt, Params: []types.Type{types.TheInt}}}
	require.Equal(t, "*fn(int) -> int", types.ToRustFormat(ty))
}

func TestFlatCollapsesTypedefThroughConstructors(t *testing.T) {
	td := &types.Typedef{Name: "T", Target: types.TheInt}
	ptrToTypedef := &types.Pointer{Elem: td}
	require.True(t, types.Equal(ptrToTypedef, &types.Pointer{Elem: types.TheInt}))
}

func TestFlatStopsAtAggregates(t *testing.T) {
	def := &types.StructDef{Tag: "Node"}
	node := &types.Struct{Def: def}
	def.Fields = []types.Field{{Name: "next", Type: &types.Pointer{Elem: node}}}

	// must not recurse infinitely.
	flat := types.Flat(node)
	require.Equal(t, node, flat)
}

func TestEqualStructByIdentity(t *testing.T) {
	def1 := &types.StructDef{Tag: "P"}
	def2 := &types.StructDef{Tag: "P"}
	s1, s2, s3 := &types.Struct{Def: def1}, &types.Struct{Def: def1}, &types.Struct{Def: def2}

	require.True(t, types.Equal(s1, s2))
	require.False(t, types.Equal(s1, s3), "same tag, different Def, must not be equal")
}

func TestEqualIncompleteArrayCompatibleWithAnyLength(t *testing.T) {
	incomplete := &types.Array{Elem: types.TheInt}
	complete := &types.Array{Elem: types.TheInt, Len: intPtr(5)}
	require.True(t, types.Equal(incomplete, complete))
}

func TestEqualArrayLengthMismatch(t *testing.T) {
	a := &types.Array{Elem: types.TheInt, Len: intPtr(3)}
	b := &types.Array{Elem: types.TheInt, Len: intPtr(4)}
	require.False(t, types.Equal(a, b))
}

func TestCellSizeScalarsAndArray(t *testing.T) {
	require.Equal(t, 1, types.CellSize(types.TheInt))
	require.Equal(t, 1, types.CellSize(types.TheChar))
	require.Equal(t, 3, types.CellSize(types.TheDouble))
	require.Equal(t, 1, types.CellSize(&types.Pointer{Elem: types.TheInt}))
	require.Equal(t, 4, types.CellSize(&types.Array{Elem: types.TheInt, Len: intPtr(4)}))
}

func TestCellSizeUnionIsMax(t *testing.T) {
	u := &types.Union{Def: &types.UnionDef{Fields: []types.Field{
		{Name: "i", Type: types.TheInt},
		{Name: "d", Type: types.TheDouble},
	}}}
	require.Equal(t, 3, types.CellSize(u))
}
