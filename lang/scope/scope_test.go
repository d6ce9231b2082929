package scope_test

import (
	"testing"

	"nanocc/lang/scope"
	"nanocc/lang/types"

	"github.com/stretchr/testify/require"
)

func TestLookupWalksParentChain(t *testing.T) {
	root := scope.NewRoot()
	root.DeclareVar("x", types.TheInt)

	inner := root.Push().Push()
	typ, declScope, ok := inner.ResolveVar("x")
	require.True(t, ok)
	require.Same(t, root, declScope)
	require.True(t, types.Equal(typ, types.TheInt))
}

func TestShadowingDoesNotAffectOuterScope(t *testing.T) {
	root := scope.NewRoot()
	root.DeclareVar("x", types.TheInt)

	inner := root.Push()
	inner.DeclareVar("x", &types.Pointer{Elem: types.TheChar})

	typ, declScope, ok := inner.ResolveVar("x")
	require.True(t, ok)
	require.Same(t, inner, declScope)
	require.Equal(t, "*char", types.ToRustFormat(typ))

	// after the inner scope is gone, the outer binding is untouched.
	typ, declScope, ok = root.ResolveVar("x")
	require.True(t, ok)
	require.Same(t, root, declScope)
	require.Equal(t, "int", types.ToRustFormat(typ))
}

func TestFunctionsAreFileScope(t *testing.T) {
	root := scope.NewRoot()
	inner := root.Push().Push()
	inner.DeclareFunc("f", &types.Func{Return: types.TheInt})

	_, ok := root.LookupFunc("f")
	require.True(t, ok)

	// a function resolves as a variable reference too, bound to the root.
	_, declScope, ok := root.Push().ResolveVar("f")
	require.True(t, ok)
	require.Same(t, root, declScope)
}

func TestSymbolEquality(t *testing.T) {
	root := scope.NewRoot()
	inner := root.Push()
	a := scope.Symbol{Name: "x", Scope: root}
	b := scope.Symbol{Name: "x", Scope: root}
	c := scope.Symbol{Name: "x", Scope: inner}
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestSymbolTypeFollowsRebinding(t *testing.T) {
	root := scope.NewRoot()
	root.DeclareVar("x", &types.Typedef{Name: "T", Target: types.TheInt})
	sym := scope.Symbol{Name: "x", Scope: root}

	typ, ok := sym.Type()
	require.True(t, ok)
	require.IsType(t, &types.Typedef{}, typ)

	// the resolver re-registers the flattened type; the symbol sees it.
	root.DeclareVar("x", types.TheInt)
	typ, ok = sym.Type()
	require.True(t, ok)
	require.Same(t, types.TheInt, typ)
}

func TestSeparateNamespaces(t *testing.T) {
	root := scope.NewRoot()
	st := &types.Struct{Def: &types.StructDef{Tag: "x"}}
	root.DeclareTag("x", st)
	root.DeclareTypedef("x", types.TheChar)
	root.DeclareVar("x", types.TheInt)

	tag, ok := root.ResolveTag("x")
	require.True(t, ok)
	require.Same(t, st, tag)
	td, ok := root.ResolveTypedef("x")
	require.True(t, ok)
	require.Same(t, types.TheChar, td)
	v, _, ok := root.ResolveVar("x")
	require.True(t, ok)
	require.Same(t, types.TheInt, v)
}

func TestEnumConstants(t *testing.T) {
	root := scope.NewRoot()
	root.DeclareEnumConst("RED", 0)
	inner := root.Push()
	v, ok := inner.ResolveEnumConst("RED")
	require.True(t, ok)
	require.EqualValues(t, 0, v)
	_, ok = inner.ResolveEnumConst("BLUE")
	require.False(t, ok)
}
