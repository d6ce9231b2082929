package ast

import "nanocc/lang/types"

// The declarator forms model C's "inside-out" declaration grammar as the
// parser sees it, before the type resolver folds pointer, array and
// function constructors around the base type. A valid declarator contains
// exactly one identifier anywhere in it (or none, for abstract declarators
// in parameter lists and casts).

// A Declarator is a pointer level applied to a direct declarator. Direct is
// nil for an abstract pointer declarator such as the "(*)" in
// "void (*)(int)".
type Declarator struct {
	PointerLevel int
	Direct       DirectDeclarator
}

// DirectDeclarator is the centre of a declarator: an identifier, a
// parenthesized sub-declarator, or an array/function suffix group applied
// to an inner direct declarator.
type DirectDeclarator interface{ isDirectDeclarator() }

// An IdentDecl is the declared name itself.
type IdentDecl struct {
	Name string
}

// A ParenDecl wraps a nested declarator, e.g. the "(*f)" in
// "int (*f)(int)".
type ParenDecl struct {
	Inner *Declarator
}

// An ArrayDecl is an "[size]" suffix group. Size is nil for "[]".
type ArrayDecl struct {
	Base DirectDeclarator
	Size Expr
}

// A FuncDecl is a "(params)" suffix group.
type FuncDecl struct {
	Base     DirectDeclarator
	Params   []Param
	Variadic bool
}

// A Param is one typed parameter of a FuncDecl. Name is empty for abstract
// parameters.
type Param struct {
	Name string
	Type types.Type
}

func (*IdentDecl) isDirectDeclarator() {}
func (*ParenDecl) isDirectDeclarator() {}
func (*ArrayDecl) isDirectDeclarator() {}
func (*FuncDecl) isDirectDeclarator()  {}
