// Package ast declares the syntax trees produced by the compiler's front
// end: the raw, untyped tree built by the parser, the declarator forms used
// while parsing C declarations, and the typed tree produced by the type
// resolver in which every expression carries its resolved type and every
// identifier has been replaced by a symbol handle.
package ast

import (
	"nanocc/lang/scope"
	"nanocc/lang/types"
)

// A Program is the raw parse result for one translation unit.
type Program struct {
	Items []TopLevel

	// Scope is the file scope; all nested blocks hang off it.
	Scope *scope.Scope
}

// TopLevel is a file-level item: a function definition, a function
// prototype, or a plain declaration statement.
type TopLevel interface{ isTopLevel() }

// A FuncDef is a function definition with a body.
type FuncDef struct {
	Name   string
	Type   *types.Func
	Params []string // parameter names, same order as Type.Params
	Body   *Block
}

// A FuncProto is a bodyless function declaration.
type FuncProto struct {
	Name string
	Type *types.Func
}

func (*FuncDef) isTopLevel()   {}
func (*FuncProto) isTopLevel() {}
func (*DeclStmt) isTopLevel()  {}
