// Package types implements the C type algebra: a small tagged-variant type
// system (Void, Int, Char, Double, Ellipsis, Error, Unresolved, Pointer,
// Array, Func, Struct, Union, Enum, Typedef), with flattening, structural
// equality and a debug printer. The design follows go/types: Type is an
// interface implemented by one concrete struct per variant, rather than a
// single struct with a kind tag and unused fields.
package types

// Type is any member of the C type algebra.
type Type interface {
	// isType is unexported so that Type can only be implemented within this
	// package; callers switch on the concrete type.
	isType()
}

// BasicKind enumerates the primitive, parameterless type variants.
type BasicKind uint8

//nolint:revive
const (
	Void BasicKind = iota
	Int
	Char
	Double
	// Ellipsis marks a variadic "..." trailing parameter in a Func's Params.
	Ellipsis
	// Error is produced in place of a type after a type error was already
	// reported, so later checks that see it do not cascade new errors.
	Error
	// Unresolved marks a type reference (e.g. an unknown typedef name) that
	// could not be bound yet.
	Unresolved
)

var basicNames = [...]string{
	Void: "void", Int: "int", Char: "char", Double: "double",
	Ellipsis: "...", Error: "<error>", Unresolved: "<unresolved>",
}

// Basic is a type with no constructor arguments.
type Basic struct {
	Kind BasicKind
}

func (*Basic) isType() {}

var (
	TheVoid       = &Basic{Kind: Void}
	TheInt        = &Basic{Kind: Int}
	TheChar       = &Basic{Kind: Char}
	TheDouble     = &Basic{Kind: Double}
	TheEllipsis   = &Basic{Kind: Ellipsis}
	TheError      = &Basic{Kind: Error}
	TheUnresolved = &Basic{Kind: Unresolved}
)

// Pointer is a pointer to another type.
type Pointer struct {
	Elem Type
}

func (*Pointer) isType() {}

// Array is an array of Elem, with an optional length. Len is nil for an
// incomplete array (e.g. a bare "[]" in a declarator, or a size expression
// that has not yet been constant-evaluated); LenExpr then holds the raw,
// not-yet-evaluated size expression as an opaque value (an ast.Expr,
// untyped here to avoid a dependency cycle between lang/types and lang/ast
// — only the sema package ever type-asserts it back).
type Array struct {
	Elem    Type
	Len     *int
	LenExpr any
}

func (*Array) isType() {}

// Func is a function type: a return type plus parameter types. Variadic is
// true when the last parameter is Ellipsis.
type Func struct {
	Return   Type
	Params   []Type
	Variadic bool
}

func (*Func) isType() {}

// NewBasic is a convenience constructor returning the shared singleton
// for parameterless basic kinds, avoiding needless allocation —
// comparisons by value never rely on pointer identity for Basic (Equal
// compares Kind), so sharing is purely an optimization.
func NewBasic(k BasicKind) *Basic {
	switch k {
	case Void:
		return TheVoid
	case Int:
		return TheInt
	case Char:
		return TheChar
	case Double:
		return TheDouble
	case Ellipsis:
		return TheEllipsis
	case Error:
		return TheError
	default:
		return TheUnresolved
	}
}
