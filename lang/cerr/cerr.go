// Package cerr defines the kind-tagged error values produced by every pass
// of the compiler. Errors are values, never control-flow exceptions: a pass
// returns the first error it encounters and stops, per the compiler's
// no-recovery policy.
package cerr

import "fmt"

// Kind identifies the category of a compiler error.
type Kind uint8

//nolint:revive
const (
	_ Kind = iota
	LexicalError
	SyntaxError
	UndefinedVariable
	IncompatibleTypes
	InvalidOperation
	InvalidMemberAccess
	ConstEvalError
)

var kindNames = [...]string{
	LexicalError:        "lexical error",
	SyntaxError:         "syntax error",
	UndefinedVariable:   "undefined variable",
	IncompatibleTypes:   "incompatible types",
	InvalidOperation:    "invalid operation",
	InvalidMemberAccess: "invalid member access",
	ConstEvalError:      "constant evaluation error",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) || kindNames[k] == "" {
		return fmt.Sprintf("<invalid Kind %d>", k)
	}
	return kindNames[k]
}

// Error is the single error type returned by every compiler pass. It carries
// enough structured information to build a human-readable message without
// requiring source positions, which this compiler deliberately does not
// track.
type Error struct {
	Kind Kind

	// Msg is a short, already-formatted description specific to the failure
	// (e.g. "missing expected token").
	Msg string

	// Name is set for UndefinedVariable and InvalidMemberAccess.
	Name string

	// Expected and Found are set for IncompatibleTypes; they hold the
	// to_rust_format printed representation of the types involved.
	Expected, Found string

	// Context describes where an IncompatibleTypes error was raised, e.g.
	// "assignment", "arithmetic operation", "call argument", "ternary branch".
	Context string

	// Op and OperandType are set for InvalidOperation.
	Op, OperandType string
}

func (e *Error) Error() string {
	switch e.Kind {
	case UndefinedVariable:
		return fmt.Sprintf("undefined variable: %s", e.Name)
	case IncompatibleTypes:
		return fmt.Sprintf("incompatible types in %s: expected %s, found %s", e.Context, e.Expected, e.Found)
	case InvalidOperation:
		return fmt.Sprintf("invalid operation %s on %s", e.Op, e.OperandType)
	case InvalidMemberAccess:
		return fmt.Sprintf("invalid member access: no member %q on %s", e.Name, e.Found)
	default:
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
		}
		return e.Kind.String()
	}
}

// Is implements the errors.Is protocol, comparing by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func Lexical(format string, args ...any) *Error {
	return &Error{Kind: LexicalError, Msg: fmt.Sprintf(format, args...)}
}

func Syntax(format string, args ...any) *Error {
	return &Error{Kind: SyntaxError, Msg: fmt.Sprintf(format, args...)}
}

func Undefined(name string) *Error {
	return &Error{Kind: UndefinedVariable, Name: name}
}

func Incompatible(expected, found, context string) *Error {
	return &Error{Kind: IncompatibleTypes, Expected: expected, Found: found, Context: context}
}

func InvalidOp(op, operandType string) *Error {
	return &Error{Kind: InvalidOperation, Op: op, OperandType: operandType}
}

func InvalidMember(baseType, member string) *Error {
	return &Error{Kind: InvalidMemberAccess, Name: member, Found: baseType}
}

func ConstEval(format string, args ...any) *Error {
	return &Error{Kind: ConstEvalError, Msg: fmt.Sprintf(format, args...)}
}
