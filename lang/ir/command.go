// Package ir implements the stack-IR generator: it lowers the typed AST
// into a linear list of symbolic stack-machine commands. Labels are
// symbolic, symbol references are unresolved names, and allocation sizes
// are still types; the second pass (lang/irresolve) turns all of that into
// concrete stack positions and numeric addresses.
package ir

import (
	"fmt"

	"nanocc/lang/scope"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// A Label identifies a jump target. Labels 0 and 1 are reserved for the
// program exit and entry; the generator hands out fresh labels from 2 up.
type Label int

// Reserved labels.
const (
	LabelExit  Label = 0
	LabelEntry Label = 1
	labelFirst Label = 2
)

// Kind discriminates the stack commands.
type Kind uint8

//nolint:revive
const (
	KindNop Kind = iota
	KindComment
	KindPush
	KindInput
	KindPutChar
	KindBinary
	KindUnary
	KindSymbol
	KindLoad
	KindStore
	KindIndexAccess
	KindAlloc
	KindPop
	KindName
	KindBlockStart
	KindBlockEnd
	KindClearStackFrom
	KindGoto
	KindBranch
	KindLabel
	KindCall
	KindReturn
	KindFramePop
	KindReturnPoint
	KindGlobalAddress
	KindAddress
	KindAccessUseGA
	KindAccessUseLA

	// KindStackAdjust emits nothing: it corrects the resolver's linear
	// stack model at join points where only one of several emitted paths
	// executes (ternary arms).
	KindStackAdjust
)

// BinOp is a binary stack operation: pop two, push one.
type BinOp uint8

//nolint:revive
const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Shl
	Shr
	BitAnd
	BitOr
	BitXor
	Eq
	Neq
	Lt
	Le
	Gt
	Ge
	LogAnd
	LogOr
)

var binOpNames = [...]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Mod: "mod",
	Shl: "shl", Shr: "shr", BitAnd: "and", BitOr: "or", BitXor: "xor",
	Eq: "eq", Neq: "neq", Lt: "lt", Le: "le", Gt: "gt", Ge: "ge",
	LogAnd: "land", LogOr: "lor",
}

func (op BinOp) String() string { return binOpNames[op] }

// binOpFor maps a token operator to its stack operation.
var binOpFor = map[token.Token]BinOp{
	token.PLUS: Add, token.MINUS: Sub, token.STAR: Mul, token.SLASH: Div,
	token.PERCENT: Mod, token.LTLT: Shl, token.GTGT: Shr,
	token.AMP: BitAnd, token.PIPE: BitOr, token.CARET: BitXor,
	token.EQEQ: Eq, token.NEQ: Neq, token.LT: Lt, token.LE: Le,
	token.GT: Gt, token.GE: Ge, token.ANDAND: LogAnd, token.OROR: LogOr,
}

// UnOp is a unary stack operation: pop one, push one.
type UnOp uint8

//nolint:revive
const (
	LogNot UnOp = iota
	BitNot
)

func (op UnOp) String() string {
	if op == LogNot {
		return "lnot"
	}
	return "not"
}

// A Command is one symbolic stack-machine command. It is a kind-tagged
// struct rather than an interface so the resolver and the printers stay a
// single switch; only the fields relevant to Kind are set.
type Command struct {
	Kind Kind

	Value int          // Push
	Bin   BinOp        // Binary
	Un    UnOp         // Unary
	Sym   scope.Symbol // Symbol, Name
	Type  types.Type   // Load, Store, IndexAccess, Alloc, Pop, Return
	Func  *types.Func  // Call
	Label Label        // Label, Goto, BlockStart, BlockEnd, ClearStackFrom, ReturnPoint
	True  Label        // Branch
	False Label        // Branch
	Text  string       // Comment
}

func (c Command) String() string {
	switch c.Kind {
	case KindNop:
		return "Nop"
	case KindComment:
		return "// " + c.Text
	case KindPush:
		return fmt.Sprintf("Push(%d)", c.Value)
	case KindInput:
		return "Input"
	case KindPutChar:
		return "PutChar"
	case KindBinary:
		return fmt.Sprintf("BinaryOp(%s)", c.Bin)
	case KindUnary:
		return fmt.Sprintf("UnaryOp(%s)", c.Un)
	case KindSymbol:
		return fmt.Sprintf("Symbol(%s)", c.Sym.Name)
	case KindLoad:
		return fmt.Sprintf("Load(%s)", types.ToRustFormat(c.Type))
	case KindStore:
		return fmt.Sprintf("Store(%s)", types.ToRustFormat(c.Type))
	case KindIndexAccess:
		return fmt.Sprintf("IndexAccess(%s)", types.ToRustFormat(c.Type))
	case KindAlloc:
		return fmt.Sprintf("Alloc(%s)", types.ToRustFormat(c.Type))
	case KindPop:
		return fmt.Sprintf("Pop(%s)", types.ToRustFormat(c.Type))
	case KindName:
		return fmt.Sprintf("Name(%s)", c.Sym.Name)
	case KindBlockStart:
		return fmt.Sprintf("BlockStart(%d)", c.Label)
	case KindBlockEnd:
		return fmt.Sprintf("BlockEnd(%d)", c.Label)
	case KindClearStackFrom:
		return fmt.Sprintf("ClearStackFrom(%d)", c.Label)
	case KindGoto:
		return fmt.Sprintf("Goto(%d)", c.Label)
	case KindBranch:
		return fmt.Sprintf("Branch(%d, %d)", c.True, c.False)
	case KindLabel:
		return fmt.Sprintf("Label(%d)", c.Label)
	case KindCall:
		return fmt.Sprintf("Call(%s)", types.ToRustFormat(c.Func))
	case KindReturn:
		return fmt.Sprintf("Return(%s)", types.ToRustFormat(c.Type))
	case KindFramePop:
		return "FramePop"
	case KindReturnPoint:
		return fmt.Sprintf("ReturnPoint(%d)", c.Label)
	case KindGlobalAddress:
		return "GlobalAddress"
	case KindAddress:
		return "Address"
	case KindAccessUseGA:
		return "AccessUseGA"
	case KindAccessUseLA:
		return "AccessUseLA"
	case KindStackAdjust:
		return fmt.Sprintf("StackAdjust(%d)", c.Value)
	default:
		return fmt.Sprintf("<invalid Kind %d>", c.Kind)
	}
}

// A Func is the lowered body of one function definition, ready for the
// second pass. The entry label is allocated before any body is generated
// so forward calls resolve.
type Func struct {
	Sym    scope.Symbol
	Type   *types.Func
	Entry  Label
	Params []scope.Symbol
	Body   []Command
}

// A Program is the full lowered translation unit.
type Program struct {
	Funcs []*Func
}

// Main returns the program's main function, or nil if there is none.
func (p *Program) Main() *Func {
	for _, f := range p.Funcs {
		if f.Sym.Name == "main" {
			return f
		}
	}
	return nil
}
