// Package consteval implements compile-time evaluation of integer constant
// expressions over the typed AST. It is used for array lengths, case
// labels and enum constant values. Only expressions whose type flattens to
// int or char are accepted; anything referring to run-time state (symbols,
// calls, assignments, subscripts, member accesses) is a ConstEvalError.
package consteval

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// SizeofValue is what every sizeof evaluates to in a constant context.
// This is a known limitation carried over deliberately, not an estimate of
// any actual object size.
const SizeofValue = 4

// Eval evaluates e to an integer, or fails with a ConstEvalError.
func Eval(e *ast.TypedExpr) (int64, error) {
	if !types.IsInteger(e.Type) {
		return 0, cerr.ConstEval("non-integer type %s in constant expression", types.ToRustFormat(e.Type))
	}
	return eval(e)
}

func eval(e *ast.TypedExpr) (int64, error) {
	switch ex := e.Expr.(type) {
	case *ast.SemaInt:
		return ex.Value, nil
	case *ast.SemaChar:
		return int64(ex.Value), nil

	case *ast.SemaUnary:
		x, err := eval(ex.X)
		if err != nil {
			return 0, err
		}
		switch ex.Op {
		case token.BANG:
			return b2i(x == 0), nil
		case token.TILDE:
			return ^x, nil
		default:
			return 0, cerr.ConstEval("operator %#v in constant expression", ex.Op)
		}

	case *ast.SemaBinary:
		return evalBinary(ex)

	case *ast.SemaTernary:
		c, err := eval(ex.Cond)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return eval(ex.Then)
		}
		return eval(ex.Else)

	case *ast.SemaCast:
		x, err := eval(ex.X)
		if err != nil {
			return 0, err
		}
		switch tt := types.Flat(ex.To).(type) {
		case *types.Basic:
			switch tt.Kind {
			case types.Int:
				return x, nil
			case types.Char:
				if x < 0 || x > 255 {
					return 0, cerr.ConstEval("value %d out of range for char", x)
				}
				return x, nil
			}
		}
		return 0, cerr.ConstEval("cast to %s in constant expression", types.ToRustFormat(ex.To))

	case *ast.SemaComma:
		var last int64
		for _, sub := range ex.List {
			v, err := eval(sub)
			if err != nil {
				return 0, err
			}
			last = v
		}
		return last, nil

	case *ast.SemaSizeof:
		return SizeofValue, nil

	case *ast.SemaSymbol:
		return 0, cerr.ConstEval("variable %q in constant expression", ex.Sym.Name)
	case *ast.SemaCall:
		return 0, cerr.ConstEval("function call in constant expression")
	case *ast.SemaAssign:
		return 0, cerr.ConstEval("assignment in constant expression")
	case *ast.SemaSubscript:
		return 0, cerr.ConstEval("subscript in constant expression")
	case *ast.SemaMember:
		return 0, cerr.ConstEval("member access in constant expression")
	default:
		return 0, cerr.ConstEval("unsupported construct in constant expression")
	}
}

func evalBinary(ex *ast.SemaBinary) (int64, error) {
	l, err := eval(ex.L)
	if err != nil {
		return 0, err
	}

	// && and || short-circuit: the right operand is only evaluated when it
	// can affect the result.
	switch ex.Op {
	case token.ANDAND:
		if l == 0 {
			return 0, nil
		}
		r, err := eval(ex.R)
		if err != nil {
			return 0, err
		}
		return b2i(r != 0), nil
	case token.OROR:
		if l != 0 {
			return 1, nil
		}
		r, err := eval(ex.R)
		if err != nil {
			return 0, err
		}
		return b2i(r != 0), nil
	}

	r, err := eval(ex.R)
	if err != nil {
		return 0, err
	}

	switch ex.Op {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return 0, cerr.ConstEval("division by zero")
		}
		return l / r, nil
	case token.PERCENT:
		if r == 0 {
			return 0, cerr.ConstEval("modulo by zero")
		}
		return l % r, nil
	case token.AMP:
		return l & r, nil
	case token.PIPE:
		return l | r, nil
	case token.CARET:
		return l ^ r, nil
	case token.LTLT:
		if r < 0 || r >= 64 {
			return 0, cerr.ConstEval("shift amount %d out of range", r)
		}
		return l << uint(r), nil
	case token.GTGT:
		if r < 0 || r >= 64 {
			return 0, cerr.ConstEval("shift amount %d out of range", r)
		}
		return l >> uint(r), nil
	case token.EQEQ:
		return b2i(l == r), nil
	case token.NEQ:
		return b2i(l != r), nil
	case token.LT:
		return b2i(l < r), nil
	case token.LE:
		return b2i(l <= r), nil
	case token.GT:
		return b2i(l > r), nil
	case token.GE:
		return b2i(l >= r), nil
	default:
		return 0, cerr.ConstEval("operator %#v in constant expression", ex.Op)
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
