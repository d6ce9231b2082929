package parser

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/token"
)

// The expression parser has one function per precedence level, ordered
// from loosest (comma) to tightest (primary) binding. Binary levels are
// built with binaryLevel to keep the ladder flat.

// expr parses a full expression including the comma operator.
func (p *parser) expr() (ast.Expr, error) {
	first, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	if p.tok() != token.COMMA {
		return first, nil
	}
	list := []ast.Expr{first}
	for p.got(token.COMMA) {
		e, err := p.assignExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return &ast.Comma{List: list}, nil
}

// assignExpr parses assignment, including all compound forms. Assignment
// is right-associative.
func (p *parser) assignExpr() (ast.Expr, error) {
	lhs, err := p.condExpr()
	if err != nil {
		return nil, err
	}
	if !p.tok().IsAssignOp() {
		return lhs, nil
	}
	op := p.tok()
	p.next()
	rhs, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Op: op, L: lhs, R: rhs}, nil
}

// condExpr parses the conditional operator "c ? t : e".
func (p *parser) condExpr() (ast.Expr, error) {
	cond, err := p.logicalOr()
	if err != nil {
		return nil, err
	}
	if !p.got(token.QUESTION) {
		return cond, nil
	}
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	els, err := p.condExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Ternary{Cond: cond, Then: then, Else: els}, nil
}

// binaryLevel parses a left-associative binary level with the given
// operator set, delegating operands to the next tighter level.
func (p *parser) binaryLevel(next func() (ast.Expr, error), ops ...token.Token) (ast.Expr, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, op := range ops {
			if p.tok() == op {
				matched = true
				break
			}
		}
		if !matched {
			return lhs, nil
		}
		op := p.tok()
		p.next()
		rhs, err := next()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Op: op, L: lhs, R: rhs}
	}
}

func (p *parser) logicalOr() (ast.Expr, error) {
	return p.binaryLevel(p.logicalAnd, token.OROR)
}

func (p *parser) logicalAnd() (ast.Expr, error) {
	return p.binaryLevel(p.equality, token.ANDAND)
}

func (p *parser) equality() (ast.Expr, error) {
	return p.binaryLevel(p.relational, token.EQEQ, token.NEQ)
}

func (p *parser) relational() (ast.Expr, error) {
	return p.binaryLevel(p.bitOr, token.LT, token.GT, token.LE, token.GE)
}

func (p *parser) bitOr() (ast.Expr, error) {
	return p.binaryLevel(p.bitXor, token.PIPE)
}

func (p *parser) bitXor() (ast.Expr, error) {
	return p.binaryLevel(p.bitAnd, token.CARET)
}

func (p *parser) bitAnd() (ast.Expr, error) {
	return p.binaryLevel(p.shift, token.AMP)
}

func (p *parser) shift() (ast.Expr, error) {
	return p.binaryLevel(p.additive, token.LTLT, token.GTGT)
}

func (p *parser) additive() (ast.Expr, error) {
	return p.binaryLevel(p.multiplicative, token.PLUS, token.MINUS)
}

func (p *parser) multiplicative() (ast.Expr, error) {
	return p.binaryLevel(p.unaryExpr, token.STAR, token.SLASH, token.PERCENT)
}

// unaryExpr parses prefix operators, prefix increment/decrement, sizeof
// and casts. A cast is recognized when '(' is immediately followed by a
// token the current scope acknowledges as starting a type.
func (p *parser) unaryExpr() (ast.Expr, error) {
	switch p.tok() {
	case token.PLUS, token.MINUS, token.BANG, token.TILDE, token.AMP, token.STAR,
		token.PLUSPLUS, token.MINUSMINUS:
		op := p.tok()
		p.next()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, X: x}, nil

	case token.SIZEOF:
		p.next()
		if p.tok() == token.LPAREN && p.isTypeStart(1) {
			p.next()
			t, err := p.typeName()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			return &ast.Sizeof{Type: t}, nil
		}
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Sizeof{X: x}, nil

	case token.LPAREN:
		if p.isTypeStart(1) {
			p.next()
			t, err := p.typeName()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			x, err := p.unaryExpr()
			if err != nil {
				return nil, err
			}
			return &ast.Cast{To: t, X: x}, nil
		}
	}
	return p.postfixExpr()
}

// postfixExpr parses subscripts, calls, member access and postfix
// increment/decrement, all left to right.
func (p *parser) postfixExpr() (ast.Expr, error) {
	x, err := p.primaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok() {
		case token.LBRACK:
			p.next()
			idx, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RBRACK); err != nil {
				return nil, err
			}
			x = &ast.Subscript{X: x, Index: idx}

		case token.LPAREN:
			p.next()
			var args []ast.Expr
			for p.tok() != token.RPAREN {
				a, err := p.assignExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !p.got(token.COMMA) {
					break
				}
			}
			if err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			x = &ast.Call{Fun: x, Args: args}

		case token.DOT, token.ARROW:
			kind := p.tok()
			p.next()
			if p.tok() != token.IDENT {
				return nil, cerr.Syntax("expected a member name, found %#v", p.tok())
			}
			x = &ast.Member{X: x, Kind: kind, Name: p.val().Raw}
			p.next()

		case token.PLUSPLUS, token.MINUSMINUS:
			x = &ast.Postfix{Op: p.tok(), X: x}
			p.next()

		default:
			return x, nil
		}
	}
}

// primaryExpr parses literals, identifiers and parenthesized expressions.
func (p *parser) primaryExpr() (ast.Expr, error) {
	switch p.tok() {
	case token.INT:
		e := &ast.IntLit{Value: p.val().Int}
		p.next()
		return e, nil
	case token.FLOAT:
		e := &ast.FloatLit{Value: p.val().Float}
		p.next()
		return e, nil
	case token.CHAR:
		e := &ast.CharLit{Value: byte(p.val().Int)}
		p.next()
		return e, nil
	case token.STRING:
		e := &ast.StringLit{Value: p.val().Str}
		p.next()
		return e, nil
	case token.IDENT:
		e := &ast.IdentExpr{Name: p.val().Raw}
		p.next()
		return e, nil
	case token.LPAREN:
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, cerr.Syntax("expected an expression, found %#v", p.tok())
}
