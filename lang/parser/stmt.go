package parser

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// block parses "{ stmts }" in a fresh child scope, which the returned
// Block keeps a handle to.
func (p *parser) block() (*ast.Block, error) {
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	b := &ast.Block{Scope: p.pushScope()}
	defer p.popScope()
	for p.tok() != token.RBRACE {
		if p.tok() == token.EOF {
			return nil, cerr.Syntax("unterminated block")
		}
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	p.next() // consume '}'
	return b, nil
}

// stmt parses one statement.
func (p *parser) stmt() (ast.Stmt, error) {
	switch p.tok() {
	case token.LBRACE:
		return p.block()

	case token.RETURN:
		p.next()
		var v ast.Expr
		if p.tok() != token.SEMI {
			var err error
			v, err = p.expr()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.Return{Value: v}, nil

	case token.IF:
		return p.ifStmt()

	case token.WHILE:
		p.next()
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.scopedStmt()
		if err != nil {
			return nil, err
		}
		return &ast.While{Cond: cond, Body: body}, nil

	case token.DO:
		p.next()
		body, err := p.scopedStmt()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.WHILE); err != nil {
			return nil, err
		}
		cond, err := p.parenExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.DoWhile{Body: body, Cond: cond}, nil

	case token.FOR:
		return p.forStmt()

	case token.BREAK:
		p.next()
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.Break{}, nil

	case token.CONTINUE:
		p.next()
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.Continue{}, nil

	case token.SWITCH:
		return p.switchStmt()

	case token.GOTO:
		p.next()
		if p.tok() != token.IDENT {
			return nil, cerr.Syntax("expected a label name after \"goto\", found %#v", p.tok())
		}
		name := p.val().Raw
		p.next()
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.Goto{Label: name}, nil

	case token.SEMI:
		p.next()
		return &ast.Block{Scope: p.scope}, nil

	case token.TYPEDEF:
		return p.declStmt()

	case token.IDENT:
		// a labelled statement is recognized syntactically from the
		// two-token "ident :" lookahead.
		if p.at(1) == token.COLON && !p.scope.IsTypeName(p.val().Raw) {
			name := p.val().Raw
			p.next()
			p.next()
			s, err := p.stmt()
			if err != nil {
				return nil, err
			}
			return &ast.Labeled{Name: name, Stmt: s}, nil
		}
	}

	if p.isTypeStart(0) {
		return p.declStmt()
	}

	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: x}, nil
}

// scopedStmt parses a control-flow body; a non-block body still gets a
// scope of its own so a declaration in it cannot leak out.
func (p *parser) scopedStmt() (ast.Stmt, error) {
	if p.tok() == token.LBRACE {
		return p.block()
	}
	b := &ast.Block{Scope: p.pushScope()}
	defer p.popScope()
	s, err := p.stmt()
	if err != nil {
		return nil, err
	}
	b.Stmts = []ast.Stmt{s}
	return b, nil
}

func (p *parser) parenExpr() (ast.Expr, error) {
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) ifStmt() (ast.Stmt, error) {
	p.next() // consume 'if'
	cond, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.scopedStmt()
	if err != nil {
		return nil, err
	}
	var els ast.Stmt
	if p.got(token.ELSE) {
		if p.tok() == token.IF {
			els, err = p.ifStmt()
		} else {
			els, err = p.scopedStmt()
		}
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) forStmt() (ast.Stmt, error) {
	p.next() // consume 'for'
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var init, cond, step ast.Expr
	var err error
	if p.tok() != token.SEMI {
		if init, err = p.expr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	if p.tok() != token.SEMI {
		if cond, err = p.expr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	if p.tok() != token.RPAREN {
		if step, err = p.expr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.scopedStmt()
	if err != nil {
		return nil, err
	}
	return &ast.For{Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *parser) switchStmt() (ast.Stmt, error) {
	p.next() // consume 'switch'
	subject, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}

	sw := &ast.Switch{Subject: subject}
	for p.tok() != token.RBRACE {
		switch p.tok() {
		case token.CASE:
			p.next()
			v, err := p.condExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			body, err := p.caseBody()
			if err != nil {
				return nil, err
			}
			sw.Cases = append(sw.Cases, ast.SwitchCase{Value: v, Body: body})

		case token.DEFAULT:
			p.next()
			if err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			body, err := p.caseBody()
			if err != nil {
				return nil, err
			}
			sw.Default = body

		default:
			return nil, cerr.Syntax("expected \"case\" or \"default\" in switch body, found %#v", p.tok())
		}
	}
	p.next() // consume '}'
	return sw, nil
}

// caseBody parses the statements of one case arm, up to the next arm or
// the end of the switch body.
func (p *parser) caseBody() ([]ast.Stmt, error) {
	var body []ast.Stmt
	for p.tok() != token.CASE && p.tok() != token.DEFAULT && p.tok() != token.RBRACE {
		if p.tok() == token.EOF {
			return nil, cerr.Syntax("unterminated switch body")
		}
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	return body, nil
}

// declStmt parses a full declaration statement: a typedef, a tagged-type
// definition, or a comma-separated list of initialized declarators sharing
// one base type.
func (p *parser) declStmt() (*ast.DeclStmt, error) {
	if p.got(token.TYPEDEF) {
		return p.typedefDecl()
	}

	base, tag, err := p.baseType()
	if err != nil {
		return nil, err
	}
	if p.tok() == token.SEMI {
		p.next()
		ds := &ast.DeclStmt{}
		if tag != nil {
			ds.Decls = append(ds.Decls, tag)
		}
		return ds, nil
	}

	d, err := p.declarator()
	if err != nil {
		return nil, err
	}
	t, name, err := p.foldDeclarator(base, d)
	if err != nil {
		return nil, err
	}
	return p.declStmtRest(base, tag, t, name)
}

// declStmtRest finishes a declaration statement whose first declarator has
// already been folded into (t, name): the optional initializer, any
// further comma-separated declarators, and the terminating semicolon.
func (p *parser) declStmtRest(base types.Type, tag *ast.TagDecl, t types.Type, name string) (*ast.DeclStmt, error) {
	ds := &ast.DeclStmt{}
	if tag != nil {
		ds.Decls = append(ds.Decls, tag)
	}

	for {
		if name == "" {
			return nil, cerr.Syntax("declaration without a name")
		}
		vd := &ast.VarDecl{Name: name, Type: t}
		if p.got(token.EQ) {
			init, err := p.initializer()
			if err != nil {
				return nil, err
			}
			vd.Init = init
		}
		ds.Decls = append(ds.Decls, vd)
		p.registerDecl(name, t)

		if !p.got(token.COMMA) {
			break
		}
		d, err := p.declarator()
		if err != nil {
			return nil, err
		}
		t, name, err = p.foldDeclarator(base, d)
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return ds, nil
}

// registerDecl records a freshly declared name when the parser itself
// needs it: function declarations land in the file-scope function table
// regardless of where they appear. Plain variables are bound by the type
// resolver instead, which walks declarations in source order and registers
// the flattened type, so that a use before its declaration stays
// unresolved.
func (p *parser) registerDecl(name string, t types.Type) {
	if _, ok := types.Flat(t).(*types.Func); ok {
		p.scope.DeclareFunc(name, t)
	}
}

// typedefDecl parses the remainder of "typedef type name;". The bound
// type may be an inline tagged (or anonymous) aggregate definition; the
// simplifier later splits those into a definition plus a plain alias.
func (p *parser) typedefDecl() (*ast.DeclStmt, error) {
	base, tag, err := p.baseType()
	if err != nil {
		return nil, err
	}
	d, err := p.declarator()
	if err != nil {
		return nil, err
	}
	t, name, err := p.foldDeclarator(base, d)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, cerr.Syntax("typedef without a name")
	}
	if err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	p.scope.DeclareTypedef(name, t)

	ds := &ast.DeclStmt{}
	td := &ast.TypedefDecl{Name: name, Type: t}
	if tag != nil {
		// keep the inline definition attached to the typedef: the
		// simplifier owns the splitting rule, including synthetic tags
		// for anonymous aggregates.
		ds.Decls = append(ds.Decls, &ast.TypedefInline{Typedef: td, Tag: tag})
	} else {
		ds.Decls = append(ds.Decls, td)
	}
	return ds, nil
}

// initializer parses a single-expression or brace-enclosed compound
// initializer.
func (p *parser) initializer() (ast.Initializer, error) {
	if p.got(token.LBRACE) {
		ci := &ast.CompoundInit{}
		for p.tok() != token.RBRACE {
			elem, err := p.initializer()
			if err != nil {
				return nil, err
			}
			ci.Elems = append(ci.Elems, elem)
			if !p.got(token.COMMA) {
				break
			}
		}
		if err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
		return ci, nil
	}
	x, err := p.assignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprInit{X: x}, nil
}
