// Package parser implements the parser that transforms a token list into a
// raw abstract syntax tree. It is a recursive-descent parser with one
// function per precedence level for expressions, and a separate declarator
// walk for C's inside-out declaration grammar.
//
// The parser owns the scope tree: it opens a child scope for every block
// and registers declarations as it goes, because recognizing a cast or the
// start of a declaration requires knowing which identifiers name types in
// the current scope. The scope tree is threaded through the AST (every
// Block carries its scope handle) so the type resolver re-enters the exact
// same scopes in a later pass.
package parser

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/lexer"
	"nanocc/lang/scope"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// Parse tokenizes and parses src into a raw AST. The returned error, if
// non-nil, is a *cerr.Error.
func Parse(src []byte) (*ast.Program, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-tokenized source.
func ParseTokens(toks []lexer.TokenValue) (*ast.Program, error) {
	root := scope.NewRoot()
	p := &parser{toks: toks, scope: root}
	prog := &ast.Program{Scope: root}
	for p.tok() != token.EOF {
		item, err := p.topLevel()
		if err != nil {
			return nil, err
		}
		prog.Items = append(prog.Items, item)
	}
	return prog, nil
}

type parser struct {
	toks []lexer.TokenValue
	pos  int

	scope *scope.Scope
}

// tok returns the current token kind; at(n) looks ahead n tokens. Past the
// end of the list both report EOF, so callers never index out of range.
func (p *parser) tok() token.Token { return p.at(0) }

func (p *parser) at(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return token.EOF
	}
	return p.toks[p.pos+n].Tok
}

func (p *parser) val() token.Value { return p.valAt(0) }

func (p *parser) valAt(n int) token.Value {
	if p.pos+n >= len(p.toks) {
		return token.Value{}
	}
	return p.toks[p.pos+n].Val
}

func (p *parser) next() {
	if p.pos < len(p.toks) {
		p.pos++
	}
}

// expect consumes the current token if it is tok, or fails with a
// SyntaxError naming the expectation.
func (p *parser) expect(tok token.Token) error {
	if p.tok() != tok {
		return cerr.Syntax("expected %#v, found %#v", tok, p.tok())
	}
	p.next()
	return nil
}

// got consumes the current token and reports true if it is tok.
func (p *parser) got(tok token.Token) bool {
	if p.tok() == tok {
		p.next()
		return true
	}
	return false
}

// pushScope enters a fresh child scope; popScope leaves it. The root scope
// is never popped: popScope on the root is a programming error.
func (p *parser) pushScope() *scope.Scope {
	p.scope = p.scope.Push()
	return p.scope
}

func (p *parser) popScope() {
	if p.scope.Parent() == nil {
		panic("parser: popping the root scope")
	}
	p.scope = p.scope.Parent()
}

// isTypeStart reports whether the current token can begin a type: a type
// keyword, a struct/union/enum head, or an identifier the current scope
// acknowledges as a typedef name.
func (p *parser) isTypeStart(n int) bool {
	tok := p.at(n)
	if tok.IsTypeKeyword() {
		return true
	}
	return tok == token.IDENT && p.scope.IsTypeName(p.valAt(n).Raw)
}

// topLevel parses one file-level item: a function definition, a function
// prototype, or a declaration statement.
func (p *parser) topLevel() (ast.TopLevel, error) {
	if p.tok() == token.TYPEDEF {
		ds, err := p.declStmt()
		if err != nil {
			return nil, err
		}
		return ds, nil
	}
	if !p.isTypeStart(0) {
		return nil, cerr.Syntax("expected a declaration at file scope, found %#v", p.tok())
	}

	base, tag, err := p.baseType()
	if err != nil {
		return nil, err
	}
	if p.tok() == token.SEMI {
		// tagged-type definition alone: "struct P { ... };"
		p.next()
		ds := &ast.DeclStmt{}
		if tag != nil {
			ds.Decls = append(ds.Decls, tag)
		}
		return ds, nil
	}

	decl, err := p.declarator()
	if err != nil {
		return nil, err
	}
	t, name, err := p.foldDeclarator(base, decl)
	if err != nil {
		return nil, err
	}

	if ft, ok := t.(*types.Func); ok && p.tok() == token.LBRACE {
		return p.funcDef(name, ft, decl, tag)
	}

	// not a definition: fall back to a declaration statement sharing base.
	ds, err := p.declStmtRest(base, tag, t, name)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// funcDef parses the body of a function definition whose signature has
// already been consumed. Functions are file-scope symbols no matter where
// the declaration appears.
func (p *parser) funcDef(name string, ft *types.Func, decl *ast.Declarator, tag *ast.TagDecl) (ast.TopLevel, error) {
	if name == "" {
		return nil, cerr.Syntax("function definition without a name")
	}
	_ = tag // a tagged definition in a function head is registered already

	p.scope.DeclareFunc(name, ft)

	params := funcParams(decl)
	names := make([]string, len(params))

	// parameters live in a scope of their own, with the body block nested
	// inside it; the type resolver binds the names when it re-enters.
	p.pushScope()
	for i, prm := range params {
		names[i] = prm.Name
	}
	body, err := p.block()
	p.popScope()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Name: name, Type: ft, Params: names, Body: body}, nil
}

// funcParams digs the parameter list out of the outermost function suffix
// of a declarator, so definitions get their parameter names back.
func funcParams(d *ast.Declarator) []ast.Param {
	dd := d.Direct
	for {
		switch t := dd.(type) {
		case *ast.FuncDecl:
			return t.Params
		case *ast.ArrayDecl:
			dd = t.Base
		case *ast.ParenDecl:
			dd = t.Inner.Direct
		default:
			return nil
		}
	}
}
