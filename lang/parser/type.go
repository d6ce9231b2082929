package parser

import (
	"nanocc/lang/ast"
	"nanocc/lang/cerr"
	"nanocc/lang/token"
	"nanocc/lang/types"
)

// baseType consumes the base type that starts a declaration: a type
// keyword, a struct/union/enum head (with or without a member body), or a
// typedef name. When a tagged definition body was consumed, the returned
// TagDecl carries it so the caller can emit the definition as its own
// declaration.
func (p *parser) baseType() (types.Type, *ast.TagDecl, error) {
	switch p.tok() {
	case token.INT_KW:
		p.next()
		return types.TheInt, nil, nil
	case token.CHAR_KW:
		p.next()
		return types.TheChar, nil, nil
	case token.DOUBLE_KW:
		p.next()
		return types.TheDouble, nil, nil
	case token.VOID_KW:
		p.next()
		return types.TheVoid, nil, nil
	case token.STRUCT:
		p.next()
		return p.structOrUnion(true)
	case token.UNION:
		p.next()
		return p.structOrUnion(false)
	case token.ENUM:
		p.next()
		return p.enumType()
	case token.IDENT:
		name := p.val().Raw
		if target, ok := p.scope.ResolveTypedef(name); ok {
			p.next()
			return &types.Typedef{Name: name, Target: target}, nil, nil
		}
	}
	return nil, nil, cerr.Syntax("expected a type, found %#v", p.tok())
}

// structOrUnion parses "struct T", "struct T { members }" or
// "struct { members }" (and the union equivalents). A definition registers
// its tag into the current scope's type namespace before the members are
// parsed, so self-referential members resolve.
func (p *parser) structOrUnion(isStruct bool) (types.Type, *ast.TagDecl, error) {
	var tag string
	if p.tok() == token.IDENT {
		tag = p.val().Raw
		p.next()
	}

	if p.tok() != token.LBRACE {
		if tag == "" {
			return nil, nil, cerr.Syntax("expected a tag or member list after %q", keywordFor(isStruct))
		}
		if t, ok := p.scope.ResolveTag(tag); ok {
			return t, nil, nil
		}
		// forward reference: register an empty definition under the tag.
		t := newAggregate(isStruct, tag)
		p.scope.DeclareTag(tag, t)
		return t, nil, nil
	}

	t := newAggregate(isStruct, tag)
	if tag != "" {
		p.scope.DeclareTag(tag, t)
	}

	p.next() // consume '{'
	var fields []types.Field
	for p.tok() != token.RBRACE {
		fbase, _, err := p.baseType()
		if err != nil {
			return nil, nil, err
		}
		for {
			d, err := p.declarator()
			if err != nil {
				return nil, nil, err
			}
			ft, fname, err := p.foldDeclarator(fbase, d)
			if err != nil {
				return nil, nil, err
			}
			if fname == "" {
				return nil, nil, cerr.Syntax("member declaration without a name")
			}
			fields = append(fields, types.Field{Name: fname, Type: ft})
			if !p.got(token.COMMA) {
				break
			}
		}
		if err := p.expect(token.SEMI); err != nil {
			return nil, nil, err
		}
	}
	p.next() // consume '}'

	setFields(t, fields)
	return t, &ast.TagDecl{Type: t}, nil
}

func keywordFor(isStruct bool) string {
	if isStruct {
		return "struct"
	}
	return "union"
}

func newAggregate(isStruct bool, tag string) types.Type {
	if isStruct {
		return &types.Struct{Def: &types.StructDef{Tag: tag}}
	}
	return &types.Union{Def: &types.UnionDef{Tag: tag}}
}

func setFields(t types.Type, fields []types.Field) {
	switch tt := t.(type) {
	case *types.Struct:
		tt.Def.Fields = fields
	case *types.Union:
		tt.Def.Fields = fields
	}
}

// enumType parses "enum T", "enum T { A, B = expr }" or the anonymous
// form. Member constants are recorded on the TagDecl; the type resolver
// assigns their values and registers them in scope.
func (p *parser) enumType() (types.Type, *ast.TagDecl, error) {
	var tag string
	if p.tok() == token.IDENT {
		tag = p.val().Raw
		p.next()
	}

	if p.tok() != token.LBRACE {
		if tag == "" {
			return nil, nil, cerr.Syntax("expected a tag or enumerator list after \"enum\"")
		}
		if t, ok := p.scope.ResolveTag(tag); ok {
			return t, nil, nil
		}
		t := &types.Enum{Def: &types.EnumDef{Tag: tag}}
		p.scope.DeclareTag(tag, t)
		return t, nil, nil
	}

	t := &types.Enum{Def: &types.EnumDef{Tag: tag}}
	if tag != "" {
		p.scope.DeclareTag(tag, t)
	}

	p.next() // consume '{'
	var consts []ast.EnumConst
	for p.tok() != token.RBRACE {
		if p.tok() != token.IDENT {
			return nil, nil, cerr.Syntax("expected an enumerator name, found %#v", p.tok())
		}
		ec := ast.EnumConst{Name: p.val().Raw}
		p.next()
		if p.got(token.EQ) {
			v, err := p.assignExpr()
			if err != nil {
				return nil, nil, err
			}
			ec.Value = v
		}
		consts = append(consts, ec)
		t.Def.Members = append(t.Def.Members, ec.Name)
		if !p.got(token.COMMA) {
			break
		}
	}
	if err := p.expect(token.RBRACE); err != nil {
		return nil, nil, err
	}
	return t, &ast.TagDecl{Type: t, Consts: consts}, nil
}

// declarator parses the pointer level and the direct declarator that
// follows it.
func (p *parser) declarator() (*ast.Declarator, error) {
	level := 0
	for p.got(token.STAR) {
		level++
	}
	d, err := p.directDeclarator()
	if err != nil {
		return nil, err
	}
	return &ast.Declarator{PointerLevel: level, Direct: d}, nil
}

// directDeclarator parses the centre of a declarator (a parenthesized
// sub-declarator, an identifier, or nothing for the abstract form), then
// greedily applies the "[size]" and "(params)" suffix groups left to
// right.
func (p *parser) directDeclarator() (ast.DirectDeclarator, error) {
	var d ast.DirectDeclarator

	switch {
	case p.tok() == token.LPAREN && p.isGroupingParen():
		p.next()
		inner, err := p.declarator()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		d = &ast.ParenDecl{Inner: inner}
	case p.tok() == token.IDENT && !p.scope.IsTypeName(p.val().Raw):
		d = &ast.IdentDecl{Name: p.val().Raw}
		p.next()
	}

	for {
		switch p.tok() {
		case token.LBRACK:
			p.next()
			var size ast.Expr
			if p.tok() != token.RBRACK {
				var err error
				size, err = p.assignExpr()
				if err != nil {
					return nil, err
				}
			}
			if err := p.expect(token.RBRACK); err != nil {
				return nil, err
			}
			d = &ast.ArrayDecl{Base: d, Size: size}
		case token.LPAREN:
			params, variadic, err := p.paramList()
			if err != nil {
				return nil, err
			}
			d = &ast.FuncDecl{Base: d, Params: params, Variadic: variadic}
		default:
			return d, nil
		}
	}
}

// isGroupingParen distinguishes a parenthesized sub-declarator, like the
// "(*f)" of "int (*f)(int)", from a parameter list. A '(' opens a grouping
// exactly when its interior starts a declarator rather than a type (or an
// empty list).
func (p *parser) isGroupingParen() bool {
	switch p.at(1) {
	case token.STAR, token.LPAREN:
		return true
	case token.IDENT:
		return !p.scope.IsTypeName(p.valAt(1).Raw)
	default:
		return false
	}
}

// paramList parses "(params)". A single "void" means no parameters is kept
// as-is (the checker treats it as zero-args); a trailing "..." records an
// ellipsis parameter. Array and function types are not decayed here.
func (p *parser) paramList() ([]ast.Param, bool, error) {
	if err := p.expect(token.LPAREN); err != nil {
		return nil, false, err
	}
	if p.got(token.RPAREN) {
		return nil, false, nil
	}

	var params []ast.Param
	variadic := false
	for {
		if p.tok() == token.ELLIPSIS {
			p.next()
			params = append(params, ast.Param{Type: types.TheEllipsis})
			variadic = true
			break
		}
		base, _, err := p.baseType()
		if err != nil {
			return nil, false, err
		}
		d, err := p.declarator()
		if err != nil {
			return nil, false, err
		}
		t, name, err := p.foldDeclarator(base, d)
		if err != nil {
			return nil, false, err
		}
		params = append(params, ast.Param{Name: name, Type: t})
		if !p.got(token.COMMA) {
			break
		}
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, false, err
	}
	return params, variadic, nil
}

// foldDeclarator folds the declarator's constructors inside-out around the
// base type, yielding the declared type and the single bound identifier
// (empty for abstract declarators).
func (p *parser) foldDeclarator(base types.Type, d *ast.Declarator) (types.Type, string, error) {
	t := base
	for i := 0; i < d.PointerLevel; i++ {
		t = &types.Pointer{Elem: t}
	}
	return p.foldDirect(t, d.Direct)
}

func (p *parser) foldDirect(t types.Type, d ast.DirectDeclarator) (types.Type, string, error) {
	switch dd := d.(type) {
	case nil:
		return t, "", nil
	case *ast.IdentDecl:
		return t, dd.Name, nil
	case *ast.ParenDecl:
		return p.foldDeclarator(t, dd.Inner)
	case *ast.ArrayDecl:
		arr := &types.Array{Elem: t}
		if dd.Size != nil {
			if n, ok := literalInt(dd.Size); ok {
				ln := n
				arr.Len = &ln
			} else {
				arr.LenExpr = dd.Size
			}
		}
		return p.foldDirect(arr, dd.Base)
	case *ast.FuncDecl:
		ft := &types.Func{Return: t, Variadic: dd.Variadic}
		for _, prm := range dd.Params {
			ft.Params = append(ft.Params, prm.Type)
		}
		return p.foldDirect(ft, dd.Base)
	default:
		return nil, "", cerr.Syntax("malformed declarator")
	}
}

// literalInt unwraps a plain integer or character literal size without
// going through the constant evaluator; anything more involved is deferred
// to the type resolver, which evaluates it in a typed context.
func literalInt(e ast.Expr) (int, bool) {
	switch lit := e.(type) {
	case *ast.IntLit:
		return int(lit.Value), true
	case *ast.CharLit:
		return int(lit.Value), true
	}
	return 0, false
}

// typeName parses a full type for casts and sizeof: a base type followed
// by an abstract declarator.
func (p *parser) typeName() (types.Type, error) {
	base, _, err := p.baseType()
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
	if name != "" {
		return nil, cerr.Syntax("unexpected identifier %q in type name", name)
	}
	return t, nil
}
