// Package lexer implements the tokenizer: it turns a byte stream into an
// ordered list of tokens. It tries, at each position, an integer/float
// literal, then a longest-prefix match against the symbol table, then a
// character literal, a string literal, or an identifier/keyword, in that
// order, failing with a LexicalError on anything else.
package lexer

import (
	"nanocc/lang/cerr"
	"nanocc/lang/token"
)

// TokenValue pairs a token kind with its decoded value.
type TokenValue struct {
	Tok token.Token
	Val token.Value
}

// symbol is one entry of the fixed symbol table, tried longest-first so that
// e.g. "<<=" beats "<<" which beats "<".
type symbol struct {
	lit string
	tok token.Token
}

// symbols is sorted by decreasing literal length: within a length class the
// order does not matter since no two distinct symbols of the same length
// can both match at one position.
var symbols = []symbol{
	{"...", token.ELLIPSIS},
	{"<<=", token.LTLT_EQ},
	{">>=", token.GTGT_EQ},

	{"->", token.ARROW},
	{"++", token.PLUSPLUS},
	{"--", token.MINUSMINUS},
	{"&&", token.ANDAND},
	{"||", token.OROR},
	{"==", token.EQEQ},
	{"!=", token.NEQ},
	{"<=", token.LE},
	{">=", token.GE},
	{"<<", token.LTLT},
	{">>", token.GTGT},
	{"+=", token.PLUS_EQ},
	{"-=", token.MINUS_EQ},
	{"*=", token.STAR_EQ},
	{"/=", token.SLASH_EQ},
	{"%=", token.PERCENT_EQ},
	{"&=", token.AMP_EQ},
	{"|=", token.PIPE_EQ},
	{"^=", token.CARET_EQ},

	{"+", token.PLUS},
	{"-", token.MINUS},
	{"*", token.STAR},
	{"/", token.SLASH},
	{"%", token.PERCENT},
	{"&", token.AMP},
	{"|", token.PIPE},
	{"^", token.CARET},
	{"~", token.TILDE},
	{"!", token.BANG},
	{"<", token.LT},
	{">", token.GT},
	{"=", token.EQ},
	{".", token.DOT},
	{",", token.COMMA},
	{";", token.SEMI},
	{":", token.COLON},
	{"?", token.QUESTION},
	{"(", token.LPAREN},
	{")", token.RPAREN},
	{"{", token.LBRACE},
	{"}", token.RBRACE},
	{"[", token.LBRACK},
	{"]", token.RBRACK},
}

var simpleEscapes = map[byte]byte{
	'n': '\n', 't': '\t', 'r': '\r', '0': 0, '\\': '\\', '\'': '\'', '"': '"',
}

// Lex tokenizes src in its entirety, returning the ordered token list ending
// in an EOF token, or the first LexicalError encountered.
func Lex(src []byte) ([]TokenValue, error) {
	l := &lexer{src: src}
	var out []TokenValue
	for {
		tv, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tv)
		if tv.Tok == token.EOF {
			return out, nil
		}
	}
}

type lexer struct {
	src []byte
	pos int
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) cur() byte { return l.peekAt(0) }

func (l *lexer) atEOF() bool { return l.pos >= len(l.src) }

func (l *lexer) skipWhitespace() {
	for !l.atEOF() && isWhitespace(l.cur()) {
		l.pos++
	}
}

func (l *lexer) next() (TokenValue, error) {
	l.skipWhitespace()
	if l.atEOF() {
		return TokenValue{Tok: token.EOF}, nil
	}

	c := l.cur()
	switch {
	case isDigit(c) || (c == '.' && isDigit(l.peekAt(1))):
		return l.number()
	case c == '\'':
		return l.charLiteral()
	case c == '"':
		return l.stringLiteral()
	case isLetter(c):
		return l.identOrKeyword(), nil
	}

	if sym, ok := l.matchSymbol(); ok {
		l.pos += len(sym.lit)
		return TokenValue{Tok: sym.tok, Val: token.Value{Raw: sym.lit}}, nil
	}

	return TokenValue{}, cerr.Lexical("unrecognized character %q", c)
}

// matchSymbol tries every entry of the symbol table, longest literal first
// (the table is declared in that order), and returns the first match at the
// current position.
func (l *lexer) matchSymbol() (symbol, bool) {
	for _, sym := range symbols {
		if l.hasPrefix(sym.lit) {
			return sym, true
		}
	}
	return symbol{}, false
}

func (l *lexer) hasPrefix(lit string) bool {
	if l.pos+len(lit) > len(l.src) {
		return false
	}
	for i := 0; i < len(lit); i++ {
		if l.src[l.pos+i] != lit[i] {
			return false
		}
	}
	return true
}

func (l *lexer) number() (TokenValue, error) {
	start := l.pos
	isFloat := false
	for !l.atEOF() && isDigit(l.cur()) {
		l.pos++
	}
	if !l.atEOF() && l.cur() == '.' {
		isFloat = true
		l.pos++
		for !l.atEOF() && isDigit(l.cur()) {
			l.pos++
		}
	}
	lit := string(l.src[start:l.pos])
	if isFloat {
		f, err := parseFloat(lit)
		if err != nil {
			return TokenValue{}, cerr.Lexical("malformed float literal %q", lit)
		}
		return TokenValue{Tok: token.FLOAT, Val: token.Value{Raw: lit, Float: f}}, nil
	}
	n, err := parseInt(lit)
	if err != nil {
		return TokenValue{}, cerr.Lexical("malformed integer literal %q", lit)
	}
	return TokenValue{Tok: token.INT, Val: token.Value{Raw: lit, Int: n}}, nil
}

func (l *lexer) charLiteral() (TokenValue, error) {
	start := l.pos
	l.pos++ // consume opening '
	if l.atEOF() {
		return TokenValue{}, cerr.Lexical("unterminated character literal")
	}

	var value byte
	if l.cur() == '\\' {
		l.pos++
		if l.atEOF() {
			return TokenValue{}, cerr.Lexical("unterminated character literal")
		}
		value = l.decodeEscape()
	} else {
		value = l.cur()
		l.pos++
	}

	if l.atEOF() || l.cur() != '\'' {
		return TokenValue{}, cerr.Lexical("character literal must contain exactly one character")
	}
	l.pos++ // consume closing '

	lit := string(l.src[start:l.pos])
	return TokenValue{Tok: token.CHAR, Val: token.Value{Raw: lit, Int: int64(value)}}, nil
}

func (l *lexer) stringLiteral() (TokenValue, error) {
	start := l.pos
	l.pos++ // consume opening "
	var decoded []byte
	for {
		if l.atEOF() {
			return TokenValue{}, cerr.Lexical("unterminated string literal")
		}
		c := l.cur()
		if c == '"' {
			l.pos++
			break
		}
		if c == '\\' {
			l.pos++
			if l.atEOF() {
				return TokenValue{}, cerr.Lexical("unterminated string literal")
			}
			decoded = append(decoded, l.decodeEscape())
			continue
		}
		decoded = append(decoded, c)
		l.pos++
	}
	lit := string(l.src[start:l.pos])
	return TokenValue{Tok: token.STRING, Val: token.Value{Raw: lit, Str: string(decoded)}}, nil
}

// decodeEscape decodes the character following a backslash already
// consumed by the caller, advancing past it. Any escape not in the known
// set (\n \t \r \0 \\ \' \") is left literally, i.e. the backslash is
// dropped and the following character is used as-is.
func (l *lexer) decodeEscape() byte {
	c := l.cur()
	l.pos++
	if v, ok := simpleEscapes[c]; ok {
		return v
	}
	return c
}

func (l *lexer) identOrKeyword() TokenValue {
	start := l.pos
	for !l.atEOF() && (isLetter(l.cur()) || isDigit(l.cur()) || l.cur() == '_') {
		l.pos++
	}
	lit := string(l.src[start:l.pos])
	return TokenValue{Tok: token.Lookup(lit), Val: token.Value{Raw: lit}}
}

func isWhitespace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
