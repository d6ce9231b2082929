// Package token defines the lexical tokens of the C subset recognized by
// this compiler.
package token

// A Token represents a lexical token kind.
type Token int8

//nolint:revive
const (
	ILLEGAL Token = iota
	EOF

	// Tokens with values
	IDENT  // x
	INT    // 123
	FLOAT  // 1.23
	CHAR   // 'c'
	STRING // "foo"

	// Punctuation. The lexer's symbol table (see lexer.go) tries these in
	// decreasing length order so that e.g. "<<=" wins over "<<" and "<".
	PLUS       // +
	MINUS      // -
	STAR       // *
	SLASH      // /
	PERCENT    // %
	AMP        // &
	PIPE       // |
	CARET      // ^
	TILDE      // ~
	BANG       // !
	LT         // <
	GT         // >
	LE         // <=
	GE         // >=
	EQEQ       // ==
	NEQ        // !=
	EQ         // =
	ANDAND     // &&
	OROR       // ||
	LTLT       // <<
	GTGT       // >>
	PLUSPLUS   // ++
	MINUSMINUS // --
	ARROW      // ->
	DOT        // .
	COMMA      // ,
	SEMI       // ;
	COLON      // :
	QUESTION   // ?
	ELLIPSIS   // ...
	LPAREN     // (
	RPAREN     // )
	LBRACE     // {
	RBRACE     // }
	LBRACK     // [
	RBRACK     // ]

	PLUS_EQ    // +=
	MINUS_EQ   // -=
	STAR_EQ    // *=
	SLASH_EQ   // /=
	PERCENT_EQ // %=
	AMP_EQ     // &=
	PIPE_EQ    // |=
	CARET_EQ   // ^=
	LTLT_EQ    // <<=
	GTGT_EQ    // >>=

	// Keywords
	INT_KW
	CHAR_KW
	DOUBLE_KW
	VOID_KW
	RETURN
	IF
	ELSE
	WHILE
	DO
	FOR
	BREAK
	CONTINUE
	SWITCH
	CASE
	DEFAULT
	GOTO
	STRUCT
	UNION
	ENUM
	TYPEDEF
	SIZEOF

	maxToken
)

func (t Token) String() string {
	if int(t) < 0 || int(t) >= len(tokenNames) || tokenNames[t] == "" {
		return "unknown token"
	}
	return tokenNames[t]
}

// GoString quotes punctuation and keyword tokens, for use in error messages
// with fmt's %#v-style formatting.
func (t Token) GoString() string {
	if t >= PLUS && t < maxToken {
		return "'" + tokenNames[t] + "'"
	}
	return tokenNames[t]
}

var tokenNames = [...]string{
	ILLEGAL: "illegal token",
	EOF:     "end of file",
	IDENT:   "identifier",
	INT:     "int literal",
	FLOAT:   "float literal",
	CHAR:    "char literal",
	STRING:  "string literal",

	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	AMP: "&", PIPE: "|", CARET: "^", TILDE: "~", BANG: "!",
	LT: "<", GT: ">", LE: "<=", GE: ">=", EQEQ: "==", NEQ: "!=", EQ: "=",
	ANDAND: "&&", OROR: "||", LTLT: "<<", GTGT: ">>",
	PLUSPLUS: "++", MINUSMINUS: "--", ARROW: "->",
	DOT: ".", COMMA: ",", SEMI: ";", COLON: ":", QUESTION: "?",
	ELLIPSIS: "...",
	LPAREN:   "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACK: "[", RBRACK: "]",

	PLUS_EQ: "+=", MINUS_EQ: "-=", STAR_EQ: "*=", SLASH_EQ: "/=",
	PERCENT_EQ: "%=", AMP_EQ: "&=", PIPE_EQ: "|=", CARET_EQ: "^=",
	LTLT_EQ: "<<=", GTGT_EQ: ">>=",

	INT_KW: "int", CHAR_KW: "char", DOUBLE_KW: "double", VOID_KW: "void",
	RETURN: "return", IF: "if", ELSE: "else", WHILE: "while", DO: "do",
	FOR: "for", BREAK: "break", CONTINUE: "continue", SWITCH: "switch",
	CASE: "case", DEFAULT: "default", GOTO: "goto",
	STRUCT: "struct", UNION: "union", ENUM: "enum", TYPEDEF: "typedef",
	SIZEOF: "sizeof",
}

// keywords maps the textual keyword to its Token kind.
var keywords = map[string]Token{
	"int": INT_KW, "char": CHAR_KW, "double": DOUBLE_KW, "void": VOID_KW,
	"return": RETURN, "if": IF, "else": ELSE, "while": WHILE, "do": DO,
	"for": FOR, "break": BREAK, "continue": CONTINUE, "switch": SWITCH,
	"case": CASE, "default": DEFAULT, "goto": GOTO,
	"struct": STRUCT, "union": UNION, "enum": ENUM, "typedef": TYPEDEF,
	"sizeof": SIZEOF,
}

// Lookup returns the keyword Token for lit, or IDENT if lit is not a
// reserved keyword.
func Lookup(lit string) Token {
	if tok, ok := keywords[lit]; ok {
		return tok
	}
	return IDENT
}

// IsTypeKeyword reports whether t begins a declaration all by itself,
// without needing a name lookup against the scope (struct/union/enum still
// need a following tag, handled by the parser).
func (t Token) IsTypeKeyword() bool {
	switch t {
	case INT_KW, CHAR_KW, DOUBLE_KW, VOID_KW, STRUCT, UNION, ENUM:
		return true
	default:
		return false
	}
}

// IsAssignOp reports whether t is '=' or one of the 10 compound-assignment
// operators.
func (t Token) IsAssignOp() bool {
	switch t {
	case EQ, PLUS_EQ, MINUS_EQ, STAR_EQ, SLASH_EQ, PERCENT_EQ,
		AMP_EQ, PIPE_EQ, CARET_EQ, LTLT_EQ, GTGT_EQ:
		return true
	default:
		return false
	}
}

// BinOpForAssign returns the binary operator token that a compound
// assignment operator desugars to, e.g. PLUS_EQ -> PLUS. It panics if t is
// not a compound-assignment operator (EQ has no underlying binary op).
func (t Token) BinOpForAssign() Token {
	switch t {
	case PLUS_EQ:
		return PLUS
	case MINUS_EQ:
		return MINUS
	case STAR_EQ:
		return STAR
	case SLASH_EQ:
		return SLASH
	case PERCENT_EQ:
		return PERCENT
	case AMP_EQ:
		return AMP
	case PIPE_EQ:
		return PIPE
	case CARET_EQ:
		return CARET
	case LTLT_EQ:
		return LTLT
	case GTGT_EQ:
		return GTGT
	default:
		panic("token: BinOpForAssign called on non-compound-assign token")
	}
}
