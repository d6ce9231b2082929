package token

// Value carries the decoded payload of a token alongside its kind. It
// carries no source position: this compiler does not track positions, so
// diagnostics surface as plain kind-tagged errors.
type Value struct {
	// Raw is the literal text as it appeared in the source, for IDENT,
	// INT, FLOAT and keywords.
	Raw string

	// Int is populated for INT and CHAR tokens.
	Int int64

	// Float is populated for FLOAT tokens.
	Float float64

	// Str is populated for STRING tokens with the decoded (escapes resolved)
	// string content.
	Str string
}
