package filter

import "fmt"

// Kind classifies a lexer token.
type Kind int

const (
	// KindEOF marks end of input.
	KindEOF Kind = iota
	// KindIdent is an identifier or keyword word.
	KindIdent
	// KindString is a double-quoted string literal, unescaped.
	KindString
	// KindRegex is a /slash-delimited/ regex literal, unescaped.
	KindRegex
	// KindRaw is a {brace-delimited} raw expression body.
	KindRaw
	// KindOp is a comparison operator: =, != or ~.
	KindOp
	// KindLParen and KindRParen are grouping punctuation.
	KindLParen
	KindRParen
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "end of input"
	case KindIdent:
		return "identifier"
	case KindString:
		return "string"
	case KindRegex:
		return "regex"
	case KindRaw:
		return "raw expression"
	case KindOp:
		return "operator"
	case KindLParen:
		return "'('"
	case KindRParen:
		return "')'"
	}
	return "unknown token"
}

// Token is one lexed unit of filter source. Text holds the literal content
// with quoting and escapes already removed.
type Token struct {
	Kind Kind
	Text string
	Pos  int // byte offset in the source
}

// LexError reports a character that cannot start or continue any token,
// with its position in the source text.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d: %s", e.Pos, e.Msg)
}
