package filter

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer turns filter source text into a lazy token stream. Tokens are
// produced one at a time by Next; a fresh Lexer restarts from the top of
// the same source.
type Lexer struct {
	src string
	pos int
}

// NewLexer returns a lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token, or a token of KindEOF at end of input.
// Once an error is returned the lexer is stuck at the offending position.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '(':
		l.pos++
		return Token{Kind: KindLParen, Text: "(", Pos: start}, nil
	case c == ')':
		l.pos++
		return Token{Kind: KindRParen, Text: ")", Pos: start}, nil
	case c == '=':
		l.pos++
		// == is accepted as a synonym for =
		if l.pos < len(l.src) && l.src[l.pos] == '=' {
			l.pos++
		}
		return Token{Kind: KindOp, Text: "=", Pos: start}, nil
	case c == '!':
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == '=' {
			l.pos += 2
			return Token{Kind: KindOp, Text: "!=", Pos: start}, nil
		}
		return Token{}, &LexError{Pos: start, Msg: "'!' must be followed by '='"}
	case c == '~':
		l.pos++
		return Token{Kind: KindOp, Text: "~", Pos: start}, nil
	case c == '"':
		return l.lexString()
	case c == '/':
		return l.lexRegex()
	case c == '{':
		return l.lexRaw()
	case isIdentStart(rune(c)):
		return l.lexIdent()
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return Token{}, &LexError{Pos: start, Msg: "unexpected character " + strconv.QuoteRune(r)}
}

// All drains the lexer, returning every remaining token up to and
// including EOF.
func (l *Lexer) All() ([]Token, error) {
	var toks []Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == KindEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return
		}
		l.pos++
	}
}

func (l *Lexer) lexIdent() (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(rune(l.src[l.pos])) {
		l.pos++
	}
	return Token{Kind: KindIdent, Text: l.src[start:l.pos], Pos: start}, nil
}

// lexString scans "..." with \" and \\ escapes. Newlines inside a string
// are not allowed; a filter is a single line of text.
func (l *Lexer) lexString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return Token{Kind: KindString, Text: b.String(), Pos: start}, nil
		case '\n':
			return Token{}, &LexError{Pos: l.pos, Msg: "newline in string literal"}
		case '\\':
			if l.pos+1 >= len(l.src) {
				return Token{}, &LexError{Pos: start, Msg: "unterminated string literal"}
			}
			next := l.src[l.pos+1]
			if next == '"' || next == '\\' {
				b.WriteByte(next)
				l.pos += 2
				continue
			}
			// unknown escapes pass through literally
			b.WriteByte(c)
			l.pos++
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return Token{}, &LexError{Pos: start, Msg: "unterminated string literal"}
}

// lexRegex scans /.../ where \/ stands for a literal slash. All other
// backslash sequences are left for the regexp compiler.
func (l *Lexer) lexRegex() (Token, error) {
	start := l.pos
	l.pos++ // opening slash
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '/':
			l.pos++
			return Token{Kind: KindRegex, Text: b.String(), Pos: start}, nil
		case '\\':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
				b.WriteByte('/')
				l.pos += 2
				continue
			}
			b.WriteByte(c)
			l.pos++
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return Token{}, &LexError{Pos: start, Msg: "unterminated regex literal"}
}

// lexRaw scans a {...} raw expression, tracking nested braces so the
// expression itself may use map literals. The body is passed through
// verbatim, trimmed of surrounding space.
func (l *Lexer) lexRaw() (Token, error) {
	start := l.pos
	l.pos++ // opening brace
	depth := 1
	bodyStart := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				body := strings.TrimSpace(l.src[bodyStart:l.pos])
				l.pos++
				return Token{Kind: KindRaw, Text: body, Pos: start}, nil
			}
		}
		l.pos++
	}
	return Token{}, &LexError{Pos: start, Msg: "unterminated raw expression"}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
