package filter

import (
	"fmt"
)

// ParseError reports malformed filter source: what the parser expected
// and what it found, with the source position of the offending token.
type ParseError struct {
	Pos      int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// Parse parses filter source text into a filter tree. On error the tree
// is nil; a partially built tree is never returned. Parse checks grammar
// only; see Validate for field-name and regex checking.
func Parse(text string) (*Filter, error) {
	p := &parser{lex: NewLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != KindEOF {
		return nil, p.errExpected("end of input")
	}
	return f, nil
}

// parser is a recursive-descent parser with one token of lookahead.
// Precedence, low to high: or < xor < and < not < comparison < atoms.
type parser struct {
	lex *Lexer
	tok Token
}

func (p *parser) advance() error {
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errExpected(what string) error {
	found := p.tok.Kind.String()
	if p.tok.Kind == KindIdent || p.tok.Kind == KindOp {
		found = fmt.Sprintf("%q", p.tok.Text)
	}
	return &ParseError{Pos: p.tok.Pos, Expected: what, Found: found}
}

// word reports whether the current token is the given keyword.
func (p *parser) word(kw string) bool {
	return p.tok.Kind == KindIdent && p.tok.Text == kw
}

func (p *parser) parseOr() (*Filter, error) {
	f, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.word("or") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		g, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		f = Or(f, g)
	}
	return f, nil
}

func (p *parser) parseXor() (*Filter, error) {
	f, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.word("xor") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		g, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		f = Xor(f, g)
	}
	return f, nil
}

func (p *parser) parseAnd() (*Filter, error) {
	f, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.word("and") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		g, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		f = And(f, g)
	}
	return f, nil
}

func (p *parser) parseUnary() (*Filter, error) {
	if p.word("not") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		f, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not(f), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Filter, error) {
	switch p.tok.Kind {
	case KindLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		f, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.Kind != KindRParen {
			return nil, p.errExpected("')'")
		}
		return f, p.advance()

	case KindRaw:
		f := Raw(p.tok.Text)
		f.pos = p.tok.Pos
		return f, p.advance()

	case KindIdent:
		switch p.tok.Text {
		case "yes":
			return Yes(), p.advance()
		case "no":
			return No(), p.advance()
		case "filter":
			return p.parseLookup()
		}
		return p.parseComparison()
	}
	return nil, p.errExpected("a filter expression")
}

// parseLookup parses filter(name).
func (p *parser) parseLookup() (*Filter, error) {
	pos := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != KindLParen {
		return nil, p.errExpected("'(' after filter")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != KindIdent {
		return nil, p.errExpected("a filter name")
	}
	f := Lookup(p.tok.Text)
	f.pos = pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != KindRParen {
		return nil, p.errExpected("')'")
	}
	return f, p.advance()
}

// parseComparison parses field = value, field != value, or field ~ /re/.
// A bare identifier on the right-hand side is taken as a literal word, so
// personal = true and class = lunch both work unquoted.
func (p *parser) parseComparison() (*Filter, error) {
	fieldTok := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != KindOp {
		return nil, p.errExpected("'=', '!=' or '~'")
	}
	op := p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}

	if op == "~" {
		if p.tok.Kind != KindRegex {
			return nil, p.errExpected("a /regex/ literal")
		}
		f := Match(fieldTok.Text, p.tok.Text)
		f.pos = fieldTok.Pos
		return f, p.advance()
	}

	if p.tok.Kind != KindString && p.tok.Kind != KindIdent {
		return nil, p.errExpected("a string or word value")
	}
	f := Compare(fieldTok.Text, op, p.tok.Text)
	f.pos = fieldTok.Pos
	return f, p.advance()
}
