// Package filter implements the message filter language: lexing, parsing,
// three-valued evaluation, named filter registry lookup, and the per-view
// filter stack.
//
// A filter is an immutable expression tree over message fields. The tree
// is a single tagged variant evaluated by one switch rather than a class
// per node.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr/vm"

	"github.com/1ts-org/snipe/internal/message"
)

type kind uint8

const (
	kindYes kind = iota
	kindNo
	kindNot
	kindAnd
	kindOr
	kindXor
	kindCompare
	kindMatch
	kindLookup
	kindRaw
)

// Filter is one node of a parsed filter expression. Filters are immutable
// once built; evaluation never mutates them, so a single tree may be
// shared between views and the registry.
type Filter struct {
	kind kind
	pos  int // source position, for validation diagnostics
	kids []*Filter

	// compare / match
	field   string
	op      string // "=" or "!="
	value   string
	boolVal bool
	boolErr error // value did not parse as a boolean for a boolean field
	re      *regexp.Regexp
	pattern string
	reErr   error
	// lookup
	name string
	// raw
	src     string
	prog    *vm.Program
	progErr error
}

// Yes matches every message.
func Yes() *Filter { return &Filter{kind: kindYes} }

// No matches no message.
func No() *Filter { return &Filter{kind: kindNo} }

// Not negates f.
func Not(f *Filter) *Filter { return &Filter{kind: kindNot, kids: []*Filter{f}} }

// And is the conjunction of fs. And() is Yes.
func And(fs ...*Filter) *Filter {
	switch len(fs) {
	case 0:
		return Yes()
	case 1:
		return fs[0]
	}
	return &Filter{kind: kindAnd, kids: fs}
}

// Or is the disjunction of fs. Or() is No.
func Or(fs ...*Filter) *Filter {
	switch len(fs) {
	case 0:
		return No()
	case 1:
		return fs[0]
	}
	return &Filter{kind: kindOr, kids: fs}
}

// Xor is exclusive or of exactly two filters.
func Xor(a, b *Filter) *Filter {
	return &Filter{kind: kindXor, kids: []*Filter{a, b}}
}

// Compare builds an equality comparison on a message field. For the
// boolean-typed fields the value must be the word true or false; the
// mismatch is recorded and surfaced by Validate.
func Compare(field, op, value string) *Filter {
	f := &Filter{kind: kindCompare, field: field, op: op, value: value}
	if message.BoolField(field) {
		switch value {
		case "true":
			f.boolVal = true
		case "false":
			f.boolVal = false
		default:
			f.boolErr = fmt.Errorf("field %s is boolean, cannot compare with %q", field, value)
		}
	}
	return f
}

// Match builds a regex comparison on a message field. The pattern is
// compiled here, once; a compile failure is recorded on the node and
// surfaced by Validate, and the node evaluates to Unknown.
func Match(field, pattern string) *Filter {
	f := &Filter{kind: kindMatch, field: field, pattern: pattern}
	f.re, f.reErr = regexp.Compile(pattern)
	return f
}

// Lookup refers to a named filter resolved against the registry at
// evaluation time. The name is deliberately not checked at parse time;
// registry contents change after parsing.
func Lookup(name string) *Filter { return &Filter{kind: kindLookup, name: name} }

// Raw builds an escape-hatch predicate from an expression evaluated with
// the message fields bound as variables. The expression is compiled here;
// compile failures are surfaced by Validate and evaluate to Unknown.
func Raw(src string) *Filter {
	f := &Filter{kind: kindRaw, src: src}
	f.prog, f.progErr = compileRaw(src)
	return f
}

// Equal reports structural equality of two filter trees.
func (f *Filter) Equal(g *Filter) bool {
	if f == nil || g == nil {
		return f == g
	}
	if f.kind != g.kind || len(f.kids) != len(g.kids) {
		return false
	}
	if f.field != g.field || f.op != g.op || f.value != g.value ||
		f.pattern != g.pattern || f.name != g.name || f.src != g.src {
		return false
	}
	for i := range f.kids {
		if !f.kids[i].Equal(g.kids[i]) {
			return false
		}
	}
	return true
}

// String renders the filter back to parseable source. The output
// round-trips: parsing it yields an Equal tree.
func (f *Filter) String() string {
	switch f.kind {
	case kindYes:
		return "yes"
	case kindNo:
		return "no"
	case kindNot:
		return "not " + f.kids[0].parenthesized()
	case kindAnd:
		return f.joinKids(" and ")
	case kindOr:
		return f.joinKids(" or ")
	case kindXor:
		return f.joinKids(" xor ")
	case kindCompare:
		if message.BoolField(f.field) && f.boolErr == nil {
			return fmt.Sprintf("%s %s %v", f.field, f.op, f.boolVal)
		}
		return fmt.Sprintf("%s %s %s", f.field, f.op, quoteString(f.value))
	case kindMatch:
		return fmt.Sprintf("%s ~ /%s/", f.field, strings.ReplaceAll(f.pattern, "/", `\/`))
	case kindLookup:
		return fmt.Sprintf("filter(%s)", f.name)
	case kindRaw:
		return "{ " + f.src + " }"
	}
	return "<invalid>"
}

// parenthesized wraps conjunctions so that rendering preserves the parsed
// structure under re-parsing.
func (f *Filter) parenthesized() string {
	switch f.kind {
	case kindAnd, kindOr, kindXor:
		return "(" + f.String() + ")"
	}
	return f.String()
}

func (f *Filter) joinKids(sep string) string {
	parts := make([]string, len(f.kids))
	for i, k := range f.kids {
		parts[i] = k.parenthesized()
	}
	return strings.Join(parts, sep)
}

func quoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
