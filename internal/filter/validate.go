package filter

import "fmt"

// ValidationError reports a filter that parsed but cannot mean anything:
// an unknown field name, a regex that does not compile, or a raw
// expression that does not compile. Distinct from ParseError so the two
// failure modes can be reported precisely.
type ValidationError struct {
	Pos int
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter at %d: %s", e.Pos, e.Msg)
}

// Validate walks the tree checking every Compare and Match field name
// against the known message fields and every compiled literal for
// compile errors. Lookup names are deliberately not checked; the
// registry's contents can change after parsing.
func Validate(f *Filter, knownField func(string) bool) error {
	switch f.kind {
	case kindCompare:
		if !knownField(f.field) {
			return &ValidationError{Pos: f.pos, Msg: fmt.Sprintf("unknown field %q", f.field)}
		}
		if f.boolErr != nil {
			return &ValidationError{Pos: f.pos, Msg: f.boolErr.Error()}
		}
	case kindMatch:
		if !knownField(f.field) {
			return &ValidationError{Pos: f.pos, Msg: fmt.Sprintf("unknown field %q", f.field)}
		}
		if f.reErr != nil {
			return &ValidationError{Pos: f.pos, Msg: fmt.Sprintf("regex /%s/ does not compile: %v", f.pattern, f.reErr)}
		}
	case kindRaw:
		if f.progErr != nil {
			return &ValidationError{Pos: f.pos, Msg: fmt.Sprintf("raw expression does not compile: %v", f.progErr)}
		}
	}
	for _, k := range f.kids {
		if err := Validate(k, knownField); err != nil {
			return err
		}
	}
	return nil
}
