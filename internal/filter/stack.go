package filter

import (
	"errors"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/1ts-org/snipe/internal/message"
)

// ErrEmptyStack is returned by Pop and ReplaceTop when there is no active
// filter to operate on.
var ErrEmptyStack = errors.New("filter stack is empty")

// Style is a display decoration handed back to the view layer when a
// decoration rule matches. Rendering beyond this is not our concern.
type Style struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Bold       bool   `toml:"bold"`
}

// Lipgloss converts the rule style into a renderable lipgloss style.
func (s Style) Lipgloss() lipgloss.Style {
	st := lipgloss.NewStyle()
	if s.Foreground != "" {
		st = st.Foreground(lipgloss.Color(s.Foreground))
	}
	if s.Background != "" {
		st = st.Background(lipgloss.Color(s.Background))
	}
	if s.Bold {
		st = st.Bold(true)
	}
	return st
}

// Decoration pairs a filter with the style applied to messages it
// matches. Rules are evaluated in insertion order, first True wins.
type Decoration struct {
	Filter *Filter
	Style  Style
}

// Stack is a view's ordered set of active filters, combined by AND, plus
// its decoration rules. Each view owns its stack; the named filters the
// entries reference live in the registry and are shared freely since
// filters are immutable.
//
// Mutation and evaluation may happen concurrently; Combined returns a
// snapshot so a find scan never sees a half-changed stack.
type Stack struct {
	mu      sync.Mutex
	def     *Filter
	filters []*Filter
	rules   []Decoration
}

// NewStack returns an empty stack with no default filter.
func NewStack() *Stack { return &Stack{} }

// SetDefault sets the filter Reset installs. A nil default resets to an
// empty stack.
func (s *Stack) SetDefault(f *Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = f
}

// Reset clears the stack back to the default filter.
func (s *Stack) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = s.filters[:0]
	if s.def != nil {
		s.filters = append(s.filters, s.def)
	}
}

// Push adds a filter on top of the stack.
func (s *Stack) Push(f *Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
}

// PushText parses and validates filter source and pushes the result. On
// any error the stack is left exactly as it was.
func (s *Stack) PushText(text string) error {
	f, err := Parse(text)
	if err != nil {
		return err
	}
	if err := Validate(f, message.KnownField); err != nil {
		return err
	}
	s.Push(f)
	return nil
}

// Pop removes and returns the top filter.
func (s *Stack) Pop() (*Filter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.filters) == 0 {
		return nil, ErrEmptyStack
	}
	f := s.filters[len(s.filters)-1]
	s.filters = s.filters[:len(s.filters)-1]
	return f, nil
}

// ReplaceTop swaps the top filter for f, used by "edit current filter".
func (s *Stack) ReplaceTop(f *Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.filters) == 0 {
		return ErrEmptyStack
	}
	s.filters[len(s.filters)-1] = f
	return nil
}

// ReplaceTopText parses and validates filter source and replaces the top
// entry, atomically: an invalid filter leaves the prior state intact.
func (s *Stack) ReplaceTopText(text string) error {
	f, err := Parse(text)
	if err != nil {
		return err
	}
	if err := Validate(f, message.KnownField); err != nil {
		return err
	}
	return s.ReplaceTop(f)
}

// Top returns the current top filter without removing it.
func (s *Stack) Top() (*Filter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.filters) == 0 {
		return nil, false
	}
	return s.filters[len(s.filters)-1], true
}

// Depth returns the number of active filters.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filters)
}

// Combined returns the AND of all active filters, or Yes for an empty
// stack. The result is a snapshot: later stack mutation does not affect
// it, so a whole scan can evaluate against one consistent filter.
func (s *Stack) Combined() *Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return And(append([]*Filter(nil), s.filters...)...)
}

// Shown reports whether the combined stack shows m: only a True
// evaluation shows a message, Unknown and False both hide it.
func (s *Stack) Shown(m *message.Message, r Resolver) bool {
	return Eval(s.Combined(), m, r) == True
}

// AddDecoration appends a decoration rule.
func (s *Stack) AddDecoration(f *Filter, style Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Decoration{Filter: f, Style: style})
}

// DecorationFor returns the style of the first rule, in insertion order,
// whose filter evaluates True for m. Rules evaluating False or Unknown
// are skipped; they never hide the message.
func (s *Stack) DecorationFor(m *message.Message, r Resolver) (Style, bool) {
	s.mu.Lock()
	rules := append([]Decoration(nil), s.rules...)
	s.mu.Unlock()

	ev := NewEvaluator(r)
	for _, rule := range rules {
		if ev.Eval(rule.Filter, m) == True {
			return rule.Style, true
		}
	}
	return Style{}, false
}
