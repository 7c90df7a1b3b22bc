package filter

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"

	"github.com/1ts-org/snipe/internal/message"
)

// Certitude is the three-valued result of applying a filter to a message.
// Unknown arises from absent fields, failed raw expressions, broken
// regexes, and unresolved lookups; it is distinct from False so "doesn't
// match" and "not applicable" stay apart.
type Certitude int

const (
	False Certitude = iota
	Unknown
	True
)

func (c Certitude) String() string {
	switch c {
	case False:
		return "false"
	case True:
		return "true"
	}
	return "unknown"
}

// Cert converts a hard boolean into a Certitude.
func Cert(b bool) Certitude {
	if b {
		return True
	}
	return False
}

// Not inverts the certitude; not-Unknown is still Unknown.
func (c Certitude) Not() Certitude {
	switch c {
	case True:
		return False
	case False:
		return True
	}
	return Unknown
}

// AndWith combines conjunctively: False is absorbing, Unknown propagates.
func (c Certitude) AndWith(d Certitude) Certitude {
	if c == False || d == False {
		return False
	}
	if c == Unknown || d == Unknown {
		return Unknown
	}
	return True
}

// OrWith combines disjunctively: True is absorbing, Unknown propagates.
func (c Certitude) OrWith(d Certitude) Certitude {
	if c == True || d == True {
		return True
	}
	if c == Unknown || d == Unknown {
		return Unknown
	}
	return False
}

// XorWith is exclusive or; either operand Unknown poisons the result.
func (c Certitude) XorWith(d Certitude) Certitude {
	if c == Unknown || d == Unknown {
		return Unknown
	}
	return Cert((c == True) != (d == True))
}

// Resolver resolves named filters for FilterLookup nodes. The registry
// implements it; tests implement it with a map.
type Resolver interface {
	Resolve(name string) (*Filter, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (*Filter, bool)

func (f ResolverFunc) Resolve(name string) (*Filter, bool) { return f(name) }

// Evaluator applies filters to messages. Evaluation is a pure function of
// (filter, message, resolver snapshot); anomalies — lookup cycles, missing
// names, raw expression failures — degrade the affected node to Unknown
// and are logged, never fatal.
type Evaluator struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewEvaluator returns an evaluator resolving lookups against r, which
// may be nil if the filters contain no lookup nodes.
func NewEvaluator(r Resolver) *Evaluator {
	return &Evaluator{resolver: r, logger: slog.Default()}
}

// WithLogger sets the logger used for evaluation anomalies.
func (e *Evaluator) WithLogger(logger *slog.Logger) *Evaluator {
	e.logger = logger
	return e
}

// Eval applies f to m.
func (e *Evaluator) Eval(f *Filter, m *message.Message) Certitude {
	c, _ := e.EvalDiag(f, m)
	return c
}

// EvalDiag applies f to m and also returns the anomalies that degraded
// parts of the evaluation to Unknown, for surfacing to the user.
func (e *Evaluator) EvalDiag(f *Filter, m *message.Message) (Certitude, []error) {
	s := &evalState{ev: e, inProgress: map[string]bool{}}
	c := s.eval(f, m)
	return c, s.anomalies
}

// Eval applies f to m resolving lookups against r, logging anomalies to
// the default logger.
func Eval(f *Filter, m *message.Message, r Resolver) Certitude {
	return NewEvaluator(r).Eval(f, m)
}

// evalState carries the set of lookup names on the evaluation stack so a
// cycle is detected instead of recursing forever.
type evalState struct {
	ev         *Evaluator
	inProgress map[string]bool
	anomalies  []error
}

func (s *evalState) anomaly(err error) Certitude {
	s.anomalies = append(s.anomalies, err)
	s.ev.logger.Warn("filter evaluation anomaly", "error", err)
	return Unknown
}

func (s *evalState) eval(f *Filter, m *message.Message) Certitude {
	switch f.kind {
	case kindYes:
		return True
	case kindNo:
		return False
	case kindNot:
		return s.eval(f.kids[0], m).Not()

	case kindAnd:
		c := True
		for _, k := range f.kids {
			c = c.AndWith(s.eval(k, m))
			if c == False {
				return False
			}
		}
		return c

	case kindOr:
		c := False
		for _, k := range f.kids {
			c = c.OrWith(s.eval(k, m))
			if c == True {
				return True
			}
		}
		return c

	case kindXor:
		return s.eval(f.kids[0], m).XorWith(s.eval(f.kids[1], m))

	case kindCompare:
		return s.evalCompare(f, m)
	case kindMatch:
		return s.evalMatch(f, m)
	case kindLookup:
		return s.evalLookup(f, m)
	case kindRaw:
		return s.evalRaw(f, m)
	}
	return Unknown
}

func (s *evalState) evalCompare(f *Filter, m *message.Message) Certitude {
	v, ok := m.Field(f.field)
	if !ok {
		return Unknown
	}
	var eq bool
	switch val := v.(type) {
	case bool:
		if f.boolErr != nil {
			return s.anomaly(f.boolErr)
		}
		eq = val == f.boolVal
	case string:
		eq = val == f.value
	default:
		return Unknown
	}
	if f.op == "!=" {
		eq = !eq
	}
	return Cert(eq)
}

func (s *evalState) evalMatch(f *Filter, m *message.Message) Certitude {
	if f.re == nil {
		return s.anomaly(fmt.Errorf("regex /%s/: %w", f.pattern, f.reErr))
	}
	v, ok := m.Field(f.field)
	if !ok {
		return Unknown
	}
	return Cert(f.re.MatchString(fmt.Sprintf("%v", v)))
}

func (s *evalState) evalLookup(f *Filter, m *message.Message) Certitude {
	if s.inProgress[f.name] {
		return s.anomaly(fmt.Errorf("filter lookup cycle through %q", f.name))
	}
	if s.ev.resolver == nil {
		return s.anomaly(fmt.Errorf("no registry to resolve filter %q", f.name))
	}
	target, ok := s.ev.resolver.Resolve(f.name)
	if !ok {
		return s.anomaly(fmt.Errorf("no filter named %q", f.name))
	}
	s.inProgress[f.name] = true
	c := s.eval(target, m)
	delete(s.inProgress, f.name)
	return c
}

func (s *evalState) evalRaw(f *Filter, m *message.Message) Certitude {
	if f.prog == nil {
		return s.anomaly(fmt.Errorf("raw expression {%s}: %w", f.src, f.progErr))
	}
	out, err := expr.Run(f.prog, m.Vars())
	if err != nil {
		return s.anomaly(fmt.Errorf("raw expression {%s}: %w", f.src, err))
	}
	return Cert(truthy(out))
}

// truthy coerces a raw expression result to a boolean.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	}
	return true
}
