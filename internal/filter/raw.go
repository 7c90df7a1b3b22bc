package filter

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/1ts-org/snipe/internal/message"
)

// compileRaw compiles a raw {...} expression with the message fields as
// the environment. Undefined variables are allowed at compile time and
// come back as nil at run time, which coerces to false; the expression
// only ever sees copies of the fields, so it cannot mutate a message.
func compileRaw(src string) (*vm.Program, error) {
	env := map[string]any{}
	for _, f := range message.KnownFields {
		if message.BoolField(f) {
			env[f] = false
		} else {
			env[f] = ""
		}
	}
	return expr.Compile(src, expr.Env(env), expr.AllowUndefinedVariables())
}
