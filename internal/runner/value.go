// Package runner is C9: a minimal tree-walking evaluator over the
// lowered AST, grounded on the sticky-exception execution model in
// CWBudde-go-dws's internal/interp/evaluator (ctx.Exception() is
// checked after every sub-execution rather than propagated via Go
// panic/recover). It exists only so tests can run a
// Dispatch-produced function body; it implements the statement
// and expression kinds listed in Exec and Eval, not a general-purpose
// language runtime. Casts, tuples, object literals, member access,
// statement-list expressions, lambdas and procedure definitions are
// not evaluated: reaching one panics.
package runner

import "fmt"

// Value is any runtime value a lowered generator body can produce:
// int64, float64, bool, string, nil, or *ExceptionValue. Unlike the
// teacher's Value interface (Type()/Inspect(), class metadata, object
// instances) this is a plain Go interface{} — the generated code only
// ever touches scalars and exceptions, so the class/object machinery
// has nothing to ground.
type Value = any

func truthy(v Value) bool {
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("runner: condition did not evaluate to bool, got %T", v))
	}
	return b
}

func valuesEqual(a, b Value) bool {
	switch x := a.(type) {
	case int64:
		y, ok := b.(int64)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case nil:
		return b == nil
	default:
		return false
	}
}
