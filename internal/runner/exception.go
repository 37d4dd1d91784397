package runner

import "fmt"

// ExceptionValue is the runtime representation of a raised exception,
// trimmed from runtime.ExceptionValue in the teacher's interpreter:
// no class metadata or object instance, since the lowered code this
// package executes only ever raises and type-tests a flat type name
// (spec's IsExpression), never an object with its own class hierarchy.
type ExceptionValue struct {
	TypeName string
	Message  string
	Payload  Value
}

func (e *ExceptionValue) Error() string {
	return fmt.Sprintf("%s: %s", e.TypeName, e.Message)
}

// matchesType reports whether exc would be caught by an "on e: typeName
// do" handler. "Exception" is the universal base every handler name
// can stand in for a catch-all, mirroring the teacher's bare-except
// "catches all" rule (internal/interp/evaluator/visitor_statements.go)
// without needing a real class hierarchy to walk.
func matchesType(exc *ExceptionValue, typeName string) bool {
	if exc == nil {
		return false
	}
	return typeName == "Exception" || exc.TypeName == typeName
}

func toException(v Value) *ExceptionValue {
	if exc, ok := v.(*ExceptionValue); ok {
		return exc
	}
	return &ExceptionValue{TypeName: "Exception", Message: fmt.Sprint(v), Payload: v}
}
