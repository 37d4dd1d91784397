package closureiter

import (
	"github.com/cwbudde/closureiter/internal/ast"
)

// exceptionVarName is the handler-scoped identifier bound by C8's one
// catch-all handler. Unlike the synthetic vars EnsureVar manages it is
// scoped to that single handler, not declared for the whole function.
const exceptionVarName = ":exc"

// excTargetVarName holds one exception-table lookup result, a plain
// synthetic local like any other.
const excTargetVarName = ":excTarget"

// Dispatch is C8. It wraps the state list ctx holds into the final
// "while :state >= 0 { block :state-loop { <dispatch> } }" shell (spec
// §4.8): a bare goto-state (materialized as ":state := N; break
// :state-loop") lands back at the top of this while, re-dispatching on
// the new state; a yield's materialized return leaves the while (and
// the function) entirely, to be re-entered by the next call with
// :state already pointing at the right branch.
//
// The dispatch switch is wrapped in a real try/except only when
// MarkHasExceptions fired for this function — a generator that never
// spans a yield across a try has nothing for that wrapper to catch,
// and the exception table is all noHandler entries anyway.
//
// Run after C7 (so state indices and the table are final) and C6 (so
// every state body is already in its materialized, goto-free form).
func Dispatch(ctx *Context) *ast.BlockStatement {
	selector := ctx.EnsureVar(":state")

	branches := make([]*ast.CaseBranch, len(ctx.states))
	for i, s := range ctx.states {
		branches[i] = &ast.CaseBranch{
			Values: []ast.Expression{&ast.IntegerLiteral{Value: int64(i)}},
			Body:   s.AsBlock(),
		}
	}
	dispatchSwitch := &ast.CaseStatement{Selector: selector, Branches: branches}

	var body ast.Statement = dispatchSwitch
	if ctx.HasExceptions() {
		body = &ast.TryStatement{
			TryBlock: &ast.BlockStatement{Statements: []ast.Statement{dispatchSwitch}},
			ExceptClause: &ast.ExceptClause{
				Handlers: []*ast.ExceptionHandler{{
					Variable:      &ast.Identifier{Name: exceptionVarName},
					ExceptionType: "Exception",
					Body:          buildRedispatch(ctx),
				}},
			},
		}
	}

	loop := &ast.WhileStatement{
		Condition: &ast.BinaryExpression{
			Left:     selector,
			Operator: ">=",
			Right:    &ast.IntegerLiteral{Value: 0},
		},
		Body: &ast.LabeledBlockStatement{
			Label: stateLoopLabel,
			Body:  &ast.BlockStatement{Statements: []ast.Statement{body}},
		},
	}

	// Collect the var-declaration prelude last: buildRedispatch above
	// may EnsureVar synthetics (":excTarget", ":curExc") for the first
	// time, and DeclaredLocals must reflect all of them. In
	// post-lifting mode DeclaredLocals is always empty — those
	// synthetics live as environment fields, declared elsewhere.
	var prelude []ast.Statement
	for _, id := range ctx.DeclaredLocals() {
		prelude = append(prelude, &ast.VarStatement{Name: id, Value: defaultInit(id.Name)})
	}

	return &ast.BlockStatement{Statements: append(prelude, loop)}
}

// buildRedispatch compiles ctx.Table() into two array literals indexed
// by :state — successor targets, and a parallel flag for whether that
// state's own table entry routes to a finally rather than an except —
// and the lookup that either re-raises the caught exception (no
// handler covers the state that was executing) or resumes the dispatch
// loop at the successor state. A finally successor must also set
// :unrollFinally so buildEndFinally's end-finally node (spec §4.5)
// re-raises on the way out instead of treating this as a normal
// fallthrough; an except successor runs buildExceptChain's own code
// next, which never consults :unrollFinally, so clearing it there is
// just keeping it from leaking a stale true into unrelated states.
func buildRedispatch(ctx *Context) *ast.BlockStatement {
	targets := make([]ast.Expression, len(ctx.table))
	isFinally := make([]ast.Expression, len(ctx.table))
	for i, v := range ctx.table {
		idx, except, ok := decodeHandler(v)
		if !ok {
			idx = -1
		}
		targets[i] = &ast.IntegerLiteral{Value: int64(idx)}
		isFinally[i] = &ast.BooleanLiteral{Value: ok && !except}
	}
	state := ctx.EnsureVar(":state")
	lookup := &ast.IndexExpression{
		Target: &ast.ArrayLiteral{Elements: targets},
		Index:  state,
	}
	finallyLookup := &ast.IndexExpression{
		Target: &ast.ArrayLiteral{Elements: isFinally},
		Index:  state,
	}

	excTarget := ctx.EnsureVar(excTargetVarName)
	return &ast.BlockStatement{Statements: []ast.Statement{
		assign(ctx.EnsureVar(":curExc"), &ast.Identifier{Name: exceptionVarName}),
		assign(excTarget, lookup),
		&ast.IfStatement{
			Condition: &ast.BinaryExpression{Left: excTarget, Operator: "<", Right: &ast.IntegerLiteral{Value: 0}},
			Consequence: &ast.BlockStatement{Statements: []ast.Statement{
				&ast.RaiseStatement{Value: &ast.Identifier{Name: exceptionVarName}},
			}},
			Alternative: &ast.BlockStatement{Statements: []ast.Statement{
				assign(ctx.EnsureVar(":unrollFinally"), finallyLookup),
				assign(ctx.EnsureVar(":state"), excTarget),
			}},
		},
	}}
}

// defaultInit gives the fixed synthetic variables their starting
// value; everything else (numbered temps, :excTarget) is always
// written before it is read, so it is left with no initializer.
func defaultInit(name string) ast.Expression {
	switch name {
	case ":state":
		return &ast.IntegerLiteral{Value: 0}
	case ":unrollFinally":
		return &ast.BooleanLiteral{Value: false}
	case ":curExc", ":tmpResult":
		return &ast.NilLiteral{}
	default:
		return nil
	}
}
