package runner

import (
	"fmt"

	"github.com/cwbudde/closureiter/internal/ast"
)

// Run executes one Dispatch-produced (or, pre-lowering, untouched)
// function body to completion from a fresh environment and returns
// its final return value. A panic surfaces an uncaught exception or a
// GotoState/YieldStatement that escaped Materialize — both indicate a
// malformed pipeline output rather than a normal runtime condition, so
// they are not turned into an error return here.
func Run(body *ast.BlockStatement) Value {
	ctx := NewExecutionContext()
	Exec(ctx, body)
	if ctx.exception != nil {
		panic(fmt.Sprintf("runner: uncaught exception escaped function body: %s", ctx.exception.Error()))
	}
	return ctx.returnValue
}

// Exec executes one statement, threading every control-flow signal
// through ctx rather than returning one, so callers only ever need to
// check ctx.Unwinding() between statements of a sequence.
func Exec(ctx *ExecutionContext, s ast.Statement) {
	switch n := s.(type) {
	case nil:
		return

	case *ast.BlockStatement:
		execBlock(ctx, n)

	case *ast.VarStatement:
		var v Value
		if n.Value != nil {
			v = Eval(ctx, n.Value)
		}
		ctx.Env.Define(n.Name.Name, v)

	case *ast.AssignStatement:
		v := Eval(ctx, n.Value)
		assignTo(ctx, n.Target, v)

	case *ast.ExpressionStatement:
		Eval(ctx, n.Expr)

	case *ast.IfStatement:
		if truthy(Eval(ctx, n.Condition)) {
			Exec(ctx, n.Consequence)
		} else if n.Alternative != nil {
			Exec(ctx, n.Alternative)
		}

	case *ast.CaseStatement:
		execCase(ctx, n)

	case *ast.WhileStatement:
		execWhile(ctx, n)

	case *ast.LabeledBlockStatement:
		Exec(ctx, n.Body)
		if ctx.breaking && (ctx.breakLabel == "" || ctx.breakLabel == n.Label) {
			ctx.breaking = false
			ctx.breakLabel = ""
		}

	case *ast.BreakStatement:
		ctx.breaking = true
		ctx.breakLabel = n.Label

	case *ast.ContinueStatement:
		ctx.continuing = true

	case *ast.ReturnStatement:
		if n.Value != nil {
			ctx.returnValue = Eval(ctx, n.Value)
		}
		ctx.returning = true

	case *ast.TryStatement:
		execTry(ctx, n)

	case *ast.RaiseStatement:
		execRaise(ctx, n)

	case *ast.GotoState, *ast.YieldStatement:
		panic(fmt.Sprintf("runner: %T reached the evaluator — Split/Materialize did not fully lower this body", s))

	default:
		panic(fmt.Sprintf("runner: no executor for statement type %T", s))
	}
}

func execBlock(ctx *ExecutionContext, b *ast.BlockStatement) {
	for _, st := range b.Statements {
		Exec(ctx, st)
		if ctx.Unwinding() {
			return
		}
	}
}

func execCase(ctx *ExecutionContext, n *ast.CaseStatement) {
	selector := Eval(ctx, n.Selector)
	for _, branch := range n.Branches {
		for _, v := range branch.Values {
			if valuesEqual(selector, Eval(ctx, v)) {
				Exec(ctx, branch.Body)
				return
			}
		}
	}
	if n.Default != nil {
		Exec(ctx, n.Default)
	}
}

func execWhile(ctx *ExecutionContext, n *ast.WhileStatement) {
	for truthy(Eval(ctx, n.Condition)) {
		Exec(ctx, n.Body)

		if ctx.continuing {
			ctx.continuing = false
			continue
		}
		if ctx.breaking {
			if ctx.breakLabel == "" || ctx.breakLabel == n.Label {
				ctx.breaking = false
				ctx.breakLabel = ""
			}
			return
		}
		if ctx.returning || ctx.exception != nil {
			return
		}
	}
}

// execTry is the native try/except/finally executor: used for any
// TryStatement that reaches the runner untouched, which by
// construction never spanned a yield (C5 splits every try that does),
// so ordinary nested execution — not the state machine's goto/ET
// dance — is exactly the right semantics for it.
func execTry(ctx *ExecutionContext, n *ast.TryStatement) {
	Exec(ctx, n.TryBlock)

	switch {
	case ctx.exception == nil && !ctx.breaking && !ctx.continuing && !ctx.returning:
		if n.ExceptClause != nil && n.ExceptClause.ElseBlock != nil {
			Exec(ctx, n.ExceptClause.ElseBlock)
		}
	case ctx.exception != nil && n.ExceptClause != nil:
		execExcept(ctx, n.ExceptClause)
	}

	if n.FinallyClause != nil {
		runFinally(ctx, n.FinallyClause)
	}
}

func execExcept(ctx *ExecutionContext, ec *ast.ExceptClause) {
	exc := ctx.exception
	for _, h := range ec.Handlers {
		if !matchesType(exc, h.ExceptionType) {
			continue
		}
		ctx.exception = nil
		if h.Variable != nil {
			ctx.Env.Define(h.Variable.Name, exc)
		}
		Exec(ctx, h.Body)
		return
	}
	// no handler matched: exc keeps propagating through finally
}

func runFinally(ctx *ExecutionContext, fc *ast.FinallyClause) {
	saved := ctx.snapshotUnwind()
	ctx.clearUnwind()
	Exec(ctx, fc.Body)
	if !ctx.Unwinding() {
		ctx.restoreUnwind(saved)
	}
	// else: finally's own unwind (a new exception, return, break) supersedes saved
}

func execRaise(ctx *ExecutionContext, n *ast.RaiseStatement) {
	if n.Value == nil {
		if ctx.exception == nil {
			ctx.exception = &ExceptionValue{TypeName: "Exception", Message: "re-raise with no active exception"}
		}
		return
	}
	ctx.exception = toException(Eval(ctx, n.Value))
}

func assignTo(ctx *ExecutionContext, target ast.Expression, v Value) {
	id, ok := target.(*ast.Identifier)
	if !ok {
		panic(fmt.Sprintf("runner: assignment target %T not supported (post-lifting environment-field targets are out of scope for this evaluator)", target))
	}
	ctx.Env.Set(id.Name, v)
}

// Eval evaluates one expression to a Value.
func Eval(ctx *ExecutionContext, e ast.Expression) Value {
	switch n := e.(type) {
	case *ast.Identifier:
		v, ok := ctx.Env.Get(n.Name)
		if !ok {
			panic(fmt.Sprintf("runner: undefined variable %q", n.Name))
		}
		return v

	case *ast.IntegerLiteral:
		return n.Value
	case *ast.FloatLiteral:
		return n.Value
	case *ast.BooleanLiteral:
		return n.Value
	case *ast.StringLiteral:
		return n.Value
	case *ast.NilLiteral:
		return nil

	case *ast.BinaryExpression:
		return evalBinary(ctx, n)

	case *ast.UnaryExpression:
		return evalUnary(ctx, n)

	case *ast.IsExpression:
		v := Eval(ctx, n.Value)
		exc, ok := v.(*ExceptionValue)
		if !ok {
			return false
		}
		return matchesType(exc, n.TypeName)

	case *ast.ArrayLiteral:
		elems := make([]Value, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = Eval(ctx, el)
		}
		return elems

	case *ast.IndexExpression:
		arr, ok := Eval(ctx, n.Target).([]Value)
		if !ok {
			panic(fmt.Sprintf("runner: index target is not an array literal result (%T)", n.Target))
		}
		idx, ok := Eval(ctx, n.Index).(int64)
		if !ok {
			panic("runner: array index did not evaluate to an integer")
		}
		return arr[idx]

	case *ast.CallExpression:
		return evalCall(ctx, n)

	default:
		panic(fmt.Sprintf("runner: no evaluator for expression type %T", e))
	}
}

// evalCall supports the fixed, small set of runtime primitives C5
// synthesizes calls to (spec's exception-identity check); it is not a
// general function-call evaluator; any real function call appearing
// in a generator body is out of scope for this package.
//
// getCurrentException returns the exception propagating through the
// runner; when none is (the dispatch loop's catch has already taken
// it), it returns the exception the lowered code saved into the
// ":curExc" slot, or nil when that slot is unset.
func evalCall(ctx *ExecutionContext, n *ast.CallExpression) Value {
	id, ok := n.Callee.(*ast.Identifier)
	if !ok {
		panic(fmt.Sprintf("runner: call target %T not supported", n.Callee))
	}
	switch id.Name {
	case "getCurrentException":
		if ctx.exception != nil {
			return ctx.exception
		}
		if v, ok := ctx.Env.Get(":curExc"); ok {
			return v
		}
		return nil
	default:
		panic(fmt.Sprintf("runner: no builtin registered for call %q", id.Name))
	}
}

func evalUnary(ctx *ExecutionContext, n *ast.UnaryExpression) Value {
	v := Eval(ctx, n.Operand)
	switch n.Operator {
	case "-":
		switch x := v.(type) {
		case int64:
			return -x
		case float64:
			return -x
		}
	case "not":
		return !truthy(v)
	}
	panic(fmt.Sprintf("runner: unsupported unary operator %q on %T", n.Operator, v))
}

func evalBinary(ctx *ExecutionContext, n *ast.BinaryExpression) Value {
	if n.Operator == "and" || n.Operator == "or" {
		left := truthy(Eval(ctx, n.Left))
		if n.Operator == "and" && !left {
			return false
		}
		if n.Operator == "or" && left {
			return true
		}
		return truthy(Eval(ctx, n.Right))
	}

	l, r := Eval(ctx, n.Left), Eval(ctx, n.Right)
	switch n.Operator {
	case "==":
		return valuesEqual(l, r)
	case "!=":
		return !valuesEqual(l, r)
	}

	switch a := l.(type) {
	case int64:
		b, ok := r.(int64)
		if !ok {
			break
		}
		switch n.Operator {
		case "+":
			return a + b
		case "-":
			return a - b
		case "*":
			return a * b
		case "/":
			return a / b
		case "<":
			return a < b
		case "<=":
			return a <= b
		case ">":
			return a > b
		case ">=":
			return a >= b
		}
	case float64:
		b, ok := r.(float64)
		if !ok {
			break
		}
		switch n.Operator {
		case "+":
			return a + b
		case "-":
			return a - b
		case "*":
			return a * b
		case "/":
			return a / b
		case "<":
			return a < b
		case "<=":
			return a <= b
		case ">":
			return a > b
		case ">=":
			return a >= b
		}
	case string:
		b, ok := r.(string)
		if !ok {
			break
		}
		if n.Operator == "+" {
			return a + b
		}
	}
	panic(fmt.Sprintf("runner: unsupported binary operator %q on %T and %T", n.Operator, l, r))
}
