package closureiter_test

import (
	"testing"

	"github.com/cwbudde/closureiter/internal/ast"
	"github.com/cwbudde/closureiter/internal/closureiter"
	"github.com/cwbudde/closureiter/internal/runner"
)

// lower runs the full C1-C8 pipeline over fn's body and returns the
// assembled dispatch function, failing the test on any pipeline error.
func lower(t *testing.T, fn *ast.GeneratorFunction) *ast.ProcedureDefinition {
	t.Helper()
	proc, err := closureiter.Lower(fn, nil)
	if err != nil {
		t.Fatalf("Lower(%s): %v", fn.Name, err)
	}
	return proc
}

// driveGenerator runs proc's body to completion against a fresh
// ExecutionContext, treating every suspension (":state" left >= 0
// after one Exec of the dispatch loop) as one external call into a
// resumable generator and every yielded value's int64 payload as one
// observed output. It returns the full sequence of yielded values.
func driveGenerator(t *testing.T, proc *ast.ProcedureDefinition) []int64 {
	t.Helper()
	body, ok := proc.Body.(*ast.BlockStatement)
	if !ok || len(body.Statements) == 0 {
		t.Fatalf("expected a non-empty block body, got %T", proc.Body)
	}

	ctx := runner.NewExecutionContext()
	loop := body.Statements[len(body.Statements)-1]
	for _, decl := range body.Statements[:len(body.Statements)-1] {
		runner.Exec(ctx, decl)
	}

	var yields []int64
	for i := 0; i < 1000; i++ {
		ctx.Reenter()
		runner.Exec(ctx, loop)
		if ctx.Exception() != nil {
			t.Fatalf("uncaught exception mid-generator: %s", ctx.Exception().Error())
		}
		state, ok := ctx.Env.Get(":state")
		if !ok {
			t.Fatalf(":state was never declared")
		}
		if state.(int64) < 0 {
			return yields
		}
		v, _ := ctx.Env.Get("result-of-closure-iter")
		yields = append(yields, v.(int64))
	}
	t.Fatalf("generator did not terminate within 1000 resumptions")
	return nil
}

func counterGenerator(limit int64) *ast.GeneratorFunction {
	i := &ast.Identifier{Name: "i"}
	n := &ast.IntegerLiteral{Value: limit}
	return &ast.GeneratorFunction{
		Name: "counter",
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.VarStatement{Name: i, Value: &ast.IntegerLiteral{Value: 0}},
			&ast.WhileStatement{
				Condition: &ast.BinaryExpression{Left: i, Operator: "<", Right: n},
				Body: &ast.BlockStatement{Statements: []ast.Statement{
					&ast.YieldStatement{Value: i},
					&ast.AssignStatement{Target: i, Value: &ast.BinaryExpression{Left: i, Operator: "+", Right: &ast.IntegerLiteral{Value: 1}}},
				}},
			},
		}},
	}
}

func TestLowerCounterYieldsInOrder(t *testing.T) {
	fn := counterGenerator(4)
	proc := lower(t, fn)
	got := driveGenerator(t, proc)
	want := []int64{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// guardedGenerator spans a try/finally across two yields:
//
//	try
//	  yield 1
//	  yield 2
//	finally
//	  cleaned := true
func guardedGenerator() *ast.GeneratorFunction {
	return &ast.GeneratorFunction{
		Name: "guarded",
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.TryStatement{
				TryBlock: &ast.BlockStatement{Statements: []ast.Statement{
					&ast.YieldStatement{Value: &ast.IntegerLiteral{Value: 1}},
					&ast.YieldStatement{Value: &ast.IntegerLiteral{Value: 2}},
				}},
				FinallyClause: &ast.FinallyClause{
					Body: &ast.BlockStatement{Statements: []ast.Statement{
						&ast.AssignStatement{Target: &ast.Identifier{Name: "cleaned"}, Value: &ast.BooleanLiteral{Value: true}},
					}},
				},
			},
		}},
	}
}

func TestLowerFinallyRunsAfterLastYield(t *testing.T) {
	proc := lower(t, guardedGenerator())
	body := proc.Body.(*ast.BlockStatement)
	ctx := runner.NewExecutionContext()
	loop := body.Statements[len(body.Statements)-1]
	for _, decl := range body.Statements[:len(body.Statements)-1] {
		runner.Exec(ctx, decl)
	}

	var yields []int64
	for i := 0; i < 10; i++ {
		ctx.Reenter()
		runner.Exec(ctx, loop)
		state, _ := ctx.Env.Get(":state")
		if state.(int64) < 0 {
			break
		}
		v, _ := ctx.Env.Get("result-of-closure-iter")
		yields = append(yields, v.(int64))
	}

	if len(yields) != 2 || yields[0] != 1 || yields[1] != 2 {
		t.Fatalf("expected yields [1 2], got %v", yields)
	}
	cleaned, ok := ctx.Env.Get("cleaned")
	if !ok || cleaned != true {
		t.Fatalf("expected finally to have run after the last yield and set cleaned=true, got %v (ok=%v)", cleaned, ok)
	}
}

// returnInsideTryGenerator exercises the return/finally unroll
// protocol (C3): a return nested inside a try must still run the
// finally before the function actually returns, and must never be
// caught by an outer except clause despite running through the same
// try machinery a real exception would.
func returnInsideTryGenerator() *ast.GeneratorFunction {
	return &ast.GeneratorFunction{
		Name: "earlyReturn",
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.TryStatement{
				TryBlock: &ast.BlockStatement{Statements: []ast.Statement{
					&ast.YieldStatement{Value: &ast.IntegerLiteral{Value: 1}},
					&ast.ReturnStatement{Value: &ast.IntegerLiteral{Value: 42}},
				}},
				ExceptClause: &ast.ExceptClause{
					Handlers: []*ast.ExceptionHandler{{
						ExceptionType: "Exception",
						Body: &ast.BlockStatement{Statements: []ast.Statement{
							&ast.AssignStatement{Target: &ast.Identifier{Name: "caught"}, Value: &ast.BooleanLiteral{Value: true}},
						}},
					}},
				},
				FinallyClause: &ast.FinallyClause{
					Body: &ast.BlockStatement{Statements: []ast.Statement{
						&ast.AssignStatement{Target: &ast.Identifier{Name: "cleaned"}, Value: &ast.BooleanLiteral{Value: true}},
					}},
				},
			},
		}},
	}
}

// raiseAfterYieldGenerator exercises a real exception raised after the
// generator has already suspended once inside the try — the raise must
// reach C8's redispatch via the exception table (not the static return
// chain) and land in the except clause, which then runs, followed by
// finally.
func raiseAfterYieldGenerator() *ast.GeneratorFunction {
	return &ast.GeneratorFunction{
		Name: "raiseAfterYield",
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.TryStatement{
				TryBlock: &ast.BlockStatement{Statements: []ast.Statement{
					&ast.YieldStatement{Value: &ast.IntegerLiteral{Value: 1}},
					&ast.RaiseStatement{Value: &ast.StringLiteral{Value: "boom"}},
				}},
				ExceptClause: &ast.ExceptClause{
					Handlers: []*ast.ExceptionHandler{{
						ExceptionType: "Exception",
						Body: &ast.BlockStatement{Statements: []ast.Statement{
							&ast.AssignStatement{Target: &ast.Identifier{Name: "caught"}, Value: &ast.BooleanLiteral{Value: true}},
						}},
					}},
				},
				FinallyClause: &ast.FinallyClause{
					Body: &ast.BlockStatement{Statements: []ast.Statement{
						&ast.AssignStatement{Target: &ast.Identifier{Name: "cleaned"}, Value: &ast.BooleanLiteral{Value: true}},
					}},
				},
			},
		}},
	}
}

func TestLowerRaiseAfterYieldIsCaughtByExceptThenRunsFinally(t *testing.T) {
	proc := lower(t, raiseAfterYieldGenerator())
	body := proc.Body.(*ast.BlockStatement)
	ctx := runner.NewExecutionContext()
	loop := body.Statements[len(body.Statements)-1]
	for _, decl := range body.Statements[:len(body.Statements)-1] {
		runner.Exec(ctx, decl)
	}

	runner.Exec(ctx, loop) // first call: suspends at the yield
	if ctx.Exception() != nil {
		t.Fatalf("unexpected exception before the raise: %s", ctx.Exception().Error())
	}
	state, _ := ctx.Env.Get(":state")
	if state.(int64) < 0 {
		t.Fatalf("expected a suspension at the yield before the raise runs")
	}

	ctx.Reenter()
	runner.Exec(ctx, loop) // second call: hits the raise, should be caught
	if ctx.Exception() != nil {
		t.Fatalf("expected the except clause to clear the exception, got %s", ctx.Exception().Error())
	}
	state, _ = ctx.Env.Get(":state")
	if state.(int64) >= 0 {
		t.Fatalf("expected the generator to have finished after except+finally ran")
	}
	caught, ok := ctx.Env.Get("caught")
	if !ok || caught != true {
		t.Fatalf("expected the except handler to have run, got %v (ok=%v)", caught, ok)
	}
	cleaned, ok := ctx.Env.Get("cleaned")
	if !ok || cleaned != true {
		t.Fatalf("expected finally to run after the except handler, got %v (ok=%v)", cleaned, ok)
	}
}

// labelledBreakGenerator exercises spec §8 scenario (f): a labelled
// break targeting a block two while-loops further out than the yield
// it follows. C4's relocateLabeledBreaks must turn that break into a
// goto reaching all the way past both loop heads.
func labelledBreakGenerator() *ast.GeneratorFunction {
	trueCond := &ast.BooleanLiteral{Value: true}
	return &ast.GeneratorFunction{
		Name: "labelledBreak",
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.LabeledBlockStatement{Label: "L", Body: &ast.BlockStatement{Statements: []ast.Statement{
				&ast.WhileStatement{Condition: trueCond, Body: &ast.BlockStatement{Statements: []ast.Statement{
					&ast.WhileStatement{Condition: trueCond, Body: &ast.BlockStatement{Statements: []ast.Statement{
						&ast.YieldStatement{Value: &ast.IntegerLiteral{Value: 1}},
						&ast.BreakStatement{Label: "L"},
					}}},
				}}},
			}}},
		}},
	}
}

func TestLowerLabelledBreakExitsBothLoops(t *testing.T) {
	proc := lower(t, labelledBreakGenerator())
	got := driveGenerator(t, proc)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected exactly one yielded value [1], got %v", got)
	}
}

// raiseWithOnlyFinallyGenerator exercises spec §8 property 6 (identical
// exception propagation) on the direct table-to-finally redispatch
// path: a try with no except clause at all still runs its finally on
// the way out of a raised exception, then must let the exception keep
// propagating past it rather than swallowing it.
func raiseWithOnlyFinallyGenerator() *ast.GeneratorFunction {
	return &ast.GeneratorFunction{
		Name: "raiseWithOnlyFinally",
		Body: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.TryStatement{
				TryBlock: &ast.BlockStatement{Statements: []ast.Statement{
					&ast.YieldStatement{Value: &ast.IntegerLiteral{Value: 1}},
					&ast.RaiseStatement{Value: &ast.StringLiteral{Value: "boom"}},
				}},
				FinallyClause: &ast.FinallyClause{
					Body: &ast.BlockStatement{Statements: []ast.Statement{
						&ast.YieldStatement{Value: &ast.IntegerLiteral{Value: 2}},
					}},
				},
			},
		}},
	}
}

func TestLowerRaiseWithOnlyFinallyRunsFinallyThenPropagates(t *testing.T) {
	proc := lower(t, raiseWithOnlyFinallyGenerator())
	body := proc.Body.(*ast.BlockStatement)
	ctx := runner.NewExecutionContext()
	loop := body.Statements[len(body.Statements)-1]
	for _, decl := range body.Statements[:len(body.Statements)-1] {
		runner.Exec(ctx, decl)
	}

	var yields []int64
	for i := 0; i < 10; i++ {
		ctx.Reenter()
		runner.Exec(ctx, loop)
		if ctx.Exception() != nil {
			break
		}
		state, _ := ctx.Env.Get(":state")
		if state.(int64) < 0 {
			t.Fatalf("generator finished normally without the exception ever escaping")
		}
		v, _ := ctx.Env.Get("result-of-closure-iter")
		yields = append(yields, v.(int64))
	}

	if len(yields) != 2 || yields[0] != 1 || yields[1] != 2 {
		t.Fatalf("expected the finally's own yield to run before the exception escapes, got %v", yields)
	}
	if ctx.Exception() == nil {
		t.Fatalf("expected the raised exception to escape uncaught past the finally, got none")
	}
	if ctx.Exception().Message != "boom" {
		t.Fatalf("expected the original exception to propagate unchanged, got %q", ctx.Exception().Message)
	}
}

func TestLowerReturnInsideTryRunsFinallyNotExcept(t *testing.T) {
	proc := lower(t, returnInsideTryGenerator())
	body := proc.Body.(*ast.BlockStatement)
	ctx := runner.NewExecutionContext()
	loop := body.Statements[len(body.Statements)-1]
	for _, decl := range body.Statements[:len(body.Statements)-1] {
		runner.Exec(ctx, decl)
	}

	runner.Exec(ctx, loop) // first call: suspends at yield 1
	state, _ := ctx.Env.Get(":state")
	if state.(int64) < 0 {
		t.Fatalf("expected a suspension at the first yield")
	}

	ctx.Reenter()
	runner.Exec(ctx, loop) // second call: hits the return
	state, _ = ctx.Env.Get(":state")
	if state.(int64) >= 0 {
		t.Fatalf("expected the generator to have finished after its return")
	}
	if _, caught := ctx.Env.Get("caught"); caught {
		t.Fatalf("a return must never be intercepted by an outer except clause")
	}
	cleaned, ok := ctx.Env.Get("cleaned")
	if !ok || cleaned != true {
		t.Fatalf("expected finally to run on the way out of a return, got %v (ok=%v)", cleaned, ok)
	}
}
