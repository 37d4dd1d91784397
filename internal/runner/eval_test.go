package runner_test

import (
	"testing"

	"github.com/cwbudde/closureiter/internal/ast"
	"github.com/cwbudde/closureiter/internal/runner"
)

func TestEvalArithmeticAndComparison(t *testing.T) {
	ctx := runner.NewExecutionContext()
	expr := &ast.BinaryExpression{
		Left:     &ast.IntegerLiteral{Value: 2},
		Operator: "+",
		Right:    &ast.IntegerLiteral{Value: 3},
	}
	if got := runner.Eval(ctx, expr); got != int64(5) {
		t.Fatalf("2+3 = %v, want 5", got)
	}

	cmp := &ast.BinaryExpression{Left: expr, Operator: ">=", Right: &ast.IntegerLiteral{Value: 5}}
	if got := runner.Eval(ctx, cmp); got != true {
		t.Fatalf("5>=5 = %v, want true", got)
	}
}

func TestExecTryExceptFinallyOrdering(t *testing.T) {
	ctx := runner.NewExecutionContext()
	ctx.Env.Define("order", "")
	appendOrder := func(tag string) ast.Statement {
		return &ast.AssignStatement{
			Target: &ast.Identifier{Name: "order"},
			Value: &ast.BinaryExpression{
				Left:     &ast.Identifier{Name: "order"},
				Operator: "+",
				Right:    &ast.StringLiteral{Value: tag},
			},
		}
	}

	stmt := &ast.TryStatement{
		TryBlock: &ast.BlockStatement{Statements: []ast.Statement{
			appendOrder("try,"),
			&ast.RaiseStatement{Value: &ast.StringLiteral{Value: "boom"}},
		}},
		ExceptClause: &ast.ExceptClause{
			Handlers: []*ast.ExceptionHandler{{
				ExceptionType: "Exception",
				Body:          &ast.BlockStatement{Statements: []ast.Statement{appendOrder("except,")}},
			}},
		},
		FinallyClause: &ast.FinallyClause{
			Body: &ast.BlockStatement{Statements: []ast.Statement{appendOrder("finally,")}},
		},
	}

	runner.Exec(ctx, stmt)

	if ctx.Exception() != nil {
		t.Fatalf("expected the except clause to have cleared the exception, got %v", ctx.Exception())
	}
	order, _ := ctx.Env.Get("order")
	if order != "try,except,finally," {
		t.Fatalf("order = %q, want %q", order, "try,except,finally,")
	}
}

func TestExecTryNoHandlerMatchesStillRunsFinallyAndPropagates(t *testing.T) {
	ctx := runner.NewExecutionContext()
	stmt := &ast.TryStatement{
		TryBlock: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.RaiseStatement{Value: &ast.StringLiteral{Value: "boom"}},
		}},
		ExceptClause: &ast.ExceptClause{
			Handlers: []*ast.ExceptionHandler{{
				ExceptionType: "SomeOtherType",
				Body:          &ast.BlockStatement{},
			}},
		},
		FinallyClause: &ast.FinallyClause{
			Body: &ast.BlockStatement{Statements: []ast.Statement{
				&ast.AssignStatement{Target: &ast.Identifier{Name: "ran"}, Value: &ast.BooleanLiteral{Value: true}},
			}},
		},
	}

	runner.Exec(ctx, stmt)

	ran, _ := ctx.Env.Get("ran")
	if ran != true {
		t.Fatalf("expected finally to run even though no handler matched")
	}
	if ctx.Exception() == nil {
		t.Fatalf("expected the unmatched exception to keep propagating past finally")
	}
}
