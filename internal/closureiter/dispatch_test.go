package closureiter_test

import (
	"testing"

	"github.com/cwbudde/closureiter/internal/ast"
	"github.com/cwbudde/closureiter/internal/closureiter"
	"github.com/gkampitakis/go-snaps/snaps"
)

// TestDispatchShapeSnapshot pins the textual shape C8 assembles for a
// generator whose try spans two yields — the state list, exception
// table, var-declaration prelude, and the final while/state-loop/
// try-except shell — so a future change to the pipeline's output
// shape shows up as a reviewable diff instead of silently drifting.
func TestDispatchShapeSnapshot(t *testing.T) {
	fn := &ast.GeneratorFunction{
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

	proc, err := closureiter.Lower(fn, nil)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	snaps.MatchSnapshot(t, proc.Body.String())
}
