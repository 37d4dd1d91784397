package cmd

import "github.com/cwbudde/closureiter/internal/ast"

// samples is the built-in registry of generator bodies dumpCmd can
// lower. Each is built directly as an AST value — there is no parser
// in this module — so the set stays small and hand-written, one entry
// per interesting shape the pass has to handle.
var samples = map[string]func() *ast.GeneratorFunction{
	"counter": sampleCounter,
	"guarded": sampleGuarded,
}

// sampleCounter is the baseline case: a single yield inside a plain
// while loop, no exception handling at all, exercising C5's
// splitWhile and nothing else.
//
//	generator counter(n)
//	  var i := 0
//	  while i < n
//	    yield i
//	    i := i + 1
func sampleCounter() *ast.GeneratorFunction {
	i := &ast.Identifier{Name: "i"}
	n := &ast.Identifier{Name: "n"}
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

// sampleGuarded spans a try/finally across two yields, exercising C5's
// splitTry, the unroll-finally protocol, and C8's exception-table
// redispatch.
//
//	generator guarded()
//	  try
//	    yield 1
//	    yield 2
//	  finally
//	    cleaned := true
func sampleGuarded() *ast.GeneratorFunction {
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
