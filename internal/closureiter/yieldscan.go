package closureiter

import "github.com/cwbudde/closureiter/internal/ast"

// containsYield reports whether a yield appears anywhere within node,
// stopping at the boundary of a nested procedure/template definition
// (those are opaque to every rewrite in this pass, spec §4.2/§4.3).
func containsYield(node ast.Node) bool {
	if node == nil {
		return false
	}
	switch n := node.(type) {
	case *ast.YieldStatement:
		return true
	case *ast.ProcedureDefinition, *ast.LambdaExpression:
		return false

	case *ast.BlockStatement:
		for _, s := range n.Statements {
			if containsYield(s) {
				return true
			}
		}
		return false
	case *ast.ExpressionStatement:
		return containsYield(n.Expr)
	case *ast.IfStatement:
		return containsYield(n.Condition) || containsYield(n.Consequence) || containsYield(n.Alternative)
	case *ast.CaseStatement:
		if containsYield(n.Selector) {
			return true
		}
		for _, b := range n.Branches {
			for _, v := range b.Values {
				if containsYield(v) {
					return true
				}
			}
			if containsYield(b.Body) {
				return true
			}
		}
		return containsYield(n.Default)
	case *ast.WhileStatement:
		return containsYield(n.Condition) || containsYield(n.Body)
	case *ast.LabeledBlockStatement:
		return containsYield(n.Body)
	case *ast.BreakStatement, *ast.ContinueStatement, *ast.GotoState:
		return false
	case *ast.TryStatement:
		if containsYield(n.TryBlock) {
			return true
		}
		if n.ExceptClause != nil {
			for _, h := range n.ExceptClause.Handlers {
				if containsYield(h.Body) {
					return true
				}
			}
			if containsYield(n.ExceptClause.ElseBlock) {
				return true
			}
		}
		if n.FinallyClause != nil && containsYield(n.FinallyClause.Body) {
			return true
		}
		return false
	case *ast.RaiseStatement:
		return containsYield(n.Value)
	case *ast.VarStatement:
		return containsYield(n.Value)
	case *ast.AssignStatement:
		return containsYield(n.Target) || containsYield(n.Value)
	case *ast.ReturnStatement:
		return containsYield(n.Value)
	case *ast.GeneratorFunction:
		return containsYield(n.Body)

	case *ast.StmtListExpr:
		for _, s := range n.Stmts {
			if containsYield(s) {
				return true
			}
		}
		return containsYield(n.Value)
	case *ast.TryExpression:
		if containsYield(n.TryBlock) {
			return true
		}
		if n.ExceptClause != nil {
			for _, h := range n.ExceptClause.Handlers {
				if containsYield(h.Body) {
					return true
				}
			}
			if containsYield(n.ExceptClause.ElseBlock) {
				return true
			}
		}
		return n.FinallyClause != nil && containsYield(n.FinallyClause.Body)
	case *ast.BinaryExpression:
		return containsYield(n.Left) || containsYield(n.Right)
	case *ast.UnaryExpression:
		return containsYield(n.Operand)
	case *ast.CallExpression:
		if containsYield(n.Callee) {
			return true
		}
		for _, a := range n.Args {
			if containsYield(a) {
				return true
			}
		}
		return false
	case *ast.IndexExpression:
		return containsYield(n.Target) || containsYield(n.Index)
	case *ast.CastExpression:
		return containsYield(n.Operand)
	case *ast.IsExpression:
		return containsYield(n.Value)
	case *ast.MemberExpression:
		return containsYield(n.Target)
	case *ast.TupleExpression:
		for _, el := range n.Elements {
			if containsYield(el) {
				return true
			}
		}
		return false
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			if containsYield(el) {
				return true
			}
		}
		return false
	case *ast.ObjectLiteral:
		for _, f := range n.Fields {
			if containsYield(f.Value) {
				return true
			}
		}
		return false

	default:
		// Identifiers, literals, nil: opaque terminal nodes.
		return false
	}
}

func containsYieldStmts(stmts []ast.Statement) bool {
	for _, s := range stmts {
		if containsYield(s) {
			return true
		}
	}
	return false
}

func isCallKind(e ast.Expression) bool {
	_, ok := e.(*ast.CallExpression)
	return ok
}

func isLiteralOrIdent(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral,
		*ast.BooleanLiteral, *ast.NilLiteral:
		return true
	default:
		return false
	}
}
