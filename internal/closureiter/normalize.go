package closureiter

import "github.com/cwbudde/closureiter/internal/ast"

// Normalize is C2, the statement-list-expression normaliser. It runs
// before C5 (the splitter) on the whole generator body, hoisting every
// yield-bearing statement-list-expression out of compound expression
// contexts so that afterwards a yield can only appear at statement
// position (spec §4.2's invariant, reasserted by spec §3's "no
// statement-list expression in the output contains a yield").
func Normalize(ctx *Context, body *ast.BlockStatement) *ast.BlockStatement {
	return normalizeBlock(ctx, body)
}

func normalizeBlock(ctx *Context, b *ast.BlockStatement) *ast.BlockStatement {
	if b == nil {
		return nil
	}
	var out []ast.Statement
	for _, s := range b.Statements {
		out = append(out, normalizeStmt(ctx, s)...)
	}
	return &ast.BlockStatement{Token: b.Token, Statements: out}
}

// normalizeStmt normalizes one statement, returning the (possibly
// several) statements that replace it: any hoisted prelude followed
// by the rewritten statement itself.
func normalizeStmt(ctx *Context, stmt ast.Statement) []ast.Statement {
	if stmt == nil {
		return nil
	}
	switch s := stmt.(type) {
	case *ast.ProcedureDefinition:
		return []ast.Statement{s} // opaque

	case *ast.ExpressionStatement:
		repl, prelude := exprNormalize(ctx, s.Expr)
		return append(prelude, &ast.ExpressionStatement{Token: s.Token, Expr: repl})

	case *ast.VarStatement:
		if s.Value == nil {
			return []ast.Statement{s}
		}
		repl, prelude := exprNormalize(ctx, s.Value)
		return append(prelude, &ast.VarStatement{Token: s.Token, Name: s.Name, Value: repl})

	case *ast.AssignStatement:
		targetRepl, targetPrelude := exprNormalize(ctx, s.Target)
		valueRepl, valuePrelude := exprNormalize(ctx, s.Value)
		prelude := append(targetPrelude, valuePrelude...)
		return append(prelude, &ast.AssignStatement{Token: s.Token, Target: targetRepl, Value: valueRepl, Fast: s.Fast, Operator: s.Operator})

	case *ast.ReturnStatement:
		if s.Value == nil {
			return []ast.Statement{s}
		}
		repl, prelude := exprNormalize(ctx, s.Value)
		return append(prelude, &ast.ReturnStatement{Token: s.Token, Value: repl})

	case *ast.RaiseStatement:
		if s.Value == nil {
			return []ast.Statement{s}
		}
		repl, prelude := exprNormalize(ctx, s.Value)
		return append(prelude, &ast.RaiseStatement{Token: s.Token, Value: repl})

	case *ast.YieldStatement:
		if s.Value == nil {
			return []ast.Statement{s}
		}
		repl, prelude := exprNormalize(ctx, s.Value)
		return append(prelude, &ast.YieldStatement{Token: s.Token, Value: repl})

	case *ast.IfStatement:
		condRepl, condPrelude := exprNormalize(ctx, s.Condition)
		newIf := &ast.IfStatement{
			Token:       s.Token,
			Condition:   condRepl,
			Consequence: normalizeAsBlock(ctx, s.Consequence),
			Alternative: normalizeAsBlockOrNil(ctx, s.Alternative),
		}
		return append(condPrelude, newIf)

	case *ast.CaseStatement:
		selRepl, selPrelude := exprNormalize(ctx, s.Selector)
		branches := make([]*ast.CaseBranch, len(s.Branches))
		for i, b := range s.Branches {
			branches[i] = &ast.CaseBranch{Token: b.Token, Values: b.Values, Body: normalizeAsBlock(ctx, b.Body)}
		}
		newCase := &ast.CaseStatement{
			Token:    s.Token,
			Selector: selRepl,
			Branches: branches,
			Default:  normalizeAsBlockOrNil(ctx, s.Default),
		}
		return append(selPrelude, newCase)

	case *ast.WhileStatement:
		return []ast.Statement{normalizeWhile(ctx, s)}

	case *ast.LabeledBlockStatement:
		return []ast.Statement{&ast.LabeledBlockStatement{Token: s.Token, Label: s.Label, Body: normalizeAsBlock(ctx, s.Body)}}

	case *ast.BlockStatement:
		return []ast.Statement{normalizeBlock(ctx, s)}

	case *ast.TryStatement:
		return []ast.Statement{normalizeTry(ctx, s)}

	case *ast.BreakStatement, *ast.ContinueStatement, *ast.GotoState:
		return []ast.Statement{s}

	default:
		return []ast.Statement{s}
	}
}

func normalizeAsBlock(ctx *Context, s ast.Statement) ast.Statement {
	if s == nil {
		return &ast.BlockStatement{}
	}
	if b, ok := s.(*ast.BlockStatement); ok {
		return normalizeBlock(ctx, b)
	}
	stmts := normalizeStmt(ctx, s)
	return &ast.BlockStatement{Statements: stmts}
}

func normalizeAsBlockOrNil(ctx *Context, s ast.Statement) ast.Statement {
	if s == nil {
		return nil
	}
	return normalizeAsBlock(ctx, s)
}

// normalizeWhile implements spec §4.2's while rule: when the
// condition itself contains a yield, it cannot be re-evaluated safely
// at the top of every iteration via a plain expression, so the
// condition's prelude statements are hoisted into the loop body ahead
// of an explicit "if not(cond): break".
func normalizeWhile(ctx *Context, s *ast.WhileStatement) *ast.WhileStatement {
	if !containsYield(s.Condition) {
		return &ast.WhileStatement{Token: s.Token, Label: s.Label, Condition: s.Condition, Body: normalizeAsBlock(ctx, s.Body)}
	}
	condRepl, condPrelude := exprNormalize(ctx, s.Condition)
	guard := &ast.IfStatement{
		Condition:   &ast.UnaryExpression{Operator: "not", Operand: condRepl},
		Consequence: &ast.BlockStatement{Statements: []ast.Statement{&ast.BreakStatement{Label: s.Label}}},
	}
	body := append(append([]ast.Statement{}, condPrelude...), guard)
	bodyStmts := normalizeStmt(ctx, s.Body)
	body = append(body, bodyStmts...)
	return &ast.WhileStatement{
		Token:     s.Token,
		Label:     s.Label,
		Condition: &ast.BooleanLiteral{Value: true},
		Body:      &ast.BlockStatement{Statements: body},
	}
}

func normalizeTry(ctx *Context, s *ast.TryStatement) *ast.TryStatement {
	out := &ast.TryStatement{Token: s.Token, TryBlock: normalizeBlock(ctx, s.TryBlock)}
	if s.ExceptClause != nil {
		handlers := make([]*ast.ExceptionHandler, len(s.ExceptClause.Handlers))
		for i, h := range s.ExceptClause.Handlers {
			handlers[i] = &ast.ExceptionHandler{Token: h.Token, Variable: h.Variable, ExceptionType: h.ExceptionType, Body: normalizeAsBlock(ctx, h.Body)}
		}
		out.ExceptClause = &ast.ExceptClause{
			Token:     s.ExceptClause.Token,
			Handlers:  handlers,
			ElseBlock: normalizeBlockOrNil(ctx, s.ExceptClause.ElseBlock),
		}
	}
	if s.FinallyClause != nil {
		out.FinallyClause = &ast.FinallyClause{Token: s.FinallyClause.Token, Body: normalizeBlock(ctx, s.FinallyClause.Body)}
	}
	return out
}

func normalizeBlockOrNil(ctx *Context, b *ast.BlockStatement) *ast.BlockStatement {
	if b == nil {
		return nil
	}
	return normalizeBlock(ctx, b)
}

// exprNormalize hoists every yield-bearing statement-list-expression
// out of expr, returning the expression that should appear in its
// place and the statements that must run immediately before it.
func exprNormalize(ctx *Context, expr ast.Expression) (ast.Expression, []ast.Statement) {
	if expr == nil {
		return nil, nil
	}
	switch e := expr.(type) {
	case *ast.StmtListExpr:
		return normalizeStmtListExpr(ctx, e)

	case *ast.BinaryExpression:
		if e.IsShortCircuit() && containsYield(e.Right) {
			return normalizeShortCircuit(ctx, e)
		}
		leftRepl, leftPrelude := exprNormalize(ctx, e.Left)
		rightRepl, rightPrelude := exprNormalize(ctx, e.Right)
		prelude := append(leftPrelude, rightPrelude...)
		return &ast.BinaryExpression{Token: e.Token, Left: leftRepl, Operator: e.Operator, Right: rightRepl}, prelude

	case *ast.UnaryExpression:
		repl, prelude := exprNormalize(ctx, e.Operand)
		return &ast.UnaryExpression{Token: e.Token, Operator: e.Operator, Operand: repl}, prelude

	case *ast.CallExpression:
		return normalizeCall(ctx, e)

	case *ast.IndexExpression:
		targetRepl, targetPrelude := exprNormalize(ctx, e.Target)
		indexRepl, indexPrelude := exprNormalize(ctx, e.Index)
		prelude := append(targetPrelude, indexPrelude...)
		return &ast.IndexExpression{Token: e.Token, Target: targetRepl, Index: indexRepl}, prelude

	case *ast.CastExpression:
		repl, prelude := exprNormalize(ctx, e.Operand)
		return &ast.CastExpression{Token: e.Token, TypeName: e.TypeName, Operand: repl, Hidden: e.Hidden}, prelude

	case *ast.IsExpression:
		repl, prelude := exprNormalize(ctx, e.Value)
		return &ast.IsExpression{Token: e.Token, Value: repl, TypeName: e.TypeName}, prelude

	case *ast.MemberExpression:
		repl, prelude := exprNormalize(ctx, e.Target)
		return &ast.MemberExpression{Token: e.Token, Target: repl, Field: e.Field}, prelude

	case *ast.TupleExpression:
		elems, prelude := normalizeExprList(ctx, e.Elements)
		return &ast.TupleExpression{Token: e.Token, Elements: elems}, prelude

	case *ast.ArrayLiteral:
		elems, prelude := normalizeExprList(ctx, e.Elements)
		return &ast.ArrayLiteral{Token: e.Token, Elements: elems}, prelude

	case *ast.ObjectLiteral:
		values := make([]ast.Expression, len(e.Fields))
		for i, f := range e.Fields {
			values[i] = f.Value
		}
		newValues, prelude := normalizeExprList(ctx, values)
		fields := make([]ast.ObjectField, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = ast.ObjectField{Name: f.Name, Value: newValues[i]}
		}
		return &ast.ObjectLiteral{Token: e.Token, Fields: fields}, prelude

	case *ast.TryExpression:
		return normalizeTryExpr(ctx, e)

	case *ast.LambdaExpression:
		return e, nil // opaque

	default:
		return expr, nil
	}
}

func normalizeStmtListExpr(ctx *Context, e *ast.StmtListExpr) (ast.Expression, []ast.Statement) {
	var prelude []ast.Statement
	for _, s := range e.Stmts {
		prelude = append(prelude, normalizeStmt(ctx, s)...)
	}
	valRepl, valPrelude := exprNormalize(ctx, e.Value)
	prelude = append(prelude, valPrelude...)
	if !containsYieldStmts(prelude) {
		return valRepl, prelude
	}
	tmp := ctx.NewTemp()
	prelude = append(prelude, assign(tmp, valRepl))
	return tmp, prelude
}

// normalizeShortCircuit rewrites "left and right" / "left or right"
// into an explicit if so that right, which contains a yield, is only
// ever evaluated when it must be (spec §4.2).
func normalizeShortCircuit(ctx *Context, e *ast.BinaryExpression) (ast.Expression, []ast.Statement) {
	leftRepl, leftPrelude := exprNormalize(ctx, e.Left)
	rightRepl, rightPrelude := exprNormalize(ctx, e.Right)
	tmp := ctx.NewTemp()

	guard := leftRepl
	if e.Operator == "or" {
		guard = &ast.UnaryExpression{Operator: "not", Operand: leftRepl}
	}
	rightAssign := append(append([]ast.Statement{}, rightPrelude...), assign(tmp, rightRepl))
	ifStmt := &ast.IfStatement{
		Condition:   guard,
		Consequence: &ast.BlockStatement{Statements: rightAssign},
		Alternative: &ast.BlockStatement{Statements: []ast.Statement{assign(tmp, leftRepl)}},
	}
	prelude := append(leftPrelude, ifStmt)
	return tmp, prelude
}

// normalizeCall implements the call-argument hoisting rule: each
// offending argument is hoisted, and once any argument in a
// multi-argument call needed hoisting, every other call-kind argument
// is also spilled into a temporary first, so reordering the hoisted
// statements around it can never change which call runs first.
func normalizeCall(ctx *Context, e *ast.CallExpression) (ast.Expression, []ast.Statement) {
	calleeRepl, prelude := exprNormalize(ctx, e.Callee)

	type argInfo struct {
		repl    ast.Expression
		prelude []ast.Statement
	}
	infos := make([]argInfo, len(e.Args))
	anyHoisted := false
	for i, a := range e.Args {
		repl, argPrelude := exprNormalize(ctx, a)
		infos[i] = argInfo{repl, argPrelude}
		if len(argPrelude) > 0 {
			anyHoisted = true
		}
	}

	multiArg := len(e.Args) > 1
	newArgs := make([]ast.Expression, len(e.Args))
	for i, a := range e.Args {
		prelude = append(prelude, infos[i].prelude...)
		repl := infos[i].repl
		if multiArg && anyHoisted && isCallKind(a) && len(infos[i].prelude) == 0 {
			tmp := ctx.NewTemp()
			prelude = append(prelude, assign(tmp, repl))
			repl = tmp
		}
		newArgs[i] = repl
	}
	return &ast.CallExpression{Token: e.Token, Callee: calleeRepl, Args: newArgs}, prelude
}

func normalizeExprList(ctx *Context, elems []ast.Expression) ([]ast.Expression, []ast.Statement) {
	var prelude []ast.Statement
	anyHoisted := false
	type info struct {
		repl ast.Expression
		pre  []ast.Statement
	}
	infos := make([]info, len(elems))
	for i, e := range elems {
		repl, p := exprNormalize(ctx, e)
		infos[i] = info{repl, p}
		if len(p) > 0 {
			anyHoisted = true
		}
	}
	out := make([]ast.Expression, len(elems))
	multi := len(elems) > 1
	for i, e := range elems {
		prelude = append(prelude, infos[i].pre...)
		repl := infos[i].repl
		if multi && anyHoisted && isCallKind(e) && len(infos[i].pre) == 0 {
			tmp := ctx.NewTemp()
			prelude = append(prelude, assign(tmp, repl))
			repl = tmp
		}
		out[i] = repl
	}
	return out, prelude
}

// normalizeTryExpr lowers a try used in expression position by
// assigning each branch's value into one shared temporary (spec
// §4.2); the finally clause, which produces no value, is left as is.
func normalizeTryExpr(ctx *Context, e *ast.TryExpression) (ast.Expression, []ast.Statement) {
	tmp := ctx.NewTemp()
	bodyRepl, bodyPrelude := exprNormalize(ctx, e.TryBlock)
	tryBlock := &ast.BlockStatement{Statements: append(bodyPrelude, assign(tmp, bodyRepl))}

	var exceptClause *ast.ExceptClause
	if e.ExceptClause != nil {
		handlers := make([]*ast.ExceptionHandler, len(e.ExceptClause.Handlers))
		for i, h := range e.ExceptClause.Handlers {
			handlers[i] = &ast.ExceptionHandler{Variable: h.Variable, ExceptionType: h.ExceptionType, Body: tailAssign(ctx, h.Body, tmp)}
		}
		var elseBlock *ast.BlockStatement
		if e.ExceptClause.ElseBlock != nil {
			elseBlock = tailAssign(ctx, e.ExceptClause.ElseBlock, tmp).(*ast.BlockStatement)
		}
		exceptClause = &ast.ExceptClause{Handlers: handlers, ElseBlock: elseBlock}
	}

	stmt := normalizeTry(ctx, &ast.TryStatement{
		Token:         e.Token,
		TryBlock:      tryBlock,
		ExceptClause:  exceptClause,
		FinallyClause: e.FinallyClause,
	})
	return tmp, []ast.Statement{stmt}
}

// tailAssign rewrites a branch body that evaluates to a value (an
// ExpressionStatement as its last statement) so that value is
// assigned into tmp instead of discarded.
func tailAssign(ctx *Context, s ast.Statement, tmp *ast.Identifier) ast.Statement {
	switch b := s.(type) {
	case *ast.ExpressionStatement:
		return &ast.BlockStatement{Statements: []ast.Statement{assign(tmp, b.Expr)}}
	case *ast.BlockStatement:
		if len(b.Statements) == 0 {
			return b
		}
		last := b.Statements[len(b.Statements)-1]
		if es, ok := last.(*ast.ExpressionStatement); ok {
			stmts := append(append([]ast.Statement{}, b.Statements[:len(b.Statements)-1]...), assign(tmp, es.Expr))
			return &ast.BlockStatement{Statements: stmts}
		}
		return b
	default:
		return s
	}
}

func assign(target ast.Expression, value ast.Expression) *ast.AssignStatement {
	return &ast.AssignStatement{Target: target, Value: value}
}
