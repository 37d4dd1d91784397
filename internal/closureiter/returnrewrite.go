package closureiter

import "github.com/cwbudde/closureiter/internal/ast"

// rewriteReturn is C3, the return-in-try rewriter (spec §4.3). The
// splitter (C5) calls it for every ReturnStatement it encounters while
// ctx.nearestFinally is scoped to a known finally state — including
// returns nested inside an except handler or a nested try, since
// entering a nested try re-scopes nearestFinally to the inner finally
// rather than shielding the outer one (spec §4.3, "nested tries do
// not shield").
//
// Outside any try (ctx.nearestFinally == -1) a return is left
// untouched; C6 later turns it into the terminal ":state := -1;
// return e" form.
func rewriteReturn(ctx *Context, s *ast.ReturnStatement) ast.Statement {
	if ctx.nearestFinally < 0 {
		return s
	}

	stmts := []ast.Statement{
		assign(ctx.EnsureVar(":unrollFinally"), &ast.BooleanLiteral{Value: true}),
	}
	if s.Value != nil {
		stmts = append(stmts, assign(ctx.EnsureVar(":tmpResult"), s.Value))
	}
	stmts = append(stmts,
		assign(ctx.EnsureVar(":curExc"), &ast.NilLiteral{}),
		&ast.GotoState{Target: ctx.nearestFinally},
	)
	return &ast.BlockStatement{Token: s.Token, Statements: stmts}
}
