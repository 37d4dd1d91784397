package closureiter

import "github.com/cwbudde/closureiter/internal/ast"

// relocateLoopBreaks is C4 (spec §4.4), invoked on the body of a while
// during its lowering in C5. before targets the loop head (continue),
// after targets the loop exit (break). A nested LabeledBlockStatement
// bumps ctx.blockLevel while its body is walked, so an unlabelled
// break written inside it is left alone — it belongs to that block,
// not to this while — matching how break binds to the nearest
// enclosing block-or-loop. A nested WhileStatement is not recursed
// into at all: its own break/continue refer to itself and are
// relocated separately, when that while is itself lowered.
//
// Labelled breaks are never touched here; a labelled break can target
// a block arbitrarily far outside this while (or nest several while
// levels down from the block that owns it), so resolving it is left
// entirely to relocateLabeledBreaks, run once per LabeledBlockStatement
// and once per labelled WhileStatement as C5 reaches it.
func relocateLoopBreaks(ctx *Context, stmt ast.Statement, before, after *ast.GotoState) ast.Statement {
	if stmt == nil {
		return nil
	}
	switch s := stmt.(type) {
	case *ast.WhileStatement:
		return s

	case *ast.LabeledBlockStatement:
		saved := ctx.Snapshot()
		ctx.blockLevel++
		newBody := relocateLoopBreaks(ctx, s.Body, before, after)
		ctx.Restore(saved)
		return &ast.LabeledBlockStatement{Token: s.Token, Label: s.Label, Body: newBody}

	case *ast.BlockStatement:
		out := make([]ast.Statement, len(s.Statements))
		for i, st := range s.Statements {
			out[i] = relocateLoopBreaks(ctx, st, before, after)
		}
		return &ast.BlockStatement{Token: s.Token, Statements: out}

	case *ast.IfStatement:
		return &ast.IfStatement{
			Token:       s.Token,
			Condition:   s.Condition,
			Consequence: relocateLoopBreaks(ctx, s.Consequence, before, after),
			Alternative: relocateLoopBreaks(ctx, s.Alternative, before, after),
		}

	case *ast.CaseStatement:
		branches := make([]*ast.CaseBranch, len(s.Branches))
		for i, b := range s.Branches {
			branches[i] = &ast.CaseBranch{Token: b.Token, Values: b.Values, Body: relocateLoopBreaks(ctx, b.Body, before, after)}
		}
		return &ast.CaseStatement{
			Token:    s.Token,
			Selector: s.Selector,
			Branches: branches,
			Default:  relocateLoopBreaks(ctx, s.Default, before, after),
		}

	case *ast.TryStatement:
		out := &ast.TryStatement{Token: s.Token, TryBlock: relocateLoopBreaks(ctx, s.TryBlock, before, after).(*ast.BlockStatement)}
		if s.ExceptClause != nil {
			handlers := make([]*ast.ExceptionHandler, len(s.ExceptClause.Handlers))
			for i, h := range s.ExceptClause.Handlers {
				handlers[i] = &ast.ExceptionHandler{Token: h.Token, Variable: h.Variable, ExceptionType: h.ExceptionType, Body: relocateLoopBreaks(ctx, h.Body, before, after)}
			}
			var elseBlock *ast.BlockStatement
			if s.ExceptClause.ElseBlock != nil {
				elseBlock = relocateLoopBreaks(ctx, s.ExceptClause.ElseBlock, before, after).(*ast.BlockStatement)
			}
			out.ExceptClause = &ast.ExceptClause{Token: s.ExceptClause.Token, Handlers: handlers, ElseBlock: elseBlock}
		}
		if s.FinallyClause != nil {
			out.FinallyClause = &ast.FinallyClause{Token: s.FinallyClause.Token, Body: relocateLoopBreaks(ctx, s.FinallyClause.Body, before, after).(*ast.BlockStatement)}
		}
		return out

	case *ast.BreakStatement:
		if s.Label != "" {
			return s
		}
		if ctx.blockLevel == 0 {
			return &ast.GotoState{Token: after.Token, Target: after.Target}
		}
		return s

	case *ast.ContinueStatement:
		return &ast.GotoState{Token: before.Token, Target: before.Target}

	case *ast.ProcedureDefinition:
		return s

	default:
		return s
	}
}

// relocateLabeledBreaks is the "separate helper" spec §4.4 mentions
// for labelled break: run once, by C5, when it reaches a
// LabeledBlockStatement or a labelled WhileStatement, over that
// construct's *entire* body — crossing
// into nested whiles and nested blocks, since the labelled break it is
// hunting for may sit arbitrarily deep inside either. Every `break
// label` matching this block's label becomes a copy of target (the
// block's own out-edge); every other break/continue is left
// completely untouched for its own construct to relocate later.
func relocateLabeledBreaks(label string, stmt ast.Statement, target *ast.GotoState) ast.Statement {
	if stmt == nil {
		return nil
	}
	switch s := stmt.(type) {
	case *ast.BreakStatement:
		if s.Label == label {
			return &ast.GotoState{Token: target.Token, Target: target.Target}
		}
		return s

	case *ast.BlockStatement:
		out := make([]ast.Statement, len(s.Statements))
		for i, st := range s.Statements {
			out[i] = relocateLabeledBreaks(label, st, target)
		}
		return &ast.BlockStatement{Token: s.Token, Statements: out}

	case *ast.LabeledBlockStatement:
		return &ast.LabeledBlockStatement{Token: s.Token, Label: s.Label, Body: relocateLabeledBreaks(label, s.Body, target)}

	case *ast.WhileStatement:
		return &ast.WhileStatement{Token: s.Token, Label: s.Label, Condition: s.Condition, Body: relocateLabeledBreaks(label, s.Body, target)}

	case *ast.IfStatement:
		return &ast.IfStatement{
			Token:       s.Token,
			Condition:   s.Condition,
			Consequence: relocateLabeledBreaks(label, s.Consequence, target),
			Alternative: relocateLabeledBreaks(label, s.Alternative, target),
		}

	case *ast.CaseStatement:
		branches := make([]*ast.CaseBranch, len(s.Branches))
		for i, b := range s.Branches {
			branches[i] = &ast.CaseBranch{Token: b.Token, Values: b.Values, Body: relocateLabeledBreaks(label, b.Body, target)}
		}
		return &ast.CaseStatement{Token: s.Token, Selector: s.Selector, Branches: branches, Default: relocateLabeledBreaks(label, s.Default, target)}

	case *ast.TryStatement:
		out := &ast.TryStatement{Token: s.Token, TryBlock: relocateLabeledBreaks(label, s.TryBlock, target).(*ast.BlockStatement)}
		if s.ExceptClause != nil {
			handlers := make([]*ast.ExceptionHandler, len(s.ExceptClause.Handlers))
			for i, h := range s.ExceptClause.Handlers {
				handlers[i] = &ast.ExceptionHandler{Token: h.Token, Variable: h.Variable, ExceptionType: h.ExceptionType, Body: relocateLabeledBreaks(label, h.Body, target)}
			}
			var elseBlock *ast.BlockStatement
			if s.ExceptClause.ElseBlock != nil {
				elseBlock = relocateLabeledBreaks(label, s.ExceptClause.ElseBlock, target).(*ast.BlockStatement)
			}
			out.ExceptClause = &ast.ExceptClause{Token: s.ExceptClause.Token, Handlers: handlers, ElseBlock: elseBlock}
		}
		if s.FinallyClause != nil {
			out.FinallyClause = &ast.FinallyClause{Token: s.FinallyClause.Token, Body: relocateLabeledBreaks(label, s.FinallyClause.Body, target).(*ast.BlockStatement)}
		}
		return out

	case *ast.ProcedureDefinition:
		return s

	default:
		return s
	}
}
