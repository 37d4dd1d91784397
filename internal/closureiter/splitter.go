package closureiter

import (
	"fmt"

	"github.com/cwbudde/closureiter/internal/ast"
	"github.com/cwbudde/closureiter/internal/errors"
)

// Split is C5, the core splitting algorithm (spec §4.5). It walks the
// normalized generator body (C2 must already have run) and populates
// ctx with the full state list and exception table. State 0 is always
// the entry point; a GotoState with Target -1 means "exit".
//
// For-statements never reach here — this AST has no such node kind.
// A GotoState can still appear in stmts handed to splitList: C4
// (relocateLoopBreaks/relocateLabeledBreaks) rewrites a break/continue
// that targets a yield-spanning loop or labelled block into one before
// feeding the relocated body straight back through splitList (see
// splitWhile and the LabeledBlockStatement case in splitStmt below).
// splitList's GotoState case treats it exactly like any other
// unconditional jump: a terminal edge, with nothing after it reachable.
func Split(ctx *Context, body *ast.BlockStatement) {
	state0 := ctx.NewState()
	exit := &ast.GotoState{Target: -1}
	state0.Body = splitList(ctx, body.Statements, exit)
}

// splitList flattens stmts, returning the statements to run at the
// current position. It appends ordinary yield-free statements
// verbatim (after passNonYielding's return-rewrite pass) until it
// meets one that contains a yield; everything from there on is pushed
// into a freshly reserved state reached by the goto this call embeds
// in place of the yielding statement's own continuation, and the
// remainder of stmts is recursively split into that new state with
// out as its own out-edge. A relocated break/continue surfaces here as
// a bare GotoState (C4's doing, not malformed input) and, like a
// return, ends the list right there: whatever followed it in source
// is unreachable.
func splitList(ctx *Context, stmts []ast.Statement, out *ast.GotoState) []ast.Statement {
	var result []ast.Statement
	for i, s := range stmts {
		if g, ok := s.(*ast.GotoState); ok {
			result = append(result, gotoCopy(g))
			return result
		}
		if containsYield(s) {
			rest := ctx.NewState()
			g := &ast.GotoState{Target: rest.Index}
			result = append(result, splitStmt(ctx, s, g)...)
			rest.Body = splitList(ctx, stmts[i+1:], out)
			return result
		}
		result = append(result, passNonYielding(ctx, s))
	}
	result = append(result, gotoCopy(out))
	return result
}

// splitStmt transforms a single statement known to contain a yield
// somewhere within it, threading out as "what happens when this
// statement's own control flow falls through normally".
func splitStmt(ctx *Context, s ast.Statement, out *ast.GotoState) []ast.Statement {
	switch n := s.(type) {
	case *ast.YieldStatement:
		return []ast.Statement{n, gotoCopy(out)}

	case *ast.ReturnStatement:
		return []ast.Statement{rewriteReturn(ctx, n)}

	case *ast.IfStatement:
		cons := splitList(ctx, blockStmts(n.Consequence), out)
		var alt []ast.Statement
		if n.Alternative != nil {
			alt = splitList(ctx, blockStmts(n.Alternative), out)
		} else {
			alt = []ast.Statement{gotoCopy(out)}
		}
		return []ast.Statement{&ast.IfStatement{
			Token:       n.Token,
			Condition:   n.Condition,
			Consequence: &ast.BlockStatement{Statements: cons},
			Alternative: &ast.BlockStatement{Statements: alt},
		}}

	case *ast.CaseStatement:
		branches := make([]*ast.CaseBranch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = &ast.CaseBranch{
				Token:  b.Token,
				Values: b.Values,
				Body:   &ast.BlockStatement{Statements: splitList(ctx, blockStmts(b.Body), out)},
			}
		}
		var def []ast.Statement
		if n.Default != nil {
			def = splitList(ctx, blockStmts(n.Default), out)
		} else {
			def = []ast.Statement{gotoCopy(out)}
		}
		return []ast.Statement{&ast.CaseStatement{
			Token:    n.Token,
			Selector: n.Selector,
			Branches: branches,
			Default:  &ast.BlockStatement{Statements: def},
		}}

	case *ast.WhileStatement:
		return splitWhile(ctx, n, out)

	case *ast.LabeledBlockStatement:
		relocated := relocateLabeledBreaks(n.Label, n.Body, out)
		return splitList(ctx, blockStmts(relocated), out)

	case *ast.BlockStatement:
		return splitList(ctx, n.Statements, out)

	case *ast.TryStatement:
		return splitTry(ctx, n, out)

	default:
		panic(errors.NewInternalError(s.Pos(), "splitter", fmt.Sprintf("%T contains a yield but has no splitting rule", s)))
	}
}

// splitWhile implements spec §4.5's While rule: a fresh head state S
// whose body is "if condition then (lowered-body; implicit goto S)
// else goto-out", with the body first break/continue-relocated
// (continue → goto S, break → goto-out) and then recursively split
// with its own out-edge pointing back at S. A labelled while also has
// every "break <its label>" in its body turned into goto-out first.
// The caller's while node is replaced by a goto to S.
func splitWhile(ctx *Context, n *ast.WhileStatement, out *ast.GotoState) []ast.Statement {
	head := ctx.NewState()
	loopBack := &ast.GotoState{Target: head.Index}

	body := n.Body
	if n.Label != "" {
		body = relocateLabeledBreaks(n.Label, body, out)
	}
	relocated := relocateLoopBreaks(ctx, body, loopBack, out)
	lowered := splitList(ctx, blockStmts(relocated), loopBack)

	head.Body = []ast.Statement{
		&ast.IfStatement{
			Token:       n.Token,
			Condition:   n.Condition,
			Consequence: &ast.BlockStatement{Statements: lowered},
			Alternative: &ast.BlockStatement{Statements: []ast.Statement{gotoCopy(out)}},
		},
	}
	return []ast.Statement{gotoCopy(loopBack)}
}

// splitTry implements spec §4.5's Try rule. Three states are reserved
// up front (two when there is no except clause, per the resolved Open
// Question: the try-body's table entry then points straight at the
// finally, encoded the same way a finally successor always is), so
// that any further states created while splitting the try-block
// itself land after all three regardless of how many yields it
// contains.
//
// Returns unwind through nearestFinally alone, skipping every
// enclosing except — a return must never be intercepted by a type
// handler. That chain is resolved statically here, not through the
// exception table: each finally's end-finally node has the index of
// the next enclosing finally (or "none") baked in directly from
// outer.nearestFinally, captured before this try's own scope took
// over. Raised exceptions, in contrast, always travel through the
// table via a real raise, so an outer except clause can still catch
// them — that asymmetry is exactly why return and raise need separate
// propagation paths despite sharing :unrollFinally/:curExc/:tmpResult.
func splitTry(ctx *Context, n *ast.TryStatement, out *ast.GotoState) []ast.Statement {
	ctx.MarkHasExceptions()
	outer := ctx.Snapshot()
	hasExcept := n.ExceptClause != nil

	tryRaw := len(ctx.States())
	var exceptRaw, finallyRaw int
	if hasExcept {
		exceptRaw = tryRaw + 1
		finallyRaw = tryRaw + 2
	} else {
		finallyRaw = tryRaw + 1
	}

	if hasExcept {
		ctx.curExcHandlingState = int(encodeExcept(exceptRaw))
	} else {
		ctx.curExcHandlingState = int(encodeFinally(finallyRaw))
	}
	tryState := ctx.NewState()

	var exceptState *State
	if hasExcept {
		ctx.curExcHandlingState = int(encodeFinally(finallyRaw))
		exceptState = ctx.NewState()
	}

	ctx.curExcHandlingState = outer.curExcHandlingState
	finallyState := ctx.NewState()

	if tryState.Index != tryRaw || finallyState.Index != finallyRaw || (hasExcept && exceptState.Index != exceptRaw) {
		panic(errors.NewInternalError(n.Pos(), "splitter", "try/except/finally state indices drifted from their reserved slots"))
	}

	ctx.nearestFinally = finallyRaw
	if hasExcept {
		ctx.curExcHandlingState = int(encodeExcept(exceptRaw))
	} else {
		ctx.curExcHandlingState = int(encodeFinally(finallyRaw))
	}
	tryBody := append(append([]ast.Statement{}, n.TryBlock.Statements...), elseStmts(n.ExceptClause)...)
	tryState.Body = splitList(ctx, tryBody, &ast.GotoState{Target: finallyRaw})

	if hasExcept {
		ctx.curExcHandlingState = int(encodeFinally(finallyRaw))
		exceptState.Body = buildExceptChain(ctx, n.ExceptClause, finallyRaw)
	}

	ctx.Restore(outer)
	var finallyStmts []ast.Statement
	if n.FinallyClause != nil {
		finallyStmts = append(finallyStmts, n.FinallyClause.Body.Statements...)
	}
	finallyStmts = append(finallyStmts, buildEndFinally(ctx, outer.nearestFinally))
	finallyState.Body = splitList(ctx, finallyStmts, out)

	return []ast.Statement{&ast.GotoState{Target: tryRaw}}
}

// buildExceptChain compiles the handlers into a chain of "if
// getCurrentException() is T then <body> else <next>" tests, ending in
// the synthesised re-raise path (spec §4.5): mark :unrollFinally,
// capture :curExc, and proceed to finallyRaw. An except clause with no
// handlers compiles to just that re-raise path, which is exactly
// right — such a clause matches nothing, so control always passes
// through to the enclosing finally unchanged.
func buildExceptChain(ctx *Context, ec *ast.ExceptClause, finallyRaw int) []ast.Statement {
	finallyGoto := &ast.GotoState{Target: finallyRaw}
	reraise := []ast.Statement{
		assign(ctx.EnsureVar(":unrollFinally"), &ast.BooleanLiteral{Value: true}),
		assign(ctx.EnsureVar(":curExc"), runtimeCall("getCurrentException")),
		gotoCopy(finallyGoto),
	}

	chain := reraise
	for i := len(ec.Handlers) - 1; i >= 0; i-- {
		h := ec.Handlers[i]
		body := append([]ast.Statement{}, blockStmts(h.Body)...)
		if h.Variable != nil {
			bind := &ast.AssignStatement{Target: h.Variable, Value: runtimeCall("getCurrentException")}
			body = append([]ast.Statement{bind}, body...)
		}
		lowered := splitList(ctx, body, finallyGoto)
		cond := &ast.IsExpression{Token: h.Token, Value: runtimeCall("getCurrentException"), TypeName: h.ExceptionType}
		chain = []ast.Statement{&ast.IfStatement{
			Token:       h.Token,
			Condition:   cond,
			Consequence: &ast.BlockStatement{Statements: lowered},
			Alternative: &ast.BlockStatement{Statements: chain},
		}}
	}
	return chain
}

// buildEndFinally is the "end-finally" node appended to every finally
// body (spec's glossary entry for the term): when :unrollFinally is
// set it either continues the return-unwind (goto the next enclosing
// finally, or perform the real return once there is none) or
// re-raises :curExc to continue an exception's propagation through
// the real, dynamic exception table; otherwise it does nothing,
// falling through to whatever the finally's own out-edge is.
func buildEndFinally(ctx *Context, outerNearestFinally int) ast.Statement {
	noExc := &ast.BinaryExpression{
		Left:     ctx.EnsureVar(":curExc"),
		Operator: "==",
		Right:    &ast.NilLiteral{},
	}
	var returnUnroll ast.Statement
	if outerNearestFinally >= 0 {
		returnUnroll = &ast.GotoState{Target: outerNearestFinally}
	} else {
		returnUnroll = &ast.ReturnStatement{Value: ctx.EnsureVar(":tmpResult")}
	}
	return &ast.IfStatement{
		Condition: ctx.EnsureVar(":unrollFinally"),
		Consequence: &ast.BlockStatement{Statements: []ast.Statement{
			&ast.IfStatement{
				Condition:   noExc,
				Consequence: &ast.BlockStatement{Statements: []ast.Statement{returnUnroll}},
				Alternative: &ast.BlockStatement{Statements: []ast.Statement{&ast.RaiseStatement{Value: ctx.EnsureVar(":curExc")}}},
			},
		}},
	}
}

// passNonYielding copies a statement proven free of yields, rewriting
// any return still reachable under an active finally scope (spec
// §4.3's protocol applies however deep the return sits, not only
// right at a yield boundary) but stopping at any nested TryStatement:
// such a try contains no yield either (its parent doesn't), so it was
// never flattened and the host language's own try/finally already
// runs correctly on a return inside it.
func passNonYielding(ctx *Context, s ast.Statement) ast.Statement {
	if s == nil || ctx.nearestFinally < 0 {
		return s
	}
	switch n := s.(type) {
	case *ast.ReturnStatement:
		return rewriteReturn(ctx, n)

	case *ast.BlockStatement:
		out := make([]ast.Statement, len(n.Statements))
		for i, st := range n.Statements {
			out[i] = passNonYielding(ctx, st)
		}
		return &ast.BlockStatement{Token: n.Token, Statements: out}

	case *ast.LabeledBlockStatement:
		return &ast.LabeledBlockStatement{Token: n.Token, Label: n.Label, Body: passNonYielding(ctx, n.Body)}

	case *ast.WhileStatement:
		return &ast.WhileStatement{Token: n.Token, Label: n.Label, Condition: n.Condition, Body: passNonYielding(ctx, n.Body)}

	case *ast.IfStatement:
		return &ast.IfStatement{
			Token:       n.Token,
			Condition:   n.Condition,
			Consequence: passNonYielding(ctx, n.Consequence),
			Alternative: passNonYielding(ctx, n.Alternative),
		}

	case *ast.CaseStatement:
		branches := make([]*ast.CaseBranch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = &ast.CaseBranch{Token: b.Token, Values: b.Values, Body: passNonYielding(ctx, b.Body)}
		}
		return &ast.CaseStatement{Token: n.Token, Selector: n.Selector, Branches: branches, Default: passNonYielding(ctx, n.Default)}

	default:
		return s
	}
}

func blockStmts(s ast.Statement) []ast.Statement {
	b, ok := s.(*ast.BlockStatement)
	if !ok {
		panic(errors.NewInternalError(s.Pos(), "splitter", fmt.Sprintf("expected a normalized block, got %T", s)))
	}
	return b.Statements
}

func elseStmts(ec *ast.ExceptClause) []ast.Statement {
	if ec == nil || ec.ElseBlock == nil {
		return nil
	}
	return ec.ElseBlock.Statements
}

func gotoCopy(g *ast.GotoState) *ast.GotoState {
	return &ast.GotoState{Token: g.Token, Target: g.Target}
}

func runtimeCall(name string) *ast.CallExpression {
	return &ast.CallExpression{Callee: &ast.Identifier{Name: name}}
}

// encodeFinally/encodeExcept/noHandler are the exception-table value
// encoding (spec §3 and the resolved Open Question): 0 means no
// enclosing handler, a positive entry is a finally-state index plus
// one, a negative entry is minus (an except-state index plus one).
// The plus-one shift is what lets state 0 itself be a legal handler
// target without colliding with the "no handler" sentinel.
const noHandler int16 = 0

func encodeFinally(stateIdx int) int16 { return int16(stateIdx + 1) }
func encodeExcept(stateIdx int) int16  { return int16(-(stateIdx + 1)) }

// decodeHandler reverses the encoding above; C8 uses it to turn a
// table entry back into a concrete state index and a flag for whether
// that state is an except handler (true) or a finally (false).
func decodeHandler(v int16) (stateIdx int, isExcept bool, ok bool) {
	if v == noHandler {
		return 0, false, false
	}
	if v < 0 {
		return int(-v) - 1, true, true
	}
	return int(v) - 1, false, true
}
