package closureiter

import (
	"github.com/cwbudde/closureiter/internal/ast"
	"github.com/cwbudde/closureiter/internal/errors"
	"github.com/cwbudde/closureiter/internal/lexer"
)

// Eliminate is C7, the empty-state eliminator (spec §4.7). A trivial
// forwarding state is one whose entire body, after State.bareGoto
// unwraps any bare block wrappers C5 leaves behind, is a single
// goto-state — state 0 is never a candidate, since it must remain the
// entry point regardless of what its body reduces to. Eliminate
// redirects every reference to such a state (inside other state
// bodies and the exception table) straight to the end of its
// forwarding chain, then deletes the now-unreachable states and
// renumbers everything that survives into a dense 0..N-1 index space.
//
// Before that it appends the exit state, whose body is goto-state(-1),
// and redirects every other goto-state that resolves to -1 to it: a
// yield whose successor is the end of the generator then suspends at
// a real state index, and the generator finishes on the next call.
// The exit state is never a forwarding candidate.
//
// Runs after C5 (the splitter) and before C6 (materialize), so every
// edge it rewrites is still a raw GotoState node.
func Eliminate(ctx *Context) {
	exit := ctx.NewState()
	exit.Body = []ast.Statement{&ast.GotoState{Target: -1}}
	ctx.table[exit.Index] = noHandler

	forward := map[int]int{}
	for i, s := range ctx.states {
		if i == 0 || i == exit.Index {
			continue
		}
		if g, ok := s.bareGoto(); ok {
			forward[i] = g.Target
		}
	}
	chase := chaseForwarding(forward)
	resolve := func(target int) int {
		if n := chase(target); n >= 0 {
			return n
		}
		return exit.Index
	}

	for _, s := range ctx.states {
		if s == exit {
			continue
		}
		s.Body = rewriteGotosList(s.Body, resolve)
	}
	for i, v := range ctx.table {
		ctx.table[i] = reencode(resolve, v)
	}

	remap := make(map[int]int, len(ctx.states))
	var newStates []*State
	var newTable []int16
	for i, s := range ctx.states {
		if _, dead := forward[i]; dead {
			continue
		}
		remap[i] = len(newStates)
		newStates = append(newStates, s)
		newTable = append(newTable, ctx.table[i])
	}

	renumber := func(target int) int {
		if target < 0 {
			return target
		}
		n, ok := remap[target]
		if !ok {
			panic(errors.NewInternalError(lexer.Position{}, "eliminate", "goto-state targets a deleted state after forwarding resolution"))
		}
		return n
	}
	for i, s := range newStates {
		s.Body = rewriteGotosList(s.Body, renumber)
		s.Index = i
	}
	for i, v := range newTable {
		newTable[i] = reencode(renumber, v)
	}

	ctx.states = newStates
	ctx.table = newTable
}

// chaseForwarding builds a resolver that follows a chain of forwarding
// states to its end in one step, bounded by a seen-set so a cycle
// (which would mean an earlier pass produced a state machine that can
// never make progress) surfaces as an internal error rather than an
// infinite loop.
func chaseForwarding(forward map[int]int) func(int) int {
	return func(target int) int {
		if target < 0 {
			return target
		}
		seen := map[int]bool{}
		cur := target
		for {
			if seen[cur] {
				panic(errors.NewInternalError(lexer.Position{}, "eliminate", "infinite goto-state forwarding chain"))
			}
			seen[cur] = true
			next, ok := forward[cur]
			if !ok {
				return cur
			}
			cur = next
		}
	}
}

func rewriteGotosList(stmts []ast.Statement, resolve func(int) int) []ast.Statement {
	out := make([]ast.Statement, len(stmts))
	for i, s := range stmts {
		out[i] = rewriteGotos(s, resolve)
	}
	return out
}

// rewriteGotos walks one statement, replacing every GotoState.Target
// via resolve. It stops at a native TryStatement: such a try contains
// no yield (nothing inside this pass ever splits one that does, so if
// it has survived this far untouched it has no GotoState within it to
// rewrite) and at ProcedureDefinition, opaque as everywhere else.
func rewriteGotos(s ast.Statement, resolve func(int) int) ast.Statement {
	switch n := s.(type) {
	case *ast.GotoState:
		return &ast.GotoState{Token: n.Token, Target: resolve(n.Target)}

	case *ast.BlockStatement:
		return &ast.BlockStatement{Token: n.Token, Statements: rewriteGotosList(n.Statements, resolve)}

	case *ast.LabeledBlockStatement:
		return &ast.LabeledBlockStatement{Token: n.Token, Label: n.Label, Body: rewriteGotosOrNil(n.Body, resolve)}

	case *ast.WhileStatement:
		return &ast.WhileStatement{Token: n.Token, Label: n.Label, Condition: n.Condition, Body: rewriteGotosOrNil(n.Body, resolve)}

	case *ast.IfStatement:
		return &ast.IfStatement{
			Token:       n.Token,
			Condition:   n.Condition,
			Consequence: rewriteGotosOrNil(n.Consequence, resolve),
			Alternative: rewriteGotosOrNil(n.Alternative, resolve),
		}

	case *ast.CaseStatement:
		branches := make([]*ast.CaseBranch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = &ast.CaseBranch{Token: b.Token, Values: b.Values, Body: rewriteGotosOrNil(b.Body, resolve)}
		}
		return &ast.CaseStatement{Token: n.Token, Selector: n.Selector, Branches: branches, Default: rewriteGotosOrNil(n.Default, resolve)}

	default:
		return s
	}
}

func rewriteGotosOrNil(s ast.Statement, resolve func(int) int) ast.Statement {
	if s == nil {
		return nil
	}
	return rewriteGotos(s, resolve)
}

func reencode(resolve func(int) int, v int16) int16 {
	idx, isExcept, ok := decodeHandler(v)
	if !ok {
		return noHandler
	}
	if isExcept {
		return encodeExcept(resolve(idx))
	}
	return encodeFinally(resolve(idx))
}
