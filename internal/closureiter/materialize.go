package closureiter

import (
	"github.com/cwbudde/closureiter/internal/ast"
	"github.com/cwbudde/closureiter/internal/errors"
)

// stateLoopLabel names the outer dispatch loop C8 builds; a bare
// goto-state breaks out of the current switch/if nesting back to it
// so the next iteration re-dispatches on the new :state value.
const stateLoopLabel = ":state-loop"

// resultSlotName is "result-of-closure-iter" (spec's glossary term):
// the pre-existing symbol a yield's value is written into for the
// caller to read. Unlike ":state"/":tmpResult"/etc it isn't minted by
// this pass, but it goes through the same pre/post-lifting accessor
// as everything else C1 manages, so it is threaded through
// ctx.EnsureVar like any other synthetic handle.
const resultSlotName = "result-of-closure-iter"

// Materialize is C6. It rewrites every GotoState edge C5 left behind
// into the state-assignment form that actually drives the dispatch
// loop, and expands each surviving YieldStatement into its
// suspend-and-return form. Run it after C7 has renumbered and
// compacted the state list, so the indices baked in here are final.
func Materialize(ctx *Context, states []*State) {
	for _, st := range states {
		st.Body = materializeList(ctx, st.Body)
	}
}

func materializeList(ctx *Context, stmts []ast.Statement) []ast.Statement {
	var out []ast.Statement
	for i := 0; i < len(stmts); i++ {
		s := stmts[i]
		switch n := s.(type) {
		case *ast.YieldStatement:
			if i+1 >= len(stmts) {
				panic(errors.NewInternalError(n.Pos(), "materialize", "yield not immediately followed by a goto-state"))
			}
			g, ok := stmts[i+1].(*ast.GotoState)
			if !ok {
				panic(errors.NewInternalError(n.Pos(), "materialize", "yield not immediately followed by a goto-state"))
			}
			out = append(out, materializeYield(ctx, n, g)...)
			i++

		case *ast.GotoState:
			out = append(out, materializeGoto(ctx, n)...)

		case *ast.ReturnStatement:
			out = append(out, materializeReturn(ctx, n)...)

		default:
			out = append(out, materializeNode(ctx, s))
		}
	}
	return out
}

// materializeYield is the "{yield e; goto N}" rule: suspend by storing
// N into :state and e into the result slot, then a plain return hands
// control back to the caller.
func materializeYield(ctx *Context, y *ast.YieldStatement, g *ast.GotoState) []ast.Statement {
	stmts := []ast.Statement{assign(ctx.EnsureVar(":state"), stateTarget(g))}
	if y.Value != nil {
		stmts = append(stmts, assign(ctx.EnsureVar(resultSlotName), y.Value))
	}
	stmts = append(stmts, &ast.ReturnStatement{Token: y.Token})
	return stmts
}

// materializeGoto is the bare "goto N" rule: set :state and loop the
// dispatch back around rather than returning to the caller.
func materializeGoto(ctx *Context, g *ast.GotoState) []ast.Statement {
	return []ast.Statement{
		assign(ctx.EnsureVar(":state"), stateTarget(g)),
		&ast.BreakStatement{Token: g.Token, Label: stateLoopLabel},
	}
}

// materializeReturn is the bare "return e" rule: mark the state
// machine done (-1) before actually returning.
func materializeReturn(ctx *Context, r *ast.ReturnStatement) []ast.Statement {
	return []ast.Statement{
		assign(ctx.EnsureVar(":state"), &ast.IntegerLiteral{Value: -1}),
		&ast.ReturnStatement{Token: r.Token, Value: r.Value},
	}
}

func stateTarget(g *ast.GotoState) ast.Expression {
	return &ast.IntegerLiteral{Value: int64(g.Target)}
}

// materializeNode recurses into the structured control flow C5 leaves
// nested inside a single state's body (if/case/while/block wrappers
// built while splitting, and the label wrapper C4 never removes). A
// TryStatement reaching here is always a native, untouched one (it
// had no yield, so C5 never split it) and needs no rewriting.
func materializeNode(ctx *Context, s ast.Statement) ast.Statement {
	switch n := s.(type) {
	case *ast.BlockStatement:
		return &ast.BlockStatement{Token: n.Token, Statements: materializeList(ctx, n.Statements)}

	case *ast.LabeledBlockStatement:
		return &ast.LabeledBlockStatement{Token: n.Token, Label: n.Label, Body: materializeNodeOrNil(ctx, n.Body)}

	case *ast.WhileStatement:
		return &ast.WhileStatement{Token: n.Token, Label: n.Label, Condition: n.Condition, Body: materializeNodeOrNil(ctx, n.Body)}

	case *ast.IfStatement:
		return &ast.IfStatement{
			Token:       n.Token,
			Condition:   n.Condition,
			Consequence: materializeNodeOrNil(ctx, n.Consequence),
			Alternative: materializeNodeOrNil(ctx, n.Alternative),
		}

	case *ast.CaseStatement:
		branches := make([]*ast.CaseBranch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = &ast.CaseBranch{Token: b.Token, Values: b.Values, Body: materializeNodeOrNil(ctx, b.Body)}
		}
		return &ast.CaseStatement{Token: n.Token, Selector: n.Selector, Branches: branches, Default: materializeNodeOrNil(ctx, n.Default)}

	default:
		return s
	}
}

func materializeNodeOrNil(ctx *Context, s ast.Statement) ast.Statement {
	if s == nil {
		return nil
	}
	return materializeNode(ctx, s)
}
