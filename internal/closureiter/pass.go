package closureiter

import (
	"github.com/cwbudde/closureiter/internal/ast"
	"github.com/cwbudde/closureiter/internal/errors"
)

// Lower runs the full pipeline over one generator function: C2
// (Normalize) flattens statement-list-expressions, C5 (Split) walks
// the normalized body building the raw state list and exception
// table, C7 (Eliminate) compacts away trivial forwarding states, C6
// (Materialize) turns the surviving GotoState/Yield edges into real
// assignments and control flow, and C8 (Dispatch) assembles the final
// while/state-loop shell. env is only consulted when fn.PostLifting is
// true; pass nil otherwise.
//
// Every internal inconsistency the pipeline detects (a malformed
// input the components above assume was already ruled out upstream)
// surfaces as a panic with *errors.InternalError; Lower recovers it
// into a plain error. A panic with any other value is re-raised
// unchanged.
func Lower(fn *ast.GeneratorFunction, env EnvAccessor) (result *ast.ProcedureDefinition, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ierr, ok := r.(*errors.InternalError); ok {
				err = errors.Wrap(ierr)
				return
			}
			panic(r)
		}
	}()

	ctx := NewContext(fn.PostLifting, env)
	normalized := Normalize(ctx, fn.Body)
	Split(ctx, normalized)
	Eliminate(ctx)
	Materialize(ctx, ctx.States())
	body := Dispatch(ctx)

	return &ast.ProcedureDefinition{Token: fn.Token, Name: fn.Name, Body: body}, nil
}
