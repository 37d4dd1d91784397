// Package errors formats the internal invariant violations the
// closure-iterator pass can raise (spec §7). These are bugs in an
// upstream pass or in this one, never user-visible semantic errors —
// the pass assumes its input already passed semantic analysis.
package errors

import (
	"fmt"

	"github.com/cwbudde/closureiter/internal/lexer"
)

// InternalError reports that the pass encountered an AST shape it
// assumes can never occur: a for-loop that should have been desugared
// before this pass ran, a goto-state surfacing before C6 rewrote it,
// or a state-index prediction that disagreed with the state actually
// created. Callers must not attempt to recover from it.
type InternalError struct {
	Pos     lexer.Position
	Kind    string
	Message string
}

// NewInternalError builds an InternalError for the given offending
// node kind and position.
func NewInternalError(pos lexer.Position, kind, message string) *InternalError {
	return &InternalError{Pos: pos, Kind: kind, Message: message}
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error at %s (%s): %s", e.Pos, e.Kind, e.Message)
}

// Wrap propagates a failure from a synthesis helper (symbol or type
// construction) unchanged, per spec §7's propagation rule: the pass
// does not catch or transform errors raised by its collaborators.
func Wrap(err error) error {
	return err
}
