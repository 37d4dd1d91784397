package closureiter

import "github.com/cwbudde/closureiter/internal/ast"

// State is one maximal straight-line fragment of the generator's body
// containing no yields (spec §3, "State"). Index is assigned in
// creation order; index 0 is always the entry state.
type State struct {
	Index int
	Body  []ast.Statement
}

// Append adds a statement to the end of the state's body.
func (s *State) Append(stmt ast.Statement) {
	s.Body = append(s.Body, stmt)
}

// AsBlock wraps the state body as a BlockStatement for embedding in
// the final output or for recursive traversal by C6.
func (s *State) AsBlock() *ast.BlockStatement {
	return &ast.BlockStatement{Statements: s.Body}
}

// bareGoto reports whether, after skipping empty statement-list
// wrappers, the state's body is a single GotoState node — the
// "trivial forwarding state" condition C7 (pass 1) looks for.
func (s *State) bareGoto() (*ast.GotoState, bool) {
	stmts := s.Body
	for len(stmts) == 1 {
		if blk, ok := stmts[0].(*ast.BlockStatement); ok {
			stmts = blk.Statements
			continue
		}
		break
	}
	if len(stmts) != 1 {
		return nil, false
	}
	g, ok := stmts[0].(*ast.GotoState)
	return g, ok
}
