// Package ast defines the small, self-contained AST node set the
// closure-iterator lowering pass operates over. Parsing and semantic
// analysis are out of scope (see spec §1): callers hand the pass an
// already-typed body built from these node kinds, and the pass hands
// back a body built from the same kinds. GotoState, the one kind the
// pass synthesizes for itself, lives only between C5 and C6 and does
// not appear in the returned body; C8's dispatch shell is built from
// the ordinary while, labelled-block, case and try kinds.
package ast
