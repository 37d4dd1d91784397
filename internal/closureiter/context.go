// Package closureiter implements the closure-iterator lowering pass:
// it rewrites a resumable generator's body into an explicit, flat
// state machine expressed in ordinary structured control flow (see
// SPEC_FULL.md and the original spec.md for the full design).
//
// The components are named C1-C9 to match spec.md §2's table:
// C1 context.go, C2 normalize.go, C3 returnrewrite.go,
// C4 breakrelocate.go, C5 splitter.go, C6 materialize.go,
// C7 eliminate.go, C8 dispatch.go. C9 (the runner) lives in the
// sibling internal/runner package.
package closureiter

import (
	"fmt"

	"github.com/cwbudde/closureiter/internal/ast"
	"github.com/cwbudde/closureiter/internal/lexer"
)

// EnvAccessor resolves a synthetic-variable field to an expression
// addressing it on the already-built closure environment object, used
// only in post-lifting mode. The state-field accessor is guaranteed by
// closure conversion to resolve ":state" to the environment's first
// field — a layout contract the code generator depends on.
type EnvAccessor func(field string) ast.Expression

// Context is the single mutable value threaded through every
// component of one function transform (spec §3, "Scope-tracking
// counters"). It owns every synthetic variable and state node created
// during the transform and is discarded when Lower returns.
type Context struct {
	states    []*State
	table     []int16
	vars      map[string]ast.Expression
	declared  []*ast.Identifier
	env       EnvAccessor
	postLifting bool
	hasExceptions bool

	nearestFinally       int // state index of enclosing finally, or -1
	curExcHandlingState  int // ET encoding copied into a state at creation
	blockLevel           int // nesting inside breakable constructs (C4)
	tempVarID            int
	exitStateIdx         int
}

// NewContext creates a Context for one function transform. When
// postLifting is true, env must resolve synthetic-variable fields on
// the already-built closure environment; otherwise it is ignored and
// synthetic variables become fresh locals (spec §4.1).
func NewContext(postLifting bool, env EnvAccessor) *Context {
	return &Context{
		vars:                make(map[string]ast.Expression),
		env:                 env,
		postLifting:         postLifting,
		nearestFinally:       -1,
		curExcHandlingState: 0,
		exitStateIdx:        -1,
	}
}

// EnsureVar returns the handle for one of the fixed synthetic
// variables (":state", ":tmpResult", ":unrollFinally", ":curExc"),
// allocating it on first use and returning the cached handle on every
// subsequent call — the idempotence spec §4.1 requires.
func (c *Context) EnsureVar(name string) ast.Expression {
	if h, ok := c.vars[name]; ok {
		return h
	}
	var h ast.Expression
	if c.postLifting {
		h = c.env(name)
	} else {
		id := &ast.Identifier{Token: syntheticToken(name), Name: name}
		if name != resultSlotName {
			c.declared = append(c.declared, id)
		}
		h = id
	}
	c.vars[name] = h
	return h
}

// DeclaredLocals returns the synthetic-variable locals allocated in
// pre-lifting mode, in allocation order, for C8 to prepend as a
// var-declaration block. In post-lifting mode it is always empty.
func (c *Context) DeclaredLocals() []*ast.Identifier {
	return c.declared
}

// NewTemp mints a fresh, uniquely-named temporary, distinct from every
// other temp and from any real source identifier (the reserved ':'
// prefix is rejected by the parser that would have produced this
// AST). Used by C2 wherever a statement-list-expression's value
// needs a name to hang off.
func (c *Context) NewTemp() *ast.Identifier {
	name := fmt.Sprintf(":t%d", c.tempVarID)
	c.tempVarID++
	id := &ast.Identifier{Token: syntheticToken(name), Name: name}
	c.declared = append(c.declared, id)
	return id
}

// NewState creates state index len(states), records the exception
// table entry currently in force (curExcHandlingState), and returns
// the new, empty state. Exception-table length tracks the state list
// at every moment, per spec §3's invariant.
func (c *Context) NewState() *State {
	idx := len(c.states)
	s := &State{Index: idx}
	c.states = append(c.states, s)
	c.table = append(c.table, int16(c.curExcHandlingState))
	return s
}

// States returns the state list built so far, in creation order.
func (c *Context) States() []*State { return c.states }

// Table returns the exception table, parallel to States().
func (c *Context) Table() []int16 { return c.table }

// SetTableEntry replaces state i's table entry. No component of the
// pass calls it; each entry is written by NewState.
func (c *Context) SetTableEntry(i int, entry int16) {
	c.table[i] = entry
}

// MarkHasExceptions records that at least one try spanning a yield was
// seen, the trigger for C8 wrapping the dispatch loop in a catch.
func (c *Context) MarkHasExceptions() { c.hasExceptions = true }

// HasExceptions reports whether MarkHasExceptions was ever called.
func (c *Context) HasExceptions() bool { return c.hasExceptions }

// scopeSnapshot holds the scope-tracking counters a recursive case
// saves on entry and puts back with an explicit Restore call before
// it returns. Restore is not deferred, so a panic leaves the counters
// as they were at the point of the panic.
type scopeSnapshot struct {
	nearestFinally      int
	curExcHandlingState int
	blockLevel          int
}

// Snapshot captures the scope-tracking counters.
func (c *Context) Snapshot() scopeSnapshot {
	return scopeSnapshot{
		nearestFinally:      c.nearestFinally,
		curExcHandlingState: c.curExcHandlingState,
		blockLevel:          c.blockLevel,
	}
}

// Restore reinstates counters captured by Snapshot.
func (c *Context) Restore(s scopeSnapshot) {
	c.nearestFinally = s.nearestFinally
	c.curExcHandlingState = s.curExcHandlingState
	c.blockLevel = s.blockLevel
}

func syntheticToken(name string) lexer.Token {
	return lexer.Token{Literal: name, Type: lexer.SYNTHETIC}
}
