package ast

import (
	"bytes"

	"github.com/cwbudde/closureiter/internal/lexer"
)

// TryStatement is try/except/finally. Either clause may be nil, but
// not both (a bare try with neither is meaningless and rejected by
// the parser that would build this AST — out of scope here).
type TryStatement struct {
	Token         lexer.Token
	TryBlock      *BlockStatement
	ExceptClause  *ExceptClause
	FinallyClause *FinallyClause
}

func (s *TryStatement) statementNode()      {}
func (s *TryStatement) TokenLiteral() string { return s.Token.Literal }
func (s *TryStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *TryStatement) String() string {
	var out bytes.Buffer
	out.WriteString("try\n")
	out.WriteString(indent(s.TryBlock.String()))
	if s.ExceptClause != nil {
		out.WriteString(s.ExceptClause.String())
	}
	if s.FinallyClause != nil {
		out.WriteString(s.FinallyClause.String())
	}
	return out.String()
}

// ExceptionHandler is one "on V: T do body" arm.
type ExceptionHandler struct {
	Token         lexer.Token
	Variable      *Identifier
	ExceptionType string
	Body          Statement
}

func (h *ExceptionHandler) String() string {
	return "on " + h.Variable.String() + ": " + h.ExceptionType + " do\n" + indent(h.Body.String())
}

// ExceptClause holds the typed handlers and optional else-block of a
// try's except arm. A nil Handlers slice with a non-nil ElseBlock (or
// vice versa) is legal; an except clause with no handlers matches
// nothing, so it compiles to the synthesised re-raise path described
// in spec §4.5 unconditionally — equivalent to not catching at all,
// but still running the try's finally first.
type ExceptClause struct {
	Token     lexer.Token
	Handlers  []*ExceptionHandler
	ElseBlock *BlockStatement
}

func (c *ExceptClause) String() string {
	var out bytes.Buffer
	out.WriteString("except\n")
	for _, h := range c.Handlers {
		out.WriteString(indent(h.String()))
	}
	if c.ElseBlock != nil {
		out.WriteString("else\n")
		out.WriteString(indent(c.ElseBlock.String()))
	}
	return out.String()
}

// FinallyClause always runs on the way out of its try, whether by
// fallthrough, return, break/continue, or exception.
type FinallyClause struct {
	Token lexer.Token
	Body  *BlockStatement
}

func (c *FinallyClause) String() string {
	return "finally\n" + indent(c.Body.String())
}

// RaiseStatement raises Value, or re-raises the currently propagating
// exception when Value is nil (used inside an except handler, and
// synthesised by C5 for the "no handler matched" path).
type RaiseStatement struct {
	Token lexer.Token
	Value Expression
}

func (s *RaiseStatement) statementNode()      {}
func (s *RaiseStatement) TokenLiteral() string { return s.Token.Literal }
func (s *RaiseStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *RaiseStatement) String() string {
	if s.Value == nil {
		return "raise"
	}
	return "raise " + s.Value.String()
}
