package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cwbudde/closureiter/internal/lexer"
)

// IfStatement is a conditional with an optional else arm. C2 hoists a
// yield-bearing condition's statements above the if; C5 synthesises
// an Alternative of just a goto-state when the source had none, so
// every if falls through explicitly.
type IfStatement struct {
	Token       lexer.Token
	Condition   Expression
	Consequence Statement
	Alternative Statement
}

func (s *IfStatement) statementNode()      {}
func (s *IfStatement) TokenLiteral() string { return s.Token.Literal }
func (s *IfStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(s.Condition.String())
	out.WriteString(" then\n")
	out.WriteString(indent(s.Consequence.String()))
	if s.Alternative != nil {
		out.WriteString("else\n")
		out.WriteString(indent(s.Alternative.String()))
	}
	return out.String()
}

// CaseBranch is one "values: body" arm of a CaseStatement.
type CaseBranch struct {
	Token  lexer.Token
	Values []Expression
	Body   Statement
}

func (c *CaseBranch) String() string {
	vals := make([]string, len(c.Values))
	for i, v := range c.Values {
		vals[i] = v.String()
	}
	return strings.Join(vals, ", ") + ": " + c.Body.String()
}

// CaseStatement dispatches on Selector against each branch's Values,
// falling to Default (possibly nil) otherwise.
type CaseStatement struct {
	Token    lexer.Token
	Selector Expression
	Branches []*CaseBranch
	Default  Statement
}

func (s *CaseStatement) statementNode()      {}
func (s *CaseStatement) TokenLiteral() string { return s.Token.Literal }
func (s *CaseStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *CaseStatement) String() string {
	var out bytes.Buffer
	out.WriteString("case ")
	out.WriteString(s.Selector.String())
	out.WriteString(" of\n")
	for _, b := range s.Branches {
		out.WriteString(indent(b.String()))
	}
	if s.Default != nil {
		out.WriteString("else\n")
		out.WriteString(indent(s.Default.String()))
	}
	return out.String()
}

// WhileStatement is a pre-tested loop. The Label, if non-empty, is the
// target of a labelled break matched during C4's relocation.
type WhileStatement struct {
	Token     lexer.Token
	Condition Expression
	Body      Statement
	Label     string
}

func (s *WhileStatement) statementNode()      {}
func (s *WhileStatement) TokenLiteral() string { return s.Token.Literal }
func (s *WhileStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *WhileStatement) String() string {
	var out bytes.Buffer
	if s.Label != "" {
		out.WriteString(s.Label + ": ")
	}
	out.WriteString("while ")
	out.WriteString(s.Condition.String())
	out.WriteString(" do\n")
	out.WriteString(indent(s.Body.String()))
	return out.String()
}

// LabeledBlockStatement is the "block L: ..." construct: a bare
// sequence whose only purpose is to give unlabelled code a named
// break target. Unlike BlockStatement it always carries a label.
type LabeledBlockStatement struct {
	Token lexer.Token
	Label string
	Body  Statement
}

func (s *LabeledBlockStatement) statementNode()      {}
func (s *LabeledBlockStatement) TokenLiteral() string { return s.Token.Literal }
func (s *LabeledBlockStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *LabeledBlockStatement) String() string {
	return fmt.Sprintf("block %s:\n%s", s.Label, indent(s.Body.String()))
}

// BreakStatement exits the nearest enclosing loop/block, or the one
// named by Label when present.
type BreakStatement struct {
	Token lexer.Token
	Label string
}

func (s *BreakStatement) statementNode()      {}
func (s *BreakStatement) TokenLiteral() string { return s.Token.Literal }
func (s *BreakStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *BreakStatement) String() string {
	if s.Label != "" {
		return "break " + s.Label
	}
	return "break"
}

// ContinueStatement restarts the nearest enclosing loop. Unlike
// break, spec §4.4 gives it no labelled form.
type ContinueStatement struct {
	Token lexer.Token
}

func (s *ContinueStatement) statementNode()      {}
func (s *ContinueStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ContinueStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *ContinueStatement) String() string       { return "continue" }

// GotoState is the abstract edge the splitter (C5) threads between
// states. Target -1 means "exit". It never survives C6 (materialize.go
// rewrites every GotoState into a concrete state-assignment plus
// either `return` or `break :state-loop`), so none appears anywhere
// in the final output: C8 dispatches with a CaseStatement over :state.
type GotoState struct {
	Token  lexer.Token
	Target int
}

func (s *GotoState) statementNode()      {}
func (s *GotoState) TokenLiteral() string { return s.Token.Literal }
func (s *GotoState) Pos() lexer.Position  { return s.Token.Pos }
func (s *GotoState) String() string {
	if s.Target < 0 {
		return "goto-state(exit)"
	}
	return fmt.Sprintf("goto-state(%d)", s.Target)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	var out bytes.Buffer
	for _, l := range lines {
		out.WriteString("  ")
		out.WriteString(l)
		out.WriteString("\n")
	}
	return out.String()
}
