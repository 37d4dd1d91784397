package ast

import (
	"bytes"

	"github.com/cwbudde/closureiter/internal/lexer"
)

// VarStatement declares Name, with an optional initializer.
type VarStatement struct {
	Token lexer.Token
	Name  *Identifier
	Value Expression
}

func (s *VarStatement) statementNode()      {}
func (s *VarStatement) TokenLiteral() string { return s.Token.Literal }
func (s *VarStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *VarStatement) String() string {
	if s.Value == nil {
		return "var " + s.Name.String()
	}
	return "var " + s.Name.String() + " := " + s.Value.String()
}

// AssignStatement is "target := value" (Fast=false) or a compound
// fast-assignment such as "target += value" (Fast=true, Operator
// holds the compound operator).
type AssignStatement struct {
	Token    lexer.Token
	Target   Expression
	Value    Expression
	Fast     bool
	Operator string
}

func (s *AssignStatement) statementNode()      {}
func (s *AssignStatement) TokenLiteral() string { return s.Token.Literal }
func (s *AssignStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *AssignStatement) String() string {
	op := ":="
	if s.Fast {
		op = s.Operator + "="
	}
	return s.Target.String() + " " + op + " " + s.Value.String()
}

// ReturnStatement exits the generator with Value (nil for a valueless
// return). Inside a try with a known enclosing finally, C3 rewrites
// this away entirely before C5 ever sees it.
type ReturnStatement struct {
	Token lexer.Token
	Value Expression
}

func (s *ReturnStatement) statementNode()      {}
func (s *ReturnStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ReturnStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *ReturnStatement) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

// YieldStatement suspends the generator, producing Value to the
// caller (nil for a valueless yield). C6 is the only rewrite allowed
// to eliminate it; per spec §8 property 2 none may survive C6.
type YieldStatement struct {
	Token lexer.Token
	Value Expression
}

func (s *YieldStatement) statementNode()      {}
func (s *YieldStatement) TokenLiteral() string { return s.Token.Literal }
func (s *YieldStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *YieldStatement) String() string {
	if s.Value == nil {
		return "yield"
	}
	return "yield " + s.Value.String()
}

// StmtListExpr is an expression whose evaluation runs Stmts for
// effect and then yields Value — the construct C2 exists to unwind
// out of expression position whenever a yield reaches inside one.
type StmtListExpr struct {
	Token lexer.Token
	Stmts []Statement
	Value Expression
}

func (e *StmtListExpr) expressionNode()      {}
func (e *StmtListExpr) TokenLiteral() string { return e.Token.Literal }
func (e *StmtListExpr) Pos() lexer.Position  { return e.Token.Pos }
func (e *StmtListExpr) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	for _, s := range e.Stmts {
		out.WriteString(s.String())
		out.WriteString("; ")
	}
	if e.Value != nil {
		out.WriteString(e.Value.String())
	}
	out.WriteString(")")
	return out.String()
}

// TryExpression is try/except/finally used in expression position; C2
// normalizes it away by assigning each branch's value into a shared
// temporary (spec §4.2), so it never reaches the splitter (C5).
type TryExpression struct {
	Token         lexer.Token
	TryBlock      Expression
	ExceptClause  *ExceptClause
	FinallyClause *FinallyClause
}

func (e *TryExpression) expressionNode()      {}
func (e *TryExpression) TokenLiteral() string { return e.Token.Literal }
func (e *TryExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *TryExpression) String() string {
	return "try-expr(" + e.TryBlock.String() + ")"
}

// ProcedureDefinition and LambdaExpression are nested function/
// template definitions. They are opaque to every rewrite in this
// pass (C2, C3, C5 all stop descending at their boundary): a nested
// procedure cannot itself yield into the enclosing generator's state
// machine, and closure conversion (out of scope, spec §1) handles
// their own environment capture separately.
type ProcedureDefinition struct {
	Token lexer.Token
	Name  string
	Body  Statement
}

func (s *ProcedureDefinition) statementNode()      {}
func (s *ProcedureDefinition) TokenLiteral() string { return s.Token.Literal }
func (s *ProcedureDefinition) Pos() lexer.Position  { return s.Token.Pos }
func (s *ProcedureDefinition) String() string        { return "procedure " + s.Name }

type LambdaExpression struct {
	Token  lexer.Token
	Params []string
	Body   Statement
}

func (e *LambdaExpression) expressionNode()      {}
func (e *LambdaExpression) TokenLiteral() string { return e.Token.Literal }
func (e *LambdaExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *LambdaExpression) String() string        { return "lambda(...)" }

// GeneratorFunction is the input to the whole pass: a closure-iterator
// function symbol plus its body (spec §6, "Inputs").
type GeneratorFunction struct {
	Token        lexer.Token
	Name         string
	Body         *BlockStatement
	ReturnType   string
	PostLifting  bool // whether closure conversion has already run
}

func (f *GeneratorFunction) statementNode()      {}
func (f *GeneratorFunction) TokenLiteral() string { return f.Token.Literal }
func (f *GeneratorFunction) Pos() lexer.Position  { return f.Token.Pos }
func (f *GeneratorFunction) String() string {
	return "generator " + f.Name + "\n" + indent(f.Body.String())
}
