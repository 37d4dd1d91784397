package ast

import (
	"bytes"
	"strings"

	"github.com/cwbudde/closureiter/internal/lexer"
)

// Node is the base interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	Pos() lexer.Position
	String() string
}

// Statement is a node that appears in statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Identifier names a variable, including the synthetic variables
// C1 allocates (":state", ":tmpResult", ":unrollFinally", ":curExc"
// and numbered temporaries) and the external "result-of-closure-iter"
// and runtime-primitive symbols resolved by name per spec §6.
type Identifier struct {
	Token lexer.Token
	Name  string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() lexer.Position  { return i.Token.Pos }
func (i *Identifier) String() string       { return i.Name }

// IsSynthetic reports whether the identifier was minted by C1 rather
// than appearing in the original source (the reserved ':' prefix is
// rejected by any real parser, guaranteeing no collision).
func (i *Identifier) IsSynthetic() bool {
	return strings.HasPrefix(i.Name, ":")
}

// MemberExpression is "target.field" — used post-lifting to address a
// synthetic variable as a field of the closure environment object.
type MemberExpression struct {
	Token  lexer.Token
	Target Expression
	Field  string
}

func (m *MemberExpression) expressionNode()      {}
func (m *MemberExpression) TokenLiteral() string { return m.Token.Literal }
func (m *MemberExpression) Pos() lexer.Position  { return m.Token.Pos }
func (m *MemberExpression) String() string {
	return m.Target.String() + "." + m.Field
}

// IntegerLiteral is a literal integer value.
type IntegerLiteral struct {
	Token lexer.Token
	Value int64
}

func (l *IntegerLiteral) expressionNode()      {}
func (l *IntegerLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *IntegerLiteral) Pos() lexer.Position  { return l.Token.Pos }
func (l *IntegerLiteral) String() string       { return l.Token.Literal }

// FloatLiteral is a literal floating-point value.
type FloatLiteral struct {
	Token lexer.Token
	Value float64
}

func (l *FloatLiteral) expressionNode()      {}
func (l *FloatLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *FloatLiteral) Pos() lexer.Position  { return l.Token.Pos }
func (l *FloatLiteral) String() string       { return l.Token.Literal }

// BooleanLiteral is a literal true/false value.
type BooleanLiteral struct {
	Token lexer.Token
	Value bool
}

func (l *BooleanLiteral) expressionNode()      {}
func (l *BooleanLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *BooleanLiteral) Pos() lexer.Position  { return l.Token.Pos }
func (l *BooleanLiteral) String() string       { return l.Token.Literal }

// StringLiteral is a literal string value.
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (l *StringLiteral) expressionNode()      {}
func (l *StringLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *StringLiteral) Pos() lexer.Position  { return l.Token.Pos }
func (l *StringLiteral) String() string       { return "'" + l.Value + "'" }

// NilLiteral is the null/nil value, used for the cleared :curExc slot.
type NilLiteral struct {
	Token lexer.Token
}

func (l *NilLiteral) expressionNode()      {}
func (l *NilLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *NilLiteral) Pos() lexer.Position  { return l.Token.Pos }
func (l *NilLiteral) String() string       { return "nil" }

// BlockStatement is a plain, unlabelled statement sequence — the
// generic "statement list" of spec §4.5. It carries no break target
// of its own; LabeledBlockStatement adds that.
type BlockStatement struct {
	Token      lexer.Token
	Statements []Statement
}

func (b *BlockStatement) statementNode()      {}
func (b *BlockStatement) TokenLiteral() string { return b.Token.Literal }
func (b *BlockStatement) Pos() lexer.Position  { return b.Token.Pos }
func (b *BlockStatement) String() string {
	var out bytes.Buffer
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ExpressionStatement wraps an expression evaluated for effect.
type ExpressionStatement struct {
	Token lexer.Token
	Expr  Expression
}

func (e *ExpressionStatement) statementNode()      {}
func (e *ExpressionStatement) TokenLiteral() string { return e.Token.Literal }
func (e *ExpressionStatement) Pos() lexer.Position  { return e.Token.Pos }
func (e *ExpressionStatement) String() string {
	if e.Expr == nil {
		return ""
	}
	return e.Expr.String()
}
