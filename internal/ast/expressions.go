package ast

import (
	"bytes"
	"strings"

	"github.com/cwbudde/closureiter/internal/lexer"
)

// BinaryExpression covers arithmetic, comparison, and the
// short-circuit "and"/"or" operators C2 rewrites away when a yield
// hides in their right-hand operand.
type BinaryExpression struct {
	Token    lexer.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (e *BinaryExpression) expressionNode()      {}
func (e *BinaryExpression) TokenLiteral() string { return e.Token.Literal }
func (e *BinaryExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *BinaryExpression) String() string {
	return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
}

// IsShortCircuit reports whether this operator short-circuits, the
// trigger condition for C2's and/or-to-if rewrite (spec §4.2).
func (e *BinaryExpression) IsShortCircuit() bool {
	return e.Operator == "and" || e.Operator == "or"
}

// UnaryExpression is a prefix operator (not, -, etc).
type UnaryExpression struct {
	Token    lexer.Token
	Operator string
	Operand  Expression
}

func (e *UnaryExpression) expressionNode()      {}
func (e *UnaryExpression) TokenLiteral() string { return e.Token.Literal }
func (e *UnaryExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *UnaryExpression) String() string        { return "(" + e.Operator + e.Operand.String() + ")" }

// CallExpression is a call to Callee with Args, in source order.
// Multi-argument calls are where C2's left-to-right evaluation
// spilling rule applies.
type CallExpression struct {
	Token  lexer.Token
	Callee Expression
	Args   []Expression
}

func (e *CallExpression) expressionNode()      {}
func (e *CallExpression) TokenLiteral() string { return e.Token.Literal }
func (e *CallExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *CallExpression) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// IndexExpression is Target[Index], an indexed assignment target.
type IndexExpression struct {
	Token  lexer.Token
	Target Expression
	Index  Expression
}

func (e *IndexExpression) expressionNode()      {}
func (e *IndexExpression) TokenLiteral() string { return e.Token.Literal }
func (e *IndexExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *IndexExpression) String() string {
	return e.Target.String() + "[" + e.Index.String() + "]"
}

// CastExpression is an explicit cast or a compiler-inserted hidden
// conversion; C2 hoists its operand identically either way.
type CastExpression struct {
	Token    lexer.Token
	TypeName string
	Operand  Expression
	Hidden   bool
}

func (e *CastExpression) expressionNode()      {}
func (e *CastExpression) TokenLiteral() string { return e.Token.Literal }
func (e *CastExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *CastExpression) String() string {
	return e.TypeName + "(" + e.Operand.String() + ")"
}

// IsExpression tests whether Value's runtime type matches TypeName —
// the test C5 compiles each "on V: T do" handler into.
type IsExpression struct {
	Token    lexer.Token
	Value    Expression
	TypeName string
}

func (e *IsExpression) expressionNode()      {}
func (e *IsExpression) TokenLiteral() string { return e.Token.Literal }
func (e *IsExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *IsExpression) String() string {
	return e.Value.String() + " is " + e.TypeName
}

// TupleExpression, ArrayLiteral and ObjectLiteral are the constructor
// forms C2's hoisting table names explicitly.
type TupleExpression struct {
	Token    lexer.Token
	Elements []Expression
}

func (e *TupleExpression) expressionNode()      {}
func (e *TupleExpression) TokenLiteral() string { return e.Token.Literal }
func (e *TupleExpression) Pos() lexer.Position  { return e.Token.Pos }
func (e *TupleExpression) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type ArrayLiteral struct {
	Token    lexer.Token
	Elements []Expression
}

func (e *ArrayLiteral) expressionNode()      {}
func (e *ArrayLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *ArrayLiteral) Pos() lexer.Position  { return e.Token.Pos }
func (e *ArrayLiteral) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjectField is one "name: value" pair of an ObjectLiteral.
type ObjectField struct {
	Name  string
	Value Expression
}

type ObjectLiteral struct {
	Token  lexer.Token
	Fields []ObjectField
}

func (e *ObjectLiteral) expressionNode()      {}
func (e *ObjectLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *ObjectLiteral) Pos() lexer.Position  { return e.Token.Pos }
func (e *ObjectLiteral) String() string {
	var out bytes.Buffer
	out.WriteString("{")
	for i, f := range e.Fields {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(f.Name)
		out.WriteString(": ")
		out.WriteString(f.Value.String())
	}
	out.WriteString("}")
	return out.String()
}
