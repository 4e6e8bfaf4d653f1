// Package ast defines the FHIRPath abstract syntax tree produced by the
// parser and walked by the evaluator. Nodes are immutable after parse
// (spec.md section 3.3); every node carries its SourceSpan for diagnostics.
package ast

import "github.com/robertoaraneda/fhirpath/pkg/fhirpath/token"

// Node is implemented by every AST node.
type Node interface {
	Span() token.Span
	node()
}

type base struct {
	span token.Span
}

func (b base) Span() token.Span { return b.span }
func (base) node()              {}

// LiteralKind tags the payload carried by a Literal node.
type LiteralKind int

const (
	LiteralEmpty LiteralKind = iota
	LiteralBoolean
	LiteralInteger
	LiteralDecimal
	LiteralString
	LiteralDate
	LiteralDateTime
	LiteralTime
	LiteralQuantity
)

// Literal is a constant value written directly in source: numeric, string,
// boolean, date/time, quantity, or the empty collection `{}`.
type Literal struct {
	base
	Kind LiteralKind
	Text string // raw lexeme (decoded for strings), interpreted by the evaluator
	Unit string // quantity unit, only meaningful when Kind == LiteralQuantity
}

func NewLiteral(span token.Span, kind LiteralKind, text, unit string) *Literal {
	return &Literal{base: base{span}, Kind: kind, Text: text, Unit: unit}
}

// Identifier is an unresolved name; the evaluator decides at navigation
// time whether it is a resource-type assertion or a property access.
type Identifier struct {
	base
	Name string
}

func NewIdentifier(span token.Span, name string) *Identifier {
	return &Identifier{base: base{span}, Name: name}
}

// Path is dotted navigation: Base.Member.
type Path struct {
	base
	Base   Node
	Member string
}

func NewPath(span token.Span, baseExpr Node, member string) *Path {
	return &Path{base: base{span}, Base: baseExpr, Member: member}
}

// Index is Base[IndexExpr].
type Index struct {
	base
	Base  Node
	Index Node
}

func NewIndex(span token.Span, baseExpr, index Node) *Index {
	return &Index{base: base{span}, Base: baseExpr, Index: index}
}

// Invocation is a function call: Base.Name(Args...) or a bare Name(Args...)
// when Base is nil (e.g. today()).
type Invocation struct {
	base
	Base Node // nil for a bare call
	Name string
	Args []Node
}

func NewInvocation(span token.Span, baseExpr Node, name string, args []Node) *Invocation {
	return &Invocation{base: base{span}, Base: baseExpr, Name: name, Args: args}
}

// BinaryOp enumerates binary operators, used by both Binary nodes and the
// registry's operator table.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpIntDiv // div
	OpMod
	OpConcat // &
	OpEq
	OpNeq
	OpEquiv
	OpNequiv
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpXor
	OpImplies
	OpUnion
	OpIn
	OpContains
)

// Binary is a binary operator application.
type Binary struct {
	base
	Op    BinaryOp
	Left  Node
	Right Node
}

func NewBinary(span token.Span, op BinaryOp, left, right Node) *Binary {
	return &Binary{base: base{span}, Op: op, Left: left, Right: right}
}

// UnaryOp enumerates unary (prefix) operators.
type UnaryOp int

const (
	OpPlus UnaryOp = iota
	OpNegate
)

// Unary is +Operand or -Operand.
type Unary struct {
	base
	Op      UnaryOp
	Operand Node
}

func NewUnary(span token.Span, op UnaryOp, operand Node) *Unary {
	return &Unary{base: base{span}, Op: op, Operand: operand}
}

// TypeOpKind tags which of is/as/ofType a TypeOp node represents.
type TypeOpKind int

const (
	TypeOpIs TypeOpKind = iota
	TypeOpAs
	TypeOpOfType
)

// TypeOp is a type check or cast: Operand is T, Operand as T, or
// ofType(T) — TypeSpecifier is a dotted name with optional namespace
// (FHIR.Patient, System.Integer).
type TypeOp struct {
	base
	Kind          TypeOpKind
	Operand       Node
	TypeSpecifier string
}

func NewTypeOp(span token.Span, kind TypeOpKind, operand Node, typeSpecifier string) *TypeOp {
	return &TypeOp{base: base{span}, Kind: kind, Operand: operand, TypeSpecifier: typeSpecifier}
}

// VariableKind tags which built-in variable a Variable node refers to.
type VariableKind int

const (
	VarThis VariableKind = iota
	VarIndex
	VarTotal
	VarEnvironment // %name, including %context and %resource
)

// Variable is $this, $index, $total, or a %user-defined / %environment name.
type Variable struct {
	base
	Kind VariableKind
	Name string // only set for VarEnvironment
}

func NewVariable(span token.Span, kind VariableKind, name string) *Variable {
	return &Variable{base: base{span}, Kind: kind, Name: name}
}

// Error is a synthesized placeholder the parser emits on recovery, never
// evaluated to anything but Empty; the real diagnostic travels alongside
// in the parser's Diagnostics batch, not inside the node itself.
type Error struct {
	base
}

func NewError(span token.Span) *Error {
	return &Error{base: base{span}}
}
