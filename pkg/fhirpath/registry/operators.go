// Package registry holds the trait-shaped function and operator metadata
// the parser and evaluator consult (spec.md section 4.3, "registry-as-data":
// the parser never hardcodes a precedence table, it asks this package).
package registry

import "github.com/robertoaraneda/fhirpath/pkg/fhirpath/ast"

// OperatorSpec describes one infix (or, for unary minus/plus, prefix)
// operator: its precedence tier and the AST operator it builds.
type OperatorSpec struct {
	Symbol     string // the keyword or punctuation text that introduces it
	Precedence int    // higher binds tighter
	RightAssoc bool
	BinaryOp   ast.BinaryOp // meaningless for is/as, see IsTypeOp
	IsTypeOp   bool
	TypeOpKind ast.TypeOpKind
}

// Precedence tiers, high to low, per spec.md section 4.2. Path (.) and
// indexing ([]) are structural and parsed outside this table at the
// tightest binding; unary +/- sit between indexing and multiplicative.
const (
	precMultiplicative = 110
	precAdditive       = 100
	precTypeOp         = 90
	precUnion          = 80
	precInequality     = 70
	precEquality       = 60
	precMembership     = 50
	precAnd            = 40
	precOrXor          = 30
	precImplies        = 20
)

// operatorTable is keyed by the token text that introduces the operator in
// infix position (the parser has already classified an identifier as a
// keyword-in-operator-position before consulting this map).
var operatorTable = map[string]OperatorSpec{
	"*":   {Symbol: "*", Precedence: precMultiplicative, BinaryOp: ast.OpMul},
	"/":   {Symbol: "/", Precedence: precMultiplicative, BinaryOp: ast.OpDiv},
	"div": {Symbol: "div", Precedence: precMultiplicative, BinaryOp: ast.OpIntDiv},
	"mod": {Symbol: "mod", Precedence: precMultiplicative, BinaryOp: ast.OpMod},

	"+": {Symbol: "+", Precedence: precAdditive, BinaryOp: ast.OpAdd},
	"-": {Symbol: "-", Precedence: precAdditive, BinaryOp: ast.OpSub},
	"&": {Symbol: "&", Precedence: precAdditive, BinaryOp: ast.OpConcat},

	"is": {Symbol: "is", Precedence: precTypeOp, IsTypeOp: true, TypeOpKind: ast.TypeOpIs},
	"as": {Symbol: "as", Precedence: precTypeOp, IsTypeOp: true, TypeOpKind: ast.TypeOpAs},

	"|": {Symbol: "|", Precedence: precUnion, BinaryOp: ast.OpUnion},

	"<":  {Symbol: "<", Precedence: precInequality, BinaryOp: ast.OpLt},
	"<=": {Symbol: "<=", Precedence: precInequality, BinaryOp: ast.OpLe},
	">":  {Symbol: ">", Precedence: precInequality, BinaryOp: ast.OpGt},
	">=": {Symbol: ">=", Precedence: precInequality, BinaryOp: ast.OpGe},

	"=":  {Symbol: "=", Precedence: precEquality, BinaryOp: ast.OpEq},
	"!=": {Symbol: "!=", Precedence: precEquality, BinaryOp: ast.OpNeq},
	"~":  {Symbol: "~", Precedence: precEquality, BinaryOp: ast.OpEquiv},
	"!~": {Symbol: "!~", Precedence: precEquality, BinaryOp: ast.OpNequiv},

	"in":       {Symbol: "in", Precedence: precMembership, BinaryOp: ast.OpIn},
	"contains": {Symbol: "contains", Precedence: precMembership, BinaryOp: ast.OpContains},

	"and": {Symbol: "and", Precedence: precAnd, BinaryOp: ast.OpAnd},

	"or":  {Symbol: "or", Precedence: precOrXor, BinaryOp: ast.OpOr},
	"xor": {Symbol: "xor", Precedence: precOrXor, BinaryOp: ast.OpXor},

	"implies": {Symbol: "implies", Precedence: precImplies, BinaryOp: ast.OpImplies},
}

// LookupOperator returns the OperatorSpec for an infix operator token's
// text, or false if text does not introduce an infix operator.
func LookupOperator(text string) (OperatorSpec, bool) {
	spec, ok := operatorTable[text]
	return spec, ok
}

// Operators returns every registered infix operator, for introspection
// (documentation generation, analyzers) rather than hot-path parsing.
func Operators() []OperatorSpec {
	out := make([]OperatorSpec, 0, len(operatorTable))
	for _, spec := range operatorTable {
		out = append(out, spec)
	}
	return out
}
