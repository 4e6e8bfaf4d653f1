package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/token"
)

func span(start, end int) token.Span {
	return token.Span{Start: start, End: end}
}

func TestNodeConstructorsSetSpanAndFields(t *testing.T) {
	sp := span(0, 5)

	lit := NewLiteral(sp, LiteralInteger, "42", "")
	assert.Equal(t, sp, lit.Span())
	assert.Equal(t, LiteralInteger, lit.Kind)
	assert.Equal(t, "42", lit.Text)

	ident := NewIdentifier(sp, "Patient")
	assert.Equal(t, sp, ident.Span())
	assert.Equal(t, "Patient", ident.Name)

	path := NewPath(sp, ident, "name")
	assert.Equal(t, sp, path.Span())
	assert.Same(t, ident, path.Base.(*Identifier))
	assert.Equal(t, "name", path.Member)

	idx := NewIndex(sp, path, lit)
	assert.Equal(t, sp, idx.Span())
	assert.Same(t, path, idx.Base.(*Path))
	assert.Same(t, lit, idx.Index.(*Literal))

	args := []Node{lit}
	inv := NewInvocation(sp, path, "where", args)
	assert.Equal(t, sp, inv.Span())
	assert.Equal(t, "where", inv.Name)
	assert.Same(t, path, inv.Base.(*Path))
	assert.Equal(t, args, inv.Args)

	bin := NewBinary(sp, OpAdd, lit, lit)
	assert.Equal(t, sp, bin.Span())
	assert.Equal(t, OpAdd, bin.Op)

	un := NewUnary(sp, OpNegate, lit)
	assert.Equal(t, sp, un.Span())
	assert.Equal(t, OpNegate, un.Op)
	assert.Same(t, lit, un.Operand.(*Literal))

	top := NewTypeOp(sp, TypeOpIs, ident, "FHIR.Patient")
	assert.Equal(t, sp, top.Span())
	assert.Equal(t, TypeOpIs, top.Kind)
	assert.Equal(t, "FHIR.Patient", top.TypeSpecifier)

	v := NewVariable(sp, VarEnvironment, "resource")
	assert.Equal(t, sp, v.Span())
	assert.Equal(t, VarEnvironment, v.Kind)
	assert.Equal(t, "resource", v.Name)

	errNode := NewError(sp)
	assert.Equal(t, sp, errNode.Span())
}

func TestNodesImplementNodeInterface(t *testing.T) {
	sp := span(0, 1)
	var nodes = []Node{
		NewLiteral(sp, LiteralEmpty, "", ""),
		NewIdentifier(sp, "x"),
		NewPath(sp, nil, "x"),
		NewIndex(sp, nil, nil),
		NewInvocation(sp, nil, "f", nil),
		NewBinary(sp, OpEq, nil, nil),
		NewUnary(sp, OpPlus, nil),
		NewTypeOp(sp, TypeOpOfType, nil, "Integer"),
		NewVariable(sp, VarThis, ""),
		NewError(sp),
	}
	for _, n := range nodes {
		assert.Equal(t, sp, n.Span())
	}
}
