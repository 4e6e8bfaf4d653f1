// Package parser implements a Pratt (top-down operator precedence) parser
// that turns a token stream into the AST defined by package ast, per
// spec.md section 4.2. Precedence and associativity for infix operators
// come from registry.LookupOperator rather than a table hardcoded here.
package parser

import (
	"strconv"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/ast"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/diagnostic"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/registry"
	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/token"
)

var calendarDurationKeywords = map[string]bool{
	"year": true, "years": true, "month": true, "months": true,
	"week": true, "weeks": true, "day": true, "days": true,
	"hour": true, "hours": true, "minute": true, "minutes": true,
	"second": true, "seconds": true, "millisecond": true, "milliseconds": true,
}

// Parser produces an AST from a token stream. It never panics and never
// loops without making progress: on any malformed input it synthesizes an
// ast.Error node carrying a diagnostic and keeps going.
type Parser struct {
	lex             *token.Lexer
	cur             token.Token
	peek            token.Token
	lastConsumedEnd int
	diag            diagnostic.Diagnostics
}

// New returns a Parser over src.
func New(src string) *Parser {
	p := &Parser{lex: token.NewLexer(src)}
	p.cur = p.lex.Next()
	p.peek = p.lex.Next()
	return p
}

func (p *Parser) advance() token.Token {
	t := p.cur
	p.lastConsumedEnd = t.Span.End
	p.cur = p.peek
	p.peek = p.lex.Next()
	return t
}

func (p *Parser) errorf(span token.Span, code, format string, args ...interface{}) {
	p.diag.Add(diagnostic.Newf(code, diagnostic.Span{Start: span.Start, End: span.End}, format, args...))
}

// Parse parses a complete expression and returns the AST root alongside
// any diagnostics accumulated by the lexer and parser. Diagnostics may be
// non-empty even when parsing otherwise succeeds (warnings); HasErrors
// distinguishes a genuinely failed parse.
func Parse(src string) (ast.Node, diagnostic.Diagnostics) {
	p := New(src)
	expr := p.parseExpression(0)
	if p.cur.Kind != token.KindEOF {
		p.errorf(p.cur.Span, diagnostic.CodeUnexpectedToken, "unexpected trailing token %q", p.cur.Text)
	}
	p.diag.Add(p.lex.Diagnostics()...)
	return expr, p.diag
}

// parseExpression implements Pratt precedence climbing: parse a prefix
// term, then repeatedly fold in infix operators whose precedence exceeds
// minPrec.
func (p *Parser) parseExpression(minPrec int) ast.Node {
	left := p.parsePostfix(p.parsePrefix())

	for {
		text := p.infixText()
		if text == "" {
			return left
		}
		spec, ok := registry.LookupOperator(text)
		if !ok || spec.Precedence < minPrec {
			return left
		}
		opTok := p.advance()
		nextMin := spec.Precedence + 1
		if spec.RightAssoc {
			nextMin = spec.Precedence
		}

		if spec.IsTypeOp {
			specStart := p.cur.Span
			typeSpecifier := p.parseTypeSpecifier()
			end := opTok.Span
			if typeSpecifier != "" {
				end = token.Span{Start: specStart.Start, End: p.lastConsumedEnd}
			}
			left = ast.NewTypeOp(spanFrom(left.Span(), end), spec.TypeOpKind, left, typeSpecifier)
			continue
		}

		right := p.parseExpression(nextMin)
		left = ast.NewBinary(spanFrom(left.Span(), right.Span()), spec.BinaryOp, left, right)
	}
}

func spanFrom(a, b token.Span) token.Span {
	return token.Span{Start: a.Start, End: b.End}
}

// infixText returns the token text that would introduce an infix operator
// at the current position, or "" if the current token cannot start one.
// Keyword operators (and, or, div, mod, ...) are only recognized here —
// in infix position — per spec.md section 4.1.
func (p *Parser) infixText() string {
	switch p.cur.Kind {
	case token.KindStar, token.KindSlash, token.KindPlus, token.KindMinus,
		token.KindAmp, token.KindPipe, token.KindLt, token.KindLe,
		token.KindGt, token.KindGe, token.KindEq, token.KindNeq,
		token.KindEquiv, token.KindNequiv:
		return p.cur.Text
	case token.KindIdentifier:
		if token.IsKeywordOperator(p.cur.Text) {
			return p.cur.Text
		}
	}
	return ""
}

// parseTypeSpecifier parses a dotted type name with optional namespace
// (FHIR.Patient, System.Integer) after is/as.
func (p *Parser) parseTypeSpecifier() string {
	if p.cur.Kind != token.KindIdentifier {
		p.errorf(p.cur.Span, diagnostic.CodeInvalidTypeSpecifier, "expected type specifier")
		return ""
	}
	name := p.advance().Text
	for p.cur.Kind == token.KindDot && p.peek.Kind == token.KindIdentifier {
		p.advance() // '.'
		name += "." + p.advance().Text
	}
	return name
}

// parsePrefix parses a primary term or a prefix (+/-) expression.
func (p *Parser) parsePrefix() ast.Node {
	switch p.cur.Kind {
	case token.KindPlus:
		tok := p.advance()
		operand := p.parseExpression(precUnary)
		return ast.NewUnary(spanFrom(tok.Span, operand.Span()), ast.OpPlus, operand)
	case token.KindMinus:
		tok := p.advance()
		operand := p.parseExpression(precUnary)
		return ast.NewUnary(spanFrom(tok.Span, operand.Span()), ast.OpNegate, operand)
	case token.KindLParen:
		p.advance()
		inner := p.parseExpression(0)
		p.expect(token.KindRParen, diagnostic.CodeUnmatchedParen, "expected ')'")
		return inner
	case token.KindLBrace:
		open := p.advance()
		close := p.expect(token.KindRBrace, diagnostic.CodeUnexpectedToken, "expected '}' to close '{}'")
		return ast.NewLiteral(spanFrom(open.Span, close.Span), ast.LiteralEmpty, "", "")
	case token.KindInteger, token.KindDecimal:
		return p.parseNumberOrQuantity()
	case token.KindString:
		tok := p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralString, tok.Text, "")
	case token.KindDate:
		tok := p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralDate, tok.Text, "")
	case token.KindDateTime:
		tok := p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralDateTime, tok.Text, "")
	case token.KindTime:
		tok := p.advance()
		return ast.NewLiteral(tok.Span, ast.LiteralTime, tok.Text, "")
	case token.KindDollar:
		return p.parseVariableBuiltin()
	case token.KindPercent:
		return p.parseEnvironmentVariable()
	case token.KindIdentifier:
		return p.parseIdentifierOrInvocation()
	default:
		tok := p.advance()
		p.errorf(tok.Span, diagnostic.CodeUnexpectedToken, "unexpected token %q", tok.Text)
		return ast.NewError(tok.Span)
	}
}

const precUnary = 120 // tighter than multiplicative, per spec.md section 4.2 tier 3

func (p *Parser) parseNumberOrQuantity() ast.Node {
	numTok := p.advance()
	kind := ast.LiteralInteger
	if numTok.Kind == token.KindDecimal {
		kind = ast.LiteralDecimal
	}

	// A string literal or calendar-duration keyword directly following the
	// number, with or without whitespace between, forms a quantity
	// (spec.md section 4.1: "quantity unit... adjacent to a number").
	if p.cur.Kind == token.KindString {
		unitTok := p.advance()
		return ast.NewLiteral(spanFrom(numTok.Span, unitTok.Span), ast.LiteralQuantity, numTok.Text, unitTok.Text)
	}
	if p.cur.Kind == token.KindIdentifier && calendarDurationKeywords[p.cur.Text] {
		unitTok := p.advance()
		return ast.NewLiteral(spanFrom(numTok.Span, unitTok.Span), ast.LiteralQuantity, numTok.Text, unitTok.Text)
	}

	if kind == ast.LiteralInteger {
		if _, err := strconv.ParseInt(numTok.Text, 10, 64); err != nil {
			// overflow: fall back to decimal, matching the teacher's
			// graceful-degradation behavior for oversized integer literals.
			kind = ast.LiteralDecimal
		}
	}
	return ast.NewLiteral(numTok.Span, kind, numTok.Text, "")
}

// parseVariableBuiltin parses $this, $index, $total.
func (p *Parser) parseVariableBuiltin() ast.Node {
	dollar := p.advance()
	if p.cur.Kind != token.KindIdentifier {
		p.errorf(p.cur.Span, diagnostic.CodeUnexpectedToken, "expected identifier after '$'")
		return ast.NewError(dollar.Span)
	}
	nameTok := p.advance()
	var kind ast.VariableKind
	switch nameTok.Text {
	case "this":
		kind = ast.VarThis
	case "index":
		kind = ast.VarIndex
	case "total":
		kind = ast.VarTotal
	default:
		p.errorf(nameTok.Span, diagnostic.CodeUnexpectedToken, "unknown built-in variable $%s", nameTok.Text)
		return ast.NewError(spanFrom(dollar.Span, nameTok.Span))
	}
	return ast.NewVariable(spanFrom(dollar.Span, nameTok.Span), kind, "")
}

// parseEnvironmentVariable parses %name or %'quoted name'.
func (p *Parser) parseEnvironmentVariable() ast.Node {
	percent := p.advance()
	switch p.cur.Kind {
	case token.KindIdentifier:
		nameTok := p.advance()
		return ast.NewVariable(spanFrom(percent.Span, nameTok.Span), ast.VarEnvironment, nameTok.Text)
	case token.KindString:
		nameTok := p.advance()
		return ast.NewVariable(spanFrom(percent.Span, nameTok.Span), ast.VarEnvironment, nameTok.Text)
	default:
		p.errorf(p.cur.Span, diagnostic.CodeUnexpectedToken, "expected identifier after '%%'")
		return ast.NewError(percent.Span)
	}
}

// parseIdentifierOrInvocation parses a bare identifier, possibly followed
// immediately by '(' to form a function call invocation with no base.
func (p *Parser) parseIdentifierOrInvocation() ast.Node {
	nameTok := p.advance()
	if p.cur.Kind == token.KindLParen {
		return p.parseInvocationArgs(nil, nameTok.Text, nameTok.Span)
	}
	return ast.NewIdentifier(nameTok.Span, nameTok.Text)
}

// parseInvocationArgs parses the (args...) tail of a function call.
func (p *Parser) parseInvocationArgs(base ast.Node, name string, startSpan token.Span) ast.Node {
	p.advance() // '('
	var args []ast.Node
	if p.cur.Kind != token.KindRParen {
		args = append(args, p.parseExpression(0))
		for p.cur.Kind == token.KindComma {
			p.advance()
			args = append(args, p.parseExpression(0))
		}
	}
	closeTok := p.expect(token.KindRParen, diagnostic.CodeUnmatchedParen, "expected ')' to close argument list")
	return ast.NewInvocation(spanFrom(startSpan, closeTok.Span), base, name, args)
}

// parsePostfix folds in '.', '[...]' trailers onto a already-parsed term,
// left-associatively (a.b.c == (a.b).c, spec.md section 4.2 tie-break).
func (p *Parser) parsePostfix(left ast.Node) ast.Node {
	for {
		switch p.cur.Kind {
		case token.KindDot:
			p.advance()
			if p.cur.Kind != token.KindIdentifier {
				tok := p.cur
				p.errorf(tok.Span, diagnostic.CodeUnexpectedToken, "expected identifier or function call after '.'")
				return ast.NewError(spanFrom(left.Span(), tok.Span))
			}
			nameTok := p.advance()
			if p.cur.Kind == token.KindLParen {
				left = p.parseInvocationArgs(left, nameTok.Text, left.Span())
				continue
			}
			left = ast.NewPath(spanFrom(left.Span(), nameTok.Span), left, nameTok.Text)
		case token.KindLBracket:
			p.advance()
			idx := p.parseExpression(0)
			closeTok := p.expect(token.KindRBracket, diagnostic.CodeUnmatchedBracket, "expected ']' to close indexer")
			left = ast.NewIndex(spanFrom(left.Span(), closeTok.Span), left, idx)
		default:
			return left
		}
	}
}

// expect consumes the current token if it matches kind, else emits a
// diagnostic and returns the (wrong) current token without consuming it,
// so the parser can keep making progress.
func (p *Parser) expect(kind token.Kind, code, message string) token.Token {
	if p.cur.Kind == kind {
		return p.advance()
	}
	p.errorf(p.cur.Span, code, "%s, found %q", message, p.cur.Text)
	return p.cur
}
