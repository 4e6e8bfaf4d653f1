package token

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	lex := NewLexer(src)
	var toks []Token
	for {
		tok := lex.Next()
		toks = append(toks, tok)
		if tok.Kind == KindEOF {
			return toks
		}
	}
}

func TestLexerPunctuationAndOperators(t *testing.T) {
	src := ". , ( ) [ ] { } | $ % + - * / & = != ~ !~ < <= > >="
	toks := lexAll(t, src)

	want := []Kind{
		KindDot, KindComma, KindLParen, KindRParen, KindLBracket, KindRBracket,
		KindLBrace, KindRBrace, KindPipe, KindDollar, KindPercent, KindPlus,
		KindMinus, KindStar, KindSlash, KindAmp, KindEq, KindNeq, KindEquiv,
		KindNequiv, KindLt, KindLe, KindGt, KindGe, KindEOF,
	}

	got := make([]Kind, len(toks))
	for i, tok := range toks {
		got[i] = tok.Kind
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLexerIdentifiersAndKeywords(t *testing.T) {
	toks := lexAll(t, "Patient name and `quoted name`")
	require.Len(t, toks, 5) // Patient, name, and, `quoted name`, EOF

	assert.Equal(t, KindIdentifier, toks[0].Kind)
	assert.Equal(t, "Patient", toks[0].Text)

	assert.Equal(t, KindIdentifier, toks[2].Kind)
	assert.Equal(t, "and", toks[2].Text)
	assert.True(t, IsKeywordOperator(toks[2].Text))

	assert.Equal(t, KindIdentifier, toks[3].Kind)
	assert.Equal(t, "quoted name", toks[3].Text, "backticks should be stripped")
}

func TestLexerStringLiteral(t *testing.T) {
	toks := lexAll(t, `'hello world'`)
	require.Len(t, toks, 2)
	assert.Equal(t, KindString, toks[0].Kind)
	assert.Equal(t, "hello world", toks[0].Text)
}

func TestLexerStringEscapes(t *testing.T) {
	toks := lexAll(t, `'a\'b\nc'`)
	require.Len(t, toks, 2)
	assert.Equal(t, KindString, toks[0].Kind)
	assert.Equal(t, "a'b\nc", toks[0].Text)
}

func TestLexerNumbers(t *testing.T) {
	toks := lexAll(t, "42 3.14")
	require.Len(t, toks, 3)
	assert.Equal(t, KindInteger, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Text)
	assert.Equal(t, KindDecimal, toks[1].Kind)
	assert.Equal(t, "3.14", toks[1].Text)
}

func TestLexerUnterminatedString(t *testing.T) {
	lex := NewLexer(`'unterminated`)
	tok := lex.Next()
	assert.Equal(t, KindError, tok.Kind)
	assert.True(t, lex.Diagnostics().HasErrors())
}

func TestLexerSkipsComments(t *testing.T) {
	toks := lexAll(t, "Patient // a comment\n.name /* block */ .given")
	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []Kind{KindIdentifier, KindDot, KindIdentifier, KindDot, KindIdentifier, KindEOF}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("token kinds mismatch after stripping comments (-want +got):\n%s", diff)
	}
}

func TestLexerNeverLoopsWithoutProgress(t *testing.T) {
	// An unrecognized byte should still make forward progress.
	lex := NewLexer("\x01\x02")
	for i := 0; i < 10; i++ {
		tok := lex.Next()
		if tok.Kind == KindEOF {
			return
		}
	}
	t.Fatal("lexer did not reach EOF within a bounded number of Next() calls")
}
