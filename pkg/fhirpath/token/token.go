// Package token defines the lexical tokens produced from FHIRPath source
// text and the lexer that produces them.
package token

// Kind tags the lexical category of a Token.
type Kind int

const (
	KindEOF Kind = iota
	KindError

	// Literals
	KindInteger
	KindDecimal
	KindString
	KindDate
	KindDateTime
	KindTime

	// Names
	KindIdentifier // includes backtick-delimited identifiers, already stripped

	// Punctuation and operators
	KindDot
	KindComma
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindLBrace
	KindRBrace
	KindPipe
	KindDollar
	KindPercent
	KindPlus
	KindMinus
	KindStar
	KindSlash
	KindAmp
	KindEq
	KindNeq
	KindEquiv
	KindNequiv
	KindLt
	KindLe
	KindGt
	KindGe
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindError:
		return "Error"
	case KindInteger:
		return "Integer"
	case KindDecimal:
		return "Decimal"
	case KindString:
		return "String"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindTime:
		return "Time"
	case KindIdentifier:
		return "Identifier"
	case KindDot:
		return "."
	case KindComma:
		return ","
	case KindLParen:
		return "("
	case KindRParen:
		return ")"
	case KindLBracket:
		return "["
	case KindRBracket:
		return "]"
	case KindLBrace:
		return "{"
	case KindRBrace:
		return "}"
	case KindPipe:
		return "|"
	case KindDollar:
		return "$"
	case KindPercent:
		return "%"
	case KindPlus:
		return "+"
	case KindMinus:
		return "-"
	case KindStar:
		return "*"
	case KindSlash:
		return "/"
	case KindAmp:
		return "&"
	case KindEq:
		return "="
	case KindNeq:
		return "!="
	case KindEquiv:
		return "~"
	case KindNequiv:
		return "!~"
	case KindLt:
		return "<"
	case KindLe:
		return "<="
	case KindGt:
		return ">"
	case KindGe:
		return ">="
	default:
		return "Unknown"
	}
}

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

// Token is one lexical unit: its kind, source span, and decoded text
// (quotes/backticks already stripped, escapes already resolved for strings).
type Token struct {
	Kind Kind
	Span Span
	Text string
}

// keywordOperators are reserved words that are keywords only when they
// appear in operator position (spec.md section 4.1); the lexer always
// emits KindIdentifier for them and the parser decides.
var keywordOperators = map[string]bool{
	"and": true, "or": true, "xor": true, "implies": true, "not": true,
	"is": true, "as": true, "in": true, "contains": true,
	"div": true, "mod": true, "true": true, "false": true,
}

// IsKeywordOperator reports whether text is a reserved word that is only a
// keyword in operator position.
func IsKeywordOperator(text string) bool {
	return keywordOperators[text]
}
