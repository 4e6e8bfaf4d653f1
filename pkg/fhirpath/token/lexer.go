package token

import (
	"strings"
	"unicode/utf8"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath/diagnostic"
)

// Lexer is a pull-based, single-pass tokenizer over FHIRPath source text.
// Next is called by the parser; the lexer never looks ahead further than
// one rune beyond what it needs to classify the current token.
type Lexer struct {
	src  string
	pos  int // byte offset of the next unread rune
	diag diagnostic.Diagnostics
}

// NewLexer returns a Lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Diagnostics returns the diagnostics accumulated since construction.
func (l *Lexer) Diagnostics() diagnostic.Diagnostics {
	return l.diag
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	return b
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

// Next scans and returns the next token, skipping whitespace and comments.
// At end of input it returns a KindEOF token forever; it never panics or
// loops without making progress.
func (l *Lexer) Next() Token {
	l.skipTrivia()

	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Span: Span{start, start}}
	}

	b := l.peekByte()

	switch {
	case b == '@':
		return l.lexDateTimeLiteral()
	case b == '\'':
		return l.lexString()
	case b == '`':
		return l.lexBacktickIdentifier()
	case isDigit(b):
		return l.lexNumber()
	case isIdentStart(b):
		return l.lexIdentifier()
	default:
		return l.lexPunctuation()
	}
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		b := l.peekByte()
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			l.pos++
		case b == '/' && l.peekByteAt(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case b == '/' && l.peekByteAt(1) == '*':
			l.pos += 2
			for l.pos < len(l.src) && !(l.peekByte() == '*' && l.peekByteAt(1) == '/') {
				l.pos++
			}
			if l.pos < len(l.src) {
				l.pos += 2
			}
		default:
			return
		}
	}
}

func (l *Lexer) errorToken(start int, code, message string) Token {
	end := l.pos
	if end <= start {
		end = start + 1
	}
	l.diag.Add(diagnostic.New(code, message, diagnostic.Span{Start: start, End: end}))
	return Token{Kind: KindError, Span: Span{start, end}, Text: l.src[start:min(end, len(l.src))]}
}

// lexString scans a single-quoted string literal with escapes.
func (l *Lexer) lexString() Token {
	start := l.pos
	l.advance() // opening '
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return l.errorToken(start, diagnostic.CodeUnterminatedString, "unterminated string literal")
		}
		b := l.advance()
		if b == '\'' {
			return Token{Kind: KindString, Span: Span{start, l.pos}, Text: sb.String()}
		}
		if b != '\\' {
			sb.WriteByte(b)
			continue
		}
		if l.pos >= len(l.src) {
			return l.errorToken(start, diagnostic.CodeUnterminatedString, "unterminated string literal")
		}
		esc := l.advance()
		switch esc {
		case '\\':
			sb.WriteByte('\\')
		case '/':
			sb.WriteByte('/')
		case '\'':
			sb.WriteByte('\'')
		case '"':
			sb.WriteByte('"')
		case '`':
			sb.WriteByte('`')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'u':
			if l.pos+4 > len(l.src) {
				return l.errorToken(start, diagnostic.CodeInvalidEscape, "invalid \\u escape")
			}
			hex := l.src[l.pos : l.pos+4]
			r, ok := decodeHex4(hex)
			if !ok {
				return l.errorToken(start, diagnostic.CodeInvalidEscape, "invalid \\u escape: "+hex)
			}
			l.pos += 4
			sb.WriteRune(r)
		default:
			return l.errorToken(start, diagnostic.CodeInvalidEscape, "invalid escape sequence")
		}
	}
}

func decodeHex4(s string) (rune, bool) {
	var v rune
	for i := 0; i < 4; i++ {
		c := s[i]
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			v |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}
	return v, true
}

// lexBacktickIdentifier scans a `delimited identifier`, allowing any
// non-backtick byte inside (spec.md section 4.1).
func (l *Lexer) lexBacktickIdentifier() Token {
	start := l.pos
	l.advance() // opening `
	textStart := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '`' {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return l.errorToken(start, diagnostic.CodeUnterminatedString, "unterminated delimited identifier")
	}
	text := l.src[textStart:l.pos]
	l.advance() // closing `
	return Token{Kind: KindIdentifier, Span: Span{start, l.pos}, Text: text}
}

// lexNumber scans an integer or decimal literal, optionally followed by a
// UCUM unit string or calendar-duration keyword to form a quantity (the
// parser composes the quantity from the adjacent Integer/Decimal and
// String/Identifier tokens, per spec.md section 4.1).
func (l *Lexer) lexNumber() Token {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peekByte()) {
		l.pos++
	}
	isDecimal := false
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isDecimal = true
		l.pos++ // '.'
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.pos++
		}
	}
	text := l.src[start:l.pos]
	kind := KindInteger
	if isDecimal {
		kind = KindDecimal
	}
	return Token{Kind: kind, Span: Span{start, l.pos}, Text: text}
}

// lexIdentifier scans a plain identifier; the lexer never classifies it
// as a keyword — that decision belongs to the parser based on position.
func (l *Lexer) lexIdentifier() Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
		l.pos++
	}
	return Token{Kind: KindIdentifier, Span: Span{start, l.pos}, Text: l.src[start:l.pos]}
}

// lexDateTimeLiteral scans @YYYY[-MM[-DD]][T...[±HH:MM|Z]] or a bare @T time.
func (l *Lexer) lexDateTimeLiteral() Token {
	start := l.pos
	l.advance() // '@'
	isTimeOnly := l.peekByte() == 'T'
	if isTimeOnly {
		l.advance()
	}
	for l.pos < len(l.src) {
		b := l.peekByte()
		if isDigit(b) || b == '-' || b == ':' || b == '.' || b == '+' || b == 'Z' || b == 'T' {
			l.pos++
			continue
		}
		break
	}
	text := l.src[start+1 : l.pos] // drop '@'
	if text == "" {
		return l.errorToken(start, diagnostic.CodeMalformedDateTime, "empty date/time literal")
	}
	switch {
	case isTimeOnly:
		return Token{Kind: KindTime, Span: Span{start, l.pos}, Text: text[1:]} // drop leading 'T'
	case strings.Contains(text, "T"):
		return Token{Kind: KindDateTime, Span: Span{start, l.pos}, Text: text}
	default:
		return Token{Kind: KindDate, Span: Span{start, l.pos}, Text: text}
	}
}

func (l *Lexer) lexPunctuation() Token {
	start := l.pos
	b := l.advance()
	two := func(next byte, kind Kind, single Kind) Token {
		if l.peekByte() == next {
			l.advance()
			return Token{Kind: kind, Span: Span{start, l.pos}, Text: l.src[start:l.pos]}
		}
		return Token{Kind: single, Span: Span{start, l.pos}, Text: l.src[start:l.pos]}
	}
	switch b {
	case '.':
		return Token{Kind: KindDot, Span: Span{start, l.pos}, Text: "."}
	case ',':
		return Token{Kind: KindComma, Span: Span{start, l.pos}, Text: ","}
	case '(':
		return Token{Kind: KindLParen, Span: Span{start, l.pos}, Text: "("}
	case ')':
		return Token{Kind: KindRParen, Span: Span{start, l.pos}, Text: ")"}
	case '[':
		return Token{Kind: KindLBracket, Span: Span{start, l.pos}, Text: "["}
	case ']':
		return Token{Kind: KindRBracket, Span: Span{start, l.pos}, Text: "]"}
	case '{':
		return Token{Kind: KindLBrace, Span: Span{start, l.pos}, Text: "{"}
	case '}':
		return Token{Kind: KindRBrace, Span: Span{start, l.pos}, Text: "}"}
	case '|':
		return Token{Kind: KindPipe, Span: Span{start, l.pos}, Text: "|"}
	case '$':
		return Token{Kind: KindDollar, Span: Span{start, l.pos}, Text: "$"}
	case '%':
		return Token{Kind: KindPercent, Span: Span{start, l.pos}, Text: "%"}
	case '+':
		return Token{Kind: KindPlus, Span: Span{start, l.pos}, Text: "+"}
	case '-':
		return Token{Kind: KindMinus, Span: Span{start, l.pos}, Text: "-"}
	case '*':
		return Token{Kind: KindStar, Span: Span{start, l.pos}, Text: "*"}
	case '/':
		return Token{Kind: KindSlash, Span: Span{start, l.pos}, Text: "/"}
	case '&':
		return Token{Kind: KindAmp, Span: Span{start, l.pos}, Text: "&"}
	case '=':
		return Token{Kind: KindEq, Span: Span{start, l.pos}, Text: "="}
	case '~':
		return Token{Kind: KindEquiv, Span: Span{start, l.pos}, Text: "~"}
	case '!':
		if l.peekByte() == '=' {
			l.advance()
			return Token{Kind: KindNeq, Span: Span{start, l.pos}, Text: "!="}
		}
		if l.peekByte() == '~' {
			l.advance()
			return Token{Kind: KindNequiv, Span: Span{start, l.pos}, Text: "!~"}
		}
		return l.errorToken(start, diagnostic.CodeLexError, "unexpected character '!'")
	case '<':
		return two('=', KindLe, KindLt)
	case '>':
		return two('=', KindGe, KindGt)
	default:
		r, size := utf8.DecodeRuneInString(l.src[start:])
		l.pos = start + size
		return l.errorToken(start, diagnostic.CodeLexError, "unexpected character '"+string(r)+"'")
	}
}
