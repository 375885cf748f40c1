package parser

import (
	"fmt"
	"unicode"
)

// TokenKind classifies a lexeme of the declaration file.
type TokenKind int

const (
	EOF TokenKind = iota
	Illegal
	Ident
	Number
	String
	ColonColon
	Colon
	Star
	LParen
	RParen
	Comma
	Arrow
	Semi
	Other
)

var kindNames = map[TokenKind]string{
	EOF:        "end of input",
	Illegal:    "illegal token",
	Ident:      "identifier",
	Number:     "number",
	String:     "string",
	ColonColon: "'::'",
	Colon:      "':'",
	Star:       "'*'",
	LParen:     "'('",
	RParen:     "')'",
	Comma:      "','",
	Arrow:      "'->'",
	Semi:       "';'",
	Other:      "punctuation",
}

func (k TokenKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Col    int
}

// Lexer produces tokens on demand. Comments and whitespace are skipped.
type Lexer struct {
	source []rune
	pos    int
	line   int
	col    int
}

func NewLexer(source string) *Lexer {
	return &Lexer{
		source: []rune(source),
		line:   1,
		col:    1,
	}
}

func (l *Lexer) NextToken() Token {
	if msg := l.skipTrivia(); msg != "" {
		return Token{Kind: Illegal, Lexeme: msg, Line: l.line, Col: l.col}
	}

	if l.pos >= len(l.source) {
		return Token{Kind: EOF, Line: l.line, Col: l.col}
	}

	line, col := l.line, l.col
	start := l.pos
	c := l.advance()

	tok := func(kind TokenKind) Token {
		return Token{Kind: kind, Lexeme: string(l.source[start:l.pos]), Line: line, Col: col}
	}

	switch {
	case c == '_' || unicode.IsLetter(c):
		for l.pos < len(l.source) && isIdentRune(l.peek()) {
			l.advance()
		}
		return tok(Ident)
	case unicode.IsDigit(c):
		for l.pos < len(l.source) && (isIdentRune(l.peek()) || l.peek() == '.') {
			l.advance()
		}
		return tok(Number)
	}

	switch c {
	case ':':
		if l.peek() == ':' {
			l.advance()
			return tok(ColonColon)
		}
		return tok(Colon)
	case '-':
		if l.peek() == '>' {
			l.advance()
			return tok(Arrow)
		}
		return tok(Other)
	case '*':
		return tok(Star)
	case '(':
		return tok(LParen)
	case ')':
		return tok(RParen)
	case ',':
		return tok(Comma)
	case ';':
		return tok(Semi)
	case '"':
		for l.pos < len(l.source) {
			r := l.advance()
			if r == '\\' && l.pos < len(l.source) {
				l.advance()
				continue
			}
			if r == '"' {
				return tok(String)
			}
		}
		return Token{Kind: Illegal, Lexeme: "unterminated string literal", Line: line, Col: col}
	}

	return tok(Other)
}

// skipTrivia consumes whitespace and comments. A non-empty result describes
// an unterminated block comment.
func (l *Lexer) skipTrivia() string {
	for l.pos < len(l.source) {
		c := l.peek()
		switch {
		case unicode.IsSpace(c):
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.source) && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			depth := 1
			for depth > 0 {
				if l.pos >= len(l.source) {
					return "unterminated block comment"
				}
				switch {
				case l.peek() == '/' && l.peekAt(1) == '*':
					l.advance()
					l.advance()
					depth++
				case l.peek() == '*' && l.peekAt(1) == '/':
					l.advance()
					l.advance()
					depth--
				default:
					l.advance()
				}
			}
		default:
			return ""
		}
	}
	return ""
}

func (l *Lexer) advance() rune {
	c := l.source[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
