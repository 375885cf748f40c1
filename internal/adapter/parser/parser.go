// Package parser extracts foreign function signatures from bindgen output.
package parser

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"talibgen/internal/domain"
)

// DefaultPrefix is the identifier prefix every wrapped function carries.
const DefaultPrefix = "TA_"

// singlePrecision marks the float variants of each function, which share
// the double-precision wrapper.
const singlePrecision = "S_"

// Parser recognises `pub fn <prefix>NAME(param: type, ...)` declarations.
// NAME is upper-case words of letters and digits joined by underscores;
// other `pub fn` items are skipped.
type Parser struct {
	prefix string
	log    *slog.Logger
}

type Option func(*Parser)

// WithLogger reports skipped declarations at debug level.
func WithLogger(log *slog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

func New(prefix string, opts ...Option) *Parser {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	p := &Parser{prefix: prefix, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract parses every declaration in text. Finding none is an error.
func (p *Parser) Extract(text string) ([]domain.Signature, error) {
	var sigs []domain.Signature
	for sig, err := range p.Signatures(text) {
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	if len(sigs) == 0 {
		return nil, &domain.ExtractionError{
			Msg: fmt.Sprintf("no %s* declarations in input", p.prefix),
			Err: domain.ErrNoDeclarations,
		}
	}
	return sigs, nil
}

// Signatures lazily yields declarations in source order. Iteration stops
// after the first error.
func (p *Parser) Signatures(text string) iter.Seq2[domain.Signature, error] {
	return func(yield func(domain.Signature, error) bool) {
		s := &scanner{lex: NewLexer(text)}
		for {
			tok := s.next()
			switch tok.Kind {
			case EOF:
				return
			case Illegal:
				yield(domain.Signature{}, &domain.ExtractionError{Line: tok.Line, Col: tok.Col, Msg: tok.Lexeme})
				return
			}

			if !isKeyword(tok, "pub") || !isKeyword(s.peek(0), "fn") {
				continue
			}
			nameTok := s.peek(1)
			if nameTok.Kind != Ident || s.peek(2).Kind != LParen {
				continue
			}
			name, ok := p.functionName(nameTok.Lexeme)
			if !ok {
				p.log.Debug("skipping declaration", "name", nameTok.Lexeme, "line", tok.Line)
				continue
			}

			s.next() // fn
			s.next() // name
			params, err := s.parseParams(nameTok.Lexeme)
			if err != nil {
				yield(domain.Signature{}, err)
				return
			}
			sig := domain.Signature{Name: name, Parameters: params, Line: tok.Line}
			if !yield(sig, nil) {
				return
			}
		}
	}
}

// functionName strips the prefix and checks the remaining name shape.
func (p *Parser) functionName(ident string) (string, bool) {
	name, ok := strings.CutPrefix(ident, p.prefix)
	if !ok || name == "" || strings.HasPrefix(name, singlePrecision) {
		return "", false
	}
	for i, word := range strings.Split(name, "_") {
		if word == "" {
			return "", false
		}
		for j, r := range word {
			switch {
			case r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && (i > 0 || j > 0):
			default:
				return "", false
			}
		}
	}
	return name, true
}

type scanner struct {
	lex    *Lexer
	buffer []Token
}

func (s *scanner) next() Token {
	if len(s.buffer) > 0 {
		t := s.buffer[0]
		s.buffer = s.buffer[1:]
		return t
	}
	return s.lex.NextToken()
}

func (s *scanner) peek(n int) Token {
	for len(s.buffer) <= n {
		s.buffer = append(s.buffer, s.lex.NextToken())
	}
	return s.buffer[n]
}

func (s *scanner) expect(fn string, kind TokenKind) (Token, error) {
	t := s.next()
	if t.Kind != kind {
		return t, unexpected(fn, kind.String(), t)
	}
	return t, nil
}

// parseParams parses `"(" [param {"," param} [","]] ")"`.
func (s *scanner) parseParams(fn string) ([]domain.Parameter, error) {
	if _, err := s.expect(fn, LParen); err != nil {
		return nil, err
	}

	var params []domain.Parameter
	for {
		if s.peek(0).Kind == RParen {
			s.next()
			return params, nil
		}

		name, err := s.expect(fn, Ident)
		if err != nil {
			return nil, err
		}
		if _, err := s.expect(fn, Colon); err != nil {
			return nil, err
		}
		typ, err := s.parseType(fn)
		if err != nil {
			return nil, err
		}
		params = append(params, domain.Parameter{Name: name.Lexeme, RawType: typ})

		switch t := s.next(); t.Kind {
		case Comma:
		case RParen:
			return params, nil
		default:
			return nil, unexpected(fn, "',' or ')'", t)
		}
	}
}

// parseType parses `"*" ["const"|"mut"] type | path` and returns its
// canonical text.
func (s *scanner) parseType(fn string) (string, error) {
	if s.peek(0).Kind != Star {
		return s.parsePath(fn)
	}
	s.next()

	qualifier := ""
	if t := s.peek(0); isKeyword(t, "const") || isKeyword(t, "mut") {
		qualifier = s.next().Lexeme
	}
	inner, err := s.parseType(fn)
	if err != nil {
		return "", err
	}
	if qualifier == "" {
		return "*" + inner, nil
	}
	return "*" + qualifier + " " + inner, nil
}

// parsePath parses `["::"] IDENT {"::" IDENT}`.
func (s *scanner) parsePath(fn string) (string, error) {
	var b strings.Builder
	if s.peek(0).Kind == ColonColon {
		s.next()
		b.WriteString("::")
	}

	seg, err := s.expect(fn, Ident)
	if err != nil {
		return "", err
	}
	b.WriteString(seg.Lexeme)

	for s.peek(0).Kind == ColonColon {
		s.next()
		seg, err := s.expect(fn, Ident)
		if err != nil {
			return "", err
		}
		b.WriteString("::")
		b.WriteString(seg.Lexeme)
	}
	return b.String(), nil
}

func isKeyword(t Token, word string) bool {
	return t.Kind == Ident && t.Lexeme == word
}

func unexpected(fn, want string, got Token) error {
	found := got.Lexeme
	if got.Kind == EOF {
		found = got.Kind.String()
	}
	return &domain.ExtractionError{
		Line: got.Line,
		Col:  got.Col,
		Msg:  fmt.Sprintf("%s: expected %s, found %q", fn, want, found),
	}
}
