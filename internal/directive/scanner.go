package directive

import (
	"strings"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for markdown token types.
const (
	TokenText         TokenType = iota // Literal markdown
	TokenCode                          // Inline code span, copied verbatim
	TokenFence                         // Fenced code block
	TokenDirective                     // ${ expr }
	TokenTransclusion                  // ![[ ref ]]
	TokenEOF                           // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenCode:
		return "CODE"
	case TokenFence:
		return "FENCE"
	case TokenDirective:
		return "DIRECTIVE"
	case TokenTransclusion:
		return "TRANSCLUSION"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a piece of a markdown document.
type Token struct {
	Type  TokenType
	Raw   string // source text of the token
	Value string // expression, page ref or fence body
	Lang  string // fence language
	Pos   Position
	Err   error // set on a directive that is not closed
}

// Scanner splits markdown into text, code and directive tokens.
type Scanner struct {
	input    string
	page     string
	pos      int // current position in input
	line     int // current line number (1-based)
	col      int // current column number (1-based)
	startPos int
	lastLine int // line at start of current token
	lastCol  int // column at start of current token
}

// NewScanner creates a scanner for a document. page is used in positions.
func NewScanner(input, page string) *Scanner {
	return &Scanner{
		input: input,
		page:  page,
		line:  1,
		col:   1,
	}
}

// Tokenize converts the input into tokens ending with TokenEOF.
func (s *Scanner) Tokenize() []Token {
	var tokens []Token
	for {
		tok := s.nextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

func (s *Scanner) nextToken() Token {
	if s.pos >= len(s.input) {
		return Token{Type: TokenEOF, Pos: s.position()}
	}

	if s.atLineStart() {
		if tok, ok := s.scanFence(); ok {
			return tok
		}
	}
	switch {
	case s.matchString("${"):
		return s.scanDirective()
	case s.matchString("![["):
		if tok, ok := s.scanTransclusion(); ok {
			return tok
		}
	case s.matchString("`"):
		if tok, ok := s.scanCodeSpan(); ok {
			return tok
		}
	}
	return s.scanText()
}

// scanText scans literal text up to the next token start. At least one
// rune is always consumed, or a whole backtick run that opens no span.
func (s *Scanner) scanText() Token {
	s.markStart()
	if s.peek() == '`' {
		s.advanceN(countPrefix(s.input[s.pos:], '`'))
	} else {
		s.advance()
	}
	for s.pos < len(s.input) {
		if s.matchString("${") || s.matchString("![[") || s.matchString("`") {
			break
		}
		if s.atLineStart() && fenceLength(s.input[s.pos:]) > 0 {
			break
		}
		s.advance()
	}
	return s.token(TokenText, s.input[s.startPos:s.pos])
}

// scanDirective scans ${ expr }, tracking nested braces and skipping
// quoted strings.
func (s *Scanner) scanDirective() Token {
	s.markStart()
	s.advanceN(2)
	exprStart := s.pos
	depth := 0

	for s.pos < len(s.input) {
		switch r := s.peek(); r {
		case '"', '\'':
			s.skipQuoted(r)
			continue
		case '{':
			depth++
		case '}':
			if depth == 0 {
				expr := strings.TrimSpace(s.input[exprStart:s.pos])
				s.advance()
				return s.token(TokenDirective, expr)
			}
			depth--
		}
		s.advance()
	}

	// rewind so the rest of the document is scanned as usual
	s.pos, s.line, s.col = s.startPos+2, s.lastLine, s.lastCol+2
	tok := s.token(TokenDirective, "")
	tok.Err = NewScanError(tok.Pos, "unclosed directive: missing '}'")
	return tok
}

func (s *Scanner) skipQuoted(quote rune) {
	s.advance()
	for s.pos < len(s.input) {
		r := s.peek()
		s.advance()
		switch r {
		case '\\':
			s.advance()
		case quote, '\n':
			return
		}
	}
}

// scanTransclusion scans ![[ref]] on a single line.
func (s *Scanner) scanTransclusion() (Token, bool) {
	rest := s.input[s.pos+3:]
	end := strings.Index(rest, "]]")
	if end < 0 || strings.ContainsRune(rest[:end], '\n') {
		return Token{}, false
	}
	s.markStart()
	s.advanceN(3 + end + 2)
	return s.token(TokenTransclusion, strings.TrimSpace(rest[:end])), true
}

// scanCodeSpan scans a run of backticks and its matching closing run.
func (s *Scanner) scanCodeSpan() (Token, bool) {
	open := countPrefix(s.input[s.pos:], '`')
	search := s.pos + open
	for search < len(s.input) {
		i := strings.IndexByte(s.input[search:], '`')
		if i < 0 {
			break
		}
		closeStart := search + i
		n := countPrefix(s.input[closeStart:], '`')
		if n == open {
			s.markStart()
			s.advanceN(closeStart + n - s.pos)
			return s.token(TokenCode, s.input[s.startPos+open:closeStart]), true
		}
		search = closeStart + n
	}
	return Token{}, false
}

// scanFence scans a fenced code block starting at the current line. An
// unterminated fence runs to the end of the document.
func (s *Scanner) scanFence() (Token, bool) {
	line := s.input[s.pos:]
	n := fenceLength(line)
	if n == 0 {
		return Token{}, false
	}
	indent := len(line) - len(strings.TrimLeft(line, " "))
	marker := line[indent]

	s.markStart()
	infoEnd := strings.IndexByte(line, '\n')
	if infoEnd < 0 {
		infoEnd = len(line)
	}
	info := strings.TrimSpace(line[indent+n : infoEnd])
	lang, _, _ := strings.Cut(info, " ")

	s.advanceN(infoEnd)
	if s.pos < len(s.input) {
		s.advance()
	}
	bodyStart := s.pos

	for s.pos < len(s.input) {
		lineEnd := strings.IndexByte(s.input[s.pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(s.input) - s.pos
		}
		current := s.input[s.pos : s.pos+lineEnd]
		trimmed := strings.TrimLeft(current, " ")
		if closing := countPrefix(trimmed, marker); closing >= n && len(current)-len(trimmed) < 4 &&
			strings.TrimSpace(trimmed[closing:]) == "" {
			body := s.input[bodyStart:s.pos]
			s.advanceN(lineEnd)
			if s.pos < len(s.input) {
				s.advance()
			}
			tok := s.token(TokenFence, body)
			tok.Lang = lang
			return tok, true
		}
		s.advanceN(lineEnd)
		if s.pos < len(s.input) {
			s.advance()
		}
	}

	tok := s.token(TokenFence, s.input[bodyStart:])
	tok.Lang = lang
	return tok, true
}

// fenceLength returns the length of the fence opening line, or 0 when line
// does not open a fence.
func fenceLength(line string) int {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || trimmed == "" {
		return 0
	}
	marker := trimmed[0]
	if marker != '`' && marker != '~' {
		return 0
	}
	n := countPrefix(trimmed, marker)
	if n < 3 {
		return 0
	}
	if marker == '`' {
		end := strings.IndexByte(trimmed, '\n')
		if end < 0 {
			end = len(trimmed)
		}
		if strings.ContainsRune(trimmed[n:end], '`') {
			return 0
		}
	}
	return n
}

func countPrefix(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

// Helper methods

func (s *Scanner) token(typ TokenType, value string) Token {
	return Token{
		Type:  typ,
		Raw:   s.input[s.startPos:s.pos],
		Value: value,
		Pos:   s.startPosition(),
	}
}

func (s *Scanner) atLineStart() bool {
	return s.pos == 0 || s.input[s.pos-1] == '\n'
}

// peek returns the current rune without advancing.
func (s *Scanner) peek() rune {
	if s.pos >= len(s.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.pos:])
	return r
}

// advance moves to the next rune, updating position tracking.
func (s *Scanner) advance() {
	if s.pos >= len(s.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(s.input[s.pos:])
	s.pos += size

	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
}

// advanceN advances by n bytes.
func (s *Scanner) advanceN(n int) {
	end := min(s.pos+n, len(s.input))
	for s.pos < end {
		s.advance()
	}
}

// matchString checks if the input at current position matches prefix.
func (s *Scanner) matchString(prefix string) bool {
	return strings.HasPrefix(s.input[s.pos:], prefix)
}

// markStart records the start position for the current token.
func (s *Scanner) markStart() {
	s.startPos = s.pos
	s.lastLine = s.line
	s.lastCol = s.col
}

// position returns the current position.
func (s *Scanner) position() Position {
	return Position{Page: s.page, Offset: s.pos, Line: s.line, Column: s.col}
}

// startPosition returns the position where the current token started.
func (s *Scanner) startPosition() Position {
	return Position{Page: s.page, Offset: s.startPos, Line: s.lastLine, Column: s.lastCol}
}
