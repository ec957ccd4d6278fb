package grammar

import (
	"fmt"

	"github.com/leapstack-labs/spacelua/pkg/token"
)

// Lexer tokenizes space-lua source.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	// err holds the first lexical error; the offending token is ILLEGAL.
	err *SyntaxError

	// Comments collected while skipping trivia.
	Comments []*token.Comment
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Err returns the first lexical error, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	if l.pos < len(l.input) && l.readPos > 0 && l.input[l.pos] == '\n' {
		l.line++
		l.col = 0
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// peekCharN returns the character n positions after the current one.
func (l *Lexer) peekCharN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	if l.err != nil {
		return l.illegal(pos)
	}
	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos, End: pos.Offset}
	}

	switch l.ch {
	case '+':
		return l.single(token.PLUS, pos)
	case '-':
		return l.single(token.MINUS, pos)
	case '*':
		return l.single(token.STAR, pos)
	case '/':
		if l.peekChar() == '/' {
			return l.double(token.DSLASH, pos)
		}
		return l.single(token.SLASH, pos)
	case '%':
		return l.single(token.PERCENT, pos)
	case '^':
		return l.single(token.CARET, pos)
	case '#':
		return l.single(token.HASH, pos)
	case '&':
		return l.single(token.AMP, pos)
	case '|':
		return l.single(token.PIPE, pos)
	case '~':
		if l.peekChar() == '=' {
			return l.double(token.NE, pos)
		}
		return l.single(token.TILDE, pos)
	case '<':
		switch l.peekChar() {
		case '<':
			return l.double(token.SHL, pos)
		case '=':
			return l.double(token.LE, pos)
		}
		return l.single(token.LT, pos)
	case '>':
		switch l.peekChar() {
		case '>':
			return l.double(token.SHR, pos)
		case '=':
			return l.double(token.GE, pos)
		}
		return l.single(token.GT, pos)
	case '=':
		if l.peekChar() == '=' {
			return l.double(token.EQ, pos)
		}
		return l.single(token.ASSIGN, pos)
	case '(':
		return l.single(token.LPAREN, pos)
	case ')':
		return l.single(token.RPAREN, pos)
	case '{':
		return l.single(token.LBRACE, pos)
	case '}':
		return l.single(token.RBRACE, pos)
	case ']':
		return l.single(token.RBRACKET, pos)
	case ';':
		return l.single(token.SEMICOLON, pos)
	case ',':
		return l.single(token.COMMA, pos)
	case ':':
		if l.peekChar() == ':' {
			return l.double(token.DCOLON, pos)
		}
		return l.single(token.COLON, pos)
	case '[':
		if level, ok := l.longBracketLevel(); ok {
			return l.readLongString(pos, level)
		}
		return l.single(token.LBRACKET, pos)
	case '.':
		if l.peekChar() == '.' {
			if l.peekCharN(2) == '.' {
				l.readChar()
				l.readChar()
				l.readChar()
				return l.emit(token.ELLIPSIS, pos)
			}
			return l.double(token.CONCAT, pos)
		}
		if isDigit(l.peekChar()) {
			return l.readNumber(pos)
		}
		return l.single(token.DOT, pos)
	case '"', '\'':
		return l.readString(pos)
	}

	switch {
	case isLetter(l.ch):
		return l.readName(pos)
	case isDigit(l.ch):
		return l.readNumber(pos)
	}

	l.fail(pos, fmt.Sprintf(ErrUnexpectedChar, l.ch))
	return l.illegal(pos)
}

// Tokenize returns all tokens up to and including EOF, or the first lexical error.
func Tokenize(input string) ([]token.Token, error) {
	l := NewLexer(input)
	var out []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			return out, l.Err()
		}
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out, nil
		}
	}
}

func (l *Lexer) emit(t token.TokenType, pos token.Position) token.Token {
	return token.Token{Type: t, Literal: l.input[pos.Offset:l.pos], Pos: pos, End: l.pos}
}

func (l *Lexer) single(t token.TokenType, pos token.Position) token.Token {
	l.readChar()
	return l.emit(t, pos)
}

func (l *Lexer) double(t token.TokenType, pos token.Position) token.Token {
	l.readChar()
	l.readChar()
	return l.emit(t, pos)
}

func (l *Lexer) illegal(pos token.Position) token.Token {
	return token.Token{Type: token.ILLEGAL, Pos: pos, End: pos.Offset}
}

func (l *Lexer) fail(pos token.Position, msg string) {
	if l.err == nil {
		l.err = &SyntaxError{Pos: pos, Message: msg}
	}
}

// skipWhitespaceAndComments skips blanks and comments, recording comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEOF() && l.err == nil {
		switch {
		case isSpace(l.ch):
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			l.readComment()
		default:
			return
		}
	}
}

func (l *Lexer) readComment() {
	pos := l.currentPos()
	l.readChar()
	l.readChar()

	if l.ch == '[' {
		if level, ok := l.longBracketLevel(); ok {
			if !l.skipLongBracket(level) {
				l.fail(pos, ErrUnterminatedComment)
				return
			}
			l.addComment(token.BlockComment, pos)
			return
		}
	}
	for !l.atEOF() && l.ch != '\n' {
		l.readChar()
	}
	l.addComment(token.LineComment, pos)
}

func (l *Lexer) addComment(kind token.CommentKind, start token.Position) {
	l.Comments = append(l.Comments, &token.Comment{
		Kind: kind,
		Text: l.input[start.Offset:l.pos],
		Span: token.Span{Start: start, End: l.currentPos()},
	})
}

// longBracketLevel reports whether the current '[' opens a long bracket
// ([[ or [==[) and returns its level (number of '=' signs).
func (l *Lexer) longBracketLevel() (int, bool) {
	n := 1
	for l.peekCharN(n) == '=' {
		n++
	}
	if l.peekCharN(n) != '[' {
		return 0, false
	}
	return n - 1, true
}

// skipLongBracket consumes an opening long bracket of the given level and
// everything up to and including the matching close. It returns false at EOF.
func (l *Lexer) skipLongBracket(level int) bool {
	for i := 0; i < level+2; i++ {
		l.readChar()
	}
	for !l.atEOF() {
		if l.ch == ']' && l.closesLongBracket(level) {
			for i := 0; i < level+2; i++ {
				l.readChar()
			}
			return true
		}
		l.readChar()
	}
	return false
}

func (l *Lexer) closesLongBracket(level int) bool {
	for i := 1; i <= level; i++ {
		if l.peekCharN(i) != '=' {
			return false
		}
	}
	return l.peekCharN(level+1) == ']'
}

func (l *Lexer) readLongString(pos token.Position, level int) token.Token {
	if !l.skipLongBracket(level) {
		l.fail(pos, ErrUnterminatedLong)
		return l.illegal(pos)
	}
	return l.emit(token.STRING, pos)
}

// readString reads a quoted string. Escapes are skipped, not decoded.
func (l *Lexer) readString(pos token.Position) token.Token {
	quote := l.ch
	l.readChar()
	for {
		switch {
		case l.atEOF(), l.ch == '\n':
			l.fail(pos, ErrUnterminatedString)
			return l.illegal(pos)
		case l.ch == '\\':
			l.readChar()
			if l.atEOF() {
				l.fail(pos, ErrUnterminatedString)
				return l.illegal(pos)
			}
			l.readChar()
		case l.ch == quote:
			l.readChar()
			return l.emit(token.STRING, pos)
		default:
			l.readChar()
		}
	}
}

func (l *Lexer) readName(pos token.Position) token.Token {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[pos.Offset:l.pos]
	return token.Token{Type: token.LookupIdent(lit), Literal: lit, Pos: pos, End: l.pos}
}

// readNumber reads decimal and hexadecimal numerals, including fractions
// and exponents.
func (l *Lexer) readNumber(pos token.Position) token.Token {
	digit := isDigit
	exp1, exp2 := byte('e'), byte('E')
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		digit = isHexDigit
		exp1, exp2 = 'p', 'P'
		if !isHexDigit(l.ch) && l.ch != '.' {
			l.fail(pos, fmt.Sprintf(ErrMalformedNumber, l.input[pos.Offset:l.pos]))
			return l.illegal(pos)
		}
	}
	for digit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && l.peekChar() != '.' {
		l.readChar()
		for digit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == exp1 || l.ch == exp2 {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			l.fail(pos, fmt.Sprintf(ErrMalformedNumber, l.input[pos.Offset:l.pos]))
			return l.illegal(pos)
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
		l.fail(pos, fmt.Sprintf(ErrMalformedNumber, l.input[pos.Offset:l.pos]))
		return l.illegal(pos)
	}
	return l.emit(token.NUMBER, pos)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
