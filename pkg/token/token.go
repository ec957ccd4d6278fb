// Package token defines the token types for space-lua lexing.
//
// Keyword token types double as CST node names: the grammar emits a node
// whose type is the keyword text ("if", "end", ...) for every keyword token.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads clearly at call sites
type TokenType int32

//nolint:revive // upper-case names follow the usual lexer convention
const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	NAME   // identifier
	NUMBER // 123, 4.5e6, 0xff
	STRING // "hello", 'hello', [[hello]]

	// Operators and punctuation
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	DSLASH    // //
	PERCENT   // %
	CARET     // ^
	HASH      // #
	AMP       // &
	TILDE     // ~
	PIPE      // |
	SHL       // <<
	SHR       // >>
	CONCAT    // ..
	ELLIPSIS  // ...
	EQ        // ==
	NE        // ~=
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	ASSIGN    // =
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	DCOLON    // ::
	SEMICOLON // ;
	COLON     // :
	COMMA     // ,
	DOT       // .

	// Keywords (alphabetical)
	AND
	BREAK
	DO
	ELSE
	ELSEIF
	END
	FALSE
	FOR
	FUNCTION
	GOTO
	IF
	IN
	LOCAL
	NIL
	NOT
	OR
	REPEAT
	RETURN
	THEN
	TRUE
	UNTIL
	WHILE
)

// String returns the source spelling for operators and keywords and an
// upper-case class name for everything else.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	NAME:   "NAME",
	NUMBER: "NUMBER",
	STRING: "STRING",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	DSLASH:    "//",
	PERCENT:   "%",
	CARET:     "^",
	HASH:      "#",
	AMP:       "&",
	TILDE:     "~",
	PIPE:      "|",
	SHL:       "<<",
	SHR:       ">>",
	CONCAT:    "..",
	ELLIPSIS:  "...",
	EQ:        "==",
	NE:        "~=",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	ASSIGN:    "=",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	DCOLON:    "::",
	SEMICOLON: ";",
	COLON:     ":",
	COMMA:     ",",
	DOT:       ".",

	AND:      "and",
	BREAK:    "break",
	DO:       "do",
	ELSE:     "else",
	ELSEIF:   "elseif",
	END:      "end",
	FALSE:    "false",
	FOR:      "for",
	FUNCTION: "function",
	GOTO:     "goto",
	IF:       "if",
	IN:       "in",
	LOCAL:    "local",
	NIL:      "nil",
	NOT:      "not",
	OR:       "or",
	REPEAT:   "repeat",
	RETURN:   "return",
	THEN:     "then",
	TRUE:     "true",
	UNTIL:    "until",
	WHILE:    "while",
}

// keywords maps reserved words to their token types. Lua keywords are case sensitive.
var keywords = map[string]TokenType{
	"and":      AND,
	"break":    BREAK,
	"do":       DO,
	"else":     ELSE,
	"elseif":   ELSEIF,
	"end":      END,
	"false":    FALSE,
	"for":      FOR,
	"function": FUNCTION,
	"goto":     GOTO,
	"if":       IF,
	"in":       IN,
	"local":    LOCAL,
	"nil":      NIL,
	"not":      NOT,
	"or":       OR,
	"repeat":   REPEAT,
	"return":   RETURN,
	"then":     THEN,
	"true":     TRUE,
	"until":    UNTIL,
	"while":    WHILE,
}

// LookupIdent returns the keyword token type for ident, or NAME.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}

// Keywords returns all reserved words in alphabetical order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for t := AND; t <= WHILE; t++ {
		out = append(out, tokenNames[t])
	}
	return out
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= AND && t <= WHILE
}

// IsOperator returns true if the token type is an operator or punctuation.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= DOT
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     int // byte offset one past the last byte of the token
}

// Span returns the token's half-open source range.
func (t Token) Span() (from, to int) {
	return t.Pos.Offset, t.End
}
