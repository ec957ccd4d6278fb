package grammar

import (
	"fmt"

	"github.com/leapstack-labs/spacelua/pkg/token"
)

// SyntaxError reports source text the grammar cannot derive.
type SyntaxError struct {
	Pos     token.Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken     = "unexpected %s, expected %s"
	ErrUnexpectedChar      = "unexpected character %q"
	ErrUnterminatedString  = "unterminated string literal"
	ErrUnterminatedLong    = "unterminated long string"
	ErrUnterminatedComment = "unterminated long comment"
	ErrMalformedNumber     = "malformed number near %q"
	ErrNotCallable         = "%s is not a statement, expected an assignment or a call"
	ErrTrailingInput       = "unexpected %s after expression"
)
