package lua

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/spacelua/pkg/cst"
	"github.com/leapstack-labs/spacelua/pkg/grammar"
	"github.com/leapstack-labs/spacelua/pkg/token"
)

// Error is implemented by every error the lowering pipeline produces.
type Error interface {
	error
	// Span returns the half-open byte range of the offending source.
	Span() (from, to int)
	// Position returns the line/column of the range start, when known.
	Position() token.Position
}

// baseError provides common error functionality.
type baseError struct {
	from, to int
	pos      token.Position
	msg      string
}

func (e *baseError) Span() (int, int)         { return e.from, e.to }
func (e *baseError) Position() token.Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.IsValid() {
		return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("offset %d: %s", e.from, e.msg)
}

func (e *baseError) locate(src string) {
	e.pos = token.PositionAt(src, e.from)
}

// StructuralMismatchError reports a CST node whose type or children do not
// match the production expected at its position.
type StructuralMismatchError struct {
	baseError
	NodeType string // type of the offending node ("" for a missing child)
	Text     string // literal text when the node is a token
	Expected string // what the lowering rule expected
}

// NewStructuralMismatchError creates a mismatch error for node n.
func NewStructuralMismatchError(n *cst.Node, expected string) *StructuralMismatchError {
	e := &StructuralMismatchError{Expected: expected}
	if n == nil {
		e.baseError = baseError{msg: fmt.Sprintf("expected %s, found nothing", expected)}
		return e
	}
	e.NodeType = n.Type
	if txt, ok := n.TokenText(); ok {
		e.Text = txt
	}
	e.baseError = baseError{
		from: n.From,
		to:   n.To,
		msg:  fmt.Sprintf("expected %s, found %s", expected, n.Describe()),
	}
	return e
}

// newMissingChildError reports that parent lacks the child a rule addresses.
func newMissingChildError(parent *cst.Node, index int, expected string) *StructuralMismatchError {
	return &StructuralMismatchError{
		baseError: baseError{
			from: parent.From,
			to:   parent.To,
			msg:  fmt.Sprintf("%s has no child %d (expected %s)", parent.Type, index, expected),
		},
		NodeType: parent.Type,
		Expected: expected,
	}
}

// UnknownClauseKeywordError reports an if-statement clause that does not
// start with if, elseif, else or end.
type UnknownClauseKeywordError struct {
	baseError
	Keyword string
}

// NewUnknownClauseKeywordError creates an error for clause node n.
func NewUnknownClauseKeywordError(n *cst.Node, keyword string) *UnknownClauseKeywordError {
	return &UnknownClauseKeywordError{
		baseError: baseError{
			from: n.From,
			to:   n.To,
			msg:  fmt.Sprintf("unknown if clause keyword %q", keyword),
		},
		Keyword: keyword,
	}
}

// UnterminatedConstructError reports a bracketed construct with no closing
// delimiter before end of input.
type UnterminatedConstructError struct {
	baseError
	Construct string
}

// NewUnterminatedConstructError creates an error for a construct opened at from.
func NewUnterminatedConstructError(construct string, from, to int) *UnterminatedConstructError {
	return &UnterminatedConstructError{
		baseError: baseError{
			from: from,
			to:   to,
			msg:  fmt.Sprintf("unterminated %s", construct),
		},
		Construct: construct,
	}
}

type locatable interface {
	locate(src string)
}

// locate fills in line/column information against the original source.
// Syntax errors are re-positioned from their offset because the grammar saw
// the stripped text, where block comments no longer contain newlines.
func locate(err error, src string) error {
	var le locatable
	if errors.As(err, &le) {
		le.locate(src)
	}
	var se *grammar.SyntaxError
	if errors.As(err, &se) {
		se.Pos = token.PositionAt(src, se.Pos.Offset)
	}
	return err
}
