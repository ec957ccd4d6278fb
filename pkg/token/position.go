package token

import (
	"fmt"
	"strings"
)

// Position is a point in a chunk. Line and Column are 1-based with columns
// counted in bytes; Offset is 0-based. The zero Position is "unknown".
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) IsValid() bool { return p.Line > 0 }

// String renders "line:col", or "-" for an unknown position.
func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// PositionAt resolves a byte offset of src, clamping it into [0, len(src)].
func PositionAt(src string, offset int) Position {
	offset = max(0, min(offset, len(src)))
	head := src[:offset]
	return Position{
		Line:   1 + strings.Count(head, "\n"),
		Column: offset - strings.LastIndexByte(head, '\n'),
		Offset: offset,
	}
}

// Span covers the half-open byte range [Start.Offset, End.Offset).
type Span struct {
	Start Position
	End   Position
}

func SpanOf(src string, from, to int) Span {
	return Span{Start: PositionAt(src, from), End: PositionAt(src, to)}
}

func (s Span) IsValid() bool { return s.Start.IsValid() && s.End.IsValid() }

func (s Span) Len() int { return s.End.Offset - s.Start.Offset }

func (s Span) Contains(offset int) bool {
	return s.Start.Offset <= offset && offset < s.End.Offset
}
