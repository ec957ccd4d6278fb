package token

import "strings"

// CommentKind tells line comments (--) from long-bracket comments (--[[ ]]).
type CommentKind int

const (
	LineComment CommentKind = iota
	BlockComment
)

func (k CommentKind) String() string {
	if k == BlockComment {
		return "block"
	}
	return "line"
}

// Comment is a comment removed from a chunk. Text keeps the delimiters
// exactly as written so the stripped source can be rebuilt byte for byte.
type Comment struct {
	Kind CommentKind
	Text string
	Span Span
}

func (c *Comment) IsLineComment() bool  { return c.Kind == LineComment }
func (c *Comment) IsBlockComment() bool { return c.Kind == BlockComment }

// Body returns the comment text without its delimiters. Long-bracket
// levels (--[==[ ... ]==]) are honored.
func (c *Comment) Body() string {
	s := strings.TrimPrefix(c.Text, "--")
	if c.Kind == LineComment {
		return strings.TrimRight(s, "\r\n")
	}
	if !strings.HasPrefix(s, "[") {
		return s
	}
	level := 0
	for level+1 < len(s) && s[level+1] == '=' {
		level++
	}
	if level+1 >= len(s) || s[level+1] != '[' {
		return s
	}
	open := level + 2
	closing := "]" + strings.Repeat("=", level) + "]"
	return strings.TrimSuffix(s[open:], closing)
}
