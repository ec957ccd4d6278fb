package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	assert.Equal(t, IF, LookupIdent("if"))
	assert.Equal(t, ELSEIF, LookupIdent("elseif"))
	assert.Equal(t, NAME, LookupIdent("If"), "keywords are case sensitive")
	assert.Equal(t, NAME, LookupIdent("continue"))
}

func TestKeywordsOrdered(t *testing.T) {
	kws := Keywords()
	assert.Len(t, kws, 22)
	assert.Equal(t, "and", kws[0])
	assert.Equal(t, "while", kws[len(kws)-1])
	for _, kw := range kws {
		assert.True(t, IsKeyword(LookupIdent(kw)), kw)
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "~=", NE.String())
	assert.Equal(t, "...", ELLIPSIS.String())
	assert.Equal(t, "function", FUNCTION.String())
	assert.Equal(t, "TOKEN(9999)", TokenType(9999).String())
}

func TestPositionAt(t *testing.T) {
	src := "local a = 1\nreturn a\n"

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Line: 1, Column: 1, Offset: 0}},
		{6, Position{Line: 1, Column: 7, Offset: 6}},
		{12, Position{Line: 2, Column: 1, Offset: 12}},
		{19, Position{Line: 2, Column: 8, Offset: 19}},
		{100, Position{Line: 3, Column: 1, Offset: len(src)}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PositionAt(src, tt.offset), "offset %d", tt.offset)
	}
}

func TestSpanContains(t *testing.T) {
	s := SpanOf("abcdef", 1, 4)
	assert.True(t, s.IsValid())
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "2:8", Position{Line: 2, Column: 8, Offset: 19}.String())
	assert.Equal(t, "-", Position{}.String())
	assert.Equal(t, 3, SpanOf("abcdef", 1, 4).Len())
}

func TestCommentBody(t *testing.T) {
	tests := []struct {
		name string
		c    Comment
		want string
	}{
		{"line", Comment{Kind: LineComment, Text: "-- note\n"}, " note"},
		{"block", Comment{Kind: BlockComment, Text: "--[[ a\nb ]]"}, " a\nb "},
		{"leveled", Comment{Kind: BlockComment, Text: "--[==[ x ]] ]==]"}, " x ]] "},
		{"unterminated", Comment{Kind: BlockComment, Text: "--[[ open"}, " open"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Body())
		})
	}
	assert.Equal(t, "block", BlockComment.String())
	assert.Equal(t, "line", LineComment.String())
}
