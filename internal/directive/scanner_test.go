package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestScanner_Tokenize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		types  []TokenType
		values []string
	}{
		{
			name:   "plain text",
			input:  "just text",
			types:  []TokenType{TokenText, TokenEOF},
			values: []string{"just text", ""},
		},
		{
			name:   "directive",
			input:  "a ${ x + 1 } b",
			types:  []TokenType{TokenText, TokenDirective, TokenText, TokenEOF},
			values: []string{"a ", "x + 1", " b", ""},
		},
		{
			name:   "nested braces",
			input:  "${ {a = {1}} }",
			types:  []TokenType{TokenDirective, TokenEOF},
			values: []string{"{a = {1}}", ""},
		},
		{
			name:   "brace inside string",
			input:  `${ "}" .. '{' }`,
			types:  []TokenType{TokenDirective, TokenEOF},
			values: []string{`"}" .. '{'`, ""},
		},
		{
			name:   "code span",
			input:  "see `${x}` here",
			types:  []TokenType{TokenText, TokenCode, TokenText, TokenEOF},
			values: []string{"see ", "${x}", " here", ""},
		},
		{
			name:   "double backtick span",
			input:  "``a ` b``",
			types:  []TokenType{TokenCode, TokenEOF},
			values: []string{"a ` b", ""},
		},
		{
			name:   "unmatched backtick",
			input:  "a ` b",
			types:  []TokenType{TokenText, TokenText, TokenEOF},
			values: []string{"a ", "` b", ""},
		},
		{
			name:   "transclusion",
			input:  "![[ page ]]",
			types:  []TokenType{TokenTransclusion, TokenEOF},
			values: []string{"page", ""},
		},
		{
			name:   "transclusion across lines is text",
			input:  "![[a\nb]]",
			types:  []TokenType{TokenText, TokenEOF},
			values: []string{"![[a\nb]]", ""},
		},
		{
			name:   "fence",
			input:  "```lua\nprint(1)\n```\nafter",
			types:  []TokenType{TokenFence, TokenText, TokenEOF},
			values: []string{"print(1)\n", "after", ""},
		},
		{
			name:   "tilde fence hides directives",
			input:  "~~~\n${x}\n~~~",
			types:  []TokenType{TokenFence, TokenEOF},
			values: []string{"${x}\n", ""},
		},
		{
			name:   "unterminated fence",
			input:  "```\ncode",
			types:  []TokenType{TokenFence, TokenEOF},
			values: []string{"code", ""},
		},
		{
			name:   "fence must start a line",
			input:  "x ```lua",
			types:  []TokenType{TokenText, TokenText, TokenEOF},
			values: []string{"x ", "```lua", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := NewScanner(tt.input, "").Tokenize()
			require.Equal(t, tt.types, tokenTypes(tokens))
			for i, tok := range tokens {
				assert.Equal(t, tt.values[i], tok.Value, "token %d", i)
			}
		})
	}
}

func TestScanner_RawRoundTrips(t *testing.T) {
	input := "# Title\n\nHello ${name}!\n\n```lua\nx = 1\n```\n![[other#Part]] and `code`\n"
	var raw string
	for _, tok := range NewScanner(input, "page").Tokenize() {
		raw += tok.Raw
	}
	assert.Equal(t, input, raw)
}

func TestScanner_FenceLanguage(t *testing.T) {
	tokens := NewScanner("```space-lua title=x\nreturn 1\n```", "").Tokenize()
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenFence, tokens[0].Type)
	assert.Equal(t, "space-lua", tokens[0].Lang)
	assert.Equal(t, "return 1\n", tokens[0].Value)
}

func TestScanner_Positions(t *testing.T) {
	tokens := NewScanner("line one\nab ${x}", "notes").Tokenize()
	require.Len(t, tokens, 3)

	dir := tokens[1]
	assert.Equal(t, TokenDirective, dir.Type)
	assert.Equal(t, Position{Page: "notes", Offset: 12, Line: 2, Column: 4}, dir.Pos)
	assert.Equal(t, "notes:2:4", dir.Pos.String())
}

func TestScanner_UnclosedDirective(t *testing.T) {
	tokens := NewScanner("a ${ x", "").Tokenize()
	require.Equal(t, []TokenType{TokenText, TokenDirective, TokenText, TokenEOF}, tokenTypes(tokens))

	dir := tokens[1]
	require.Error(t, dir.Err)
	assert.Contains(t, dir.Err.Error(), "unclosed directive")
	assert.Equal(t, "${", dir.Raw)
	assert.Equal(t, " x", tokens[2].Raw)

	var scanErr *ScanError
	assert.ErrorAs(t, dir.Err, &scanErr)
}
