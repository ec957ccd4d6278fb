package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePageName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"index", true},
		{"notes/2024-01-01", true},
		{"Project Plan", true},
		{"", false},
		{".hidden", false},
		{"/abs", false},
		{"trailing/", false},
		{"a//b", false},
		{"a/../b", false},
		{"a/..", false},
		{"with [[link]]", false},
		{"photo.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePageName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPageName)
			}
		})
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
		str  string
	}{
		{"page", Ref{Page: "page", Pos: -1}, "page"},
		{"page#Intro", Ref{Page: "page", Header: "Intro", Pos: -1}, "page#Intro"},
		{"page@12", Ref{Page: "page", Pos: 12}, "page@12"},
		{" dir/page@3#H ", Ref{Page: "dir/page", Header: "H", Pos: 3}, "dir/page@3#H"},
		{"user@example", Ref{Page: "user@example", Pos: -1}, "user@example"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseRef(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}
