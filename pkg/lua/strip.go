package lua

import (
	"strings"

	"github.com/leapstack-labs/spacelua/pkg/token"
)

// StripComments blanks every comment byte with a space. The result has
// exactly the length of src, so offsets into it are offsets into src.
//
// A double quote toggles an in-string flag outside comments; escaped quotes
// are not recognized. Outside a string, "--[[" opens a block comment closed by
// the next "]]" (no nesting) and any other "--" opens a line comment ending
// before the next newline. A block comment without "]]" is an
// *UnterminatedConstructError.
func StripComments(src string) (string, error) {
	out, _, err := scanComments(src)
	return out, err
}

// Comments returns the comments StripComments would blank, in source order.
func Comments(src string) ([]token.Comment, error) {
	_, comments, err := scanComments(src)
	return comments, err
}

func scanComments(src string) (string, []token.Comment, error) {
	var (
		buf      []byte
		comments []token.Comment
		inString bool
	)
	blank := func(kind token.CommentKind, from, to int) {
		if buf == nil {
			buf = []byte(src)
		}
		for i := from; i < to; i++ {
			buf[i] = ' '
		}
		comments = append(comments, token.Comment{
			Kind: kind,
			Text: src[from:to],
			Span: token.SpanOf(src, from, to),
		})
	}

	for i := 0; i < len(src); i++ {
		switch {
		case src[i] == '"':
			inString = !inString
			continue
		case inString || !strings.HasPrefix(src[i:], "--"):
			continue
		}

		if strings.HasPrefix(src[i+2:], "[[") {
			end := strings.Index(src[i+4:], "]]")
			if end < 0 {
				err := NewUnterminatedConstructError("block comment", i, len(src))
				err.locate(src)
				return "", nil, err
			}
			stop := i + 4 + end + 2
			blank(token.BlockComment, i, stop)
			i = stop - 1
			continue
		}

		stop := len(src)
		if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
			stop = i + nl
		}
		blank(token.LineComment, i, stop)
		i = stop - 1
	}

	if buf == nil {
		return src, comments, nil
	}
	return string(buf), comments, nil
}
