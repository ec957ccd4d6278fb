// Package format prints space-lua ASTs back to canonical source.
package format

import (
	"strings"

	"github.com/leapstack-labs/spacelua/pkg/token"
)

const indentWidth = 2

// printer accumulates formatted source. Indentation is emitted lazily on
// the first write of each line so blank lines carry no trailing spaces.
type printer struct {
	buf      strings.Builder
	level    int
	bol      bool
	comments *CommentMap
}

func newPrinter() *printer {
	return &printer{bol: true}
}

// String returns the output with exactly one trailing newline, or "" when
// nothing was printed.
func (p *printer) String() string {
	out := strings.TrimRight(p.buf.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

// raw returns the output untouched, for single-line fragments.
func (p *printer) raw() string { return p.buf.String() }

func (p *printer) write(s string) {
	if s == "" {
		return
	}
	if p.bol && s[0] != '\n' {
		p.buf.WriteString(strings.Repeat(" ", p.level*indentWidth))
	}
	p.buf.WriteString(s)
	p.bol = false
}

func (p *printer) writeln() {
	p.buf.WriteByte('\n')
	p.bol = true
}

func (p *printer) space() { p.buf.WriteByte(' ') }

func (p *printer) indent() { p.level++ }

func (p *printer) dedent() { p.level = max(0, p.level-1) }

// kw writes keyword tokens separated by single spaces.
func (p *printer) kw(kws ...token.TokenType) {
	for i, k := range kws {
		if i > 0 {
			p.space()
		}
		p.write(k.String())
	}
}

// commentLines writes each comment on a line of its own.
func (p *printer) commentLines(cs []token.Comment) {
	for _, c := range cs {
		p.write(strings.TrimRight(c.Text, "\n"))
		p.writeln()
	}
}

func (p *printer) trailingComments(cs []token.Comment) {
	for _, c := range cs {
		p.space()
		p.write(strings.TrimRight(c.Text, "\n"))
	}
}

// each calls fn for 0..n-1, writing sep between items.
func (p *printer) each(n int, fn func(i int), sep string) {
	for i := range n {
		if i > 0 {
			p.write(sep)
		}
		fn(i)
	}
}
