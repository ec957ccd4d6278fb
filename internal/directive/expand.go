// Package directive expands the dynamic parts of a markdown page: ${expr}
// directives, ![[page]] transclusions and fenced code widgets.
package directive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/internal/space"
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

// DefaultMaxDepth bounds nested transclusions when Expander.MaxDepth is 0.
const DefaultMaxDepth = 8

// ParseFunc parses the text of a directive into an expression.
type ParseFunc func(src string, ctx ast.Context) (ast.Expression, error)

// Expander expands markdown documents. The zero value is usable once
// Space is set for transclusions.
type Expander struct {
	Space     space.Space
	Parse     ParseFunc
	Evaluator *eval.Evaluator
	Widgets   map[string]Widget
	MaxDepth  int
	Logger    *slog.Logger
}

// Register adds a widget for fenced blocks of language lang.
func (x *Expander) Register(lang string, w Widget) {
	if x.Widgets == nil {
		x.Widgets = make(map[string]Widget)
	}
	x.Widgets[lang] = w
}

// Expand expands text, evaluating directives in env. Failures of single
// directives, transclusions and widgets are rendered inline as
// "**Error:** ..." annotations; only cancellation of ctx is returned as an
// error. A nil env gets a fresh global environment.
func (x *Expander) Expand(ctx context.Context, text string, env *eval.Env) (string, error) {
	if env == nil {
		env = eval.NewGlobalEnv()
	}
	return x.expand(ctx, text, env, "", nil)
}

// ExpandPage reads a page from the space and expands it. The page itself
// counts towards transclusion cycles.
func (x *Expander) ExpandPage(ctx context.Context, name string, env *eval.Env) (string, error) {
	if x.Space == nil {
		return "", errors.New("expander has no space")
	}
	page, err := x.Space.ReadPage(ctx, name)
	if err != nil {
		return "", err
	}
	fm, err := space.ExtractFrontmatter(page.Text)
	if err != nil {
		return "", err
	}
	if env == nil {
		env = eval.NewGlobalEnv()
	}
	return x.expand(ctx, fm.Body, env, page.Meta.Name, []string{page.Meta.Name})
}

func (x *Expander) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return x.Logger
}

func (x *Expander) maxDepth() int {
	if x.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return x.MaxDepth
}

func (x *Expander) expand(ctx context.Context, text string, env *eval.Env, page string, stack []string) (string, error) {
	var out strings.Builder
	for _, tok := range NewScanner(text, page).Tokenize() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		switch tok.Type {
		case TokenText, TokenCode:
			out.WriteString(tok.Raw)
		case TokenFence:
			out.WriteString(x.expandFence(ctx, tok, env))
		case TokenDirective:
			if tok.Err != nil {
				out.WriteString(annotate(tok.Err))
				continue
			}
			out.WriteString(x.expandDirective(ctx, tok, env))
		case TokenTransclusion:
			s, err := x.expandTransclusion(ctx, tok, env, stack)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		}
	}
	return out.String(), nil
}

// annotate renders err inline.
func annotate(err error) string {
	return "**Error:** " + err.Error()
}

func (x *Expander) expandDirective(ctx context.Context, tok Token, env *eval.Env) string {
	parse := x.Parse
	if parse == nil {
		parse = lua.ParseExpression
	}
	ev := x.Evaluator
	if ev == nil {
		ev = eval.New()
	}

	fields := map[string]any{"line": tok.Pos.Line}
	if tok.Pos.Page != "" {
		fields["ref"] = tok.Pos.Page
	}
	expr, err := parse(tok.Value, ast.NewContext(fields))
	if err != nil {
		return annotate(NewDirectiveError(tok.Pos, tok.Value, err))
	}

	v, err := ev.EvalExpression(ctx, expr, env, nil)
	if err != nil {
		x.logger().Debug("directive failed",
			slog.String("expr", tok.Value),
			slog.String("pos", tok.Pos.String()),
			slog.String("error", err.Error()))
		return annotate(NewDirectiveError(tok.Pos, tok.Value, err))
	}
	if t, ok := v.(*eval.Table); ok {
		if md := t.Field("markdown"); md != nil {
			v = md
		}
	}
	return RenderResult(v)
}

func (x *Expander) expandTransclusion(ctx context.Context, tok Token, env *eval.Env, stack []string) (string, error) {
	ref := space.ParseRef(tok.Value)
	if space.ValidatePageName(ref.Page) != nil {
		// not a page, for example an image
		return tok.Raw, nil
	}
	if x.Space == nil {
		return annotate(NewTransclusionError(tok.Pos, tok.Value, "no space to read pages from")), nil
	}
	for _, name := range stack {
		if name == ref.Page {
			chain := strings.Join(append(stack, ref.Page), " -> ")
			return annotate(NewTransclusionError(tok.Pos, tok.Value, "transclusion cycle: "+chain)), nil
		}
	}
	if len(stack) >= x.maxDepth() {
		return annotate(NewTransclusionError(tok.Pos, tok.Value,
			fmt.Sprintf("transclusion depth exceeds %d", x.maxDepth()))), nil
	}

	page, err := x.Space.ReadPage(ctx, ref.Page)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return annotate(WrapTransclusionError(tok.Pos, tok.Value, err)), nil
	}
	body := page.Text
	if fm, err := space.ExtractFrontmatter(body); err == nil {
		body = fm.Body
	}
	if ref.Pos >= 0 && ref.Pos <= len(body) {
		body = body[ref.Pos:]
	}
	if ref.Header != "" {
		section, ok := Section(body, ref.Header)
		if !ok {
			return annotate(NewTransclusionError(tok.Pos, tok.Value, fmt.Sprintf("header %q not found", ref.Header))), nil
		}
		body = section
	}

	x.logger().Debug("transcluding page", slog.String("page", ref.Page), slog.Int("depth", len(stack)+1))
	return x.expand(ctx, body, env, ref.Page, append(stack[:len(stack):len(stack)], ref.Page))
}

func (x *Expander) expandFence(ctx context.Context, tok Token, env *eval.Env) string {
	w, ok := x.Widgets[tok.Lang]
	if !ok || tok.Lang == "" {
		return tok.Raw
	}
	content, err := w.Render(ctx, tok.Value, env)
	if err != nil {
		return annotate(NewWidgetError(tok.Pos, tok.Lang, err)) + "\n"
	}
	md, err := content.toMarkdown()
	if err != nil {
		return annotate(NewWidgetError(tok.Pos, tok.Lang, err)) + "\n"
	}
	if md != "" && !strings.HasSuffix(md, "\n") {
		md += "\n"
	}
	return md
}

// Section returns the part of a markdown body under the heading whose text
// is header, up to the next heading of the same or a higher level.
func Section(body, header string) (string, bool) {
	lines := strings.SplitAfter(body, "\n")
	start, level := -1, 0
	for i, line := range lines {
		n, text := heading(line)
		if n == 0 {
			continue
		}
		if start < 0 {
			if strings.EqualFold(text, header) {
				start, level = i, n
			}
			continue
		}
		if n <= level {
			return strings.Join(lines[start:i], ""), true
		}
	}
	if start < 0 {
		return "", false
	}
	return strings.Join(lines[start:], ""), true
}

// heading returns the level and text of an ATX heading line, or 0.
func heading(line string) (int, string) {
	trimmed := strings.TrimRight(line, "\r\n")
	n := countPrefix(trimmed, '#')
	if n == 0 || n > 6 || (len(trimmed) > n && trimmed[n] != ' ' && trimmed[n] != '\t') {
		return 0, ""
	}
	return n, strings.TrimSpace(strings.TrimRight(trimmed[n:], "# \t"))
}
