package directive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

// WidgetContent is what a code widget renders. Markdown wins over HTML
// when both are set.
type WidgetContent struct {
	Markdown string `json:"markdown,omitempty"`
	HTML     string `json:"html,omitempty"`
}

// Widget renders the body of a fenced code block of its language.
type Widget interface {
	Render(ctx context.Context, body string, env *eval.Env) (*WidgetContent, error)
}

// WidgetFunc adapts a function to the Widget interface.
type WidgetFunc func(ctx context.Context, body string, env *eval.Env) (*WidgetContent, error)

// Render implements Widget.
func (f WidgetFunc) Render(ctx context.Context, body string, env *eval.Env) (*WidgetContent, error) {
	return f(ctx, body, env)
}

// LuaWidget runs space-lua blocks with ev. Globals the block defines stay
// in env, so later directives can call them. The first returned value is
// rendered like a directive result; a table with a markdown or html field
// renders that field instead.
func LuaWidget(ev *eval.Evaluator) Widget {
	if ev == nil {
		ev = eval.New()
	}
	return WidgetFunc(func(ctx context.Context, body string, env *eval.Env) (*WidgetContent, error) {
		block, err := lua.Parse(body, ast.NewContext(map[string]any{"widget": "space-lua"}))
		if err != nil {
			return nil, err
		}
		if env == nil {
			env = eval.NewGlobalEnv()
		}
		values, err := ev.Exec(ctx, block, env, nil)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return &WidgetContent{}, nil
		}
		if t, ok := values[0].(*eval.Table); ok {
			md, _ := t.Field("markdown").(string)
			htmlText, _ := t.Field("html").(string)
			if md != "" || htmlText != "" {
				return &WidgetContent{Markdown: md, HTML: htmlText}, nil
			}
		}
		return &WidgetContent{Markdown: RenderResult(values[0])}, nil
	})
}

// toMarkdown returns the markdown form of c.
func (c *WidgetContent) toMarkdown() (string, error) {
	if c == nil {
		return "", nil
	}
	if c.Markdown != "" || c.HTML == "" {
		return c.Markdown, nil
	}
	return HTMLToMarkdown(c.HTML)
}

// HTMLToMarkdown converts widget HTML to markdown. Script and style
// elements are removed first.
func HTMLToMarkdown(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse widget html: %w", err)
	}
	removeElements(doc, "script", "style")

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render widget html: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("convert widget html: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func removeElements(n *html.Node, tags ...string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && containsTag(tags, c.Data) {
			n.RemoveChild(c)
		} else {
			removeElements(c, tags...)
		}
		c = next
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
