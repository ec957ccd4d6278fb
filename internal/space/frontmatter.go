package space

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterPattern matches a leading ---\n ... \n--- block.
var frontmatterPattern = regexp.MustCompile(`(?s)^---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|$)`)

// Frontmatter is the parsed YAML header of a page.
type Frontmatter struct {
	Attributes map[string]any
	Body       string // text after the header
	HasYAML    bool
}

// ExtractFrontmatter splits a page into its YAML header and body.
// A page without a header returns the whole text as Body.
func ExtractFrontmatter(text string) (*Frontmatter, error) {
	result := &Frontmatter{Body: text}

	matches := frontmatterPattern.FindStringSubmatchIndex(text)
	if matches == nil {
		return result, nil
	}

	result.HasYAML = true
	result.Body = text[matches[1]:]

	attrs := map[string]any{}
	if strings.TrimSpace(text[matches[2]:matches[3]]) != "" {
		if err := yaml.Unmarshal([]byte(text[matches[2]:matches[3]]), &attrs); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}
	result.Attributes = attrs
	return result, nil
}

// Attributes returns the frontmatter attributes of text, or nil when the
// page has no header or the header is not valid YAML.
func Attributes(text string) map[string]any {
	fm, err := ExtractFrontmatter(text)
	if err != nil || len(fm.Attributes) == 0 {
		return nil
	}
	return fm.Attributes
}
