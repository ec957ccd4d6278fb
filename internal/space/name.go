package space

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// extensionPattern matches names that look like file names ("image.png").
var extensionPattern = regexp.MustCompile(`\.[a-zA-Z]+$`)

// NormalizePageName trims surrounding whitespace and converts the name to
// Unicode NFC so that visually equal names map to one page.
func NormalizePageName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidatePageName reports whether name can be stored as a page.
func ValidatePageName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidPageName)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidPageName, name)
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return fmt.Errorf("%w: %q starts or ends with a slash", ErrInvalidPageName, name)
	case strings.Contains(name, "[[") || strings.Contains(name, "]]"):
		return fmt.Errorf("%w: %q contains link brackets", ErrInvalidPageName, name)
	case strings.Contains(name, "//") || strings.Contains(name, "/../") || strings.HasSuffix(name, "/.."):
		return fmt.Errorf("%w: %q has an empty or parent path segment", ErrInvalidPageName, name)
	case extensionPattern.MatchString(name):
		return fmt.Errorf("%w: %q looks like a file name", ErrInvalidPageName, name)
	}
	return nil
}

// cleanName normalizes and validates name.
func cleanName(name string) (string, error) {
	name = NormalizePageName(name)
	if err := ValidatePageName(name); err != nil {
		return "", err
	}
	return name, nil
}

// Ref points at a page and optionally a header or byte position in it.
type Ref struct {
	Page   string
	Header string
	Pos    int // -1 when absent
}

// String renders the ref in link syntax.
func (r Ref) String() string {
	s := r.Page
	if r.Pos >= 0 {
		s += "@" + strconv.Itoa(r.Pos)
	}
	if r.Header != "" {
		s += "#" + r.Header
	}
	return s
}

// ParseRef splits "page@pos#header" into its parts. Both suffixes are
// optional.
func ParseRef(ref string) Ref {
	r := Ref{Pos: -1}
	ref = strings.TrimSpace(ref)
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		r.Header = strings.TrimSpace(ref[i+1:])
		ref = ref[:i]
	}
	if i := strings.LastIndexByte(ref, '@'); i >= 0 {
		if pos, err := strconv.Atoi(ref[i+1:]); err == nil && pos >= 0 {
			r.Pos = pos
			ref = ref[:i]
		}
	}
	r.Page = NormalizePageName(ref)
	return r
}
