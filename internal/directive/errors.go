package directive

import "fmt"

// Position is a location in a markdown document.
type Position struct {
	Page   string
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Page != "" {
		return fmt.Sprintf("%s:%d:%d", p.Page, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is the base interface for all expansion errors.
type Error interface {
	error
	Position() Position
}

// baseError provides common error functionality.
type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	return fmt.Sprintf("%s: %s", e.pos, e.msg)
}

// ScanError reports malformed directive syntax.
type ScanError struct {
	baseError
}

// NewScanError creates a new scan error.
func NewScanError(pos Position, msg string) *ScanError {
	return &ScanError{baseError: baseError{pos: pos, msg: msg}}
}

// DirectiveError reports a ${...} directive that failed to parse or
// evaluate.
type DirectiveError struct {
	baseError
	Expr  string
	Cause error
}

// NewDirectiveError wraps the failure of expression expr.
func NewDirectiveError(pos Position, expr string, cause error) *DirectiveError {
	return &DirectiveError{
		baseError: baseError{pos: pos, msg: "directive failed"},
		Expr:      expr,
		Cause:     cause,
	}
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s: %v", e.pos, e.Cause)
}

func (e *DirectiveError) Unwrap() error {
	return e.Cause
}

// TransclusionError reports a ![[page]] embed that could not be resolved.
type TransclusionError struct {
	baseError
	Ref   string
	Cause error
}

// NewTransclusionError creates a transclusion error with a message.
func NewTransclusionError(pos Position, ref, msg string) *TransclusionError {
	return &TransclusionError{baseError: baseError{pos: pos, msg: msg}, Ref: ref}
}

// WrapTransclusionError wraps an underlying error as a transclusion error.
func WrapTransclusionError(pos Position, ref string, cause error) *TransclusionError {
	return &TransclusionError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("cannot embed %s", ref)},
		Ref:       ref,
		Cause:     cause,
	}
}

func (e *TransclusionError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *TransclusionError) Unwrap() error {
	return e.Cause
}

// WidgetError reports a code widget that failed to render.
type WidgetError struct {
	baseError
	Lang  string
	Cause error
}

// NewWidgetError wraps the failure of the widget for lang.
func NewWidgetError(pos Position, lang string, cause error) *WidgetError {
	return &WidgetError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("widget %s failed", lang)},
		Lang:      lang,
		Cause:     cause,
	}
}

func (e *WidgetError) Error() string {
	return fmt.Sprintf("%s: %v", e.baseError.Error(), e.Cause)
}

func (e *WidgetError) Unwrap() error {
	return e.Cause
}
