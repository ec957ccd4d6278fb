package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/internal/space"
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/grammar"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

// ErrorResponse is the JSON body of a failed request. Parse errors carry
// the offending source range.
type ErrorResponse struct {
	Error  string `json:"error"`
	From   *int   `json:"from,omitempty"`
	To     *int   `json:"to,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parse lowers a Lua chunk from the request body. The optional ref query
// parameter becomes the "ref" field of the ambient context.
func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	src, ok := readBody(w, r)
	if !ok {
		return
	}
	block, err := lua.Parse(src, requestContext(r))
	if err != nil {
		writeParseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ast.Encode(block))
}

func (s *Server) parseExpression(w http.ResponseWriter, r *http.Request) {
	src, ok := readBody(w, r)
	if !ok {
		return
	}
	expr, err := lua.ParseExpression(src, requestContext(r))
	if err != nil {
		writeParseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ast.Encode(expr))
}

// expand expands the markdown in the request body. Directive failures are
// rendered inline, so this only fails on an unreadable body or a cancelled
// request.
func (s *Server) expand(w http.ResponseWriter, r *http.Request) {
	text, ok := readBody(w, r)
	if !ok {
		return
	}
	out, err := s.expander.Expand(r.Context(), text, s.env())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

// env returns a global environment bound to the page space.
func (s *Server) env() *eval.Env {
	env := eval.NewGlobalEnv()
	if s.space != nil {
		eval.BindSpace(env, s.space)
	}
	return env
}

func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	if !s.requireSpace(w) {
		return
	}
	pages, err := s.space.ListPages(r.Context())
	if err != nil {
		writeSpaceError(w, err)
		return
	}
	if pages == nil {
		pages = []space.PageMeta{}
	}
	writeJSON(w, http.StatusOK, pages)
}

// readPage returns a page as JSON. With ?expand=true the text is expanded
// and returned as markdown.
func (s *Server) readPage(w http.ResponseWriter, r *http.Request) {
	name, ok := s.pageName(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("expand") == "true" {
		out, err := s.expander.ExpandPage(r.Context(), name, s.env())
		if err != nil {
			writeSpaceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, out)
		return
	}

	page, err := s.space.ReadPage(r.Context(), name)
	if err != nil {
		writeSpaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request) {
	name, ok := s.pageName(w, r)
	if !ok {
		return
	}
	text, ok := readBody(w, r)
	if !ok {
		return
	}
	meta, err := s.space.WritePage(r.Context(), name, text)
	if err != nil {
		writeSpaceError(w, err)
		return
	}
	s.logger.Debug("page written", "page", meta.Name)
	s.notifier.Broadcast(meta.Name)
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) deletePage(w http.ResponseWriter, r *http.Request) {
	name, ok := s.pageName(w, r)
	if !ok {
		return
	}
	if err := s.space.DeletePage(r.Context(), name); err != nil {
		writeSpaceError(w, err)
		return
	}
	s.logger.Debug("page deleted", "page", name)
	s.notifier.Broadcast(name)
	w.WriteHeader(http.StatusNoContent)
}

// events streams the names of changed pages as server-sent events.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case page := <-ch:
			data, _ := json.Marshal(map[string]string{"page": page})
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) requireSpace(w http.ResponseWriter) bool {
	if s.space == nil {
		writeError(w, http.StatusNotImplemented, errors.New("no page space configured"))
		return false
	}
	return true
}

func (s *Server) pageName(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !s.requireSpace(w) {
		return "", false
	}
	name, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return name, true
}

func requestContext(r *http.Request) ast.Context {
	if ref := r.URL.Query().Get("ref"); ref != "" {
		return ast.NewContext(map[string]any{"ref": ref})
	}
	return ast.Context{}
}

func readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return "", false
	}
	return string(data), true
}

func writeParseError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var lerr lua.Error
	var serr *grammar.SyntaxError
	switch {
	case errors.As(err, &lerr):
		from, to := lerr.Span()
		resp.From, resp.To = &from, &to
		if pos := lerr.Position(); pos.IsValid() {
			resp.Line, resp.Column = pos.Line, pos.Column
		}
	case errors.As(err, &serr):
		resp.From = &serr.Pos.Offset
		resp.Line, resp.Column = serr.Pos.Line, serr.Pos.Column
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func writeSpaceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, space.ErrPageNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, space.ErrInvalidPageName):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, space.ErrReadOnly):
		writeError(w, http.StatusForbidden, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
