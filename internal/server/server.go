// Package server exposes parsing, expansion and the page space over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/spacelua/internal/directive"
	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/internal/space"
)

const (
	defaultAddr        = "127.0.0.1:3000"
	defaultReadTimeout = 10 * time.Second
	shutdownTimeout    = 5 * time.Second
	maxBodyBytes       = 4 << 20
)

// Config holds configuration for the server.
type Config struct {
	Addr        string
	ReadTimeout time.Duration
	Space       space.Space
	Evaluator   *eval.Evaluator
	MaxDepth    int
	Logger      *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	addr        string
	readTimeout time.Duration
	space       space.Space
	expander    *directive.Expander
	logger      *slog.Logger
	notifier    *Notifier
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ev := cfg.Evaluator
	if ev == nil {
		ev = eval.New(eval.WithLogger(logger))
	}
	s := &Server{
		addr:        cfg.Addr,
		readTimeout: cfg.ReadTimeout,
		space:       cfg.Space,
		logger:      logger,
		notifier:    NewNotifier(),
		expander: &directive.Expander{
			Space:     cfg.Space,
			Evaluator: ev,
			MaxDepth:  cfg.MaxDepth,
			Logger:    logger,
		},
	}
	if s.addr == "" {
		s.addr = defaultAddr
	}
	if s.readTimeout <= 0 {
		s.readTimeout = defaultReadTimeout
	}
	s.expander.Register("space-lua", directive.LuaWidget(ev))
	return s
}

// Notifier returns the notifier for page change events.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", s.parse)
		r.Post("/parse/expression", s.parseExpression)
		r.Post("/expand", s.expand)
		r.Get("/events", s.events)

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", s.listPages)
			r.Get("/*", s.readPage)
			r.Put("/*", s.writePage)
			r.Delete("/*", s.deletePage)
		})
	})
	return r
}

// Serve listens on the configured address and blocks until ctx is
// cancelled or the server fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.readTimeout,
		ReadTimeout:       s.readTimeout,
	}

	s.logger.Info("starting server", "addr", "http://"+ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
