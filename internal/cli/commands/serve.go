package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/spacelua/internal/server"
	"github.com/leapstack-labs/spacelua/internal/space"
	"github.com/leapstack-labs/spacelua/internal/watch"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr        string
	ReadTimeout time.Duration
	Watch       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parse, expand and pages HTTP API",
		Long: `Start an HTTP server exposing the lowering pipeline and the page space:

  POST /api/parse              Lua source -> AST JSON
  POST /api/parse/expression   expression source -> AST JSON
  POST /api/expand             markdown -> expanded markdown
  GET  /api/pages              page list
  GET|PUT|DELETE /api/pages/*  single page
  GET  /api/events             page change stream (server-sent events)
  GET  /healthz

With --watch (disk backend) edits made outside the server are also
published on /api/events.`,
		Example: `  spacelua serve
  spacelua serve --addr :8080 --space ./notes --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default: serve.addr)")
	cmd.Flags().DurationVar(&opts.ReadTimeout, "read-timeout", 0, "Request read timeout (default: serve.read_timeout)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Publish changes made to the space on disk")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	c := NewCommandContext(cmd)
	addr := c.Cfg.Serve.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	readTimeout := c.Cfg.Serve.ReadTimeout
	if opts.ReadTimeout > 0 {
		readTimeout = opts.ReadTimeout
	}

	sp, err := c.OpenSpace()
	if err != nil {
		return err
	}
	defer func() { _ = sp.Close() }()

	srv := server.New(server.Config{
		Addr:        addr,
		ReadTimeout: readTimeout,
		Space:       sp,
		Evaluator:   c.Evaluator(cmd.ErrOrStderr()),
		MaxDepth:    c.Cfg.Expand.MaxDepth,
		Logger:      c.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Renderer.Success(fmt.Sprintf("serving %s space on http://%s", c.Cfg.Space.Backend, addr))
	c.Renderer.Muted("Press Ctrl+C to stop")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	if opts.Watch {
		disk, ok := sp.(*space.DiskSpace)
		if !ok {
			return errors.New("--watch requires the disk backend")
		}
		g.Go(func() error {
			return publishChanges(ctx, disk, srv.Notifier(), c)
		})
	}
	return g.Wait()
}

// publishChanges broadcasts pages edited on disk until ctx is done.
func publishChanges(ctx context.Context, disk *space.DiskSpace, n *server.Notifier, c *CommandContext) error {
	w := watch.New([]string{disk.Root()}, watch.Options{
		Extensions: []string{space.PageExtension},
		Logger:     c.Logger,
	})
	return w.Run(ctx, func(_ context.Context, changed []string) {
		for _, path := range changed {
			if name, ok := disk.PageName(path); ok {
				n.Broadcast(name)
			}
		}
	})
}
