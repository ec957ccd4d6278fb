package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/internal/space"
	"github.com/leapstack-labs/spacelua/internal/watch"
)

// ExpandOptions holds options for the expand command.
type ExpandOptions struct {
	File  string
	Out   string
	Watch bool
}

// NewExpandCommand creates the expand command.
func NewExpandCommand() *cobra.Command {
	opts := &ExpandOptions{}

	cmd := &cobra.Command{
		Use:   "expand [page]",
		Short: "Expand directives, transclusions and widgets in a page",
		Long: `Expand a markdown page from the space:

  ${expr}          evaluated and replaced by its rendered value
  ![[page#Head]]   replaced by the (expanded) text of another page
  ` + "```space-lua" + `     fenced block run as a widget

Failures are rendered inline as "**Error:** ..." annotations.
With --file a markdown file outside the space is expanded against it.
With --watch the page is re-expanded whenever the space changes
(disk backend only).`,
		Example: `  spacelua expand index
  spacelua expand --space ./notes projects/alpha
  spacelua expand --file draft.md --out draft.html.md
  spacelua expand --watch index`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePageNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.File == "" {
				return errors.New("requires a page name or --file")
			}
			page := ""
			if len(args) > 0 {
				page = args[0]
			}
			return runExpand(cmd, page, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "Expand a markdown file instead of a page")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-expand when pages change")
	cmd.Flags().Int("max-depth", 0, "Transclusion depth limit (default: expand.max_depth)")

	return cmd
}

func runExpand(cmd *cobra.Command, page string, opts *ExpandOptions) error {
	c := NewCommandContext(cmd)
	sp, err := c.OpenSpace()
	if err != nil {
		return err
	}
	defer func() { _ = sp.Close() }()

	ev := c.Evaluator(cmd.ErrOrStderr())
	x := c.Expander(sp, ev)

	render := func(ctx context.Context) error {
		env := eval.NewGlobalEnv()
		eval.BindSpace(env, sp)

		var (
			text string
			err  error
		)
		if opts.File != "" {
			var data []byte
			data, err = os.ReadFile(opts.File)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", opts.File, err)
			}
			text, err = x.Expand(ctx, string(data), env)
			if err != nil {
				return err
			}
		} else {
			text, err = x.ExpandPage(ctx, page, env)
			if err != nil {
				return fmt.Errorf("failed to expand %s: %w", page, err)
			}
		}

		if opts.Out != "" {
			return os.WriteFile(opts.Out, []byte(text), 0o600)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}

	ctx := cmd.Context()
	if err := render(ctx); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	paths, err := watchPaths(sp, opts.File)
	if err != nil {
		return err
	}
	w := watch.New(paths, watch.Options{Extensions: []string{space.PageExtension}, Logger: c.Logger})
	c.Renderer.Muted("watching for changes (Ctrl+C to stop)")
	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		c.Logger.Debug("re-expanding", "changed", changed)
		if err := render(ctx); err != nil {
			c.Renderer.Error(err.Error())
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchPaths returns the directories an expansion depends on.
func watchPaths(sp space.Space, file string) ([]string, error) {
	disk, ok := sp.(*space.DiskSpace)
	if !ok {
		return nil, errors.New("--watch requires the disk backend")
	}
	paths := []string{disk.Root()}
	if file != "" {
		paths = append(paths, file)
	}
	return paths, nil
}
