package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/internal/cli/output"
	"github.com/leapstack-labs/spacelua/internal/space"
)

// NewPagesCommand creates the pages command group.
func NewPagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Manage pages in the space",
		Long: `List, read, write and delete pages in the configured space.

The space backend is chosen with --backend (disk, sqlite, bolt, memory)
and located with --space or space.path in spacelua.yaml.`,
	}

	cmd.AddCommand(
		newPagesListCommand(),
		newPagesReadCommand(),
		newPagesWriteCommand(),
		newPagesDeleteCommand(),
		newPagesHistoryCommand(),
	)

	return cmd
}

func newPagesListCommand() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pages",
		Example: `  spacelua pages list
  spacelua pages list --prefix projects/ -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := NewCommandContext(cmd)
			sp, err := c.OpenSpace()
			if err != nil {
				return err
			}
			defer func() { _ = sp.Close() }()

			pages, err := sp.ListPages(cmd.Context())
			if err != nil {
				return err
			}
			if prefix != "" {
				filtered := pages[:0]
				for _, p := range pages {
					if strings.HasPrefix(p.Name, prefix) {
						filtered = append(filtered, p)
					}
				}
				pages = filtered
			}
			return renderPageList(c.Renderer, pages)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only list pages whose name starts with prefix")

	return cmd
}

func renderPageList(r *output.Renderer, pages []space.PageMeta) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if pages == nil {
			pages = []space.PageMeta{}
		}
		return r.JSON(pages)
	case output.ModeText:
		rows := make([][]string, 0, len(pages))
		for _, p := range pages {
			rows = append(rows, []string{p.Name, p.LastModified.Format(time.DateTime), p.Perm})
		}
		r.Table([]string{"Page", "Modified", "Perm"}, rows)
	default:
		r.Header(1, "Pages")
		for _, p := range pages {
			r.Println(output.FormatKeyValue(p.Name, p.LastModified.Format(time.RFC3339)))
		}
		r.Println()
	}
	r.Muted(fmt.Sprintf("%d page(s)", len(pages)))
	return nil
}

func newPagesReadCommand() *cobra.Command {
	var expand bool

	cmd := &cobra.Command{
		Use:   "read <page>",
		Short: "Print a page",
		Example: `  spacelua pages read index
  spacelua pages read --expand index`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completePageNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			sp, err := c.OpenSpace()
			if err != nil {
				return err
			}
			defer func() { _ = sp.Close() }()

			if expand {
				x := c.Expander(sp, c.Evaluator(cmd.ErrOrStderr()))
				text, err := x.ExpandPage(cmd.Context(), args[0], nil)
				if err != nil {
					return fmt.Errorf("failed to expand %s: %w", args[0], err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}

			page, err := sp.ReadPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.Renderer.EffectiveMode() == output.ModeJSON {
				return c.Renderer.JSON(page)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), page.Text)
			return err
		},
	}

	cmd.Flags().BoolVar(&expand, "expand", false, "Expand directives before printing")

	return cmd
}

func newPagesWriteCommand() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "write <page>",
		Short: "Create or replace a page",
		Long:  `Write a page from --text, or from stdin when --text is not given.`,
		Example: `  spacelua pages write index --text "# Home"
  cat notes.md | spacelua pages write journal/today`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("text") {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}

			c := NewCommandContext(cmd)
			sp, err := c.OpenSpace()
			if err != nil {
				return err
			}
			defer func() { _ = sp.Close() }()

			meta, err := sp.WritePage(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			if c.Renderer.EffectiveMode() == output.ModeJSON {
				return c.Renderer.JSON(meta)
			}
			c.Renderer.Success(fmt.Sprintf("wrote %s (%d bytes)", meta.Name, len(text)))
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Page text")

	return cmd
}

func newPagesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <page>...",
		Aliases:           []string{"rm"},
		Short:             "Delete pages",
		Example:           `  spacelua pages delete scratch old/draft`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completePageNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			sp, err := c.OpenSpace()
			if err != nil {
				return err
			}
			defer func() { _ = sp.Close() }()

			var errs []error
			for _, name := range args {
				if err := sp.DeletePage(cmd.Context(), name); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					continue
				}
				c.Renderer.Success("deleted " + name)
			}
			return errors.Join(errs...)
		},
	}
}

// revisioner is implemented by backends that keep page history.
type revisioner interface {
	Revisions(ctx context.Context, name string) ([]space.Revision, error)
}

func newPagesHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "history <page>",
		Short:             "Show stored revisions of a page (sqlite backend)",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completePageNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			sp, err := c.OpenSpace()
			if err != nil {
				return err
			}
			defer func() { _ = sp.Close() }()

			rev, ok := sp.(revisioner)
			if !ok {
				return fmt.Errorf("the %s backend does not keep page history", c.Cfg.Space.Backend)
			}
			revisions, err := rev.Revisions(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			r := c.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(revisions)
			}
			rows := make([][]string, 0, len(revisions))
			for _, rv := range revisions {
				rows = append(rows, []string{rv.ID, rv.Created.Format(time.DateTime), shortHash(rv.Hash), fmt.Sprint(len(rv.Text))})
			}
			r.Table([]string{"Revision", "Created", "Hash", "Bytes"}, rows)
			return nil
		},
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// completePageNames offers page names from the configured space.
func completePageNames(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	sp, err := space.Open(getConfig().Space)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer func() { _ = sp.Close() }()

	pages, err := sp.ListPages(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, p := range pages {
		if strings.HasPrefix(p.Name, toComplete) {
			names = append(names, p.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
