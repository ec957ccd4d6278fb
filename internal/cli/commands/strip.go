package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/internal/cli/output"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

type commentSpan struct {
	Kind string `json:"kind"`
	From int    `json:"from"`
	To   int    `json:"to"`
	Line int    `json:"line"`
	Text string `json:"text"`
	Body string `json:"body"`
}

// NewStripCommand creates the strip command.
func NewStripCommand() *cobra.Command {
	var expr string
	var list bool

	cmd := &cobra.Command{
		Use:   "strip [file]",
		Short: "Blank out comments in Lua source",
		Long: `Replace every comment byte with a space.

The output has exactly the length of the input, so offsets reported
against the stripped text are offsets into the original. With --list
the comments are printed instead.`,
		Example: `  spacelua strip init.lua
  cat init.lua | spacelua strip -
  spacelua strip --list -o json init.lua`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args, expr)
			if err != nil {
				return err
			}
			r := NewCommandContext(cmd).Renderer

			if list {
				comments, err := lua.Comments(src.Text)
				if err != nil {
					return fmt.Errorf("%s: %w", src.Ref, err)
				}
				if r.EffectiveMode() == output.ModeJSON {
					spans := make([]commentSpan, 0, len(comments))
					for _, c := range comments {
						spans = append(spans, commentSpan{
							Kind: c.Kind.String(),
							From: c.Span.Start.Offset,
							To:   c.Span.End.Offset,
							Line: c.Span.Start.Line,
							Text: c.Text,
							Body: c.Body(),
						})
					}
					return r.JSON(spans)
				}
				for _, c := range comments {
					r.Printf("%s\t%s\n", c.Span.Start, c.Text)
				}
				return nil
			}

			stripped, err := lua.StripComments(src.Text)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Ref, err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), stripped)
			return err
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "Lua source to process instead of a file")
	cmd.Flags().BoolVar(&list, "list", false, "List comment spans instead of stripping")

	return cmd
}
