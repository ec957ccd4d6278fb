package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/internal/cli/output"
	"github.com/leapstack-labs/spacelua/pkg/cst"
	"github.com/leapstack-labs/spacelua/pkg/grammar"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

// NewCSTCommand creates the cst command.
func NewCSTCommand() *cobra.Command {
	var (
		expr       string
		expression bool
		raw        bool
	)

	cmd := &cobra.Command{
		Use:   "cst [file]",
		Short: "Print the concrete syntax tree of Lua source",
		Long: `Parse Lua source with the built-in grammar and print its concrete
syntax tree.

By default the tree is cleaned (whitespace leaves removed, single-child
wrappers kept). Use --raw for the tree exactly as the grammar produced it.
JSON output can be fed back to 'spacelua parse --from-cst'.`,
		Example: `  spacelua cst init.lua
  spacelua cst -e "x = 1 + 2" -o json
  spacelua cst --expression -e "a.b(c)"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args, expr)
			if err != nil {
				return err
			}
			if expr != "" && !cmd.Flags().Changed("expression") {
				expression = isExpression(expr)
			}

			root, err := buildCST(src.Text, expression, raw)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Ref, err)
			}

			r := NewCommandContext(cmd).Renderer
			if r.EffectiveMode() == output.ModeJSON {
				data, err := cst.Encode(root)
				if err != nil {
					return err
				}
				r.Println(string(data))
				return nil
			}
			return cst.Dump(cmd.OutOrStdout(), root)
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "Lua source to parse instead of a file")
	cmd.Flags().BoolVar(&expression, "expression", false, "Parse the input as a single expression")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the tree before cleaning")

	return cmd
}

func buildCST(src string, expression, raw bool) (*cst.Node, error) {
	if !raw {
		p := lua.New()
		if expression {
			return p.ExpressionCST(src)
		}
		return p.CST(src)
	}
	stripped, err := lua.StripComments(src)
	if err != nil {
		return nil, err
	}
	g := grammar.Lua()
	if expression {
		return g.ParseExpression(stripped)
	}
	return g.Parse(stripped)
}

// isExpression reports whether src parses as an expression but not as a
// chunk.
func isExpression(src string) bool {
	if _, err := lua.Parse(src, noContext); err == nil {
		return false
	}
	_, err := lua.ParseExpression(src, noContext)
	return err == nil
}
