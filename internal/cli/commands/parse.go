package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/internal/cli/output"
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/cst"
	"github.com/leapstack-labs/spacelua/pkg/format"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

var noContext = ast.Context{}

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	Expr       string
	Expression bool
	FromCST    bool
	Format     string
	Ref        string
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Lower Lua source into its AST",
		Long: `Run the full lowering pipeline (comment stripping, grammar, CST
normalization, lowering) and print the resulting AST.

Formats:
  tree    Indented outline with byte ranges (default)
  json    Encoded AST nodes with their ctx records
  source  The AST printed back as Lua source

With --from-cst the input is a CST document (as printed by
'spacelua cst -o json') instead of Lua source.`,
		Example: `  spacelua parse init.lua
  spacelua parse -e "local x = 1" --format json
  spacelua parse --ref notes -o json init.lua
  spacelua cst -o json init.lua | spacelua parse --from-cst -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Expr, "expr", "e", "", "Lua source to parse instead of a file")
	cmd.Flags().BoolVar(&opts.Expression, "expression", false, "Parse the input as a single expression")
	cmd.Flags().BoolVar(&opts.FromCST, "from-cst", false, "Read a CST document instead of Lua source")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "tree", "AST format: tree, json or source")
	cmd.Flags().StringVar(&opts.Ref, "ref", "", "Page name recorded in every node's ctx")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"tree", "json", "source"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	src, err := readSource(cmd, args, opts.Expr)
	if err != nil {
		return err
	}
	if opts.Expr != "" && !cmd.Flags().Changed("expression") {
		opts.Expression = isExpression(opts.Expr)
	}

	ctx := noContext
	if opts.Ref != "" {
		ctx = ctx.With("ref", opts.Ref)
	}

	var node ast.Node
	switch {
	case opts.FromCST:
		root, err := cst.Decode([]byte(src.Text))
		if err != nil {
			return fmt.Errorf("%s: %w", src.Ref, err)
		}
		if opts.Expression {
			node, err = lua.LowerExpression(root, ctx)
		} else {
			node, err = lua.Lower(root, ctx)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", src.Ref, err)
		}
	case opts.Expression:
		node, err = lua.ParseExpression(src.Text, ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", src.Ref, err)
		}
	default:
		node, err = lua.Parse(src.Text, ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", src.Ref, err)
		}
	}

	c := NewCommandContext(cmd)
	c.Logger.Debug("parsed", "ref", src.Ref, "bytes", len(src.Text))

	r := c.Renderer
	mode := opts.Format
	if r.EffectiveMode() == output.ModeJSON {
		mode = "json"
	}
	switch mode {
	case "json":
		return r.JSON(ast.Encode(node))
	case "source":
		if block, ok := node.(*ast.Block); ok {
			r.Printf("%s", format.Format(block))
			return nil
		}
		r.Println(format.Expression(node.(ast.Expression)))
		return nil
	case "tree":
		return format.Tree(cmd.OutOrStdout(), node)
	default:
		return fmt.Errorf("unknown format %q: use tree, json or source", opts.Format)
	}
}
