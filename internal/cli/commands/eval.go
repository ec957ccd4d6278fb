package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/internal/cli/output"
	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

// EvalOptions holds options for the eval command.
type EvalOptions struct {
	Expr     string
	Pages    bool
	MaxSteps int
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	opts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate Lua source",
		Long: `Parse and run Lua source with the tree-walking evaluator. The values
of a top-level return statement are printed, one per line. An -e
argument that is a single expression is evaluated and its value printed.

With --pages the page space functions (listPages, readPage, writePage,
deletePage) are bound to the configured space.`,
		Example: `  spacelua eval script.lua
  spacelua eval -e "1 + 2 * 3"
  spacelua eval --pages -e "#listPages()"
  spacelua eval -o json -e "{1, 2, x = 3}"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Expr, "expr", "e", "", "Lua source to evaluate instead of a file")
	cmd.Flags().BoolVar(&opts.Pages, "pages", false, "Bind the page space functions")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "Override eval.max_steps (0 keeps the configured budget)")

	return cmd
}

func runEval(cmd *cobra.Command, args []string, opts *EvalOptions) error {
	src, err := readSource(cmd, args, opts.Expr)
	if err != nil {
		return err
	}

	c := NewCommandContext(cmd)
	if opts.MaxSteps > 0 {
		c.Cfg.Eval.MaxSteps = opts.MaxSteps
	}
	env := eval.NewGlobalEnv()
	if opts.Pages {
		sp, err := c.OpenSpace()
		if err != nil {
			return err
		}
		defer func() { _ = sp.Close() }()
		eval.BindSpace(env, sp)
	}

	ev := c.Evaluator(cmd.OutOrStdout())
	values, err := evalSource(cmd.Context(), ev, env, src, opts.Expr != "")
	if err != nil {
		return fmt.Errorf("%s: %w", src.Ref, err)
	}
	return printValues(c.Renderer, values)
}

// evalSource runs src as a chunk. When tryExpression is set and src is an
// expression list ("x * 2, 'a'"), the values of the list are returned instead.
func evalSource(ctx context.Context, ev *eval.Evaluator, env *eval.Env, src source, tryExpression bool) ([]eval.Value, error) {
	pctx := noContext.With("ref", src.Ref)
	if tryExpression {
		if exps, err := lua.ParseExpressionList(src.Text, pctx); err == nil {
			return ev.EvalExpressions(ctx, exps, env, nil)
		}
	}
	block, err := lua.Parse(src.Text, pctx)
	if err != nil {
		return nil, err
	}
	return ev.Exec(ctx, block, env, nil)
}

func printValues(r *output.Renderer, values []eval.Value) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = eval.ToGo(v)
		}
		return r.JSON(out)
	}
	for _, v := range values {
		r.Println(display(v))
	}
	return nil
}

// display renders a value for humans: strings quoted, tables as JSON.
func display(v eval.Value) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case *eval.Table:
		data, err := json.Marshal(eval.ToGo(x))
		if err != nil {
			return eval.ToString(x)
		}
		return string(data)
	default:
		return eval.ToString(x)
	}
}

// displayAll joins values the way print separates its arguments.
func displayAll(values []eval.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = display(v)
	}
	return strings.Join(parts, "\t")
}
