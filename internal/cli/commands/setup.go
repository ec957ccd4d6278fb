package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/internal/cli/config"
	"github.com/leapstack-labs/spacelua/internal/cli/output"
	"github.com/leapstack-labs/spacelua/internal/directive"
	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/internal/space"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// OpenSpace opens the configured page space. The caller closes it.
func (c *CommandContext) OpenSpace() (space.Space, error) {
	sp, err := space.Open(c.Cfg.Space)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s space: %w", c.Cfg.Space.Backend, err)
	}
	c.Logger.Debug("opened space", "backend", c.Cfg.Space.Backend, "path", c.Cfg.Space.Path)
	return sp, nil
}

// Evaluator creates an evaluator whose print writes to stdout.
func (c *CommandContext) Evaluator(stdout io.Writer) *eval.Evaluator {
	return eval.New(
		eval.WithMaxSteps(c.Cfg.Eval.MaxSteps),
		eval.WithStdout(stdout),
		eval.WithLogger(c.Logger),
	)
}

// Expander creates a directive expander over sp with the space-lua widget.
func (c *CommandContext) Expander(sp space.Space, ev *eval.Evaluator) *directive.Expander {
	x := &directive.Expander{
		Space:     sp,
		Evaluator: ev,
		MaxDepth:  c.Cfg.Expand.MaxDepth,
		Logger:    c.Logger,
	}
	x.Register("space-lua", directive.LuaWidget(ev))
	return x
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// source is Lua text and the name it is reported under.
type source struct {
	Text string
	Ref  string
}

// errNoSource is returned when neither a file nor -e was given.
var errNoSource = errors.New("no input: pass a file, - for stdin, or -e")

// readSource reads the FILE argument ("-" for stdin) or returns the -e text.
func readSource(cmd *cobra.Command, args []string, expr string) (source, error) {
	if expr != "" {
		return source{Text: expr, Ref: "(expr)"}, nil
	}
	if len(args) == 0 {
		return source{}, errNoSource
	}
	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return source{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		return source{Text: string(data), Ref: "(stdin)"}, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return source{}, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return source{Text: string(data), Ref: filepath.ToSlash(args[0])}, nil
}
