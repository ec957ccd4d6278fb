package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/pkg/ast"
	"github.com/leapstack-labs/spacelua/pkg/cst"
	"github.com/leapstack-labs/spacelua/pkg/format"
	"github.com/leapstack-labs/spacelua/pkg/grammar"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

const (
	replPrompt     = "lua> "
	replContinue   = "...> "
	replHistoryDir = ".spacelua"
)

var dotCommands = []string{".help", ".ast", ".cst", ".env", ".reset", ".clear", ".quit", ".exit"}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var (
		pages       bool
		historyFile string
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive Lua evaluator",
		Long: `Start an interactive session with the tree-walking evaluator.

Input that is a single expression is evaluated and its value printed;
anything else runs as a chunk. Incomplete input (an open block, an
unclosed bracket or long string) continues on the next line.

Type .help for the dot-commands.`,
		Example: `  spacelua repl
  spacelua repl --pages --space ./notes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := NewCommandContext(cmd)
			newEnv := eval.NewGlobalEnv
			if pages {
				sp, err := c.OpenSpace()
				if err != nil {
					return err
				}
				defer func() { _ = sp.Close() }()
				newEnv = func() *eval.Env {
					env := eval.NewGlobalEnv()
					eval.BindSpace(env, sp)
					return env
				}
			}
			if historyFile == "" {
				historyFile = defaultHistoryFile(c.Cfg.ProjectRoot)
			}

			session := newREPLSession(c.Evaluator(cmd.OutOrStdout()), newEnv, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runREPL(cmd.Context(), session, historyFile)
		},
	}

	cmd.Flags().BoolVar(&pages, "pages", false, "Bind the page space functions")
	cmd.Flags().StringVar(&historyFile, "history", "", "History file (default: .spacelua/history in the project or home directory)")

	return cmd
}

func defaultHistoryFile(projectRoot string) string {
	dir := projectRoot
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = home
	}
	return filepath.Join(dir, replHistoryDir, "history")
}

func runREPL(ctx context.Context, s *replSession, historyFile string) error {
	if historyFile != "" {
		_ = os.MkdirAll(filepath.Dir(historyFile), 0o750)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    &replCompleter{session: s},
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(s.out, "spacelua REPL")
	_, _ = fmt.Fprintln(s.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.pending.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if s.HandleLine(ctx, line) {
			return nil
		}
		if s.pending.Len() > 0 {
			rl.SetPrompt(replContinue)
		} else {
			rl.SetPrompt(replPrompt)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// replSession is the readline-independent state of a REPL.
type replSession struct {
	ev      *eval.Evaluator
	newEnv  func() *eval.Env
	env     *eval.Env
	out     io.Writer
	errOut  io.Writer
	pending strings.Builder
	line    int
}

func newREPLSession(ev *eval.Evaluator, newEnv func() *eval.Env, out, errOut io.Writer) *replSession {
	return &replSession{ev: ev, newEnv: newEnv, env: newEnv(), out: out, errOut: errOut}
}

// HandleLine processes one line of input and reports whether the session
// should end.
func (s *replSession) HandleLine(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if s.pending.Len() == 0 {
		if trimmed == "" {
			return false
		}
		if strings.HasPrefix(trimmed, ".") {
			return s.dotCommand(trimmed)
		}
	}

	if s.pending.Len() > 0 {
		s.pending.WriteByte('\n')
	}
	s.pending.WriteString(line)

	text := s.pending.String()
	if s.incomplete(text) {
		return false
	}
	s.pending.Reset()
	s.line++

	values, err := evalSource(ctx, s.ev, s.env, source{Text: text, Ref: fmt.Sprintf("repl:%d", s.line)}, true)
	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return false
	}
	if len(values) > 0 {
		_, _ = fmt.Fprintln(s.out, displayAll(values))
	}
	return false
}

// incomplete reports whether text fails to parse only because more input
// is expected.
func (s *replSession) incomplete(text string) bool {
	if _, err := lua.ParseExpressionList(text, noContext); err == nil {
		return false
	}
	_, err := lua.Parse(text, noContext)
	return needsMoreInput(err)
}

func needsMoreInput(err error) bool {
	if err == nil {
		return false
	}
	var unterminated *lua.UnterminatedConstructError
	if errors.As(err, &unterminated) {
		return true
	}
	var serr *grammar.SyntaxError
	if !errors.As(err, &serr) {
		return false
	}
	return strings.Contains(serr.Message, "end of input") ||
		serr.Message == grammar.ErrUnterminatedLong ||
		serr.Message == grammar.ErrUnterminatedComment
}

func (s *replSession) dotCommand(line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(s.out)
	case ".ast":
		s.printAST(arg)
	case ".cst":
		s.printCST(arg)
	case ".env":
		for _, name := range s.env.Names() {
			v, _ := s.env.Get(name)
			_, _ = fmt.Fprintf(s.out, "%-16s %s\n", name, eval.TypeName(v))
		}
	case ".reset":
		s.env = s.newEnv()
		_, _ = fmt.Fprintln(s.out, "globals reset")
	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")
	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) printAST(src string) {
	if src == "" {
		_, _ = fmt.Fprintln(s.errOut, "Usage: .ast <lua>")
		return
	}
	var (
		node ast.Node
		err  error
	)
	if isExpression(src) {
		node, err = lua.ParseExpression(src, noContext)
	} else {
		node, err = lua.Parse(src, noContext)
	}
	if err == nil {
		err = format.Tree(s.out, node)
	}
	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
}

func (s *replSession) printCST(src string) {
	if src == "" {
		_, _ = fmt.Fprintln(s.errOut, "Usage: .cst <lua>")
		return
	}
	root, err := buildCST(src, isExpression(src), false)
	if err == nil {
		err = cst.Dump(s.out, root)
	}
	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .ast <lua>      Print the AST of a chunk or expression
  .cst <lua>      Print the cleaned CST of a chunk or expression
  .env            List global names and their types
  .reset          Restore the standard globals
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - A single expression prints its value; chunks print returned values
  - Incomplete input continues on the next line; Ctrl+C discards it
  - Tab completes global names and dot-commands`
	_, _ = fmt.Fprintln(w, help)
}

// replCompleter completes the identifier before the cursor against the
// global environment, and dot-commands at the start of a line.
type replCompleter struct {
	session *replSession
}

func (c *replCompleter) Do(line []rune, pos int) ([][]rune, int) {
	head := string(line[:pos])
	if strings.HasPrefix(head, ".") && !strings.Contains(head, " ") {
		return suffixes(dotCommands, head), len([]rune(head))
	}

	start := len(head)
	for start > 0 && isIdentByte(head[start-1]) {
		start--
	}
	word := head[start:]
	if word == "" {
		return nil, 0
	}
	return suffixes(c.session.env.Names(), word), len([]rune(word))
}

func suffixes(candidates []string, prefix string) [][]rune {
	var out [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, prefix) && cand != prefix {
			out = append(out, []rune(cand[len(prefix):]))
		}
	}
	return out
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
