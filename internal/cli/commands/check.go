package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/spacelua/internal/cli/output"
	"github.com/leapstack-labs/spacelua/internal/watch"
	"github.com/leapstack-labs/spacelua/pkg/grammar"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

// CheckResult is the outcome of parsing one file.
type CheckResult struct {
	File   string `json:"file"`
	OK     bool   `json:"ok"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Error  string `json:"error,omitempty"`
}

// errCheckFailed is returned when at least one file does not parse.
var errCheckFailed = errors.New("check failed")

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Parse Lua files and report syntax errors",
		Long: `Parse every .lua file under the given paths and report which ones
fail to lower. Files are parsed concurrently (check.concurrency).

The command exits non-zero when any file fails. With --watch it keeps
running and re-checks files as they change.`,
		Example: `  spacelua check
  spacelua check lib/ init.lua
  spacelua check --watch -o json lib/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			c := NewCommandContext(cmd)

			if watchMode {
				return watchCheck(cmd.Context(), c, args)
			}

			files, err := collectLuaFiles(args)
			if err != nil {
				return err
			}
			results, err := checkFiles(cmd.Context(), files, c.Cfg.Check.Concurrency)
			if err != nil {
				return err
			}
			return reportCheck(c.Renderer, results)
		},
	}

	cmd.Flags().BoolVar(&watchMode, "watch", false, "Re-check files when they change")
	cmd.Flags().Int("concurrency", 0, "Files parsed in parallel (default: check.concurrency)")

	return cmd
}

// collectLuaFiles expands directories into the .lua files below them.
// Hidden directories are skipped; explicit file arguments are kept as-is.
func collectLuaFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".lua" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// checkFiles parses files with at most limit parses in flight. Results are
// in the order of files.
func checkFiles(ctx context.Context, files []string, limit int) ([]CheckResult, error) {
	results := make([]CheckResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = checkFile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkFile(file string) CheckResult {
	res := CheckResult{File: filepath.ToSlash(file), OK: true}
	data, err := os.ReadFile(file)
	if err != nil {
		res.OK = false
		res.Error = err.Error()
		return res
	}
	if _, err := lua.Parse(string(data), noContext.With("ref", res.File)); err != nil {
		res.OK = false
		res.Error = err.Error()
		res.Line, res.Column = errorPosition(err)
	}
	return res
}

// errorPosition extracts the line and column of a parse failure.
func errorPosition(err error) (int, int) {
	var lerr lua.Error
	if errors.As(err, &lerr) {
		pos := lerr.Position()
		return pos.Line, pos.Column
	}
	var serr *grammar.SyntaxError
	if errors.As(err, &serr) {
		return serr.Pos.Line, serr.Pos.Column
	}
	return 0, 0
}

func reportCheck(r *output.Renderer, results []CheckResult) error {
	failed := 0
	for _, res := range results {
		if !res.OK {
			failed++
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(results); err != nil {
			return err
		}
	case output.ModeText:
		rows := make([][]string, 0, len(results))
		for _, res := range results {
			status := r.Styles().StatusSuccess.String()
			if !res.OK {
				status = r.Styles().StatusFailed.String()
			}
			rows = append(rows, []string{status, res.File, location(res), res.Error})
		}
		r.Table([]string{"", "File", "At", "Error"}, rows)
	default:
		r.Header(1, "Check")
		for _, res := range results {
			r.StatusLine(res.File, res.OK, res.Error)
		}
		r.Println()
	}

	if failed > 0 {
		r.Error(fmt.Sprintf("%d of %d file(s) failed to parse", failed, len(results)))
		return errCheckFailed
	}
	if r.EffectiveMode() != output.ModeJSON {
		r.Success(fmt.Sprintf("%d file(s) ok", len(results)))
	}
	return nil
}

func location(res CheckResult) string {
	if res.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", res.Line, res.Column)
}

func watchCheck(ctx context.Context, c *CommandContext, paths []string) error {
	files, err := collectLuaFiles(paths)
	if err != nil {
		return err
	}
	results, err := checkFiles(ctx, files, c.Cfg.Check.Concurrency)
	if err != nil {
		return err
	}
	_ = reportCheck(c.Renderer, results)

	w := watch.New(paths, watch.Options{Extensions: []string{".lua"}, Logger: c.Logger})
	c.Renderer.Muted("watching for changes (Ctrl+C to stop)")
	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		var existing []string
		for _, p := range changed {
			if _, err := os.Stat(p); err == nil {
				existing = append(existing, p)
			}
		}
		results, err := checkFiles(ctx, existing, c.Cfg.Check.Concurrency)
		if err != nil {
			return
		}
		_ = reportCheck(c.Renderer, results)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
