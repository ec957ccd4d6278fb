package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/spacelua/pkg/format"
	"github.com/leapstack-labs/spacelua/pkg/lua"
)

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	var (
		write bool
		check bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [file...]",
		Short: "Reformat Lua source",
		Long: `Parse Lua source and print it back in canonical layout. Comments are
reattached to the statements they precede.

With -w the files are rewritten in place. With --check nothing is
written and the command fails if any file is not formatted.`,
		Example: `  spacelua fmt init.lua
  spacelua fmt -w lib/*.lua
  spacelua fmt --check lib/*.lua`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			var unformatted []string

			for _, path := range args {
				src, err := readSource(cmd, []string{path}, "")
				if err != nil {
					return err
				}
				formatted, err := formatSource(src.Text)
				if err != nil {
					return fmt.Errorf("%s: %w", src.Ref, err)
				}

				switch {
				case check:
					if formatted != src.Text {
						unformatted = append(unformatted, src.Ref)
						c.Renderer.Println(src.Ref)
					}
				case write && path != "-":
					if formatted == src.Text {
						continue
					}
					if err := writeFileAtomic(path, []byte(formatted)); err != nil {
						return fmt.Errorf("failed to write %s: %w", path, err)
					}
					c.Logger.Info("formatted", "file", path)
				default:
					_, _ = fmt.Fprint(cmd.OutOrStdout(), formatted)
				}
			}

			if len(unformatted) > 0 {
				return fmt.Errorf("%d file(s) not formatted", len(unformatted))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the source files")
	cmd.Flags().BoolVar(&check, "check", false, "Fail if any file is not formatted")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

func formatSource(src string) (string, error) {
	block, err := lua.Parse(src, noContext)
	if err != nil {
		return "", err
	}
	comments, err := lua.Comments(src)
	if err != nil {
		return "", err
	}
	return format.WithComments(block, comments, src), nil
}

// writeFileAtomic replaces path with data via a temp file in the same dir.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".spacelua-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
