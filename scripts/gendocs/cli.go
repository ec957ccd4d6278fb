package main

import (
	"cmp"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/spacelua/internal/cli"
	"github.com/leapstack-labs/spacelua/internal/cli/config"
)

// generateCLIDocs writes index.md plus one page per command, subcommands
// included. Nested commands are named by their path, e.g. pages-list.md.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()

	if err := writePage(outDir, "index.md", cliIndex(root)); err != nil {
		return err
	}
	var walk func(cmd *cobra.Command) error
	walk = func(cmd *cobra.Command) error {
		for _, sub := range visibleCommands(cmd) {
			name := pageName(sub) + ".md"
			if err := writePage(outDir, name, commandPage(sub)); err != nil {
				return fmt.Errorf("%s: %w", sub.CommandPath(), err)
			}
			if err := walk(sub); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

func writePage(dir, name string, w *MarkdownWriter) error {
	log.Printf("  Generated %s", name)
	return os.WriteFile(filepath.Join(dir, name), w.Bytes(), 0600)
}

func visibleCommands(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			out = append(out, sub)
		}
	}
	return out
}

// pageName drops the binary name from the command path.
func pageName(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())
	return strings.Join(parts[1:], "-")
}

func commandLink(cmd *cobra.Command) string {
	return fmt.Sprintf("[%s](/cli/%s)", InlineCode(strings.TrimPrefix(cmd.CommandPath(), "spacelua ")), pageName(cmd))
}

func commandTable(w *MarkdownWriter, cmd *cobra.Command, label string) {
	var rows [][]string
	for _, sub := range visibleCommands(cmd) {
		rows = append(rows, []string{commandLink(sub), cleanDescription(sub.Short)})
	}
	w.Table([]string{label, "Description"}, rows)
}

func cliIndex(root *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for spacelua")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/spacelua/cmd/spacelua@latest")
	w.Header(2, "Commands")
	commandTable(w, root, "Command")

	w.Header(2, "Global Options")
	flagTable(w, root.PersistentFlags())

	w.Header(2, "Environment Variables")
	w.Paragraph(fmt.Sprintf("Configuration keys map to variables with the %s prefix, upper case, and %s in place of dots. Flags take precedence over the environment.",
		InlineCode(config.EnvPrefix), InlineCode("__")))
	var rows [][]string
	for _, f := range configFields("", reflect.ValueOf(*config.Default())) {
		env := config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(f.Key, ".", "__"))
		rows = append(rows, []string{InlineCode(env), InlineCode(f.Key)})
	}
	w.Table([]string{"Variable", "Key"}, rows)

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Any failure, including check finding syntax errors"},
	})
	return w
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.CommandPath(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.CommandPath())
	w.Paragraph(cmp.Or(cmd.Long, cmd.Short))

	w.Header(2, "Usage")
	use := cmd.UseLine()
	if cmd.HasAvailableSubCommands() {
		use = cmd.CommandPath() + " <subcommand> [flags]"
	}
	w.CodeBlock("bash", use)

	if len(cmd.Aliases) > 0 {
		w.Header(2, "Aliases")
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = InlineCode(a)
		}
		w.BulletList(aliases)
	}
	if cmd.HasAvailableSubCommands() {
		w.Header(2, "Subcommands")
		commandTable(w, cmd, "Subcommand")
	}
	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		flagTable(w, cmd.LocalFlags())
	}
	if cmd.HasAvailableInheritedFlags() {
		w.Header(2, "Global Options")
		flagTable(w, cmd.InheritedFlags())
	}
	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	return w
}

func flagTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name = InlineCode("-"+f.Shorthand) + ", " + name
		}
		def := f.DefValue
		switch {
		case def == "" || def == "[]":
			def = ""
		case f.Value.Type() != "bool":
			def = InlineCode(def)
		}
		rows = append(rows, []string{name, f.Value.Type(), def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Type", "Default", "Description"}, rows)
}

// dedent strips the indentation shared by all non-blank lines.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	common := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	for i, l := range lines {
		if len(l) >= common && common > 0 {
			lines[i] = l[common:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
