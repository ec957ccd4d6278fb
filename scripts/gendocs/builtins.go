package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/leapstack-labs/spacelua/internal/eval"
	"github.com/leapstack-labs/spacelua/internal/space"
)

// generateBuiltinsDocs lists the globals of a fresh evaluator environment,
// with the page space functions bound.
func generateBuiltinsDocs(outDir string) error {
	log.Printf("Generating builtins docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	env := eval.NewGlobalEnv()
	eval.BindSpace(env, space.NewMemorySpace())

	w := NewMarkdownWriter()
	w.Frontmatter("Builtins", "Globals available to space-lua scripts")
	w.GeneratedMarker()

	w.Header(1, "Builtins")
	w.Paragraph("Every script, directive and widget runs in an environment holding these globals.")

	var functions, libraries []string
	for _, name := range env.Names() {
		v, _ := env.Get(name)
		if _, ok := v.(*eval.Table); ok {
			libraries = append(libraries, name)
			continue
		}
		functions = append(functions, name)
	}

	w.Header(2, "Functions")
	rows := make([][]string, 0, len(functions))
	for _, name := range functions {
		v, _ := env.Get(name)
		rows = append(rows, []string{InlineCode(name), eval.TypeName(v)})
	}
	w.Table([]string{"Name", "Type"}, rows)

	for _, lib := range libraries {
		v, _ := env.Get(lib)
		t := v.(*eval.Table)

		var fields []string
		for _, k := range t.Keys() {
			if s, ok := k.(string); ok {
				fields = append(fields, s)
			}
		}
		slices.Sort(fields)

		w.Header(2, InlineCode(lib))
		items := make([]string, 0, len(fields))
		for _, f := range fields {
			items = append(items, fmt.Sprintf("%s (%s)", InlineCode(lib+"."+f), eval.TypeName(t.Field(f))))
		}
		w.BulletList(items)
	}

	filename := filepath.Join(outDir, "builtins.md")
	log.Printf("  Generated builtins.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
