package ast_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// importsOf returns the imports of the non-test Go files in dir, keyed by
// file name.
func importsOf(t *testing.T, dir string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	out := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			out[path] = append(out[path], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return out
}

// TestASTImportsOnlyStdlib verifies pkg/ast depends on nothing but the
// standard library, so every consumer can share its node types.
func TestASTImportsOnlyStdlib(t *testing.T) {
	for file, imports := range importsOf(t, ".") {
		for _, imp := range imports {
			// Stdlib paths have no dot in their first element
			if first, _, _ := strings.Cut(imp, "/"); strings.Contains(first, ".") {
				t.Errorf("%s imports non-stdlib package: %s", file, imp)
			}
		}
	}
}

// TestPublicPackagesDoNotImportInternal verifies no package under pkg/
// reaches into internal/.
func TestPublicPackagesDoNotImportInternal(t *testing.T) {
	dirs, err := os.ReadDir("..")
	if err != nil {
		t.Fatalf("Failed to read pkg directory: %v", err)
	}

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		for file, imports := range importsOf(t, filepath.Join("..", d.Name())) {
			for _, imp := range imports {
				if strings.Contains(imp, "/internal/") {
					t.Errorf("%s imports internal package: %s (pkg/ must not import internal packages)", file, imp)
				}
			}
		}
	}
}
