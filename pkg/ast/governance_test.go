//go:build governance

package ast_test

import (
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/leapstack-labs/spacelua"

// TestGovernance_LayeredImports verifies the lowering layers only depend
// downwards: token <- cst <- grammar <- lua, with ast beside them.
func TestGovernance_LayeredImports(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, modulePath+"/pkg/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	forbidden := map[string][]string{
		"pkg/token":   {"pkg/cst", "pkg/ast", "pkg/grammar", "pkg/lua", "pkg/format"},
		"pkg/ast":     {"pkg/cst", "pkg/grammar", "pkg/lua", "pkg/format"},
		"pkg/cst":     {"pkg/ast", "pkg/grammar", "pkg/lua", "pkg/format"},
		"pkg/grammar": {"pkg/ast", "pkg/lua", "pkg/format"},
		"pkg/lua":     {"pkg/format"},
	}

	for _, p := range pkgs {
		rel := strings.TrimPrefix(p.PkgPath, modulePath+"/")
		for _, bad := range forbidden[rel] {
			if _, ok := p.Imports[modulePath+"/"+bad]; ok {
				t.Errorf("LAYERING VIOLATION: '%s' imports '%s'", rel, bad)
			}
		}
	}
}

// TestGovernance_NodeCohesion reports AST node types that neither the
// lowering pass nor any consumer refers to.
func TestGovernance_NodeCohesion(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	var astPkg *packages.Package
	for _, p := range pkgs {
		if p.PkgPath == modulePath+"/pkg/ast" {
			astPkg = p
			break
		}
	}
	if astPkg == nil {
		t.Fatal("Could not find pkg/ast")
	}

	defs := make(map[types.Object]string)
	scope := astPkg.Types.Scope()
	for _, name := range scope.Names() {
		if obj := scope.Lookup(name); obj.Exported() {
			if _, ok := obj.(*types.TypeName); ok {
				defs[obj] = name
			}
		}
	}

	users := make(map[string]map[string]bool)
	for _, p := range pkgs {
		if p.PkgPath == astPkg.PkgPath || p.TypesInfo == nil {
			continue
		}
		for _, obj := range p.TypesInfo.Uses {
			if name, ok := defs[obj]; ok {
				if users[name] == nil {
					users[name] = make(map[string]bool)
				}
				users[name][strings.TrimPrefix(p.PkgPath, modulePath+"/")] = true
			}
		}
	}

	for _, name := range defs {
		if len(users[name]) == 0 {
			t.Logf("WARNING: ast.%s is not used outside pkg/ast", name)
		}
	}
	if !users["Block"]["pkg/lua"] {
		t.Error("COHESION VIOLATION: pkg/lua does not produce ast.Block")
	}
}
