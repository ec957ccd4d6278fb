// Package main generates markdown reference docs from spacelua source: the
// CLI command tree, the configuration keys and the evaluator builtins.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=config -outdir=docs/reference
//	go run ./scripts/gendocs -gen=builtins -outdir=docs/reference
//	go run ./scripts/gendocs -gen=all
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
)

var (
	genFlag    = flag.String("gen", "all", "what to generate: cli, config, builtins, all")
	outDirFlag = flag.String("outdir", "", "output directory (defaults based on gen type)")
)

type generator struct {
	defaultDir string
	run        func(outDir string) error
}

func main() {
	flag.Parse()

	generators := map[string]generator{
		"cli":      {defaultDir: filepath.Join("docs", "cli"), run: generateCLIDocs},
		"config":   {defaultDir: filepath.Join("docs", "reference"), run: generateConfigDocs},
		"builtins": {defaultDir: filepath.Join("docs", "reference"), run: generateBuiltinsDocs},
	}

	var names []string
	switch *genFlag {
	case "all":
		names = []string{"cli", "config", "builtins"}
	default:
		if _, ok := generators[*genFlag]; !ok {
			log.Fatalf("unknown -gen value: %s (use: cli, config, builtins, all)", *genFlag)
		}
		names = []string{*genFlag}
	}

	// Find project root (where go.mod is)
	projectRoot, err := findProjectRoot()
	if err != nil {
		log.Fatalf("failed to find project root: %v", err)
	}
	log.Printf("Project root: %s", projectRoot)

	for _, name := range names {
		g := generators[name]
		outDir := *outDirFlag
		if outDir == "" || len(names) > 1 {
			outDir = filepath.Join(projectRoot, g.defaultDir)
		}
		if err := g.run(outDir); err != nil {
			log.Fatalf("failed to generate %s docs: %v", name, err)
		}
	}

	log.Println("Done!")
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
