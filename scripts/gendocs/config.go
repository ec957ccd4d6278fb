package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/leapstack-labs/spacelua/internal/cli/config"
	"github.com/leapstack-labs/spacelua/internal/space"
)

// configDescriptions documents each key of spacelua.yaml.
var configDescriptions = map[string]string{
	"space.backend":      "Space backend: " + strings.Join(space.Backends(), ", "),
	"space.path":         "Directory (disk) or database file (sqlite, bolt), relative to the config file",
	"output":             "Output mode: auto, text, markdown, json",
	"verbose":            "Log at debug level",
	"log_level":          "Log level: debug, info, warn, error",
	"log_format":         "Log format: text, json",
	"expand.max_depth":   "Maximum nesting of transclusions",
	"eval.max_steps":     "Evaluation step budget per run (0 for unlimited)",
	"check.concurrency":  "Files parsed in parallel by check",
	"serve.addr":         "Listen address of the HTTP API",
	"serve.read_timeout": "Request read timeout of the HTTP API",
}

// ConfigField is one key of the configuration file.
type ConfigField struct {
	Key     string
	Type    string
	Default string
}

// configFields flattens the koanf-tagged fields of v into dotted keys.
func configFields(prefix string, v reflect.Value) []ConfigField {
	var out []ConfigField
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fv := v.Field(i)
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() != "time" {
			out = append(out, configFields(key, fv)...)
			continue
		}
		out = append(out, ConfigField{
			Key:     key,
			Type:    f.Type.String(),
			Default: fmt.Sprint(fv.Interface()),
		})
	}
	return out
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "spacelua configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("spacelua reads " + InlineCode("spacelua.yaml") + " from the working directory or the nearest parent. " +
		"Environment variables (" + InlineCode(config.EnvPrefix+"*") + ") override the file and flags override both.")

	headers := []string{"Key", "Type", "Default", "Description"}
	var rows [][]string
	for _, f := range configFields("", reflect.ValueOf(*config.Default())) {
		def := f.Default
		if def == "" {
			def = "-"
		}
		rows = append(rows, []string{InlineCode(f.Key), f.Type, InlineCode(def), configDescriptions[f.Key]})
	}
	w.Table(headers, rows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `space:
  backend: sqlite
  path: .spacelua/pages.db
output: markdown
log_level: info
expand:
  max_depth: 4
serve:
  addr: 127.0.0.1:8080`)

	filename := filepath.Join(outDir, "configuration.md")
	log.Printf("  Generated configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
