// Package config provides configuration management for the spacelua CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/spacelua/internal/space"
)

// Config holds all CLI configuration options.
type Config struct {
	Space     space.Config `koanf:"space"`
	Output    string       `koanf:"output"`
	Verbose   bool         `koanf:"verbose"`
	LogLevel  string       `koanf:"log_level"`
	LogFormat string       `koanf:"log_format"`
	Expand    ExpandConfig `koanf:"expand"`
	Eval      EvalConfig   `koanf:"eval"`
	Check     CheckConfig  `koanf:"check"`
	Serve     ServeConfig  `koanf:"serve"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// ExpandConfig controls the directive expander.
type ExpandConfig struct {
	MaxDepth int `koanf:"max_depth"`
}

// EvalConfig controls the evaluator.
type EvalConfig struct {
	MaxSteps int `koanf:"max_steps"`
}

// CheckConfig controls the check command.
type CheckConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// ServeConfig holds configuration for the HTTP API.
type ServeConfig struct {
	Addr        string        `koanf:"addr"`
	ReadTimeout time.Duration `koanf:"read_timeout"`
}

// Default configuration values.
const (
	DefaultBackend     = space.BackendDisk
	DefaultSpacePath   = "space"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
	DefaultMaxDepth    = 8
	DefaultMaxSteps    = 1_000_000
	DefaultConcurrency = 8
	DefaultServeAddr   = "127.0.0.1:3000"
	DefaultReadTimeout = 10 * time.Second
)

// Config file names, in lookup order.
var configFileNames = []string{"spacelua.yaml", "spacelua.yml"}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Space:     space.Config{Backend: DefaultBackend, Path: DefaultSpacePath},
		Output:    DefaultOutput,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Expand:    ExpandConfig{MaxDepth: DefaultMaxDepth},
		Eval:      EvalConfig{MaxSteps: DefaultMaxSteps},
		Check:     CheckConfig{Concurrency: DefaultConcurrency},
		Serve:     ServeConfig{Addr: DefaultServeAddr, ReadTimeout: DefaultReadTimeout},
	}
}
