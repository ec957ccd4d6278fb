package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/spacelua/internal/space"
)

var (
	outputModes = []string{"auto", "text", "markdown", "json"}
	logLevels   = []string{"debug", "info", "warn", "error"}
	logFormats  = []string{"text", "json"}
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(space.Backends(), c.Space.Backend) {
		errs = append(errs, fmt.Errorf("space.backend: unknown backend %q (want one of %v)", c.Space.Backend, space.Backends()))
	}
	if c.Space.Path == "" && (c.Space.Backend == space.BackendDisk || c.Space.Backend == space.BackendBolt) {
		errs = append(errs, fmt.Errorf("space.path is required for the %s backend", c.Space.Backend))
	}
	if !slices.Contains(outputModes, c.Output) {
		errs = append(errs, fmt.Errorf("output: unknown mode %q (want one of %v)", c.Output, outputModes))
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q (want one of %v)", c.LogLevel, logLevels))
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format: unknown format %q (want one of %v)", c.LogFormat, logFormats))
	}
	if c.Expand.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("expand.max_depth must be positive, got %d", c.Expand.MaxDepth))
	}
	if c.Eval.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("eval.max_steps must not be negative, got %d", c.Eval.MaxSteps))
	}
	if c.Check.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("check.concurrency must be positive, got %d", c.Check.Concurrency))
	}
	if c.Serve.Addr == "" {
		errs = append(errs, errors.New("serve.addr is required"))
	}
	if c.Serve.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("serve.read_timeout must be positive, got %s", c.Serve.ReadTimeout))
	}

	return errors.Join(errs...)
}
