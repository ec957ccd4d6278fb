// Package main provides the spacelua CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/spacelua/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
