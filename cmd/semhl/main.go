// Package main is the entry point for the semhl CLI: an interactive
// viewer and inspection tools around the semantic identifier coloring
// engine.
package main

import (
	"fmt"
	"os"

	"github.com/hantianjz/semhl/internal/cli"
)

// Version information (set by goreleaser)
var (
	version = "dev"
)

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
