// Package main is the entry point for the runme command.
//
// Runme verifies that the shell examples of a markdown document work by
// running them and reporting a pass, fail or skip status per block.
package main

import (
	"fmt"
	"os"

	"github.com/isdmx/runme/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
