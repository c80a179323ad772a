// Package main provides the entry point for the elemdex CLI.
package main

import (
	"os"

	"github.com/elemdex/elemdex/cmd/elemdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
