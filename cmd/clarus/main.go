// Package main is the entrypoint for the clarus command.
package main

import (
	"os"

	"github.com/kiranshivaraju/clarus/internal/cli"
)

// Stamped with -ldflags at release time.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, buildDate)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
