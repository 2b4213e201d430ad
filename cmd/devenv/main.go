// Package main is the entry point for the devenv CLI.
//
// The binary manages per-project Gentoo-based development containers.
// All functionality lives in the internal/cli package; this file only
// wires build-time version information into it.
package main

import (
	"github.com/aahsnr/development/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
// During development they default to "dev", "none", and "unknown".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
