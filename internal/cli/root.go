// Package cli implements the cobra commands for devenv.
//
// Each subcommand (init, build, up, enter, stop, down, status, list, hook)
// lives in its own file. This file defines the root command, the global
// flags, and the error-to-exit-code translation.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aahsnr/development/internal/model"
)

// Global flag variables, bound as persistent flags on the root command so
// every subcommand sees them without re-declaration.
var (
	// jsonOutput switches successful command output to JSON on stdout.
	// Errors go to stderr in the matching format.
	jsonOutput bool

	// verbose enables debug logging on stderr.
	verbose bool

	// configFile overrides the global config location
	// (default ~/.config/devenv/config.yaml).
	configFile string
)

// Version, Commit, and Date are injected from package main via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command. The root
// itself only carries help text and global flags; all behavior lives in
// subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "devenv",
		Short: "Per-project containerized development environments",
		Long: `devenv pairs a project directory with a Gentoo-based development container.

Entering a project (via the generated direnv/shell hooks, or "devenv up")
builds the image if it is absent and starts the container if it is not
running; leaving tears it down. "devenv enter" drops you into a login
shell inside the container.

The image is defined by the project's .devenv.yaml manifest and tagged by
the hash of its recipe, so changing the package list triggers a rebuild
on the next "devenv up".`,

		// Errors are formatted by Execute, not by cobra.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// Logging is configured before any subcommand runs.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetOutput(os.Stderr)
			logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Global config file (default ~/.config/devenv/config.yaml)")

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewUpCommand())
	rootCmd.AddCommand(NewEnterCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewDownCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewHookCommand())

	return rootCmd
}

// Execute runs the root command and exits the process with the error's
// exit code. CLIError values carry their own codes; anything else maps to
// the general error code.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError writes an error to stderr, as JSON when --json is set.
// Stdout stays reserved for successful command output either way.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{"message": message},
		}
		if underlying != nil {
			errObj["error"].(map[string]interface{})["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// IsJSONOutput reports whether --json is set. Subcommands use it to pick
// their output format.
func IsJSONOutput() bool {
	return jsonOutput
}
