// Package main is the entry point for the fluxboard CLI.
//
// fluxboard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	fluxboard serve -c config.yaml        # Start the dashboard
//	fluxboard validate -c config.yaml     # Validate configuration
//	fluxboard notes add "Write docs"      # Edit the saved Kanban board
//	fluxboard comments list               # Read a running board's comments
//	fluxboard board                       # Kanban board in the terminal
//	fluxboard version                     # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the command tree. It just displays help when called
// without subcommands.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fluxboard",
		Short: "A board of small apps driven by actions and stores",
		Long: `fluxboard hosts a comment list, a Kanban board and event displays.

Views emit actions, a dispatcher routes them to stores, and stores notify
their views. The Kanban board is saved to local storage; the comment list
talks to an HTTP endpoint.

Quick start:
  1. Run: fluxboard serve
  2. Open http://localhost:8080 in your browser

Every setting can come from a YAML file (-c), a FLUXBOARD_* environment
variable (FLUXBOARD_PORT, FLUXBOARD_STORAGE_DRIVER, ...) or a flag, with
flags taking precedence.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "path to config file")
	flags.Int("port", 0, "HTTP port (default 8080)")
	flags.String("title", "", "dashboard title")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("storage-driver", "", "storage driver: memory, bolt, sqlite, remote")
	flags.String("storage-path", "", "storage file for bolt and sqlite")
	flags.String("comments-url", "", "comment list endpoint")

	root.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newValidateCmd(),
		newNotesCmd(),
		newCommentsCmd(),
		newBoardCmd(),
	)
	return root
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this fluxboard binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fluxboard %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
