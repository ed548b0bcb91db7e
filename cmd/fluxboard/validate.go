package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newValidateCmd validates settings without starting the server.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate the fluxboard configuration without starting the server.

This command parses the YAML, expands environment variables, applies
FLUXBOARD_* variables and flags, and validates all fields. It's useful for
CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  fluxboard validate -c config.yaml
  fluxboard validate --config /etc/fluxboard/config.yaml`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	storage := cfg.Storage.Driver
	if cfg.Storage.Path != "" {
		storage += " (" + cfg.Storage.Path + ")"
	}
	refresh := "once at start"
	if cfg.Comments.PollInterval != 0 {
		refresh = "every " + cfg.Comments.PollInterval.Duration().String()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Log level:     %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "  Storage:       %s\n", storage)
	fmt.Fprintf(out, "  Comments:      %s (loaded %s)\n", cfg.Comments.URL, refresh)
	fmt.Fprintf(out, "  Seed comments: %d\n", len(cfg.Comments.Seed))
	return nil
}
