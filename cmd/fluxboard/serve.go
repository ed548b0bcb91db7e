package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/fluxboard"
	"github.com/jpalmerr/fluxboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newServeCmd starts the fluxboard dashboard server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Long: `Start the fluxboard dashboard server.

The server will:
  - Restore the Kanban board from the configured storage
  - Load the comment list from its endpoint
  - Serve the dashboard UI and API on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  fluxboard serve -c config.yaml
  FLUXBOARD_STORAGE_DRIVER=bolt FLUXBOARD_STORAGE_PATH=board.db fluxboard serve`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	logger.Info("config loaded",
		"port", cfg.Port,
		"storage", cfg.Storage.Driver,
		"comments_url", cfg.Comments.URL,
	)

	b, err := fluxboard.New(config.BoardOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
