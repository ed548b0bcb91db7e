package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/fluxboard"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockCommentServer(":9999")
	time.Sleep(100 * time.Millisecond)

	fb, err := fluxboard.New(
		fluxboard.WithTitle("Fluxboard Demo"),
		fluxboard.WithPort(8080),
		fluxboard.WithCommentsURL("http://localhost:9999/comments.json"),
		fluxboard.WithPollInterval(5*time.Second),
		fluxboard.WithHeartbeat(30*time.Second),
		fluxboard.WithStorage(fluxboard.DriverBolt, "fluxboard-demo.db"),
		fluxboard.WithStateCallback(func(c fluxboard.StateChange) {
			slog.Debug("state change", "store", c.Store)
		}),
	)
	if err != nil {
		slog.Error("failed to create fluxboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Fluxboard Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println()
	fmt.Println("  Comments are polled every 5s from the mock server on :9999.")
	fmt.Println("  Notes and lanes are saved to fluxboard-demo.db.")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fb.Start(ctx); err != nil {
		slog.Error("fluxboard error", "error", err)
		os.Exit(1)
	}
}
