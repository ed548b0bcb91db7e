// Standalone mock comment server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/fluxboard serve -c example/config.yaml
//	go run ./cmd/fluxboard comments list --server http://localhost:9999
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jpalmerr/fluxboard/apps/comments"
)

func main() {
	fmt.Println("Mock comment server starting on :9999")
	fmt.Println("GET or POST http://localhost:9999/comments.json")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	backend := comments.NewBackend(slog.Default(),
		comments.Comment{Author: "Pete Hunt", Text: "This is one comment"},
		comments.Comment{Author: "Jordan Walke", Text: "This is *another* comment"},
	)

	mux := http.NewServeMux()
	mux.Handle(comments.DefaultURL, backend)
	if err := http.ListenAndServe(":9999", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
