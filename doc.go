// Package fluxboard provides an embeddable board of small apps built on a
// unidirectional data flow: views emit actions, a dispatcher routes them to
// stores, and stores notify listeners with snapshots of their models.
//
// # Quick Start
//
// Start the board with graceful shutdown:
//
//	b, _ := fluxboard.New(fluxboard.WithStorage(fluxboard.DriverBolt, "board.db"))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// The board uses the functional options pattern for configuration:
//
//	b, err := fluxboard.New(
//	    fluxboard.WithPort(9090),
//	    fluxboard.WithStorage(fluxboard.DriverSQLite, "board.sqlite"),
//	    fluxboard.WithCommentsURL("https://comments.example.com/comments.json"),
//	    fluxboard.WithPollInterval(30 * time.Second),
//	)
//
// # Apps
//
// A running board hosts these stores:
//
//   - comments: A comment list loaded from and posted to an HTTP endpoint
//   - notes, lanes: A Kanban board saved to local storage
//   - event_panel, event_table: Event displays fed by "events.record"
//
// Actions reach the stores through [Board.Emit] or POST /api/actions.
//
// # Architecture
//
// The building blocks are public packages:
//
//   - action: Action kinds and the dispatcher
//   - store: Typed stores with handler tables and listeners
//   - persist: Local key-value and HTTP persistence adapters
//   - view: Mounted bindings from a store to a renderer
//
// The board itself is assembled from internal packages:
//
//   - internal/loop: The single goroutine every handler runs on
//   - internal/hub: Latest snapshot per store with pub/sub
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - internal/poller: Periodic actions
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package fluxboard
