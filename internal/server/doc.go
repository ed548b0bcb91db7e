// Package server provides the HTTP server for the fluxboard dashboard and API.
//
// This package is internal to fluxboard and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: JSON snapshots at "/api/state" and "/api/state/{store}"
//   - Actions: POST "/api/actions" emits an action through the dispatcher
//   - Server-Sent Events: Store snapshots pushed at "/api/sse"
//
// The server never touches a store directly. It reads snapshots from a hub
// and requests changes by emitting actions, like any other view.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
