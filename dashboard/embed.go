// Package dashboard provides the embedded web UI assets for fluxboard.
//
// This package uses Go's embed directive to include the dashboard HTML, CSS,
// and JavaScript at compile time. This enables single-binary deployment
// without external asset files.
//
// The page is a view like any other: it renders store snapshots from
// /api/state and /api/sse, and asks for changes by posting actions to
// /api/actions. The embedded assets are served by the server package at the
// root path ("/").
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Main dashboard page with inline CSS and JavaScript
//
// The "{{.Title}}" marker in index.html is replaced with the configured
// title when the page is served.
//
//go:embed assets/*
var Assets embed.FS
