package fluxboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/fluxboard/apps/comments"
	"github.com/jpalmerr/fluxboard/persist"
)

// Storage drivers accepted by [WithStorage].
const (
	DriverMemory = persist.DriverMemory
	DriverBolt   = persist.DriverBolt
	DriverSQLite = persist.DriverSQLite
	DriverRemote = persist.DriverRemote
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title          string
	port           int
	logger         *slog.Logger
	driver         string
	path           string
	medium         persist.Storage
	commentsURL    string
	seed           []comments.Comment
	requestTimeout time.Duration
	pollInterval   time.Duration
	heartbeat      time.Duration
	stateCallbacks []func(StateChange)
}

// Option is a function that configures a [Board] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithPort sets the HTTP port for the dashboard, API and comment backend.
//
// Defaults to 8080 if not specified. The comment store talks to
// http://127.0.0.1:<port> unless [WithCommentsURL] names another server.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board and every component it
// starts. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "fluxboard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithStorage selects where the Kanban board is saved.
//
// driver is one of [DriverMemory], [DriverBolt], [DriverSQLite] or
// [DriverRemote]. The bolt and sqlite drivers need a file path; the memory
// driver ignores it. The remote driver needs the http(s) base URL of another
// board's key-value endpoint, for example "http://host:8080/api/kv/team".
// Defaults to memory.
//
// Example:
//
//	b, err := fluxboard.New(
//	    fluxboard.WithStorage(fluxboard.DriverBolt, "board.db"),
//	)
func WithStorage(driver, path string) Option {
	return func(cfg *boardConfig) error {
		switch driver {
		case DriverMemory:
		case DriverBolt, DriverSQLite, DriverRemote:
			if path == "" {
				return fmt.Errorf("storage driver %q requires a path", driver)
			}
		default:
			return fmt.Errorf("unknown storage driver %q (valid: memory, bolt, sqlite, remote)", driver)
		}
		cfg.driver = driver
		cfg.path = path
		return nil
	}
}

// WithStorageMedium saves the board to an already open [persist.Storage].
// It takes precedence over [WithStorage]. The Board closes the medium when
// Start returns.
func WithStorageMedium(s persist.Storage) Option {
	return func(cfg *boardConfig) error {
		if s == nil {
			return errors.New("storage medium cannot be nil")
		}
		cfg.medium = s
		return nil
	}
}

// WithCommentsURL sets the URL the comment list loads from and posts to.
//
// Relative URLs are resolved against the board's own server, which serves
// an in-memory comment backend at "/comments.json". Defaults to that
// backend.
func WithCommentsURL(u string) Option {
	return func(cfg *boardConfig) error {
		if u == "" {
			return errors.New("comments url cannot be empty")
		}
		cfg.commentsURL = u
		return nil
	}
}

// WithSeedComments preloads the built-in comment backend.
func WithSeedComments(cs ...comments.Comment) Option {
	return func(cfg *boardConfig) error {
		cfg.seed = append(cfg.seed, cs...)
		return nil
	}
}

// WithRequestTimeout bounds each comment request. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithPollInterval reloads the comment list at the given interval. Zero, the
// default, loads it once at start.
//
// Returns an error if the duration is negative.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < 0 {
			return errors.New("poll interval cannot be negative")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithHeartbeat records a "heartbeat" event on the event displays at the
// given interval. Zero, the default, disables it.
//
// Returns an error if the duration is negative.
func WithHeartbeat(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < 0 {
			return errors.New("heartbeat interval cannot be negative")
		}
		cfg.heartbeat = d
		return nil
	}
}

// WithStateCallback registers a function to be called on every store
// notification.
//
// The callback receives a [StateChange] with the store name and a snapshot
// of its model. Multiple callbacks may be registered; they execute in
// registration order.
//
// IMPORTANT: Callbacks run on the board's event loop and must be
// non-blocking. A blocking callback stalls every store.
//
// Panics within callbacks are recovered and logged. Nil callbacks are
// silently ignored.
//
// Example:
//
//	b, err := fluxboard.New(
//	    fluxboard.WithStateCallback(func(c fluxboard.StateChange) {
//	        if c.Store == "notes" {
//	            log.Printf("board changed: %+v", c.State)
//	        }
//	    }),
//	)
func WithStateCallback(cb func(StateChange)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.stateCallbacks = append(cfg.stateCallbacks, cb)
		return nil
	}
}
