package fluxboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/apps/comments"
	"github.com/jpalmerr/fluxboard/apps/events"
	"github.com/jpalmerr/fluxboard/apps/kanban"
	"github.com/jpalmerr/fluxboard/dashboard"
	"github.com/jpalmerr/fluxboard/internal/hub"
	"github.com/jpalmerr/fluxboard/internal/loop"
	"github.com/jpalmerr/fluxboard/internal/poller"
	"github.com/jpalmerr/fluxboard/internal/server"
	"github.com/jpalmerr/fluxboard/persist"
	"github.com/jpalmerr/fluxboard/store"
)

const (
	defaultPort           = 8080
	defaultRequestTimeout = 10 * time.Second
	heartbeatEvent        = "heartbeat"

	// kvPrefix is where the board serves its storage medium to remote
	// boards.
	kvPrefix = "/api/kv"
)

// ErrRunning is returned by [Board.Start] when the board is already running.
var ErrRunning = errors.New("board is already running")

// StateChange is delivered to [WithStateCallback] callbacks on every store
// notification.
type StateChange struct {
	// Store is the notifying store's name.
	Store string

	// State is a snapshot of the store's model. It is not shared with the
	// store and may be retained.
	State any

	// At is when the notification was delivered.
	At time.Time
}

// Board is the main orchestrator for the fluxboard stores and their views.
//
// Board wires an event loop, an action dispatcher, the comment list, Kanban
// and event display stores, local persistence and the HTTP dashboard. It is
// created using [New] with functional options and started with
// [Board.Start].
//
// The typical lifecycle is:
//
//	b, err := fluxboard.New(fluxboard.WithStorage(fluxboard.DriverBolt, "board.db"))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type Board struct {
	cfg    boardConfig
	logger *slog.Logger

	mu         sync.Mutex
	running    bool
	dispatcher *action.Dispatcher
	hub        *hub.MemoryHub
}

// New creates a new [Board] instance with the given options.
//
// Options have sensible defaults:
//   - Port: 8080
//   - Storage: memory
//   - Comments: the built-in backend at "/comments.json", loaded once
//   - Request timeout: 10 seconds
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := boardConfig{
		port:           defaultPort,
		driver:         DriverMemory,
		commentsURL:    comments.DefaultURL,
		requestTimeout: defaultRequestTimeout,
	}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{cfg: cfg, logger: logger}, nil
}

// Start runs the board until ctx is cancelled.
//
// During execution:
//
//   - The Kanban notes and lanes are restored from storage, then saved on
//     every change
//   - The HTTP server starts on the configured port, serving a local storage
//     medium to remote boards under /api/kv/
//   - The comment list is loaded, then reloaded at the poll interval if set
//   - The dashboard is available at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if storage cannot be
// opened, the HTTP server fails to start, or the board is already running.
func (b *Board) Start(ctx context.Context) error {
	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrRunning
	}
	b.running = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.running = false
		b.dispatcher = nil
		b.hub = nil
		b.mu.Unlock()
	}()

	backend, medium, err := b.openBackend()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			b.logger.Error("failed to close storage", "error", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lp := loop.New(b.logger)
	lp.Start(runCtx)
	defer lp.Stop()

	d := action.NewDispatcher(lp, action.WithLogger(b.logger))
	storeOpts := []store.Option{store.WithLogger(b.logger), store.WithContext(runCtx)}

	base := fmt.Sprintf("http://127.0.0.1:%d", b.cfg.port)
	remote := persist.NewRemote(base,
		persist.WithTimeout(b.cfg.requestTimeout),
		persist.WithLogger(b.logger),
	)
	defer remote.Close()

	commentList := comments.NewStore(remote,
		comments.WithURL(b.cfg.commentsURL),
		comments.WithBaseURL(base),
		comments.WithStoreOptions(storeOpts...),
	)
	notes := kanban.NewNotesStore(storeOpts...)
	lanes := kanban.NewLanesStore(storeOpts...)
	panel := events.NewPanelStore(storeOpts...)
	table := events.NewTableStore(storeOpts...)

	h := hub.NewMemoryHub()
	var teardown []func()
	defer func() {
		for i := len(teardown) - 1; i >= 0; i-- {
			teardown[i]()
		}
	}()

	for _, s := range []boundStore{commentList, notes, lanes, panel, table} {
		teardown = append(teardown, s.Bind(d), hub.Attach(h, s))
		for _, cb := range b.cfg.stateCallbacks {
			teardown = append(teardown, s.Observe(b.stateCallback(s.Name(), cb)))
		}
	}

	// init actions are queued before the server can accept any others
	teardown = append(teardown,
		kanban.PersistNotes(runCtx, notes, d, backend, b.logger),
		kanban.PersistLanes(runCtx, lanes, d, backend, b.logger),
	)

	srv := server.NewServer(h, d, b.cfg.port, dashboard.Assets, b.cfg.title, b.logger)
	srv.Handle(comments.DefaultURL, comments.NewBackend(b.logger, b.cfg.seed...))
	srv.BuildPayload(events.Record, events.BuildPayload)
	if medium != nil {
		srv.Handle(kvPrefix+"/", http.StripPrefix(kvPrefix, persist.NewKVHandler(medium, b.logger)))
	}
	if err := srv.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	jobs := b.jobs()
	if b.cfg.pollInterval == 0 {
		d.Emit(comments.Load, nil)
	}
	if len(jobs) > 0 {
		scheduler := poller.NewScheduler(jobs, b.cfg.pollInterval, d, b.logger)
		scheduler.Start(runCtx)
		teardown = append(teardown, scheduler.Stop)
	}

	b.mu.Lock()
	b.dispatcher = d
	b.hub = h
	b.mu.Unlock()

	b.logger.Info("fluxboard started",
		"port", b.cfg.port,
		"storage", b.storageName(),
		"comments_url", b.cfg.commentsURL,
	)
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.cfg.port))

	<-ctx.Done()
	b.logger.Info("fluxboard stopped")
	return nil
}

// Emit sends an action through the running board's dispatcher. It reports
// false when the board is not running. An [events.Record] payload is built
// into its Event first, so both event stores see the same id.
func (b *Board) Emit(kind action.Kind, payload any) bool {
	b.mu.Lock()
	d := b.dispatcher
	b.mu.Unlock()
	if d == nil {
		return false
	}
	if kind == events.Record {
		if e, err := events.Build(payload); err == nil {
			payload = e
		}
	}
	d.Emit(kind, payload)
	return true
}

// Snapshot returns the latest model of the named store. It reports false
// when the board is not running or the store is unknown.
func (b *Board) Snapshot(storeName string) (any, bool) {
	b.mu.Lock()
	h := b.hub
	b.mu.Unlock()
	if h == nil {
		return nil, false
	}
	ev, ok := h.Get(storeName)
	return ev.State, ok
}

// Port returns the configured HTTP port.
func (b *Board) Port() int {
	return b.cfg.port
}

// Title returns the configured dashboard title.
func (b *Board) Title() string {
	return b.cfg.title
}

// CommentsURL returns the URL the comment list talks to, before resolution.
func (b *Board) CommentsURL() string {
	return b.cfg.commentsURL
}

// boundStore is the part of a typed store the board wires up.
type boundStore interface {
	store.Observable
	Bind(d *action.Dispatcher) (unbind func())
}

// jobs returns the periodic actions the board schedules.
func (b *Board) jobs() []poller.Job {
	var jobs []poller.Job
	if b.cfg.pollInterval > 0 {
		jobs = append(jobs, poller.Job{
			Name:     "comments",
			Kind:     comments.Load,
			Interval: b.cfg.pollInterval,
		})
	}
	if b.cfg.heartbeat > 0 {
		jobs = append(jobs, poller.Job{
			Name:     heartbeatEvent,
			Kind:     events.Record,
			Interval: b.cfg.heartbeat,
			Payload:  func() any { return events.NewEvent(heartbeatEvent, "") },
		})
	}
	return jobs
}

// openBackend opens the adapter the Kanban board is saved through. The
// returned medium is nil for remote storage; otherwise it is the local
// medium behind the adapter, which the server also exposes under kvPrefix.
func (b *Board) openBackend() (persist.Backend, persist.Storage, error) {
	if b.cfg.medium != nil {
		return persist.NewKV(b.cfg.medium, b.logger), b.cfg.medium, nil
	}
	if b.cfg.driver == DriverRemote {
		backend, err := persist.OpenBackend(b.cfg.driver, b.cfg.path, b.logger,
			persist.WithTimeout(b.cfg.requestTimeout))
		return backend, nil, err
	}
	medium, err := persist.Open(b.cfg.driver, b.cfg.path)
	if err != nil {
		return nil, nil, err
	}
	return persist.NewKV(medium, b.logger), medium, nil
}

func (b *Board) storageName() string {
	if b.cfg.medium != nil {
		return "custom"
	}
	return b.cfg.driver
}

// stateCallback adapts a state callback to a store observer.
func (b *Board) stateCallback(name string, cb func(StateChange)) func(any) {
	return func(state any) {
		invokeCallbackSafe(cb, StateChange{Store: name, State: state, At: time.Now()}, b.logger)
	}
}

// invokeCallbackSafe calls a state callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(StateChange), change StateChange, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("state callback panicked",
				"panic", r,
				"store", change.Store,
			)
		}
	}()
	cb(change)
}
