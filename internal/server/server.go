package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/internal/hub"
)

const (
	// sseWriteTimeout bounds one event write. Keep it at or below
	// shutdownTimeout.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// maxActionBodySize limits POST /api/actions request bodies.
	maxActionBodySize = 64 << 10

	defaultTitle     = "fluxboard"
	titlePlaceholder = "{{.Title}}"
)

// Emitter is the part of the action dispatcher the server needs.
type Emitter interface {
	Emit(kind action.Kind, payload any)
	Subscribers(kind action.Kind) int
}

// PayloadBuilder turns a POSTed payload into the value emitted for its
// kind. An error rejects the request.
type PayloadBuilder func(payload any) (any, error)

// ActionRequest is the body of POST /api/actions.
type ActionRequest struct {
	Kind    action.Kind     `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ActionResponse acknowledges an emitted action. Subscribers is zero for a
// kind no store handles; such actions are accepted and ignored.
type ActionResponse struct {
	Kind        action.Kind `json:"kind"`
	Subscribers int         `json:"subscribers"`
}

// Server handles HTTP requests for the fluxboard dashboard and API.
//
// Server provides these endpoints:
//   - GET /: the dashboard page
//   - GET /api/state: latest snapshot of every store
//   - GET /api/state/{store}: latest snapshot of one store
//   - GET /api/sse: snapshots as Server-Sent Events
//   - POST /api/actions: emit an action
//
// Further routes can be mounted with [Server.Handle] before Start.
type Server struct {
	hub        hub.Hub
	emitter    Emitter
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
	extra      map[string]http.Handler
	builders   map[action.Kind]PayloadBuilder

	mu   sync.Mutex
	addr net.Addr
}

// NewServer returns a [Server] reading snapshots from h and emitting actions
// through emitter. Port 0 picks a free port; nil assets disable the
// dashboard; an empty title renders as "fluxboard". Nothing listens until
// [Server.Start].
func NewServer(h hub.Hub, emitter Emitter, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		hub:      h,
		emitter:  emitter,
		port:     port,
		assets:   assets,
		title:    title,
		logger:   logger,
		extra:    make(map[string]http.Handler),
		builders: make(map[action.Kind]PayloadBuilder),
	}
}

// Handle mounts handler at pattern. It must be called before [Server.Start].
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.extra[pattern] = handler
}

// BuildPayload makes POST /api/actions pass payloads of kind through fn
// before emitting. It must be called before [Server.Start].
func (s *Server) BuildPayload(kind action.Kind, fn PayloadBuilder) {
	s.builders[kind] = fn
}

// Handler returns the server's routes without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/state/{store}", s.handleStoreState)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/api/actions", s.handleAction)

	for pattern, h := range s.extra {
		mux.Handle(pattern, h)
	}

	// serve dashboard assets
	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}
	return mux
}

// Start binds the port and serves in the background. A bind failure is
// returned synchronously. Cancelling ctx shuts the server down, giving
// in-flight requests shutdownTimeout to finish.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx, which releases SSE handlers
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the address the server is listening on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = io.WriteString(w, rendered); err != nil {
		s.logger.Error("failed to write dashboard", "error", err)
	}
}

// handleState returns the latest snapshot of every store as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.hub.GetAll())
}

// handleStoreState returns one store's latest snapshot.
func (s *Server) handleStoreState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := r.PathValue("store")
	for _, ev := range s.hub.GetAll() {
		if ev.Store == name {
			s.writeJSON(w, http.StatusOK, ev)
			return
		}
	}
	http.Error(w, "unknown store", http.StatusNotFound)
}

// handleAction decodes an ActionRequest and emits it. The response does not
// wait for the action to be applied.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.emitter == nil {
		http.Error(w, "actions not supported", http.StatusNotImplemented)
		return
	}

	var req ActionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBodySize))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid action: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Kind == "" {
		http.Error(w, "invalid action: kind is required", http.StatusBadRequest)
		return
	}

	var payload any
	if len(req.Payload) > 0 {
		payload = req.Payload
	}
	if build, ok := s.builders[req.Kind]; ok {
		built, err := build(payload)
		if err != nil {
			http.Error(w, "invalid action: "+err.Error(), http.StatusBadRequest)
			return
		}
		payload = built
	}

	subscribers := s.emitter.Subscribers(req.Kind)
	s.emitter.Emit(req.Kind, payload)
	s.logger.Debug("action emitted", "kind", req.Kind, "subscribers", subscribers)

	s.writeJSON(w, http.StatusAccepted, ActionResponse{Kind: req.Kind, Subscribers: subscribers})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sseStream writes Server-Sent Events with a per-write deadline so a stalled
// client cannot pin the handler goroutine.
type sseStream struct {
	w         http.ResponseWriter
	rc        *http.ResponseController
	logger    *slog.Logger
	deadlines bool
}

func newSSEStream(w http.ResponseWriter, logger *slog.Logger) *sseStream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	return &sseStream{w: w, rc: http.NewResponseController(w), logger: logger, deadlines: true}
}

// send encodes ev as one event. Encoding failures skip the event; write
// failures are returned and end the stream.
func (st *sseStream) send(ev hub.StateEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		st.logger.Warn("failed to encode state event", "store", ev.Store, "error", err)
		return nil
	}
	if st.deadlines {
		if err := st.rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
			// some ResponseWriters (recorders, wrapped writers) cannot do this
			st.logger.Warn("sse write deadlines not supported", "error", err)
			st.deadlines = false
		}
	}
	if _, err := fmt.Fprintf(st.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return st.rc.Flush()
}

// handleSSE replays the latest snapshot of every store, then streams each
// new one until the client goes away or the server shuts down.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	st := newSSEStream(w, s.logger)
	for _, ev := range s.hub.GetAll() {
		if st.send(ev) != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok || st.send(ev) != nil {
				return
			}
		case <-r.Context().Done():
			// fires on client disconnect and, through BaseContext, on shutdown
			return
		}
	}
}
