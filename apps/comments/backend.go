package comments

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
)

const maxCommentBodySize = 64 << 10

// Backend is an in-memory comment endpoint: GET returns the list, POST
// appends the comment in the body and returns the updated list.
type Backend struct {
	logger *slog.Logger

	mu       sync.Mutex
	comments []Comment
}

// NewBackend creates a [Backend] seeded with initial. A nil logger uses
// slog.Default().
func NewBackend(logger *slog.Logger, initial ...Comment) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		logger:   logger,
		comments: append([]Comment{}, initial...),
	}
}

// Comments returns a copy of the stored list.
func (b *Backend) Comments() []Comment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Comment{}, b.comments...)
}

// Add appends c as if it had been posted.
func (b *Backend) Add(c Comment) {
	b.mu.Lock()
	b.comments = append(b.comments, c)
	b.mu.Unlock()
}

// ServeHTTP implements http.Handler.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		b.writeList(w)
	case http.MethodPost:
		var c Comment
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommentBodySize)).Decode(&c); err != nil {
			http.Error(w, "invalid comment", http.StatusBadRequest)
			return
		}
		if c.Author == "" || c.Text == "" {
			http.Error(w, "author and text are required", http.StatusBadRequest)
			return
		}
		b.Add(c)
		b.writeList(w)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) writeList(w http.ResponseWriter) {
	list := b.Comments()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		b.logger.Error("failed to write comments", "error", err)
	}
}
