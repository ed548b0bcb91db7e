package persist

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const maxValueSize = 1 << 20 // 1MB

// KVHandler serves a [Storage] medium over HTTP in the shape [Remote]
// expects, so a board on another host can persist through it.
//
// The request path (after any prefix has been stripped) is the key:
//
//   - GET returns the stored JSON value, or 404 if the key has none
//   - POST and PUT store the body, which must be valid JSON
//   - DELETE removes the key
type KVHandler struct {
	storage Storage
	logger  *slog.Logger
}

// NewKVHandler creates a [KVHandler] over storage. If logger is nil,
// [slog.Default] is used.
func NewKVHandler(storage Storage, logger *slog.Logger) *KVHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVHandler{storage: storage, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *KVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.Trim(r.URL.Path, "/")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		data, err := h.storage.Get(key)
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			h.logger.Error("kv get failed", "key", key, "error", err)
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			h.logger.Error("failed to write kv value", "key", key, "error", err)
		}

	case http.MethodPost, http.MethodPut:
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueSize))
		if err != nil {
			http.Error(w, "value too large", http.StatusRequestEntityTooLarge)
			return
		}
		if !json.Valid(data) {
			http.Error(w, "value must be JSON", http.StatusBadRequest)
			return
		}
		if err := h.storage.Put(key, data); err != nil {
			h.logger.Error("kv put failed", "key", key, "error", err)
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := h.storage.Delete(key); err != nil {
			h.logger.Error("kv delete failed", "key", key, "error", err)
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
