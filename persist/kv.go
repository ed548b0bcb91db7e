package persist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// Storage is a local key-value medium holding raw bytes.
//
// Get returns [ErrNotFound] for a key with no value. Implementations must be
// safe for concurrent use.
type Storage interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// KV is an [Adapter] over a local [Storage] medium.
type KV struct {
	storage Storage
	logger  *slog.Logger
}

// NewKV creates a [KV] adapter over storage. If logger is nil,
// [slog.Default] is used.
func NewKV(storage Storage, logger *slog.Logger) *KV {
	if logger == nil {
		logger = slog.Default()
	}
	return &KV{storage: storage, logger: logger}
}

// Save stores v as JSON under key.
func (a *KV) Save(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &ParseError{Target: key, Err: err}
	}
	if err := a.storage.Put(key, data); err != nil {
		return &TransportError{Op: "save", Target: key, Err: err}
	}
	return nil
}

// Load parses the JSON stored under key into v.
//
// A missing key reports false silently. Storage failures and unparseable
// values are logged and also report false. v is untouched unless the stored
// value is valid JSON of the wrong shape.
func (a *KV) Load(_ context.Context, key string, v any) bool {
	data, err := a.storage.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		a.logger.Warn("storage load failed", "key", key, "error", err)
		return false
	}

	if !json.Valid(data) {
		a.logger.Warn("stored value is not valid JSON", "key", key)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		a.logger.Warn("stored value does not match target", "key", key, "error", err)
		return false
	}
	return true
}

// Delete removes the value stored under key. Deleting a missing key is not
// an error.
func (a *KV) Delete(key string) error {
	if err := a.storage.Delete(key); err != nil {
		return &TransportError{Op: "delete", Target: key, Err: err}
	}
	return nil
}

// Close closes the underlying storage.
func (a *KV) Close() error {
	return a.storage.Close()
}
