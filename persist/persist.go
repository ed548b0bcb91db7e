// Package persist provides the persistence boundary between stores and the
// media their models are saved to.
//
// An [Adapter] saves a value under a string key and loads it back. Values
// travel as JSON. Two families of adapter are provided:
//
//   - [KV]: local key-value storage over a [Storage] medium
//     ([NewMemoryStorage], [OpenBolt], [OpenSQLite])
//   - [Remote]: an HTTP JSON endpoint (GET to load, POST to save), such as
//     a [KVHandler] serving another host's medium
//
// [OpenBackend] picks one by driver name.
//
// Load never fails past this boundary: a missing key, an unreachable medium
// or an unparseable value are logged and reported as absence. Save returns a
// [*TransportError] or [*ParseError] so callers can decide what to log.
//
// [Autosave] wires a store to an adapter explicitly, saving a fragment of the
// model on every notification.
package persist

import (
	"context"
	"errors"
	"fmt"
)

// Adapter reads and writes JSON values under string keys.
type Adapter interface {
	// Save serializes v as JSON and stores it under key.
	Save(ctx context.Context, key string, v any) error

	// Load parses the value stored under key into v. It reports false if
	// the key is missing or the stored value cannot be read or parsed.
	Load(ctx context.Context, key string, v any) bool
}

// ErrNotFound is returned by a [Storage] medium when a key has no value.
var ErrNotFound = errors.New("key not found")

// TransportError reports that the medium could not be read or written: an
// HTTP request failed or returned a non-2xx status, or a storage operation
// failed.
type TransportError struct {
	// Op is the operation: "get", "post", "load" or "save".
	Op string

	// Target is the URL or storage key.
	Target string

	// StatusCode is the HTTP status, or zero when no response was received.
	StatusCode int

	// Err is the underlying cause. May be nil for a bare status failure.
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Target, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.Target, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports that a value could not be encoded to or decoded from
// JSON. It is handled exactly like a [TransportError].
type ParseError struct {
	Target string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Target, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
