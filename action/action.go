// Package action provides named actions and the dispatcher that routes them
// to subscribers.
//
// An [Action] is the only way a view asks for a state change. Actions are
// declared as [Kind] constants, turned into emit handles with
// [Dispatcher.Define], and delivered to every subscriber of that kind in
// subscription order. Emit is fire-and-forget: delivery runs on the
// dispatcher's [Scheduler], either an event loop or [Inline].
package action

import (
	"encoding/json"
	"fmt"
)

// Kind names an action. Each app declares its kinds as typed constants.
type Kind string

// Action is a named event carrying an optional payload.
//
// Actions are values; once emitted they are never modified. Payload is passed
// to subscribers unchanged and may be nil.
type Action struct {
	Kind    Kind
	Payload any
}

// Emitter is anything that accepts actions. [*Dispatcher] is the usual one;
// views depend on this interface instead.
type Emitter interface {
	Emit(kind Kind, payload any)
}

// Scheduler runs dispatcher and store work.
//
// Post enqueues fn and reports whether it was accepted. Go runs blocking work
// off the scheduler and posts the completion it returns.
type Scheduler interface {
	Post(fn func()) bool
	Go(work func() func())
}

// Inline is the synchronous [Scheduler]: Post runs fn immediately on the
// calling goroutine and Go runs work and its completion before returning.
//
// Inline suits tests and single-goroutine command-line use.
type Inline struct{}

// Post runs fn immediately.
func (Inline) Post(fn func()) bool {
	if fn != nil {
		fn()
	}
	return true
}

// Go runs work, then its completion, on the calling goroutine.
func (Inline) Go(work func() func()) {
	if done := work(); done != nil {
		done()
	}
}

// Decode converts a payload into T.
//
// A payload that already is a T is returned as is. Raw JSON ([]byte or
// json.RawMessage), as emitted through the HTTP action endpoint, is
// unmarshalled into a T. A nil payload yields the zero T and no error.
func Decode[T any](payload any) (T, error) {
	var zero T
	switch p := payload.(type) {
	case nil:
		return zero, nil
	case T:
		return p, nil
	case *T:
		if p == nil {
			return zero, nil
		}
		return *p, nil
	case json.RawMessage:
		return decodeJSON[T](p)
	case []byte:
		return decodeJSON[T](p)
	default:
		return zero, fmt.Errorf("unexpected payload type %T, want %T", payload, zero)
	}
}

func decodeJSON[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode payload: %w", err)
	}
	return v, nil
}
