// Package view provides the binding between a store and whatever renders
// its model.
//
// A [Binding] is the mount lifecycle of one view: it takes its first
// snapshot from the store before mounting, subscribes on [Binding.Mount],
// replaces its snapshot on every notification, and releases the
// subscription exactly once on [Binding.Unmount]. Views never mutate store
// state; they emit actions through an action dispatcher instead.
package view

import "sync"

// Source is the part of a store a view reads.
type Source[M any] interface {
	State() M
	Listen(fn func(M)) (unsubscribe func())
}

// Binding ties one view to one store.
//
// All methods are safe for concurrent use. onChange runs on the notifying
// goroutine (the store's scheduler).
type Binding[M any] struct {
	src      Source[M]
	onChange func(M)

	mu          sync.Mutex
	snapshot    M
	unsubscribe func()
	mounted     bool
	renders     int
}

// New creates an unmounted [Binding]. The initial snapshot is read from
// src.State() so the first render never happens without a model.
//
// onChange, if non-nil, is called with each new snapshot after it replaces
// the current one.
func New[M any](src Source[M], onChange func(M)) *Binding[M] {
	return &Binding[M]{
		src:      src,
		onChange: onChange,
		snapshot: src.State(),
	}
}

// Mount subscribes to the store. Mounting an already mounted binding is a
// no-op.
func (b *Binding[M]) Mount() {
	b.mu.Lock()
	if b.mounted {
		b.mu.Unlock()
		return
	}
	b.mounted = true
	// refresh in case the store changed between New and Mount
	b.snapshot = b.src.State()
	b.mu.Unlock()

	unsubscribe := b.src.Listen(b.receive)

	b.mu.Lock()
	b.unsubscribe = unsubscribe
	b.mu.Unlock()
}

// Unmount releases the subscription. It invokes the store's unsubscribe
// handle exactly once; later calls are no-ops.
func (b *Binding[M]) Unmount() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mounted = false
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mounted reports whether the binding is subscribed.
func (b *Binding[M]) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted
}

// Snapshot returns the model the view should currently render.
func (b *Binding[M]) Snapshot() M {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot
}

// Renders returns how many notifications the binding has received.
func (b *Binding[M]) Renders() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.renders
}

func (b *Binding[M]) receive(m M) {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	b.snapshot = m
	b.renders++
	onChange := b.onChange
	b.mu.Unlock()

	if onChange != nil {
		onChange(m)
	}
}
