package store

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/jpalmerr/fluxboard/action"
)

// Handler applies one action to a store's model.
//
// A handler that changes the model must call [Context.Notify] exactly once.
// Handlers that only read the model may skip it.
type Handler[M any] func(c *Context[M], a action.Action)

// Handlers maps action kinds to the handler that applies them.
type Handlers[M any] map[action.Kind]Handler[M]

// Cloner is implemented by models that hold reference types (slices, maps).
// The store hands listeners and State callers a Clone so they can never
// alias the live model.
type Cloner[M any] interface {
	Clone() M
}

// Observable is the type-erased surface of a [Store], used by code that
// handles several stores with different model types.
type Observable interface {
	// Name returns the store's name.
	Name() string

	// Snapshot returns the current model snapshot.
	Snapshot() any

	// Observe registers fn for notifications and returns an idempotent
	// unsubscribe function.
	Observe(fn func(any)) (unsubscribe func())
}

type listener[M any] struct {
	fn     func(M)
	mu     sync.Mutex
	active bool
}

func (l *listener[M]) isActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Store owns a model and applies actions to it.
//
// Dispatch and handlers must run on one goroutine at a time (the store's
// scheduler). Listen, State and the Observable methods are safe to call from
// any goroutine.
type Store[M any] struct {
	name     string
	model    M
	handlers Handlers[M]
	sched    action.Scheduler
	schedSet bool
	ctx      context.Context
	logger   *slog.Logger

	mu         sync.Mutex
	published  M
	listeners  []*listener[M]
	generation uint64
}

// Option configures a [Store].
type Option func(*options)

type options struct {
	sched  action.Scheduler
	ctx    context.Context
	logger *slog.Logger
}

// WithScheduler sets the scheduler used by [Context.Go].
//
// If not set, [Store.Bind] adopts the dispatcher's scheduler, and a store
// that is never bound uses [action.Inline].
func WithScheduler(s action.Scheduler) Option {
	return func(o *options) {
		o.sched = s
	}
}

// WithContext sets the context passed to asynchronous work started with
// [Context.Go]. Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithLogger sets the store's logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a [Store] named name whose live model is initial.
//
// initial is owned by the store from this point on; it is not copied. The
// handler table is copied and fixed for the lifetime of the store.
func New[M any](name string, initial M, handlers Handlers[M], opts ...Option) *Store[M] {
	o := options{
		ctx:    context.Background(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	table := make(Handlers[M], len(handlers))
	for k, h := range handlers {
		if h != nil {
			table[k] = h
		}
	}

	s := &Store[M]{
		name:     name,
		model:    initial,
		handlers: table,
		sched:    o.sched,
		schedSet: o.sched != nil,
		ctx:      o.ctx,
		logger:   o.logger.With("store", name),
	}
	if s.sched == nil {
		s.sched = action.Inline{}
	}
	s.published = s.clone(initial)
	return s
}

// Name returns the store's name.
func (s *Store[M]) Name() string {
	return s.name
}

// Kinds returns the action kinds this store handles.
func (s *Store[M]) Kinds() []action.Kind {
	kinds := make([]action.Kind, 0, len(s.handlers))
	for k := range s.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}

// Bind subscribes the store to every kind it handles on d and returns a
// function that removes those subscriptions.
func (s *Store[M]) Bind(d *action.Dispatcher) (unbind func()) {
	if !s.schedSet {
		s.sched = d.Scheduler()
		s.schedSet = true
	}

	unsubs := make([]func(), 0, len(s.handlers))
	for kind := range s.handlers {
		unsubs = append(unsubs, d.Subscribe(kind, s.Dispatch))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Dispatch applies a to the model.
//
// Kinds without a handler are ignored: the model and the listener set are
// left untouched. A panicking handler is recovered and logged.
func (s *Store[M]) Dispatch(a action.Action) {
	h, ok := s.handlers[a.Kind]
	if !ok {
		return
	}
	s.run(string(a.Kind), func(c *Context[M]) { h(c, a) })
}

// run executes fn against the live model and republishes the snapshot.
func (s *Store[M]) run(kind string, fn func(c *Context[M])) {
	c := &Context[M]{s: s}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("store handler panicked",
				"correlation_id", uuid.NewString(),
				"kind", kind,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
		s.publish()
	}()
	fn(c)
}

// Listen registers fn for notifications and returns a function that removes
// it.
//
// The returned function is idempotent. Once it returns, fn is not invoked
// again, even by a notification already in progress.
func (s *Store[M]) Listen(fn func(M)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	l := &listener[M]{fn: fn, active: true}

	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unlisten(l) })
	}
}

func (s *Store[M]) unlisten(l *listener[M]) {
	l.mu.Lock()
	l.active = false
	l.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cur := range s.listeners {
		if cur == l {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			break
		}
	}
	if len(s.listeners) == 0 {
		// nobody is left to see in-flight results
		s.generation++
	}
}

// State returns a snapshot of the current model.
func (s *Store[M]) State() M {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clone(s.published)
}

// Listeners returns the number of registered listeners.
func (s *Store[M]) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Generation returns the store's subscription generation.
func (s *Store[M]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// abandonedSince reports whether the listener set emptied after generation
// gen and is still empty.
func (s *Store[M]) abandonedSince(gen uint64) (current uint64, abandoned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation, s.generation != gen && len(s.listeners) == 0
}

// Snapshot implements [Observable].
func (s *Store[M]) Snapshot() any {
	return s.State()
}

// Observe implements [Observable].
func (s *Store[M]) Observe(fn func(any)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return s.Listen(func(m M) { fn(m) })
}

// publish copies the live model into the snapshot read by State.
func (s *Store[M]) publish() M {
	snap := s.clone(s.model)
	s.mu.Lock()
	s.published = snap
	s.mu.Unlock()
	return snap
}

// notify hands a snapshot of the model to every active listener in
// subscription order. Each listener gets its own copy. With no listeners it
// only republishes.
func (s *Store[M]) notify() {
	snap := s.publish()

	s.mu.Lock()
	targets := make([]*listener[M], len(s.listeners))
	copy(targets, s.listeners)
	s.mu.Unlock()

	for _, l := range targets {
		if !l.isActive() {
			continue
		}
		s.invokeSafe(l.fn, s.clone(snap))
	}
}

// invokeSafe calls a listener with panic recovery.
func (s *Store[M]) invokeSafe(fn func(M), snap M) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("store listener panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	fn(snap)
}

func (s *Store[M]) clone(m M) M {
	if c, ok := any(m).(Cloner[M]); ok {
		return c.Clone()
	}
	return m
}

var _ Observable = (*Store[struct{}])(nil)
