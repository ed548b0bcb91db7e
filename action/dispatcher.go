package action

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Subscriber receives actions of the kind it subscribed to.
type Subscriber func(Action)

// subscription is one entry in a kind's subscriber list. active is cleared
// on unsubscribe so deliveries already queued skip it.
type subscription struct {
	fn     Subscriber
	mu     sync.Mutex
	active bool
}

func (s *subscription) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Dispatcher routes emitted actions to subscribers by [Kind].
//
// Subscribers of the same kind are invoked in subscription order. No
// ordering is guaranteed across kinds beyond the FIFO order of the
// [Scheduler]. Subscribe and Emit are safe for concurrent use.
type Dispatcher struct {
	sched  Scheduler
	logger *slog.Logger

	mu      sync.RWMutex
	subs    map[Kind][]*subscription
	handles map[Kind]*Handle
}

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// WithLogger sets the logger used for subscriber panics.
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a [Dispatcher] delivering through sched.
//
// If sched is nil, [Inline] is used.
func NewDispatcher(sched Scheduler, opts ...Option) *Dispatcher {
	if sched == nil {
		sched = Inline{}
	}
	d := &Dispatcher{
		sched:   sched,
		logger:  slog.Default(),
		subs:    make(map[Kind][]*subscription),
		handles: make(map[Kind]*Handle),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handles maps each defined kind to its emit handle.
type Handles map[Kind]*Handle

// Define returns an emit [Handle] for each kind.
//
// Defining a kind twice returns the same handle.
func (d *Dispatcher) Define(kinds ...Kind) Handles {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(Handles, len(kinds))
	for _, k := range kinds {
		h, ok := d.handles[k]
		if !ok {
			h = &Handle{kind: k, d: d}
			d.handles[k] = h
		}
		out[k] = h
	}
	return out
}

// Subscribe registers fn for actions of kind and returns a function that
// removes it.
//
// The returned function is idempotent. Once it returns, fn is not invoked
// again, including for deliveries that were already queued.
func (d *Dispatcher) Subscribe(kind Kind, fn Subscriber) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	sub := &subscription{fn: fn, active: true}

	d.mu.Lock()
	d.subs[kind] = append(d.subs[kind], sub)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.active = false
			sub.mu.Unlock()

			d.mu.Lock()
			defer d.mu.Unlock()
			list := d.subs[kind]
			for i, s := range list {
				if s == sub {
					d.subs[kind] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(d.subs[kind]) == 0 {
				delete(d.subs, kind)
			}
		})
	}
}

// Emit delivers an action of kind to every current subscriber of that kind.
//
// The subscriber list is captured at emit time. Delivery is scheduled and
// Emit returns without waiting for it. An action with no subscribers is
// dropped silently.
func (d *Dispatcher) Emit(kind Kind, payload any) {
	d.mu.RLock()
	list := d.subs[kind]
	targets := make([]*subscription, len(list))
	copy(targets, list)
	d.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	a := Action{Kind: kind, Payload: payload}
	accepted := d.sched.Post(func() {
		for _, sub := range targets {
			if !sub.isActive() {
				continue
			}
			d.deliverSafe(sub.fn, a)
		}
	})
	if !accepted {
		d.logger.Debug("action dropped, scheduler stopped", "kind", string(kind))
	}
}

// Subscribers returns the number of current subscribers of kind.
func (d *Dispatcher) Subscribers(kind Kind) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs[kind])
}

// Scheduler returns the scheduler deliveries run on.
func (d *Dispatcher) Scheduler() Scheduler {
	return d.sched
}

// deliverSafe invokes a subscriber with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func (d *Dispatcher) deliverSafe(fn Subscriber, a Action) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("action subscriber panicked",
				"correlation_id", uuid.NewString(),
				"kind", string(a.Kind),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn(a)
}

// Handle emits actions of a single kind.
type Handle struct {
	kind Kind
	d    *Dispatcher
}

// Kind returns the kind this handle emits.
func (h *Handle) Kind() Kind {
	return h.kind
}

// Emit delivers payload to every current subscriber of the handle's kind.
// See [Dispatcher.Emit].
func (h *Handle) Emit(payload any) {
	h.d.Emit(h.kind, payload)
}
