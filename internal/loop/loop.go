package loop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Loop is a single-goroutine task executor.
//
// Tasks posted with [Loop.Post] run in FIFO order, one at a time, on the loop
// goroutine. Posting never blocks: the queue is unbounded. Tasks posted
// before [Loop.Start] are held until the loop starts.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	pending int           // queued tasks + running task + async work in flight
	idle    chan struct{} // closed while pending == 0
	wake    chan struct{}
	started bool
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped [Loop]. Call [Loop.Start] to begin draining tasks.
//
// If logger is nil, [slog.Default] is used.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	idle := make(chan struct{})
	close(idle)
	return &Loop{
		logger: logger,
		idle:   idle,
		wake:   make(chan struct{}, 1),
	}
}

// Start begins draining the task queue in a background goroutine.
//
// The loop runs until ctx is cancelled or [Loop.Stop] is called. If ctx is
// nil, context.Background() is used. Start is idempotent; if Stop was called
// before Start, Start is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-ctx.Done():
				l.halt()
				return
			case <-l.wake:
				l.drain(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for the running task to finish.
//
// Tasks still queued are discarded, and completions of async work that
// finishes after Stop are dropped. Stop is idempotent and safe to call
// before Start.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	l.wg.Wait()
	l.halt()
}

// Post enqueues fn to run on the loop goroutine.
//
// Post returns false, without enqueueing, once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return true
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.acquireLocked()
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Go runs work on a new goroutine and posts the completion it returns back
// onto the loop. A nil completion is not posted.
//
// The work counts as outstanding for [Loop.Wait] until its completion has
// run (or been dropped because the loop stopped).
func (l *Loop) Go(work func() func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.acquireLocked()
	l.mu.Unlock()

	go func() {
		defer l.release()
		if done := l.safeWork(work); done != nil {
			l.Post(done)
		}
	}()
}

// Wait blocks until the queue is empty and no async work is outstanding, or
// until ctx is done.
func (l *Loop) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.pending == 0 || l.stopped {
			l.mu.Unlock()
			return nil
		}
		idle := l.idle
		l.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drain runs queued tasks until the queue is empty.
func (l *Loop) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.runSafe(fn)
		l.release()
	}
}

// halt marks the loop stopped and releases any tasks left in the queue.
func (l *Loop) halt() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopped = true
	l.pending -= len(l.queue)
	l.queue = nil
	if l.pending <= 0 {
		l.pending = 0
		l.signalIdleLocked()
	}
}

// acquireLocked records one more unit of outstanding work. Caller holds mu.
func (l *Loop) acquireLocked() {
	if l.pending == 0 {
		l.idle = make(chan struct{})
	}
	l.pending++
}

func (l *Loop) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending == 0 {
		return
	}
	l.pending--
	if l.pending == 0 {
		l.signalIdleLocked()
	}
}

func (l *Loop) signalIdleLocked() {
	select {
	case <-l.idle:
	default:
		close(l.idle)
	}
}

// runSafe runs a task with panic recovery. A panicking task is logged with a
// correlation ID and does not stop the loop.
func (l *Loop) runSafe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logPanic("loop task panic", r)
		}
	}()
	fn()
}

func (l *Loop) safeWork(work func() func()) (done func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logPanic("async work panic", r)
			done = nil
		}
	}()
	return work()
}

func (l *Loop) logPanic(msg string, r any) {
	l.logger.Error(msg,
		"correlation_id", uuid.NewString(),
		"panic", fmt.Sprintf("%v", r),
		"stack", string(debug.Stack()),
	)
}
