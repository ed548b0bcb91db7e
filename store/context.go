package store

import (
	"context"
	"log/slog"
)

// Completion applies the result of asynchronous work back on the store's
// scheduler. It receives a fresh [Context] and follows the same rules as a
// handler: mutate, then Notify once.
type Completion[M any] func(c *Context[M])

// Context is what a [Handler] sees while it runs.
type Context[M any] struct {
	s *Store[M]
}

// Model returns the live model. It is only valid for the duration of the
// handler or completion.
func (c *Context[M]) Model() *M {
	return &c.s.model
}

// Notify publishes the model to every listener.
func (c *Context[M]) Notify() {
	c.s.notify()
}

// Logger returns the store's logger.
func (c *Context[M]) Logger() *slog.Logger {
	return c.s.logger
}

// StoreName returns the name of the store the handler belongs to.
func (c *Context[M]) StoreName() string {
	return c.s.name
}

// Go runs work off the scheduler and applies the Completion it returns.
//
// Go returns immediately. A nil Completion means there is nothing to apply
// (for example, the work failed and logged). The completion is discarded
// only if every listener has unsubscribed since Go was called and none has
// subscribed again by the time it would apply.
func (c *Context[M]) Go(work func(ctx context.Context) Completion[M]) {
	s := c.s
	gen := s.Generation()

	s.sched.Go(func() func() {
		done := work(s.ctx)
		if done == nil {
			return nil
		}
		return func() {
			if cur, stale := s.abandonedSince(gen); stale {
				s.logger.Debug("discarding stale completion",
					"issued_generation", gen,
					"current_generation", cur,
				)
				return
			}
			s.run("completion", func(c *Context[M]) { done(c) })
		}
	})
}
