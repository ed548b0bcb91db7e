// Package poller emits actions on a schedule.
//
// This package is internal to fluxboard. It drives periodic work the way a
// view would: by emitting actions through the dispatcher. The board uses it
// to reload the comment list on an interval and to record heartbeat events.
//
// The main components are:
//
//   - [Scheduler]: Emits each job's action at its interval
//   - [Job]: One scheduled action
//   - [Emitter]: The dispatcher surface the scheduler emits through
package poller
