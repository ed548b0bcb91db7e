// Package hub fans store snapshots out to streaming clients.
//
// This package is internal to fluxboard. It keeps the latest published
// snapshot of every attached store and implements a publish-subscribe
// pattern for pushing state changes to connected dashboard clients.
//
// The main components are:
//
//   - [Hub]: Interface defining snapshot and subscription operations
//   - [MemoryHub]: In-memory implementation of Hub with pub/sub
//   - [StateEvent]: One store's snapshot at a point in time
//
// Subscribers receive events via buffered channels with non-blocking sends
// (slow subscribers miss events rather than block the event loop).
package hub
