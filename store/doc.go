// Package store provides the state holders of the fluxboard data flow.
//
// A [Store] owns one model and a fixed table of action handlers. Actions
// reach the store through [Store.Dispatch] (usually wired with [Store.Bind]);
// the handler for the action's kind mutates the model through its [Context]
// and calls [Context.Notify], which hands a snapshot of the model to every
// listener in subscription order. Kinds with no handler are ignored.
//
// The main components are:
//
//   - [Store]: the model owner, generic over the model type
//   - [Context]: what a handler sees: the live model, Notify, Go, Logger
//   - [Observable]: a type-erased view of a store for servers and hosts
//
// Handlers run on the store's scheduler (the fluxboard event loop), so the
// live model needs no locking. Listeners and [Store.State] always receive a
// snapshot; models that implement Clone are deep-copied before they leave
// the store.
//
// Asynchronous handlers start blocking work with [Context.Go]. The store
// records its subscription generation when the work starts and bumps the
// generation whenever its last listener unsubscribes. A completion is
// discarded when the generation moved and the store still has no listeners;
// a view that remounts while the work is in flight gets the result.
package store
