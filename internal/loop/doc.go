// Package loop provides the single cooperative event loop on which fluxboard
// runs action handlers, store notifications and asynchronous completions.
//
// This package is internal to fluxboard. All model mutation happens on the
// loop goroutine, so stores never need locks around their models. Blocking
// work (HTTP round-trips, storage I/O) is started with [Loop.Go], which runs
// the work on its own goroutine and posts the returned completion back onto
// the loop.
//
// The main components are:
//
//   - [Loop]: FIFO task queue drained by one goroutine
//   - [Loop.Wait]: quiescence barrier used by tests and shutdown paths
//
// Users of the fluxboard library should not need to interact with this
// package directly. The loop is created and owned by the fluxboard host.
package loop
