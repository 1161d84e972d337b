// Package source feeds collection input cells from the outside world.
//
// Each provider owns one cell of items. Construction performs the first
// load synchronously and fails fast with a coded diagnostic; Start then
// polls for changes until its context is cancelled. A failed poll keeps
// the previous items and logs a warning, so consumers keep rendering the
// last good snapshot.
//
// Providers never touch the graph from their poll goroutine. Updates go
// through the scheduler's Dispatch, which serializes them onto whatever
// drives the graph (Scheduler.Run in servers, Flush in tests).
//
// Payloads are JSON arrays, except bolt buckets, where every bucket value
// is one JSON item and items arrive in key order.
package source
