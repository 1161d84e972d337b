// Package collection derives display-ready item snapshots from reactive
// sources.
//
// A Collection binds one Source to a filter/sort/map pipeline and
// publishes the result as a derived cell of items. The source may be a
// literal slice, a graph cell, a dotted reference into a Scope, or a
// function; resolution normalizes all four to a reader, so downstream
// code sees exactly one shape. Snapshots re-derive when the source (or
// any cell a function source reads) changes.
//
// Failure degrades instead of propagating: an invalid configuration is a
// ConfigError at construction, while a stage failure during evaluation
// publishes an empty snapshot and logs a warning so the mounted view
// clears rather than crashing.
package collection
