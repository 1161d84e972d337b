// Package reconcile applies successive derived snapshots to an
// externally-owned list of host nodes with the minimal set of create,
// update, move, and remove operations.
//
// Reconciliation is always keyed. Every item's key is extracted before
// diffing (declared identifier first, structural hash otherwise) and
// matching happens by key, never by list position, so reordered items keep
// their nodes and whatever state those nodes carry.
//
// The reconciler owns a Registry mapping keys to mounted nodes for one
// container. It talks to the outside world through two narrow interfaces:
// NodeFactory builds, mutates, and discards individual nodes, and HostTree
// orders them inside the container. Nothing else about the host is
// assumed.
//
// Failures degrade instead of propagating: an item the factory rejects or
// one without a recognizable node kind is skipped with a warning and the
// rest of the pass proceeds.
package reconcile
