package cell

// Listener is anything that can be notified when a dependency changes.
// Derived cells implement it to invalidate their cached value; watchers
// implement it to queue themselves for the next flush.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	// For derived cells this invalidates the cached value and propagates
	// downstream. For watchers this enqueues the watcher on the scheduler.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication in subscriber lists and flush queues.
	ID() uint64
}

// Observable is any graph value a Watcher can attach to. Both *Cell and
// *Derived satisfy it; nothing outside this package can.
type Observable interface {
	ID() uint64

	ref() *cellBase
}
