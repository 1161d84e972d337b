package cell

import "sync/atomic"

// Watcher connects one observable cell to a notify callback. It implements
// Listener: upstream dirty marking enqueues the watcher on the scheduler,
// and the next flush runs notify once no matter how many changes queued it.
//
// The watched cell holds only a plain subscriber entry for the watcher, no
// owning reference; Dispose removes the entry and a disposed watcher that
// was already queued no-ops when the flush reaches it.
type Watcher struct {
	id     uint64
	graph  *Graph
	target Observable
	notify func()

	// queued keeps the watcher from being enqueued twice per flush.
	queued atomic.Bool

	// disposed stops scheduling and queued runs.
	disposed atomic.Bool
}

// MarkDirty queues the watcher for the next flush.
// Implements the Listener interface.
func (w *Watcher) MarkDirty() {
	if w.disposed.Load() {
		return
	}
	if w.queued.CompareAndSwap(false, true) {
		w.graph.sched.enqueue(w)
	}
}

// ID returns the unique identifier for this watcher.
// Implements the Listener interface.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Dispose detaches the watcher from its target. No further flushes run it;
// a run already queued for the current flush is skipped.
func (w *Watcher) Dispose() {
	if !w.disposed.CompareAndSwap(false, true) {
		return
	}
	w.target.ref().unsubscribe(w)
}

// Disposed reports whether Dispose has been called.
func (w *Watcher) Disposed() bool {
	return w.disposed.Load()
}
