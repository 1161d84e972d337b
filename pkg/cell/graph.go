package cell

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Graph owns a set of reactive cells and the scheduler that flushes their
// watchers. Every cell belongs to exactly one graph; graphs are independent
// and cells from different graphs must not read each other.
//
// A Graph is handed around explicitly. There is no package-level state, so
// two engines in one process never observe each other's tracking context.
type Graph struct {
	// ids issues unique identifiers for cells and watchers in this graph.
	ids atomic.Uint64

	// listener is the cell currently being evaluated, if any. Reads that
	// happen while it is set record a dependency edge onto it.
	listener Listener

	// batchDepth counts nested Batch calls. The flush runs when the
	// outermost batch ends.
	batchDepth int

	// mu protects listener and batchDepth.
	mu sync.Mutex

	sched  *Scheduler
	logger *slog.Logger
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the logger used for scheduler diagnostics.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) GraphOption {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGraph creates an empty graph with its own scheduler.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.sched = newScheduler(g)
	return g
}

// nextID returns the next unique ID for a cell or watcher in this graph.
// IDs are monotonically increasing and never reused.
func (g *Graph) nextID() uint64 {
	return g.ids.Add(1)
}

// currentListener returns the listener being tracked, if any.
func (g *Graph) currentListener() Listener {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listener
}

// swapListener installs l as the tracked listener and returns the previous
// one so evaluation can restore it when done.
func (g *Graph) swapListener(l Listener) Listener {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.listener
	g.listener = l
	return old
}

// Scheduler returns the graph's scheduler.
func (g *Graph) Scheduler() *Scheduler {
	return g.sched
}

// Errors exposes evaluation failures surfaced during flushes. The channel
// is buffered; if nobody drains it, further errors are logged and dropped
// rather than blocking the flush.
func (g *Graph) Errors() <-chan error {
	return g.sched.Errors()
}

// Flush synchronously runs every watcher queued since the previous flush.
// Watchers queued while the flush itself runs are drained in the same call.
func (g *Graph) Flush() {
	g.sched.Flush()
}

// Batch runs fn and flushes once when the outermost batch returns. Any
// number of Set calls inside the batch produce a single notification per
// affected watcher.
//
// Batches nest; only the outermost one flushes.
//
// Example:
//
//	g.Batch(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
//	// watchers of both cells ran exactly once
func (g *Graph) Batch(fn func()) {
	g.mu.Lock()
	g.batchDepth++
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.batchDepth--
		outermost := g.batchDepth == 0
		g.mu.Unlock()
		if outermost {
			g.sched.Flush()
		}
	}()

	fn()
}

// Untracked runs fn without recording dependency edges. Cell reads inside
// fn do not subscribe the currently-evaluating cell.
//
// For a single read, Peek is clearer and cheaper.
func (g *Graph) Untracked(fn func()) {
	old := g.swapListener(nil)
	defer g.swapListener(old)
	fn()
}

// Watch registers notify to run on the next flush after target (or any cell
// it transitively depends on) changes. Notifications are coalesced: many
// upstream changes before a flush still run notify once.
//
// Watch does not run notify immediately. Callers that need an initial pass
// perform it themselves, then rely on the watcher for updates.
func (g *Graph) Watch(target Observable, notify func()) *Watcher {
	w := &Watcher{
		id:     g.nextID(),
		graph:  g,
		target: target,
		notify: notify,
	}
	target.ref().subscribe(w)
	return w
}
