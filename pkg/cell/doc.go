// Package cell implements the reactive core: source cells, derived cells,
// and the scheduler that batches change notifications into single flushes.
//
// All reactive state belongs to a Graph. There is no ambient or global
// tracking context; callers construct a Graph and pass it explicitly to
// New and Derive. Dependency edges are recorded dynamically while a derived
// cell's compute function runs, and the edge set is replaced on every
// recomputation, so conditional reads subscribe to exactly the cells that
// were touched last time.
//
// The execution model is single-goroutine and cooperative. Setting a cell
// marks dependents dirty synchronously; re-evaluation of watched cells is
// deferred until the next flush, so any number of synchronous mutations
// collapse into one notification per watcher. A flush happens when the
// caller invokes Graph.Flush (or leaves the outermost Graph.Batch), or on
// the scheduler loop's next wakeup when Scheduler.Run is driving the graph.
//
// Basic usage:
//
//	g := cell.NewGraph()
//	count := cell.New(g, 0)
//	double := cell.Derive(g, func() int { return count.Get() * 2 })
//
//	w := g.Watch(double, func() { fmt.Println(double.Get()) })
//	defer w.Dispose()
//
//	count.Set(21)
//	g.Flush() // prints 42
package cell
