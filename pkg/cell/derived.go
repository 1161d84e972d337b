package cell

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Derived is a memoized computation that tracks its dependencies.
// When any dependency changes the cached value is invalidated and
// recomputed on the next read.
//
// Derived cells are lazy: compute only runs when Get or Peek is called.
// If several upstream cells change before a read, compute runs once.
//
// A Derived can itself be read by other derived cells, so chains of
// derived values compose.
type Derived[T any] struct {
	base  cellBase
	graph *Graph

	// compute produces the cell's value.
	compute func() T

	// value is the cached computed value.
	value T

	// valueMu protects value access.
	valueMu sync.RWMutex

	// valid reports whether the cached value is current.
	// When false, the next Get recomputes.
	valid atomic.Bool

	// sources are the cells this value was computed from, replaced on
	// every recomputation.
	sources   []*cellBase
	sourcesMu sync.Mutex

	// computing guards against re-entrant evaluation on cycles.
	computing atomic.Bool

	// disposed stops further recomputation and subscription.
	disposed atomic.Bool
}

// Derive creates a derived cell in g. The computation does not run until
// the first Get.
//
// If compute panics, the cell keeps its previous value, the failure is
// reported on the graph's error channel, and the computation is retried on
// the next dependency change.
func Derive[T any](g *Graph, compute func() T) *Derived[T] {
	return &Derived[T]{
		base:    cellBase{id: g.nextID()},
		graph:   g,
		compute: compute,
	}
}

// Get returns the value, recomputing first if a dependency changed.
// Records a dependency edge onto the cell currently being evaluated.
func (d *Derived[T]) Get() T {
	if l := d.graph.currentListener(); l != nil {
		d.base.subscribe(l)
		if db, ok := l.(derivedBase); ok {
			db.addSource(&d.base)
		}
	}

	if !d.valid.Load() {
		d.recompute()
	}

	d.valueMu.RLock()
	value := d.value
	d.valueMu.RUnlock()
	return value
}

// Peek returns the value without recording a dependency.
// Still recomputes if the cached value is stale.
func (d *Derived[T]) Peek() T {
	if !d.valid.Load() {
		d.recompute()
	}
	d.valueMu.RLock()
	value := d.value
	d.valueMu.RUnlock()
	return value
}

// MarkDirty invalidates the cached value and propagates downstream.
// Implements the Listener interface.
func (d *Derived[T]) MarkDirty() {
	// CAS keeps marking idempotent: only the first invalidation propagates.
	if d.valid.CompareAndSwap(true, false) {
		d.base.notifySubscribers()
	}
}

// ID returns the unique identifier for this cell.
// Implements the Listener interface.
func (d *Derived[T]) ID() uint64 {
	return d.base.id
}

// Dispose detaches the cell from its sources and subscribers. Its last
// value stays readable, but it no longer recomputes or propagates.
func (d *Derived[T]) Dispose() {
	if !d.disposed.CompareAndSwap(false, true) {
		return
	}

	d.sourcesMu.Lock()
	for _, source := range d.sources {
		source.unsubscribe(d)
	}
	d.sources = d.sources[:0]
	d.sourcesMu.Unlock()

	d.base.subMu.Lock()
	d.base.subs = nil
	d.base.subMu.Unlock()
}

// addSource records a dependency edge.
// Implements the derivedBase interface.
func (d *Derived[T]) addSource(source *cellBase) {
	d.sourcesMu.Lock()
	defer d.sourcesMu.Unlock()

	for _, s := range d.sources {
		if s == source {
			return
		}
	}
	d.sources = append(d.sources, source)
}

func (d *Derived[T]) ref() *cellBase {
	return &d.base
}

// recompute runs the computation, replacing the dependency set.
func (d *Derived[T]) recompute() {
	if d.disposed.Load() {
		return
	}

	// Re-entrant evaluation means a dependency cycle. Keep the memoized
	// value and report rather than recursing.
	if d.computing.Swap(true) {
		d.graph.sched.report(&EvalError{CellID: d.base.id, Err: ErrCycle})
		return
	}
	defer d.computing.Store(false)

	// Drop edges from the previous evaluation; reads during compute
	// re-establish the live ones.
	d.sourcesMu.Lock()
	for _, source := range d.sources {
		source.unsubscribe(d)
	}
	d.sources = d.sources[:0]
	d.sourcesMu.Unlock()

	old := d.graph.swapListener(d)
	value, err := d.safeCompute()
	d.graph.swapListener(old)

	if err != nil {
		// Keep the previous value. The cell is marked valid so the retry
		// waits for the next dependency change instead of looping on Get.
		d.valid.Store(true)
		d.graph.sched.report(err)
		return
	}

	d.valueMu.Lock()
	d.value = value
	d.valueMu.Unlock()

	d.valid.Store(true)
}

// safeCompute runs compute, converting a panic into an EvalError.
func (d *Derived[T]) safeCompute() (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EvalError{CellID: d.base.id, Err: recoveredError(r)}
		}
	}()
	return d.compute(), nil
}

// recoveredError normalizes a recovered panic value into an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// derivedBase lets cellBase tracking reach the generic Derived type.
type derivedBase interface {
	Listener
	addSource(source *cellBase)
}

var _ derivedBase = (*Derived[int])(nil)
var _ Observable = (*Derived[int])(nil)
var _ Observable = (*Cell[int])(nil)
