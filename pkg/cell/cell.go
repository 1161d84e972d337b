package cell

import (
	"reflect"
	"sync"
)

// cellBase provides type-erased subscriber management.
// It is embedded in Cell[T] and Derived[T] to share subscription logic.
type cellBase struct {
	id uint64

	// subs are the listeners subscribed to this cell.
	subs []Listener

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds a listener to this cell's subscribers.
// Deduplicates by listener ID to prevent double-subscription.
func (b *cellBase) subscribe(l Listener) {
	if l == nil {
		return
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()

	lid := l.ID()
	for _, existing := range b.subs {
		if existing.ID() == lid {
			return
		}
	}

	b.subs = append(b.subs, l)
}

// unsubscribe removes a listener from this cell's subscribers.
func (b *cellBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()

	lid := l.ID()
	for i, existing := range b.subs {
		if existing.ID() == lid {
			// Remove by swapping with the last element (order doesn't matter)
			b.subs[i] = b.subs[len(b.subs)-1]
			b.subs = b.subs[:len(b.subs)-1]
			return
		}
	}
}

// notifySubscribers marks every subscriber dirty.
// Uses copy-before-notify to avoid holding the lock during MarkDirty calls.
// Dirty marking is always synchronous; deferral happens at the watcher
// boundary, where marking only enqueues for the next flush.
func (b *cellBase) notifySubscribers() {
	b.subMu.RLock()
	subs := make([]Listener, len(b.subs))
	copy(subs, b.subs)
	b.subMu.RUnlock()

	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// Reader is the read side shared by Cell and Derived. Code that only
// consumes reactive values accepts a Reader so either kind can back it.
type Reader[T any] interface {
	Get() T
	Peek() T
	ID() uint64
}

// Cell is a source cell: a reactive value with an explicit setter.
// Reading a Cell during a derived cell's evaluation subscribes that derived
// cell to changes here.
type Cell[T any] struct {
	base  cellBase
	graph *Graph

	// value is the current cell value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal overrides the change check on Set. If nil, identity comparison
	// is used.
	equal func(T, T) bool
}

// New creates a source cell in g holding initial.
func New[T any](g *Graph, initial T) *Cell[T] {
	return &Cell[T]{
		base:  cellBase{id: g.nextID()},
		graph: g,
		value: initial,
	}
}

// Get returns the current value and records a dependency edge onto the
// cell currently being evaluated, if any.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	value := c.value
	c.mu.RUnlock()

	// Track after releasing the value lock to prevent deadlock.
	if l := c.graph.currentListener(); l != nil {
		c.base.subscribe(l)
		if d, ok := l.(derivedBase); ok {
			d.addSource(&c.base)
		}
	}

	return value
}

// Peek returns the current value without recording a dependency.
func (c *Cell[T]) Peek() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set updates the value and marks subscribers dirty if it changed.
//
// The change check is identity, not deep equality: primitives compare by
// value, pointers, maps, and slices by reference, and everything else is
// treated as changed. Replacing a slice with an equal-but-distinct slice
// therefore notifies; mutating a slice in place without calling Set
// notifies nobody. Use WithEquals to override.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	changed := !c.equals(c.value, value)
	if changed {
		c.value = value
	}
	c.mu.Unlock()

	if changed {
		c.base.notifySubscribers()
	}
}

// Update atomically reads and replaces the value. The function receives the
// current value and returns the new one; the same change check as Set
// decides whether subscribers are notified.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	oldValue := c.value
	newValue := fn(oldValue)
	changed := !c.equals(oldValue, newValue)
	if changed {
		c.value = newValue
	}
	c.mu.Unlock()

	if changed {
		c.base.notifySubscribers()
	}
}

// WithEquals configures a custom change check for Set and Update.
// Useful when identity comparison is too coarse for the value type.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.base.id
}

func (c *Cell[T]) ref() *cellBase {
	return &c.base
}

// equals applies the configured or default change check.
func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return identical(a, b)
}

// identical reports whether two values are the same under identity
// comparison. Primitives compare with ==; pointers, channels, and maps by
// address; slices by backing array and length. Structs, arrays, and
// functions always report false, which errs toward notifying.
func identical[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	case nil:
		return any(b) == nil
	default:
		return identicalRef(any(a), any(b))
	}
}

// identicalRef handles reference kinds via reflection.
func identicalRef(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		// Same backing array and length means the same view.
		return ra.Len() == rb.Len() && (ra.Len() == 0 || ra.Pointer() == rb.Pointer())
	default:
		// Structs, arrays, funcs: no cheap identity. Treat as changed.
		return false
	}
}
