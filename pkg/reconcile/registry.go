package reconcile

import "github.com/declarative-dom/ddom-sub003/pkg/item"

// Registry tracks what is currently mounted for one container: the node
// and source item for every live key, plus the key order of the previous
// snapshot. It belongs to exactly one reconciler and is never shared.
type Registry struct {
	nodes map[string]Node
	items map[string]item.Item

	// order is the previous snapshot's keys in snapshot order.
	order []string
}

func newRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]Node),
		items: make(map[string]item.Item),
	}
}

// Len returns the number of mounted entries.
func (r *Registry) Len() int {
	return len(r.nodes)
}

// Node returns the mounted node for a key.
func (r *Registry) Node(key string) (Node, bool) {
	n, ok := r.nodes[key]
	return n, ok
}

// Item returns the last reconciled item for a key.
func (r *Registry) Item(key string) (item.Item, bool) {
	it, ok := r.items[key]
	return it, ok
}

// Keys returns the previous snapshot's keys in order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) put(key string, node Node, it item.Item) {
	r.nodes[key] = node
	r.items[key] = it
}

func (r *Registry) delete(key string) {
	delete(r.nodes, key)
	delete(r.items, key)
}

func (r *Registry) setOrder(keys []string) {
	r.order = keys
}

func (r *Registry) reset() {
	r.nodes = make(map[string]Node)
	r.items = make(map[string]item.Item)
	r.order = nil
}
