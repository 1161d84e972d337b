package reconcile

import (
	"log/slog"
	"sort"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
)

// Reconciler keeps one container's host nodes consistent with successive
// snapshots. Passes are strictly sequential; the engine's scheduler never
// starts one while another runs.
type Reconciler struct {
	factory   NodeFactory
	host      HostTree
	container Node
	reg       *Registry
	logger    *slog.Logger

	// mutable is the data-derived output property set from pipeline
	// analysis. When known, updates push only these properties; when not,
	// updates diff all top-level properties.
	mutable      map[string]bool
	mutableKnown bool

	// inPass guards against re-entrant Apply calls.
	inPass bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger for pass diagnostics and warnings.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMutableProps bounds update cost to the given analyzed property set.
// Without it, updates fall back to diffing all top-level properties.
func WithMutableProps(props map[string]bool) Option {
	return func(r *Reconciler) {
		r.mutable = props
		r.mutableKnown = true
	}
}

// New creates a reconciler for one container.
func New(factory NodeFactory, host HostTree, container Node, opts ...Option) *Reconciler {
	r := &Reconciler{
		factory:   factory,
		host:      host,
		container: container,
		reg:       newRegistry(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry exposes the container's mount registry, read-only by
// convention.
func (r *Reconciler) Registry() *Registry {
	return r.reg
}

// Result summarizes one reconciliation pass.
type Result struct {
	// Created, Updated, Removed count nodes the factory touched.
	Created int
	Updated int
	Removed int

	// Moved counts existing nodes repositioned in the host tree.
	Moved int

	// Skipped counts items dropped with a warning.
	Skipped int

	// PropWrites counts individual property pushes during updates.
	PropWrites int

	// HostOps counts position operations: inserts, moves, batched
	// appends, and clears.
	HostOps int
}

// Apply reconciles the container against one snapshot: extract keys,
// classify against the registry, remove, create, update, then fix
// positions. Applying an identical snapshot twice performs zero factory
// calls and zero host operations on the second pass.
func (r *Reconciler) Apply(next []item.Item) Result {
	var res Result
	if r.inPass {
		r.logger.Warn("reconciliation re-entered, pass skipped")
		return res
	}
	r.inPass = true
	defer func() { r.inPass = false }()

	// Key extraction. Duplicate keys keep the first position and the last
	// item; colliding keys for distinct items is a caller error.
	nextByKey := make(map[string]item.Item, len(next))
	nextOrder := make([]string, 0, len(next))
	for _, it := range next {
		k := item.Key(it)
		if _, dup := nextByKey[k]; dup {
			r.logger.Warn("duplicate key in snapshot, last item wins", "key", k)
		} else {
			nextOrder = append(nextOrder, k)
		}
		nextByKey[k] = it
	}

	// Classification. A mounted key whose node kind or tag changed cannot
	// be patched in place; it becomes a remove plus a create.
	var toCreate, toUpdate, toRemove []string
	for _, k := range nextOrder {
		prevIt, mounted := r.reg.Item(k)
		if !mounted {
			toCreate = append(toCreate, k)
			continue
		}
		nextIt := nextByKey[k]
		if prevIt.Kind != nextIt.Kind || (prevIt.Kind == item.KindRenderable && prevIt.Tag != nextIt.Tag) {
			toRemove = append(toRemove, k)
			toCreate = append(toCreate, k)
			continue
		}
		if !item.ItemEqual(prevIt, nextIt) {
			toUpdate = append(toUpdate, k)
		}
	}
	for _, k := range r.reg.Keys() {
		if _, stays := nextByKey[k]; !stays {
			toRemove = append(toRemove, k)
		}
	}

	// Removals
	for _, k := range toRemove {
		node, ok := r.reg.Node(k)
		if !ok {
			continue
		}
		if err := r.factory.Remove(node); err != nil {
			r.logger.Warn("node removal failed", "key", k, "error", err)
		}
		r.reg.delete(k)
		res.Removed++
	}

	// Creates. Nodes come back detached; the position pass mounts them.
	for _, k := range toCreate {
		it := nextByKey[k]
		if !canRender(it) {
			r.logger.Warn("skipping item without recognizable node kind", "key", k)
			res.Skipped++
			continue
		}
		node, err := r.factory.Create(it)
		if err != nil {
			r.logger.Warn("node creation failed", "key", k, "error", err)
			res.Skipped++
			continue
		}
		r.reg.put(k, node, it)
		res.Created++
	}

	// Updates push property values onto existing nodes, never recreate.
	for _, k := range toUpdate {
		node, _ := r.reg.Node(k)
		prevIt, _ := r.reg.Item(k)
		r.updateNode(node, prevIt, nextByKey[k], &res)
		r.reg.put(k, node, nextByKey[k])
		res.Updated++
	}

	// Unchanged keys carry their nodes forward untouched.

	// Position pass
	desired := make([]Node, 0, len(nextOrder))
	mountedOrder := make([]string, 0, len(nextOrder))
	for _, k := range nextOrder {
		if n, ok := r.reg.Node(k); ok {
			desired = append(desired, n)
			mountedOrder = append(mountedOrder, k)
		}
	}
	r.applyOrder(desired, &res)
	r.reg.setOrder(mountedOrder)

	r.logger.Debug("reconciliation pass",
		"created", res.Created,
		"updated", res.Updated,
		"removed", res.Removed,
		"moved", res.Moved,
		"skipped", res.Skipped,
		"host_ops", res.HostOps)
	return res
}

// Destroy tears the container down wholesale: every mounted node is
// discarded, the host is cleared, and the registry emptied.
func (r *Reconciler) Destroy() {
	for _, k := range r.reg.Keys() {
		if node, ok := r.reg.Node(k); ok {
			if err := r.factory.Remove(node); err != nil {
				r.logger.Warn("node removal failed during teardown", "key", k, "error", err)
			}
		}
	}
	if len(r.host.Children(r.container)) > 0 {
		r.host.Clear(r.container)
	}
	r.reg.reset()
}

// updateNode pushes changed property values onto one node.
func (r *Reconciler) updateNode(node Node, prev, next item.Item, res *Result) {
	push := func(name string, value any) {
		if err := r.factory.UpdateProperty(node, name, value); err != nil {
			r.logger.Warn("property update failed", "property", name, "error", err)
			return
		}
		res.PropWrites++
	}

	if next.Kind == item.KindOpaque {
		push(TextProperty, next.Value)
		return
	}

	if r.mutableKnown {
		// Only analyzed data-derived properties can have changed; cost is
		// bounded by that set, not the item's shape.
		names := make([]string, 0, len(r.mutable))
		for name, mutable := range r.mutable {
			if mutable {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			nv, ok := next.Get(name)
			if !ok {
				continue
			}
			pv, _ := prev.Get(name)
			if item.Equal(pv, nv) {
				continue
			}
			push(name, nv)
		}
		return
	}

	// No analysis available: diff all top-level properties.
	for name, pv := range prev.Props {
		nv, exists := next.Props[name]
		if !exists {
			push(name, nil)
		} else if !item.Equal(pv, nv) {
			push(name, nv)
		}
	}
	for name, nv := range next.Props {
		if _, exists := prev.Props[name]; !exists {
			push(name, nv)
		}
	}
}

// applyOrder diffs the desired node order against the host's current
// children and fixes only the positions that differ. An empty desired
// list clears in one operation; a previously-empty container fills with
// one batched append.
func (r *Reconciler) applyOrder(desired []Node, res *Result) {
	current := r.host.Children(r.container)

	if len(desired) == 0 {
		if len(current) > 0 {
			r.host.Clear(r.container)
			res.HostOps++
		}
		return
	}

	if len(current) == 0 {
		r.host.Append(r.container, desired...)
		res.HostOps++
		return
	}

	working := append([]Node(nil), current...)
	for i, want := range desired {
		if i < len(working) && working[i] == want {
			continue
		}

		// The node is either later in the working order (a move) or not
		// mounted yet (an insert).
		j := -1
		for idx := i + 1; idx < len(working); idx++ {
			if working[idx] == want {
				j = idx
				break
			}
		}
		if j >= 0 {
			working = append(working[:j], working[j+1:]...)
			res.Moved++
		}

		if i >= len(working) {
			working = append(working, want)
			r.host.Append(r.container, want)
		} else {
			ref := working[i]
			working = append(working[:i], append([]Node{want}, working[i:]...)...)
			r.host.InsertBefore(r.container, want, ref)
		}
		res.HostOps++
	}
}

// canRender reports whether an item can be handed to the factory:
// renderables always, opaque items only when their payload is printable
// text. An opaque map is a malformed descriptor, not text.
func canRender(it item.Item) bool {
	if it.Kind == item.KindRenderable {
		return true
	}
	switch it.Value.(type) {
	case string, bool:
		return true
	default:
		_, ok := item.Number(it.Value)
		return ok
	}
}
