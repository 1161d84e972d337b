package host

import "github.com/declarative-dom/ddom-sub003/pkg/reconcile"

// Tree positions elements inside containers. It implements
// reconcile.HostTree. Values that are not this package's elements are
// ignored; the factory and tree are always paired.
type Tree struct {
	journal *Journal
}

// NewTree creates a tree recording into journal. A nil journal disables
// recording.
func NewTree(journal *Journal) *Tree {
	return &Tree{journal: journal}
}

// Children returns the container's children in order.
func (t *Tree) Children(container reconcile.Node) []reconcile.Node {
	c, ok := container.(*Element)
	if !ok {
		return nil
	}
	out := make([]reconcile.Node, len(c.children))
	for i, child := range c.children {
		out[i] = child
	}
	return out
}

// InsertBefore places node immediately before ref, moving it if already
// attached. A ref that is not a child appends instead, matching DOM
// insertBefore with a nil reference.
func (t *Tree) InsertBefore(container reconcile.Node, node, ref reconcile.Node) {
	c, ok := container.(*Element)
	if !ok {
		return
	}
	e, ok := node.(*Element)
	if !ok {
		return
	}

	e.detach()
	e.parent = c

	refID := uint32(0)
	if r, ok := ref.(*Element); ok {
		for i, child := range c.children {
			if child == r {
				c.children = append(c.children[:i], append([]*Element{e}, c.children[i:]...)...)
				t.journal.record(Op{Kind: OpInsert, Node: e.id, Parent: c.id, Ref: r.id})
				return
			}
		}
		refID = r.id
	}
	c.children = append(c.children, e)
	t.journal.record(Op{Kind: OpInsert, Node: e.id, Parent: c.id, Ref: refID})
}

// Append places nodes at the end of the container in the given order.
func (t *Tree) Append(container reconcile.Node, nodes ...reconcile.Node) {
	c, ok := container.(*Element)
	if !ok {
		return
	}
	ids := make([]uint32, 0, len(nodes))
	for _, n := range nodes {
		e, ok := n.(*Element)
		if !ok {
			continue
		}
		e.detach()
		e.parent = c
		c.children = append(c.children, e)
		ids = append(ids, e.id)
	}
	t.journal.record(Op{Kind: OpAppend, Parent: c.id, Nodes: ids})
}

// Clear removes every child in one operation.
func (t *Tree) Clear(container reconcile.Node) {
	c, ok := container.(*Element)
	if !ok {
		return
	}
	for _, child := range c.children {
		child.parent = nil
	}
	c.children = nil
	t.journal.record(Op{Kind: OpClear, Node: c.id})
}
