package reconcile

import "github.com/declarative-dom/ddom-sub003/pkg/item"

// Node is an opaque host node handle. The engine never inspects a node
// beyond passing it back to the factory and the host tree. Handles must be
// comparable values (pointers, integers, strings) so the reconciler can
// track positions.
type Node any

// TextProperty is the property name pushed on update for opaque items,
// whose whole payload is their text content.
const TextProperty = "textContent"

// NodeFactory creates, updates, and removes host nodes, one item each.
// Implementations are external: a DOM binding, a terminal renderer, the
// in-memory tree used in tests.
type NodeFactory interface {
	// Create materializes a node for one item. The node is returned
	// detached; the reconciler positions it afterwards.
	Create(it item.Item) (Node, error)

	// UpdateProperty pushes one property's new value onto an existing
	// node. A nil value clears the property.
	UpdateProperty(node Node, name string, value any) error

	// Remove detaches and discards a node.
	Remove(node Node) error
}

// HostTree exposes the ordered child list of one container and the
// operations that change it. The reconciler calls it only for
// positioning; node contents go through the NodeFactory.
type HostTree interface {
	// Children returns the container's current children in order.
	Children(container Node) []Node

	// InsertBefore places node immediately before ref. A node already in
	// the container moves; a detached node is inserted.
	InsertBefore(container Node, node, ref Node)

	// Append places nodes at the end of the container in the given order.
	Append(container Node, nodes ...Node)

	// Clear removes every child in one operation.
	Clear(container Node)
}
