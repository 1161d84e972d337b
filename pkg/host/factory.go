package host

import (
	"errors"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
	"github.com/declarative-dom/ddom-sub003/pkg/reconcile"
)

// ErrForeignNode reports a node that was not created by this package's
// factory.
var ErrForeignNode = errors.New("ddom: node does not belong to this host")

// Host bundles the pieces one container needs: a factory, a tree, the
// root element, and the journal they record into.
type Host struct {
	Factory *Factory
	Tree    *Tree
	Root    *Element
	Journal *Journal
}

// NewHost creates a connected factory, tree, root container, and
// journal.
func NewHost() *Host {
	j := NewJournal()
	return &Host{
		Factory: NewFactory(j),
		Tree:    NewTree(j),
		Root:    NewRoot(),
		Journal: j,
	}
}

// NewRoot creates a detached container element. Its id is 0; factory
// ids start at 1.
func NewRoot() *Element {
	return &Element{tag: "root", props: map[string]any{}}
}

// Factory materializes elements for reconciled items. It implements
// reconcile.NodeFactory.
type Factory struct {
	nextID  uint32
	journal *Journal
}

// NewFactory creates a factory recording into journal. A nil journal
// disables recording.
func NewFactory(journal *Journal) *Factory {
	return &Factory{journal: journal}
}

// Create builds a detached element. Renderable items become elements
// carrying the item's properties; opaque items become text nodes. The
// text-content property is stored as the element's text payload, like
// UpdateProperty does, though the journal op keeps the full property
// map.
func (f *Factory) Create(it item.Item) (reconcile.Node, error) {
	f.nextID++
	e := &Element{id: f.nextID, props: map[string]any{}}
	switch it.Kind {
	case item.KindRenderable:
		e.tag = it.Tag
		initial := make(map[string]any, len(it.Props))
		for k, v := range it.Props {
			initial[k] = v
			if k == reconcile.TextProperty {
				e.text = v
				continue
			}
			e.props[k] = v
		}
		f.journal.record(Op{Kind: OpCreate, Node: e.id, Tag: e.tag, Value: initial})
	default:
		e.tag = TextTag
		e.text = it.Value
		f.journal.record(Op{Kind: OpCreate, Node: e.id, Tag: TextTag, Value: it.Value})
	}
	return e, nil
}

// UpdateProperty sets one property. The text-content property writes the
// text payload; a nil value clears the property.
func (f *Factory) UpdateProperty(node reconcile.Node, name string, value any) error {
	e, ok := node.(*Element)
	if !ok {
		return ErrForeignNode
	}
	switch {
	case name == reconcile.TextProperty:
		e.text = value
	case value == nil:
		delete(e.props, name)
	default:
		e.props[name] = value
	}
	f.journal.record(Op{Kind: OpSetProp, Node: e.id, Name: name, Value: value})
	return nil
}

// Remove detaches the element from its parent and records the discard.
func (f *Factory) Remove(node reconcile.Node) error {
	e, ok := node.(*Element)
	if !ok {
		return ErrForeignNode
	}
	e.detach()
	f.journal.record(Op{Kind: OpRemove, Node: e.id})
	return nil
}
