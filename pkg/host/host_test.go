package host

import (
	"testing"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
	"github.com/declarative-dom/ddom-sub003/pkg/reconcile"
)

func mustCreate(t *testing.T, f *Factory, it item.Item) *Element {
	t.Helper()
	n, err := f.Create(it)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return n.(*Element)
}

func TestFactoryCreateRenderable(t *testing.T) {
	h := NewHost()
	e := mustCreate(t, h.Factory, item.Renderable("div", item.Props{"key": "a", "label": "hi"}))

	if e.Tag() != "div" {
		t.Errorf("tag = %s, want div", e.Tag())
	}
	if v, _ := e.Prop("label"); v != "hi" {
		t.Errorf("label = %v", v)
	}
	if e.ID() == 0 {
		t.Error("element ids start at 1")
	}
	if e.Parent() != nil {
		t.Error("created element must be detached")
	}
}

func TestFactoryCreateText(t *testing.T) {
	h := NewHost()
	e := mustCreate(t, h.Factory, item.Opaque("hello"))

	if e.Tag() != TextTag {
		t.Errorf("tag = %s, want %s", e.Tag(), TextTag)
	}
	if e.Text() != "hello" {
		t.Errorf("text = %v", e.Text())
	}
}

func TestFactoryUpdateProperty(t *testing.T) {
	h := NewHost()
	e := mustCreate(t, h.Factory, item.Renderable("div", item.Props{"label": "old", "gone": 1}))

	if err := h.Factory.UpdateProperty(e, "label", "new"); err != nil {
		t.Fatalf("UpdateProperty: %v", err)
	}
	if err := h.Factory.UpdateProperty(e, "gone", nil); err != nil {
		t.Fatalf("UpdateProperty: %v", err)
	}
	if err := h.Factory.UpdateProperty(e, reconcile.TextProperty, "inner"); err != nil {
		t.Fatalf("UpdateProperty: %v", err)
	}

	if v, _ := e.Prop("label"); v != "new" {
		t.Errorf("label = %v", v)
	}
	if _, ok := e.Prop("gone"); ok {
		t.Error("nil value should clear the property")
	}
	if e.Text() != "inner" {
		t.Errorf("text = %v", e.Text())
	}
}

func TestFactoryRejectsForeignNode(t *testing.T) {
	h := NewHost()
	if err := h.Factory.UpdateProperty("not an element", "x", 1); err != ErrForeignNode {
		t.Errorf("err = %v, want ErrForeignNode", err)
	}
	if err := h.Factory.Remove(42); err != ErrForeignNode {
		t.Errorf("err = %v, want ErrForeignNode", err)
	}
}

func TestTreePositioning(t *testing.T) {
	h := NewHost()
	a := mustCreate(t, h.Factory, item.Renderable("div", item.Props{"key": "a"}))
	b := mustCreate(t, h.Factory, item.Renderable("div", item.Props{"key": "b"}))
	c := mustCreate(t, h.Factory, item.Renderable("div", item.Props{"key": "c"}))

	h.Tree.Append(h.Root, a, c)
	h.Tree.InsertBefore(h.Root, b, c)

	kids := h.Root.Children()
	if len(kids) != 3 || kids[0] != a || kids[1] != b || kids[2] != c {
		t.Fatalf("children = %v", kids)
	}
	if b.Parent() != h.Root {
		t.Error("insert must set parent")
	}

	// Moving an attached node relocates rather than duplicates.
	h.Tree.InsertBefore(h.Root, c, a)
	kids = h.Root.Children()
	if len(kids) != 3 || kids[0] != c || kids[1] != a || kids[2] != b {
		t.Fatalf("after move: children = %v", kids)
	}

	h.Tree.Clear(h.Root)
	if len(h.Root.Children()) != 0 {
		t.Error("clear must empty the container")
	}
	if a.Parent() != nil {
		t.Error("clear must detach children")
	}
}

func TestRemoveDetaches(t *testing.T) {
	h := NewHost()
	a := mustCreate(t, h.Factory, item.Opaque("x"))
	h.Tree.Append(h.Root, a)

	if err := h.Factory.Remove(a); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(h.Root.Children()) != 0 {
		t.Error("removed node still attached")
	}
}

func TestJournalRecordsOps(t *testing.T) {
	h := NewHost()
	a := mustCreate(t, h.Factory, item.Renderable("li", item.Props{"key": "a"}))
	h.Tree.Append(h.Root, a)
	h.Factory.UpdateProperty(a, "label", "x")
	h.Factory.Remove(a)

	ops := h.Journal.Drain()
	kinds := make([]OpKind, len(ops))
	for i, op := range ops {
		kinds[i] = op.Kind
	}
	want := []OpKind{OpCreate, OpAppend, OpSetProp, OpRemove}
	if len(kinds) != len(want) {
		t.Fatalf("ops = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("ops = %v, want %v", kinds, want)
		}
	}

	if ops[0].Tag != "li" || ops[0].Node != a.ID() {
		t.Errorf("create op = %+v", ops[0])
	}
	if ops[2].Name != "label" || ops[2].Value != "x" {
		t.Errorf("setProp op = %+v", ops[2])
	}

	if h.Journal.Len() != 0 {
		t.Error("drain must empty the journal")
	}
}

func TestHostImplementsReconcileInterfaces(t *testing.T) {
	var _ reconcile.NodeFactory = (*Factory)(nil)
	var _ reconcile.HostTree = (*Tree)(nil)
}
