package host

// TextTag is the tag assigned to nodes created from opaque items.
const TextTag = "#text"

// Element is one node of the in-memory host tree. Elements are created
// by a Factory and positioned by a Tree; they are plain data otherwise.
type Element struct {
	id    uint32
	tag   string
	props map[string]any
	text  any

	parent   *Element
	children []*Element
}

// ID returns the element's stable numeric identifier, assigned at
// creation. Patch encoding addresses nodes by this id.
func (e *Element) ID() uint32 {
	return e.id
}

// Tag returns the element's node kind, TextTag for text nodes.
func (e *Element) Tag() string {
	return e.tag
}

// Prop returns a property value.
func (e *Element) Prop(name string) (any, bool) {
	v, ok := e.props[name]
	return v, ok
}

// Props returns a copy of the element's properties.
func (e *Element) Props() map[string]any {
	out := make(map[string]any, len(e.props))
	for k, v := range e.props {
		out[k] = v
	}
	return out
}

// Text returns the text payload of a text node, or the pushed text
// content of an element.
func (e *Element) Text() any {
	return e.text
}

// Children returns the element's children in order.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// Parent returns the containing element, nil when detached.
func (e *Element) Parent() *Element {
	return e.parent
}

// detach unlinks the element from its parent, if any.
func (e *Element) detach() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}
