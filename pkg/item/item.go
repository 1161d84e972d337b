package item

// Kind is the item type discriminator.
type Kind uint8

const (
	KindOpaque     Kind = iota // Pass-through value, rendered as-is
	KindRenderable             // Structured descriptor with a node-kind tag
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindOpaque:
		return "Opaque"
	case KindRenderable:
		return "Renderable"
	default:
		return "Unknown"
	}
}

// TagProperty is the descriptor property that names the node kind. A map
// carrying it normalizes to a renderable item; everything else stays
// opaque.
const TagProperty = "tagName"

// Props holds a renderable item's properties.
type Props map[string]any

// Item is one element of a derived snapshot.
type Item struct {
	Kind  Kind   // Variant tag
	Tag   string // Node kind, for KindRenderable
	Props Props  // Properties, for KindRenderable
	Value any    // Payload, for KindOpaque
}

// Renderable builds a renderable item. The tag is also mirrored into the
// props under TagProperty so structural hashing and equality see one
// canonical shape.
func Renderable(tag string, props Props) Item {
	if props == nil {
		props = Props{}
	}
	props[TagProperty] = tag
	return Item{Kind: KindRenderable, Tag: tag, Props: props}
}

// Opaque builds a pass-through item.
func Opaque(v any) Item {
	return Item{Kind: KindOpaque, Value: v}
}

// Normalize converts an arbitrary pipeline output value into an Item.
// A map carrying a string node-kind tag becomes renderable; an Item passes
// through unchanged; anything else is opaque.
func Normalize(v any) Item {
	switch val := v.(type) {
	case Item:
		return val
	case Props:
		return normalizeMap(map[string]any(val))
	case map[string]any:
		return normalizeMap(val)
	default:
		return Opaque(v)
	}
}

func normalizeMap(m map[string]any) Item {
	if tag, ok := m[TagProperty].(string); ok && tag != "" {
		return Item{Kind: KindRenderable, Tag: tag, Props: Props(m)}
	}
	return Opaque(m)
}

// NormalizeAll converts a raw snapshot into items.
func NormalizeAll(values []any) []Item {
	items := make([]Item, len(values))
	for i, v := range values {
		items[i] = Normalize(v)
	}
	return items
}

// Get returns a property value from a renderable item, or the named field
// of an opaque map value. The second return reports whether the property
// exists.
func (it Item) Get(name string) (any, bool) {
	switch it.Kind {
	case KindRenderable:
		v, ok := it.Props[name]
		return v, ok
	case KindOpaque:
		if m, ok := it.Value.(map[string]any); ok {
			v, found := m[name]
			return v, found
		}
	}
	return nil, false
}
