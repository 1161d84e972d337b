package item

import "reflect"

// Equal reports whether two values are structurally equal: maps are equal
// iff they have the same key set and every value is recursively equal,
// slices compare element-wise, primitives by identity. Numeric values
// compare across int/uint/float representations so decoded data matches
// in-memory data. Shared references exit early.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case Item:
		bv, ok := b.(Item)
		return ok && ItemEqual(av, bv)
	case Props:
		return Equal(map[string]any(av), b)
	case map[string]any:
		bv, ok := asMap(b)
		return ok && equalMaps(av, bv)
	case []any:
		bv, ok := b.([]any)
		return ok && equalSlices(av, bv)
	case []Item:
		bv, ok := b.([]Item)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ItemEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	if af, ok := Number(a); ok {
		bf, bok := Number(b)
		return bok && af == bf
	}

	// Uncommon types: structs, typed slices, time values.
	return reflect.DeepEqual(a, b)
}

// ItemEqual reports structural equality of two items.
func ItemEqual(a, b Item) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == KindRenderable {
		return a.Tag == b.Tag && equalMaps(a.Props, b.Props)
	}
	return Equal(a.Value, b.Value)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Props:
		return m, true
	default:
		return nil, false
	}
}

func equalMaps(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	if sameRef(a, b) {
		return true
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

func equalSlices(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	if sameRef(a, b) {
		return true
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// sameRef reports whether two maps or slices share the same backing store.
func sameRef(a, b any) bool {
	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Slice:
		return ra.Pointer() == rb.Pointer()
	default:
		return false
	}
}

// Number converts any numeric value to float64. The second return reports
// whether v was numeric.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
