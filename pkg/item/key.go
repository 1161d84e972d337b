package item

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const (
	// KeyProperty declares an explicit reconciliation key.
	KeyProperty = "key"

	// IDProperty is the data identifier used when no explicit key exists.
	IDProperty = "id"
)

// Key returns the stable identity for one item: the declared key property,
// else the declared identifier, else a structural hash of the whole item.
// Hash-derived keys carry a "#" prefix so they can never collide with
// declared ones.
func Key(it Item) string {
	if v, ok := it.Get(KeyProperty); ok && v != nil {
		return fmt.Sprint(v)
	}
	if v, ok := it.Get(IDProperty); ok && v != nil {
		return fmt.Sprint(v)
	}
	return "#" + strconv.FormatUint(Hash(it), 16)
}

// Keys extracts the key for every item in order.
func Keys(items []Item) []string {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = Key(it)
	}
	return keys
}

// Hash returns a deterministic structural hash of an item. Equal items
// hash the same; map iteration order does not matter because keys are
// visited sorted.
func Hash(it Item) uint64 {
	d := xxhash.New()
	writeItem(d, it)
	return d.Sum64()
}

func writeItem(d *xxhash.Digest, it Item) {
	_, _ = d.WriteString(it.Kind.String())
	switch it.Kind {
	case KindRenderable:
		_, _ = d.WriteString(it.Tag)
		writeMap(d, it.Props)
	default:
		writeValue(d, it.Value)
	}
}

func writeValue(d *xxhash.Digest, v any) {
	switch val := v.(type) {
	case nil:
		_, _ = d.WriteString("z")
	case bool:
		if val {
			_, _ = d.WriteString("b1")
		} else {
			_, _ = d.WriteString("b0")
		}
	case string:
		_, _ = d.WriteString("s")
		_, _ = d.WriteString(strconv.Itoa(len(val)))
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(val)
	case Item:
		writeItem(d, val)
	case Props:
		writeMap(d, val)
	case map[string]any:
		writeMap(d, val)
	case []any:
		_, _ = d.WriteString("[")
		for _, elem := range val {
			writeValue(d, elem)
		}
		_, _ = d.WriteString("]")
	case []Item:
		_, _ = d.WriteString("[")
		for _, elem := range val {
			writeItem(d, elem)
		}
		_, _ = d.WriteString("]")
	default:
		if f, ok := Number(v); ok {
			_, _ = d.WriteString("n")
			_, _ = d.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
			return
		}
		// Uncommon leaf types fall back to their printed form.
		fmt.Fprintf(d, "%T:%v", v, v)
	}
}

func writeMap(d *xxhash.Digest, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, _ = d.WriteString("{")
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.WriteString("=")
		writeValue(d, m[k])
	}
	_, _ = d.WriteString("}")
}
