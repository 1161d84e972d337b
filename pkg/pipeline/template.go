package pipeline

import (
	"fmt"
	"strings"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
)

// The map stage accepts three template forms:
//
//   - a function (item, index) -> output
//   - a string with {path} placeholders substituted against the item
//   - an object walked recursively: function leaves are called, string
//     leaves substituted, nested maps and slices processed, and all other
//     leaves copied as-is
//
// A nil template passes items through unchanged.

// applyMapStage produces the mapped snapshot.
func applyMapStage(tmpl any, src []any) []any {
	if tmpl == nil {
		return src
	}

	out := make([]any, len(src))
	for i, it := range src {
		out[i] = applyTemplateValue(tmpl, it, i)
	}
	return out
}

// applyTemplateValue evaluates one template node against one item.
func applyTemplateValue(tmpl any, it any, index int) any {
	switch t := tmpl.(type) {
	case Accessor:
		return t(it, index)
	case func(any, int) any:
		return t(it, index)
	case string:
		return substitute(t, it)
	case item.Props:
		return applyObjectTemplate(t, it, index)
	case map[string]any:
		return applyObjectTemplate(t, it, index)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = applyTemplateValue(elem, it, index)
		}
		return out
	default:
		return tmpl
	}
}

func applyObjectTemplate(tmpl map[string]any, it any, index int) map[string]any {
	out := make(map[string]any, len(tmpl))
	for k, v := range tmpl {
		out[k] = applyTemplateValue(v, it, index)
	}
	return out
}

// substitute replaces {path} placeholders with item values. Paths walk
// nested maps with dots; a path the item cannot resolve substitutes the
// empty string. Braces without a closing partner are copied literally.
func substitute(s string, it any) string {
	if !strings.ContainsRune(s, '{') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			b.WriteString(s)
			return b.String()
		}
		closing := strings.IndexByte(s[open:], '}')
		if closing < 0 {
			b.WriteString(s)
			return b.String()
		}
		closing += open

		b.WriteString(s[:open])
		path := s[open+1 : closing]
		if v, ok := lookupPath(it, path); ok && v != nil {
			fmt.Fprintf(&b, "%v", v)
		}
		s = s[closing+1:]
	}
}

// lookupPath resolves a dotted property path against an item.
func lookupPath(it any, path string) (any, bool) {
	cur := it
	for _, part := range strings.Split(path, ".") {
		v, ok := propOf(cur, part)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// analyzeTemplate computes which top-level output properties are mutable,
// meaning their values derive from the item rather than a static literal.
// known is false when the template has no analyzable object shape (nil,
// function, or string templates); the reconciler then falls back to
// diffing properties at update time.
func analyzeTemplate(tmpl any) (mutable map[string]bool, known bool) {
	var obj map[string]any
	switch t := tmpl.(type) {
	case item.Props:
		obj = t
	case map[string]any:
		obj = t
	default:
		return nil, false
	}

	mutable = make(map[string]bool, len(obj))
	for k, v := range obj {
		if !staticValue(v) {
			mutable[k] = true
		}
	}
	return mutable, true
}

// staticValue reports whether a template node is a literal that never
// changes between items.
func staticValue(v any) bool {
	switch t := v.(type) {
	case Accessor, func(any, int) any:
		return false
	case string:
		return !hasPlaceholder(t)
	case item.Props:
		return staticMap(t)
	case map[string]any:
		return staticMap(t)
	case []any:
		for _, elem := range t {
			if !staticValue(elem) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func staticMap(m map[string]any) bool {
	for _, v := range m {
		if !staticValue(v) {
			return false
		}
	}
	return true
}

// hasPlaceholder reports whether a string contains a {path} placeholder.
func hasPlaceholder(s string) bool {
	open := strings.IndexByte(s, '{')
	return open >= 0 && strings.IndexByte(s[open:], '}') > 0
}
