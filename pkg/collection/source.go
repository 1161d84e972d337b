package collection

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

var (
	// ErrNilSource reports a missing items source.
	ErrNilSource = errors.New("ddom: nil source")

	// ErrUnresolvedSource reports a reference path with no scope entry.
	ErrUnresolvedSource = errors.New("ddom: source reference cannot be resolved")

	// ErrNotSlice reports a source value that is not an item slice.
	ErrNotSlice = errors.New("ddom: source value is not a slice")
)

// Scope resolves reference sources. Values may be item slices, graph
// cells, functions, or nested scopes reached with dotted paths.
type Scope map[string]any

func (s Scope) lookup(path string) (any, bool) {
	var current any = s
	for _, part := range strings.Split(path, ".") {
		switch m := current.(type) {
		case Scope:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}

// Source names where a collection's input items come from. The four
// forms are Literal, FromCell, FromFunc, and Ref; resolving any of them
// yields a readable cell, so literals and references behave reactively
// identical to real cells downstream.
type Source interface {
	resolve(g *cell.Graph, scope Scope) (cell.Reader[[]any], error)
}

// Literal is a fixed item slice.
func Literal(items []any) Source {
	return literalSource{items: items}
}

type literalSource struct {
	items []any
}

func (s literalSource) resolve(g *cell.Graph, _ Scope) (cell.Reader[[]any], error) {
	return cell.New(g, s.items), nil
}

// FromCell reads items from an existing graph cell.
func FromCell(r cell.Reader[[]any]) Source {
	return cellSource{r: r}
}

type cellSource struct {
	r cell.Reader[[]any]
}

func (s cellSource) resolve(_ *cell.Graph, _ Scope) (cell.Reader[[]any], error) {
	if s.r == nil {
		return nil, ErrNilSource
	}
	return s.r, nil
}

// FromFunc computes items on demand. Cell reads inside fn are tracked,
// so the source re-derives when they change; fn may also return a cell,
// which is then read through.
func FromFunc(fn func() any) Source {
	return funcSource{fn: fn}
}

type funcSource struct {
	fn func() any
}

func (s funcSource) resolve(g *cell.Graph, _ Scope) (cell.Reader[[]any], error) {
	if s.fn == nil {
		return nil, ErrNilSource
	}

	// Probe once, untracked, so a function that can never yield a slice
	// fails construction instead of every evaluation.
	var probeErr error
	g.Untracked(func() {
		_, probeErr = coerceItems(s.fn())
	})
	if probeErr != nil {
		return nil, probeErr
	}

	return cell.Derive(g, func() []any {
		items, err := coerceItems(s.fn())
		if err != nil {
			// Routed to the watcher error channel; the previous
			// slice stays current.
			panic(err)
		}
		return items
	}), nil
}

// Ref resolves a dotted path in the collection's Scope. The value found
// there may itself be a slice, a cell, or a function.
func Ref(path string) Source {
	return refSource{path: path}
}

type refSource struct {
	path string
}

func (s refSource) resolve(g *cell.Graph, scope Scope) (cell.Reader[[]any], error) {
	v, ok := scope.lookup(s.path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedSource, s.path)
	}
	switch val := v.(type) {
	case cell.Reader[[]any]:
		return val, nil
	case func() any:
		return funcSource{fn: val}.resolve(g, scope)
	case Source:
		return val.resolve(g, scope)
	}
	items, err := coerceItems(v)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s.path, err)
	}
	return cell.New(g, items), nil
}

// coerceItems converts a source value into an item slice. Cells are read
// through, which records a dependency edge when called during an
// evaluation. Typed slices are widened element by element.
func coerceItems(v any) ([]any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return val, nil
	case cell.Reader[[]any]:
		return val.Get(), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrNotSlice, v)
}
