package collection

import (
	"errors"
	"testing"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

func TestScopeLookup(t *testing.T) {
	s := Scope{
		"users": []any{"a"},
		"data":  Scope{"rows": []any{1}},
		"deep":  map[string]any{"nested": map[string]any{"leaf": []any{7}}},
	}
	tests := []struct {
		path string
		want bool
	}{
		{"users", true},
		{"data.rows", true},
		{"deep.nested.leaf", true},
		{"missing", false},
		{"data.absent", false},
		{"users.x", false},
	}
	for _, tt := range tests {
		if _, ok := s.lookup(tt.path); ok != tt.want {
			t.Errorf("lookup(%q) ok = %v, want %v", tt.path, ok, tt.want)
		}
	}
}

func TestCoerceItems(t *testing.T) {
	items, err := coerceItems([]any{1, 2})
	if err != nil || len(items) != 2 {
		t.Errorf("[]any: items = %v, err = %v", items, err)
	}

	items, err = coerceItems([]string{"a", "b", "c"})
	if err != nil || len(items) != 3 || items[0] != "a" {
		t.Errorf("typed slice should widen, got %v, err = %v", items, err)
	}

	items, err = coerceItems(nil)
	if err != nil || items != nil {
		t.Errorf("nil: items = %v, err = %v", items, err)
	}

	if _, err = coerceItems(42); !errors.Is(err, ErrNotSlice) {
		t.Errorf("non-slice: err = %v, want ErrNotSlice", err)
	}
}

func TestLiteralResolves(t *testing.T) {
	g := cell.NewGraph()
	r, err := Literal([]any{"x", "y"}).resolve(g, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := r.Get(); len(got) != 2 {
		t.Errorf("items = %v, want 2", got)
	}
}

func TestFromCellNilRejected(t *testing.T) {
	g := cell.NewGraph()
	if _, err := FromCell(nil).resolve(g, nil); !errors.Is(err, ErrNilSource) {
		t.Errorf("err = %v, want ErrNilSource", err)
	}
}

func TestFromFuncRejectsNonSliceAtConstruction(t *testing.T) {
	g := cell.NewGraph()
	_, err := FromFunc(func() any { return 3 }).resolve(g, nil)
	if !errors.Is(err, ErrNotSlice) {
		t.Errorf("err = %v, want ErrNotSlice", err)
	}
}

func TestFromFuncUnwrapsReturnedCell(t *testing.T) {
	g := cell.NewGraph()
	backing := cell.New(g, []any{"a"})
	r, err := FromFunc(func() any { return cell.Reader[[]any](backing) }).resolve(g, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := r.Get(); len(got) != 1 || got[0] != "a" {
		t.Errorf("items = %v", got)
	}
	backing.Set([]any{"a", "b"})
	if got := r.Get(); len(got) != 2 {
		t.Errorf("after set: items = %v, want 2", got)
	}
}

func TestRefResolvesSliceCellAndFunc(t *testing.T) {
	g := cell.NewGraph()
	rows := cell.New(g, []any{1, 2, 3})
	scope := Scope{
		"plain": []any{"p"},
		"state": Scope{
			"rows": cell.Reader[[]any](rows),
			"calc": func() any { return []any{"c"} },
		},
	}

	r, err := Ref("plain").resolve(g, scope)
	if err != nil || len(r.Get()) != 1 {
		t.Errorf("plain: err = %v", err)
	}

	r, err = Ref("state.rows").resolve(g, scope)
	if err != nil || len(r.Get()) != 3 {
		t.Errorf("cell ref: err = %v", err)
	}

	r, err = Ref("state.calc").resolve(g, scope)
	if err != nil || len(r.Get()) != 1 {
		t.Errorf("func ref: err = %v", err)
	}

	if _, err = Ref("state.nope").resolve(g, scope); !errors.Is(err, ErrUnresolvedSource) {
		t.Errorf("missing ref: err = %v, want ErrUnresolvedSource", err)
	}
}
