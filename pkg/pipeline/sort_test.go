package pipeline

import "testing"

func sortedField(t *testing.T, out []any, field string) []any {
	t.Helper()
	vals := make([]any, len(out))
	for i, it := range out {
		vals[i] = it.(map[string]any)[field]
	}
	return vals
}

func TestSortAscending(t *testing.T) {
	src := []any{
		map[string]any{"n": 3},
		map[string]any{"n": 1},
		map[string]any{"n": 2},
	}
	out := applySort([]SortCriterion{{By: Prop("n")}}, src)

	got := sortedField(t, out, "n")
	want := []any{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSortDescending(t *testing.T) {
	src := []any{
		map[string]any{"n": 3},
		map[string]any{"n": 1},
		map[string]any{"n": 2},
	}
	out := applySort([]SortCriterion{{By: Prop("n"), Desc: true}}, src)

	got := sortedField(t, out, "n")
	want := []any{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSortTieBreakers(t *testing.T) {
	src := []any{
		map[string]any{"group": "b", "n": 1},
		map[string]any{"group": "a", "n": 2},
		map[string]any{"group": "a", "n": 1},
	}
	out := applySort([]SortCriterion{
		{By: Prop("group")},
		{By: Prop("n"), Desc: true},
	}, src)

	groups := sortedField(t, out, "group")
	ns := sortedField(t, out, "n")
	if groups[0] != "a" || groups[1] != "a" || groups[2] != "b" {
		t.Fatalf("expected groups [a a b], got %v", groups)
	}
	if ns[0] != 2 || ns[1] != 1 {
		t.Errorf("expected second criterion desc order [2 1], got %v", ns[:2])
	}
}

func TestSortMissingValuesKeepOrder(t *testing.T) {
	src := []any{
		map[string]any{"id": "a"},
		map[string]any{"id": "b", "n": 2},
		map[string]any{"id": "c", "n": 1},
		map[string]any{"id": "d"},
	}
	out := applySort([]SortCriterion{{By: Prop("n")}}, src)

	ids := sortedField(t, out, "id")
	// Comparable neighbors reorder; items without the value are
	// incomparable and hold their relative positions.
	if ids[0] != "a" || ids[3] != "d" {
		t.Errorf("missing-value items moved: %v", ids)
	}
	if ids[1] != "c" || ids[2] != "b" {
		t.Errorf("expected n=1 before n=2, got %v", ids)
	}

	// Determinism: a second run produces the identical order
	again := applySort([]SortCriterion{{By: Prop("n")}}, src)
	for i := range out {
		if out[i].(map[string]any)["id"] != again[i].(map[string]any)["id"] {
			t.Fatalf("sort is not deterministic: %v vs %v", ids, sortedField(t, again, "id"))
		}
	}
}

func TestSortAllMissingPreservesInput(t *testing.T) {
	src := []any{
		map[string]any{"id": "x"},
		map[string]any{"id": "y"},
		map[string]any{"id": "z"},
	}
	out := applySort([]SortCriterion{{By: Prop("n")}}, src)

	ids := sortedField(t, out, "id")
	if ids[0] != "x" || ids[1] != "y" || ids[2] != "z" {
		t.Errorf("expected input order preserved, got %v", ids)
	}
}

func TestSortAccessor(t *testing.T) {
	src := []any{
		map[string]any{"name": "bb"},
		map[string]any{"name": "a"},
		map[string]any{"name": "ccc"},
	}
	out := applySort([]SortCriterion{
		{By: Fn(func(it any, _ int) any { return len(it.(map[string]any)["name"].(string)) })},
	}, src)

	names := sortedField(t, out, "name")
	if names[0] != "a" || names[1] != "bb" || names[2] != "ccc" {
		t.Errorf("expected [a bb ccc], got %v", names)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	src := []any{
		map[string]any{"n": 2},
		map[string]any{"n": 1},
	}
	_ = applySort([]SortCriterion{{By: Prop("n")}}, src)

	if src[0].(map[string]any)["n"] != 2 {
		t.Error("sort mutated the input snapshot")
	}
}
