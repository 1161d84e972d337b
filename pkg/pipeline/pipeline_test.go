package pipeline

import (
	"errors"
	"testing"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
)

func TestRunFilterSortMapComposition(t *testing.T) {
	p, err := New(Config{
		Filter: []FilterCriterion{{Prop("n"), OpGT, Lit(1)}},
		Sort:   []SortCriterion{{By: Prop("n")}},
		Map: func(it any, _ int) any {
			n, _ := item.Number(it.(map[string]any)["n"])
			return n * 10
		},
	})
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}

	out, err := p.Run([]any{
		map[string]any{"n": 3},
		map[string]any{"n": 1},
		map[string]any{"n": 2},
	})
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	if v, _ := item.Number(out[0].Value); v != 20 {
		t.Errorf("expected first item 20, got %v", out[0].Value)
	}
	if v, _ := item.Number(out[1].Value); v != 30 {
		t.Errorf("expected second item 30, got %v", out[1].Value)
	}
}

func TestRunComposePrependAppend(t *testing.T) {
	p, err := New(Config{
		Filter:  []FilterCriterion{{Prop("n"), OpGT, Lit(10)}},
		Prepend: []any{map[string]any{"tagName": "header", "id": "head"}},
		Append:  []any{map[string]any{"tagName": "footer", "id": "foot"}},
	})
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}

	// Every data item is filtered out; structural items survive untouched
	out, err := p.Run([]any{map[string]any{"n": 1}})
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 structural items, got %d", len(out))
	}
	if out[0].Tag != "header" || out[1].Tag != "footer" {
		t.Errorf("expected header/footer, got %q/%q", out[0].Tag, out[1].Tag)
	}
}

func TestRunStageFailureYieldsNoPartialOutput(t *testing.T) {
	p, err := New(Config{
		Map: func(it any, _ int) any {
			m := it.(map[string]any)
			if m["explode"] == true {
				panic("bad item")
			}
			return m
		},
	})
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}

	out, err := p.Run([]any{
		map[string]any{"n": 1},
		map[string]any{"explode": true},
		map[string]any{"n": 3},
	})
	if err == nil {
		t.Fatal("expected a stage error")
	}
	if out != nil {
		t.Errorf("expected no partial output, got %d items", len(out))
	}

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StageError, got %T", err)
	}
	if se.Stage != "map" {
		t.Errorf("expected map stage, got %q", se.Stage)
	}
}

func TestRunNormalizesOutput(t *testing.T) {
	p, err := New(Config{
		Map: map[string]any{
			"tagName": "li",
			"label":   "{name}",
		},
	})
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}

	out, err := p.Run([]any{map[string]any{"name": "x"}})
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if out[0].Kind != item.KindRenderable {
		t.Errorf("expected renderable output, got %v", out[0].Kind)
	}
	if v, _ := out[0].Get("label"); v != "x" {
		t.Errorf("expected label x, got %v", v)
	}
}

func TestMutablePropsFromObjectTemplate(t *testing.T) {
	p, err := New(Config{
		Map: map[string]any{
			"tagName": "x",
			"label":   func(it any, _ int) any { return it },
		},
	})
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}

	props, known := p.MutableProps()
	if !known {
		t.Fatal("expected analyzable template")
	}
	if !props["label"] || props["tagName"] {
		t.Errorf("expected only label mutable, got %v", props)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"unknown operator", Config{Filter: []FilterCriterion{{Prop("x"), Operator("~"), Lit(1)}}}},
		{"sort without accessor", Config{Sort: []SortCriterion{{By: Lit(1)}}}},
		{"bad template", Config{Map: 42}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
