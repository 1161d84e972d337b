package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
)

func TestSubstitute(t *testing.T) {
	it := map[string]any{
		"name": "gopher",
		"n":    3,
		"user": map[string]any{"city": "berlin"},
	}

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no placeholders", "no placeholders"},
		{"single", "hello {name}", "hello gopher"},
		{"numeric", "count: {n}", "count: 3"},
		{"dotted path", "from {user.city}", "from berlin"},
		{"multiple", "{name}-{n}", "gopher-3"},
		{"missing", "x{absent}y", "xy"},
		{"unclosed", "brace { left open", "brace { left open"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := substitute(tc.in, it); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMapFunctionTemplate(t *testing.T) {
	src := []any{map[string]any{"n": 1}, map[string]any{"n": 2}}
	out := applyMapStage(func(it any, index int) any {
		n, _ := item.Number(it.(map[string]any)["n"])
		return n*10 + float64(index)
	}, src)

	if out[0] != 10.0 || out[1] != 21.0 {
		t.Errorf("expected [10 21], got %v", out)
	}
}

func TestMapStringTemplate(t *testing.T) {
	src := []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}
	out := applyMapStage("item-{name}", src)

	if out[0] != "item-a" || out[1] != "item-b" {
		t.Errorf("expected [item-a item-b], got %v", out)
	}
}

func TestMapObjectTemplate(t *testing.T) {
	src := []any{map[string]any{"name": "ada", "score": 7}}
	tmpl := map[string]any{
		"tagName": "li",
		"label":   func(it any, _ int) any { return it.(map[string]any)["name"] },
		"title":   "score {score}",
		"static":  42,
		"nested": map[string]any{
			"deep": func(it any, _ int) any { return it.(map[string]any)["score"] },
		},
		"list": []any{"{name}", "fixed"},
	}

	out := applyMapStage(tmpl, src)

	want := map[string]any{
		"tagName": "li",
		"label":   "ada",
		"title":   "score 7",
		"static":  42,
		"nested":  map[string]any{"deep": 7},
		"list":    []any{"ada", "fixed"},
	}
	if diff := cmp.Diff(want, out[0]); diff != "" {
		t.Errorf("object template output mismatch (-want +got):\n%s", diff)
	}
}

func TestMapNilTemplateIdentity(t *testing.T) {
	src := []any{map[string]any{"n": 1}}
	out := applyMapStage(nil, src)
	if len(out) != 1 || !item.Equal(out[0], src[0]) {
		t.Errorf("nil template should pass items through")
	}
}

func TestAnalyzeTemplate(t *testing.T) {
	tmpl := map[string]any{
		"tagName": "x",
		"label":   func(it any, _ int) any { return it },
		"title":   "hello {name}",
		"static":  "no placeholders",
		"nested":  map[string]any{"deep": func(it any, _ int) any { return it }},
		"fixed":   map[string]any{"deep": 1},
	}

	mutable, known := analyzeTemplate(tmpl)
	if !known {
		t.Fatal("object template should be analyzable")
	}

	wantMutable := []string{"label", "title", "nested"}
	for _, k := range wantMutable {
		if !mutable[k] {
			t.Errorf("expected %q to be mutable", k)
		}
	}
	wantStatic := []string{"tagName", "static", "fixed"}
	for _, k := range wantStatic {
		if mutable[k] {
			t.Errorf("expected %q to be static", k)
		}
	}
}

func TestAnalyzeTemplateUnknownForms(t *testing.T) {
	if _, known := analyzeTemplate(nil); known {
		t.Error("nil template should not be analyzable")
	}
	if _, known := analyzeTemplate("{name}"); known {
		t.Error("string template should not be analyzable")
	}
	if _, known := analyzeTemplate(func(it any, _ int) any { return it }); known {
		t.Error("function template should not be analyzable")
	}
}
