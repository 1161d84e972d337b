package source

import (
	"path/filepath"
	"testing"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
	"github.com/declarative-dom/ddom-sub003/pkg/collection"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
)

func TestFromSpecLiteral(t *testing.T) {
	g := cell.NewGraph()
	p, err := FromSpec(g, declare.SourceSpec{
		Name:  "rows",
		Kind:  declare.KindLiteral,
		Items: []any{"a", "b"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := p.Cell().Peek(); len(got) != 2 {
		t.Errorf("got %d items, want 2", len(got))
	}
}

func TestFromSpecFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	writeItems(t, path, `[{"id":"a"}]`)

	g := cell.NewGraph()
	p, err := FromSpec(g, declare.SourceSpec{
		Name: "rows",
		Kind: declare.KindFile,
		Path: path,
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := p.Cell().Peek(); len(got) != 1 {
		t.Errorf("got %d items, want 1", len(got))
	}
}

func TestFromSpecS3WithoutClient(t *testing.T) {
	g := cell.NewGraph()
	_, err := FromSpec(g, declare.SourceSpec{
		Name:   "objects",
		Kind:   declare.KindS3,
		Bucket: "b",
		Key:    "k",
	})
	mustCode(t, err, "DDM043")
}

func TestFromSpecUnknownKind(t *testing.T) {
	g := cell.NewGraph()
	_, err := FromSpec(g, declare.SourceSpec{Name: "rows", Kind: "telepathy"})
	mustCode(t, err, "DDM007")
}

// Bind's scope must feed a collection built from a document config.
func TestBindBuildsCollectionScope(t *testing.T) {
	g := cell.NewGraph()
	providers, scope, err := Bind(g, []declare.SourceSpec{
		{Name: "rows", Kind: declare.KindLiteral, Items: []any{
			map[string]any{"id": "a", "n": float64(2)},
			map[string]any{"id": "b", "n": float64(1)},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(providers) != 1 {
		t.Fatalf("providers = %d, want 1", len(providers))
	}

	col, err := collection.New(g, collection.Config{Items: collection.Ref("rows")},
		collection.WithScope(scope))
	if err != nil {
		t.Fatal(err)
	}

	if snap := col.Snapshot(); len(snap) != 2 {
		t.Errorf("snapshot = %d items, want 2", len(snap))
	}

	// The provider cell stays live behind the scope.
	providers["rows"].Cell().Set([]any{map[string]any{"id": "c"}})
	g.Flush()
	if snap := col.Snapshot(); len(snap) != 1 {
		t.Errorf("snapshot after set = %d items, want 1", len(snap))
	}
}

func TestBindStopsOnFailure(t *testing.T) {
	g := cell.NewGraph()
	providers, scope, err := Bind(g, []declare.SourceSpec{
		{Name: "rows", Kind: declare.KindLiteral, Items: []any{"a"}},
		{Name: "objects", Kind: declare.KindS3, Bucket: "b", Key: "k"},
	})
	if err == nil {
		t.Fatal("want error for s3 source without client")
	}
	if providers != nil || scope != nil {
		t.Errorf("partial results returned: %v %v", providers, scope)
	}
}
