package ddom

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
	"github.com/declarative-dom/ddom-sub003/pkg/host"
	"github.com/declarative-dom/ddom-sub003/pkg/reconcile"
)

const engineDoc = `
source "users" {
  kind = "literal"
  items = [
    { id = "u1", name = "Ada", active = true },
    { id = "u2", name = "Linus", active = false },
    { id = "u3", name = "Grace", active = true },
  ]
}

collection "active" {
  items = "users"

  filter {
    prop = "active"
    op   = "?"
  }

  sort {
    by = "name"
  }

  template = { tagName = "li", key = "{id}", textContent = "{name}" }
}
`

func mustParse(t *testing.T, doc string) *declare.Spec {
	t.Helper()
	spec, err := declare.Parse("engine_test.ddom.hcl", []byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return spec
}

func TestEngineFromDocument(t *testing.T) {
	e, err := New(mustParse(t, engineDoc), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	u, ok := e.Unit("active")
	if !ok {
		t.Fatal("collection active not built")
	}

	res, ops := u.Sync()
	if res.Created != 2 {
		t.Errorf("created = %d, want 2", res.Created)
	}
	if len(ops) == 0 {
		t.Error("initial pass recorded no host operations")
	}

	html := u.HTML()
	if !strings.Contains(html, "Ada") || !strings.Contains(html, "Grace") {
		t.Errorf("html missing active users: %s", html)
	}
	if strings.Contains(html, "Linus") {
		t.Errorf("filtered user rendered: %s", html)
	}
	if strings.Index(html, "Ada") > strings.Index(html, "Grace") {
		t.Errorf("sort order lost: %s", html)
	}
}

func TestEngineSyncAll(t *testing.T) {
	e, err := New(mustParse(t, engineDoc), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	results := e.SyncAll()
	if res, ok := results["active"]; !ok || res.Created != 2 {
		t.Fatalf("results = %+v", results)
	}
}

func TestOpenMissingDocument(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.ddom.hcl"), Config{})
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != "DDM080" {
		t.Fatalf("err = %v, want DDM080", err)
	}
}

func TestNewFailsOnBrokenSource(t *testing.T) {
	doc := `
source "feed" {
  kind = "file"
  path = "/does/not/exist.json"
}

collection "all" {
  items = "feed"
}
`
	_, err := New(mustParse(t, doc), Config{})
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != "DDM040" {
		t.Fatalf("err = %v, want DDM040", err)
	}
}

func TestEngineScopeOverridesSource(t *testing.T) {
	scope := map[string]any{
		"users": []any{
			map[string]any{"id": "x1", "name": "Solo", "active": true},
		},
	}
	e, err := New(mustParse(t, engineDoc), Config{Scope: scope})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	u, _ := e.Unit("active")
	u.Sync()
	if html := u.HTML(); !strings.Contains(html, "Solo") || strings.Contains(html, "Ada") {
		t.Errorf("scope did not win over source: %s", html)
	}
}

func TestEngineSubscribe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a","n":1}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := `
source "feed" {
  kind     = "file"
  path     = "` + path + `"
  interval = "20ms"
}

collection "all" {
  items    = "feed"
  template = { tagName = "li", key = "{id}", textContent = "{id}" }
}
`
	e, err := New(mustParse(t, doc), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	type pass struct {
		name string
		res  reconcile.Result
		ops  []host.Op
	}
	passes := make(chan pass, 4)
	e.Subscribe(func(u *Unit, res reconcile.Result, ops []host.Op) {
		passes <- pass{name: u.Name, res: res, ops: ops}
	})

	u, _ := e.Unit("all")
	u.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	if err := os.WriteFile(path, []byte(`[{"id":"a","n":1},{"id":"b","n":2}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-passes:
		if p.name != "all" {
			t.Fatalf("pass for %q, want all", p.name)
		}
		if p.res.Created != 1 {
			t.Errorf("created = %d, want 1", p.res.Created)
		}
		if len(p.ops) == 0 {
			t.Error("pass carried no host operations")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reconcile pass after source change")
	}

	if html := u.HTML(); !strings.Contains(html, "b") {
		t.Errorf("new item missing from tree: %s", html)
	}
}

func TestEngineCloseIdempotent(t *testing.T) {
	e, err := New(mustParse(t, engineDoc), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Close()
	e.Close()
}
