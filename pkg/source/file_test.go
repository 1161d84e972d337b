package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

func writeItems(t *testing.T, path, payload string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	writeItems(t, path, `[{"id":"a"},{"id":"b"}]`)

	g := cell.NewGraph()
	p, err := NewFile(g, FileConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}

	if got := p.Cell().Peek(); len(got) != 2 {
		t.Errorf("got %d items, want 2", len(got))
	}
}

func TestFileMissing(t *testing.T) {
	g := cell.NewGraph()
	_, err := NewFile(g, FileConfig{Path: filepath.Join(t.TempDir(), "nope.json")})
	mustCode(t, err, "DDM040")
}

func TestFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	writeItems(t, path, `{"not":"an array"}`)

	g := cell.NewGraph()
	_, err := NewFile(g, FileConfig{Path: path})
	mustCode(t, err, "DDM044")
}

func TestFileReloadOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	writeItems(t, path, `[{"id":"a"},{"id":"b"}]`)

	g := cell.NewGraph()
	p, err := NewFile(g, FileConfig{Path: path, Interval: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	updates := make(chan []any, 4)
	g.Watch(p.Cell(), func() {
		updates <- p.Cell().Peek()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Scheduler().Run(ctx)
	go p.Start(ctx)
	defer p.Stop()

	writeItems(t, path, `[{"id":"a"},{"id":"b"},{"id":"c"}]`)

	select {
	case items := <-updates:
		if len(items) != 3 {
			t.Errorf("got %d items, want 3", len(items))
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for reload")
	}
}

func TestFileKeepsItemsWhenFileVanishes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	writeItems(t, path, `[{"id":"a"}]`)

	g := cell.NewGraph()
	p, err := NewFile(g, FileConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	p.check()

	if got := p.Cell().Peek(); len(got) != 1 {
		t.Errorf("items after vanish = %v", got)
	}
}

func TestFileKeepsItemsAcrossPartialWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	writeItems(t, path, `[{"id":"a"}]`)

	g := cell.NewGraph()
	p, err := NewFile(g, FileConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}

	// A writer mid-flight leaves truncated JSON behind.
	writeItems(t, path, `[{"id":"a"},{"id":`)
	p.check()

	if got := p.Cell().Peek(); len(got) != 1 {
		t.Errorf("items after partial write = %v", got)
	}
}
