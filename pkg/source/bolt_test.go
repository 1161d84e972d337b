package source

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

func writeBucket(t *testing.T, path, bucket string, entries map[string]string) {
	t.Helper()
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		for k, v := range entries {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBoltInitialLoadInKeyOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")
	writeBucket(t, path, "rows", map[string]string{
		"02": `{"id":"b"}`,
		"01": `{"id":"a"}`,
	})

	g := cell.NewGraph()
	p, err := NewBolt(g, BoltConfig{Path: path, Bucket: "rows"})
	if err != nil {
		t.Fatal(err)
	}

	items := p.Cell().Peek()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	first, ok := items[0].(map[string]any)
	if !ok || first["id"] != "a" {
		t.Errorf("first item = %v, want key order", items[0])
	}
}

func TestBoltMissingFile(t *testing.T) {
	g := cell.NewGraph()
	_, err := NewBolt(g, BoltConfig{
		Path:   filepath.Join(t.TempDir(), "nope.db"),
		Bucket: "rows",
	})
	mustCode(t, err, "DDM040")
}

func TestBoltMissingBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")
	writeBucket(t, path, "rows", map[string]string{"01": `{"id":"a"}`})

	g := cell.NewGraph()
	_, err := NewBolt(g, BoltConfig{Path: path, Bucket: "ghost"})
	mustCode(t, err, "DDM042")
}

func TestBoltValueNotJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")
	writeBucket(t, path, "rows", map[string]string{"01": `not-json`})

	g := cell.NewGraph()
	_, err := NewBolt(g, BoltConfig{Path: path, Bucket: "rows"})
	mustCode(t, err, "DDM044")
}

func TestBoltReloadOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")
	writeBucket(t, path, "rows", map[string]string{
		"01": `{"id":"a"}`,
		"02": `{"id":"b"}`,
	})

	g := cell.NewGraph()
	p, err := NewBolt(g, BoltConfig{Path: path, Bucket: "rows", Interval: 20 * time.Millisecond})
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

	writeBucket(t, path, "rows", map[string]string{"03": `{"id":"c"}`})

	select {
	case items := <-updates:
		if len(items) != 3 {
			t.Errorf("got %d items, want 3", len(items))
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for reload")
	}
}
