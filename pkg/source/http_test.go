package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

// feedServer is a JSON endpoint with a switchable payload and ETag.
type feedServer struct {
	mu      sync.Mutex
	payload string
	etag    string
}

func (f *feedServer) set(payload, etag string) {
	f.mu.Lock()
	f.payload = payload
	f.etag = etag
	f.mu.Unlock()
}

func (f *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	payload, etag := f.payload, f.etag
	f.mu.Unlock()

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, payload)
}

func TestHTTPInitialFetch(t *testing.T) {
	feed := &feedServer{payload: `[{"id":"a"}]`, etag: `"v1"`}
	ts := httptest.NewServer(feed)
	defer ts.Close()

	g := cell.NewGraph()
	p, err := NewHTTP(g, HTTPConfig{URL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	if got := p.Cell().Peek(); len(got) != 1 {
		t.Errorf("got %d items, want 1", len(got))
	}
	if p.etag != `"v1"` {
		t.Errorf("etag = %q", p.etag)
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	g := cell.NewGraph()
	_, err := NewHTTP(g, HTTPConfig{URL: ts.URL})
	mustCode(t, err, "DDM041")
}

func TestHTTPMalformedPayload(t *testing.T) {
	feed := &feedServer{payload: `{"not":"an array"}`, etag: `"v1"`}
	ts := httptest.NewServer(feed)
	defer ts.Close()

	g := cell.NewGraph()
	_, err := NewHTTP(g, HTTPConfig{URL: ts.URL})
	mustCode(t, err, "DDM044")
}

func TestHTTPConditionalPoll(t *testing.T) {
	feed := &feedServer{payload: `[{"id":"a"}]`, etag: `"v1"`}
	ts := httptest.NewServer(feed)
	defer ts.Close()

	g := cell.NewGraph()
	p, err := NewHTTP(g, HTTPConfig{URL: ts.URL, Interval: 20 * time.Millisecond})
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

	// Unchanged ETag answers 304 and publishes nothing.
	select {
	case items := <-updates:
		t.Fatalf("unexpected update %v while feed unchanged", items)
	case <-time.After(100 * time.Millisecond):
	}

	feed.set(`[{"id":"a"},{"id":"b"}]`, `"v2"`)

	select {
	case items := <-updates:
		if len(items) != 2 {
			t.Errorf("got %d items, want 2", len(items))
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for refetch")
	}
}
