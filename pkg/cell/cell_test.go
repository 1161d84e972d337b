package cell

import (
	"sync"
	"testing"
)

// testListener counts dirty notifications for assertions.
type testListener struct {
	id         uint64
	mu         sync.Mutex
	dirtyCount int
}

func newTestListener(g *Graph) *testListener {
	return &testListener{id: g.nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirtyCount++
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

// withListener runs fn with l installed as the tracked listener.
func withListener(g *Graph, l Listener, fn func()) {
	old := g.swapListener(l)
	defer g.swapListener(old)
	fn()
}

func TestCellBasic(t *testing.T) {
	g := NewGraph()
	count := New(g, 0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestCellPeek(t *testing.T) {
	g := NewGraph()
	count := New(g, 42)
	listener := newTestListener(g)

	withListener(g, listener, func() {
		if v := count.Peek(); v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	})

	count.Set(100)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Peek should not subscribe listener, got %d notifications", listener.getDirtyCount())
	}
}

func TestCellSubscription(t *testing.T) {
	g := NewGraph()
	count := New(g, 0)
	listener := newTestListener(g)

	withListener(g, listener, func() {
		_ = count.Get()
	})

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}

	// Same value should not notify
	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("same value should not notify, got %d", listener.getDirtyCount())
	}

	count.Set(2)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications, got %d", listener.getDirtyCount())
	}
}

func TestCellNoTrackingOutsideEvaluation(t *testing.T) {
	g := NewGraph()
	count := New(g, 0)
	listener := newTestListener(g)

	// Read with no listener installed
	_ = count.Get()

	withListener(g, listener, func() {
		// No read here
	})

	count.Set(1)
	if listener.getDirtyCount() != 0 {
		t.Errorf("expected 0 notifications when not tracking, got %d", listener.getDirtyCount())
	}
}

func TestCellIndependentGraphs(t *testing.T) {
	g1 := NewGraph()
	g2 := NewGraph()
	a := New(g1, 1)
	listener := newTestListener(g2)

	// Tracking in g2 must not subscribe to reads of g1 cells
	withListener(g2, listener, func() {
		_ = a.Get()
	})

	a.Set(2)
	if listener.getDirtyCount() != 0 {
		t.Errorf("cross-graph read should not subscribe, got %d notifications", listener.getDirtyCount())
	}
}

func TestCellIdentityCheck(t *testing.T) {
	g := NewGraph()

	t.Run("slice same view is unchanged", func(t *testing.T) {
		s := []int{1, 2, 3}
		c := New(g, s)
		listener := newTestListener(g)
		withListener(g, listener, func() { _ = c.Get() })

		c.Set(s)
		if listener.getDirtyCount() != 0 {
			t.Errorf("same slice should not notify, got %d", listener.getDirtyCount())
		}

		c.Set([]int{1, 2, 3})
		if listener.getDirtyCount() != 1 {
			t.Errorf("distinct slice should notify, got %d", listener.getDirtyCount())
		}
	})

	t.Run("pointer identity", func(t *testing.T) {
		type box struct{ n int }
		p := &box{n: 1}
		c := New(g, p)
		listener := newTestListener(g)
		withListener(g, listener, func() { _ = c.Get() })

		c.Set(p)
		if listener.getDirtyCount() != 0 {
			t.Errorf("same pointer should not notify, got %d", listener.getDirtyCount())
		}

		c.Set(&box{n: 1})
		if listener.getDirtyCount() != 1 {
			t.Errorf("distinct pointer should notify, got %d", listener.getDirtyCount())
		}
	})

	t.Run("struct values always notify", func(t *testing.T) {
		type pair struct{ a, b int }
		c := New(g, pair{1, 2})
		listener := newTestListener(g)
		withListener(g, listener, func() { _ = c.Get() })

		c.Set(pair{1, 2})
		if listener.getDirtyCount() != 1 {
			t.Errorf("struct set should notify, got %d", listener.getDirtyCount())
		}
	})
}

func TestCellWithEquals(t *testing.T) {
	g := NewGraph()
	type pair struct{ a, b int }
	c := New(g, pair{1, 2}).WithEquals(func(x, y pair) bool { return x == y })
	listener := newTestListener(g)
	withListener(g, listener, func() { _ = c.Get() })

	c.Set(pair{1, 2})
	if listener.getDirtyCount() != 0 {
		t.Errorf("custom equality should suppress notify, got %d", listener.getDirtyCount())
	}

	c.Set(pair{3, 4})
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}
}

func TestCellUnsubscribe(t *testing.T) {
	g := NewGraph()
	count := New(g, 0)
	listener := newTestListener(g)

	withListener(g, listener, func() {
		_ = count.Get()
	})
	count.base.unsubscribe(listener)

	count.Set(1)
	if listener.getDirtyCount() != 0 {
		t.Errorf("unsubscribed listener notified %d times", listener.getDirtyCount())
	}
}

func TestCellConcurrentAccess(t *testing.T) {
	g := NewGraph()
	count := New(g, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			count.Set(n)
			_ = count.Get()
		}(i)
	}
	wg.Wait()

	// Value is whichever writer landed last; the point is no race or panic.
	if v := count.Get(); v < 0 || v > 9 {
		t.Errorf("unexpected final value %d", v)
	}
}
