package cell

import (
	"context"
	"testing"
	"time"
)

func TestWatchCoalescesBurst(t *testing.T) {
	g := NewGraph()
	count := New(g, 0)
	total := Derive(g, func() int { return count.Get() })

	runs := 0
	var seen int
	g.Watch(total, func() {
		runs++
		seen = total.Get()
	})
	_ = total.Get() // initial evaluation establishes edges

	count.Set(1)
	count.Set(2)
	count.Set(3)
	g.Flush()

	if runs != 1 {
		t.Errorf("expected 1 notification for burst, got %d", runs)
	}
	if seen != 3 {
		t.Errorf("expected final state 3, got %d", seen)
	}

	// Idle flush does nothing
	g.Flush()
	if runs != 1 {
		t.Errorf("idle flush ran watcher, runs=%d", runs)
	}
}

func TestBatchFlushesOnce(t *testing.T) {
	g := NewGraph()
	first := New(g, "")
	last := New(g, "")
	full := Derive(g, func() string { return first.Get() + " " + last.Get() })

	runs := 0
	g.Watch(full, func() {
		runs++
		_ = full.Get()
	})
	_ = full.Get()

	g.Batch(func() {
		first.Set("Ada")
		last.Set("Lovelace")
	})

	if runs != 1 {
		t.Errorf("expected 1 run after batch, got %d", runs)
	}
	if v := full.Peek(); v != "Ada Lovelace" {
		t.Errorf("expected %q, got %q", "Ada Lovelace", v)
	}
}

func TestBatchNesting(t *testing.T) {
	g := NewGraph()
	n := New(g, 0)
	v := Derive(g, func() int { return n.Get() })

	runs := 0
	g.Watch(v, func() {
		runs++
		_ = v.Get()
	})
	_ = v.Get()

	g.Batch(func() {
		n.Set(1)
		g.Batch(func() {
			n.Set(2)
		})
		if runs != 0 {
			t.Errorf("inner batch end flushed early, runs=%d", runs)
		}
		n.Set(3)
	})

	if runs != 1 {
		t.Errorf("expected single flush at outermost batch end, got %d", runs)
	}
}

func TestWatcherDispose(t *testing.T) {
	g := NewGraph()
	n := New(g, 0)
	v := Derive(g, func() int { return n.Get() })

	runs := 0
	w := g.Watch(v, func() {
		runs++
		_ = v.Get()
	})
	_ = v.Get()

	n.Set(1)
	g.Flush()
	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}

	w.Dispose()
	if !w.Disposed() {
		t.Error("Disposed() should report true")
	}
	_ = v.Get() // revalidate so the next set propagates
	n.Set(2)
	g.Flush()
	if runs != 1 {
		t.Errorf("disposed watcher ran, runs=%d", runs)
	}
}

func TestWatcherDisposedWhileQueued(t *testing.T) {
	g := NewGraph()
	n := New(g, 0)
	v := Derive(g, func() int { return n.Get() })

	runs := 0
	w := g.Watch(v, func() {
		runs++
	})
	_ = v.Get()

	n.Set(1)
	// Queued but not yet flushed
	w.Dispose()
	g.Flush()

	if runs != 0 {
		t.Errorf("watcher disposed before flush still ran %d times", runs)
	}
}

func TestFlushDrainsNotifyTimeChanges(t *testing.T) {
	g := NewGraph()
	a := New(g, 0)
	b := New(g, 0)
	av := Derive(g, func() int { return a.Get() })
	bv := Derive(g, func() int { return b.Get() })

	bRuns := 0
	g.Watch(av, func() {
		// A notification that mutates another watched cell
		b.Set(av.Get())
	})
	g.Watch(bv, func() {
		bRuns++
		_ = bv.Get()
	})
	_ = av.Get()
	_ = bv.Get()

	a.Set(7)
	g.Flush()

	if bRuns != 1 {
		t.Errorf("expected cascaded watcher to run in same flush, got %d", bRuns)
	}
	if bv.Peek() != 7 {
		t.Errorf("expected cascaded value 7, got %d", bv.Peek())
	}
}

func TestWatcherPanicDoesNotAbortFlush(t *testing.T) {
	g := NewGraph()
	n := New(g, 0)
	v := Derive(g, func() int { return n.Get() })

	secondRan := false
	g.Watch(v, func() {
		panic("notify failed")
	})
	g.Watch(v, func() {
		secondRan = true
		_ = v.Get()
	})
	_ = v.Get()

	n.Set(1)
	g.Flush()

	if !secondRan {
		t.Error("second watcher should run despite first panicking")
	}

	select {
	case err := <-g.Errors():
		if err == nil {
			t.Error("expected non-nil error")
		}
	default:
		t.Error("expected panic to be reported on error channel")
	}

	stats := g.Scheduler().Stats()
	if stats.Failures != 1 {
		t.Errorf("expected 1 failure in stats, got %d", stats.Failures)
	}
	if stats.Runs != 2 {
		t.Errorf("expected 2 runs in stats, got %d", stats.Runs)
	}
}

func TestUntracked(t *testing.T) {
	g := NewGraph()
	n := New(g, 1)
	reads := 0
	v := Derive(g, func() int {
		reads++
		var out int
		g.Untracked(func() {
			out = n.Get()
		})
		return out
	})

	if v.Get() != 1 {
		t.Fatalf("expected 1, got %d", v.Get())
	}

	// Untracked read means no edge: the set does not invalidate
	n.Set(2)
	if v.Get() != 1 {
		t.Errorf("untracked dependency invalidated cell, got %d", v.Get())
	}
	if reads != 1 {
		t.Errorf("expected 1 compute, got %d", reads)
	}
}

func TestSchedulerRunLoop(t *testing.T) {
	g := NewGraph()
	n := New(g, 0)
	v := Derive(g, func() int { return n.Get() })

	got := make(chan int, 1)
	g.Watch(v, func() {
		got <- v.Get()
	})
	_ = v.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- g.Scheduler().Run(ctx) }()

	g.Scheduler().Dispatch(func() {
		n.Set(1)
		n.Set(2)
	})

	select {
	case val := <-got:
		if val != 2 {
			t.Errorf("expected 2 from loop flush, got %d", val)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loop flush")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loop exit")
	}

	// After stop, dispatch discards silently
	g.Scheduler().Dispatch(func() { n.Set(99) })
	if n.Peek() == 99 {
		t.Error("dispatch after stop should not run")
	}
}
