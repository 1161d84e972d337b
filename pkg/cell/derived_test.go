package cell

import (
	"errors"
	"testing"
)

func TestDerivedBasic(t *testing.T) {
	g := NewGraph()
	count := New(g, 2)
	double := Derive(g, func() int { return count.Get() * 2 })

	if double.Get() != 4 {
		t.Errorf("expected 4, got %d", double.Get())
	}

	count.Set(5)
	if double.Get() != 10 {
		t.Errorf("expected 10 after set, got %d", double.Get())
	}
}

func TestDerivedLaziness(t *testing.T) {
	g := NewGraph()
	count := New(g, 1)
	computes := 0
	double := Derive(g, func() int {
		computes++
		return count.Get() * 2
	})

	if computes != 0 {
		t.Fatalf("compute ran before first Get: %d", computes)
	}

	_ = double.Get()
	_ = double.Get()
	if computes != 1 {
		t.Errorf("expected 1 compute after repeated Get, got %d", computes)
	}

	// Several invalidations before a read recompute once
	count.Set(2)
	count.Set(3)
	if computes != 1 {
		t.Errorf("invalidation should not recompute eagerly, got %d", computes)
	}

	if double.Get() != 6 {
		t.Errorf("expected 6, got %d", double.Get())
	}
	if computes != 2 {
		t.Errorf("expected 2 computes total, got %d", computes)
	}
}

func TestDerivedChain(t *testing.T) {
	g := NewGraph()
	base := New(g, 1)
	double := Derive(g, func() int { return base.Get() * 2 })
	quad := Derive(g, func() int { return double.Get() * 2 })

	if quad.Get() != 4 {
		t.Errorf("expected 4, got %d", quad.Get())
	}

	base.Set(3)
	if quad.Get() != 12 {
		t.Errorf("expected 12, got %d", quad.Get())
	}
}

func TestDerivedDiamond(t *testing.T) {
	g := NewGraph()
	a := New(g, 1)
	b := Derive(g, func() int { return a.Get() * 2 })
	c := Derive(g, func() int { return a.Get() + 1 })
	computes := 0
	d := Derive(g, func() int {
		computes++
		return b.Get() + c.Get()
	})

	if d.Get() != 4 {
		t.Errorf("expected 4, got %d", d.Get())
	}
	if computes != 1 {
		t.Errorf("expected 1 compute, got %d", computes)
	}

	a.Set(2)
	if d.Get() != 7 {
		t.Errorf("expected 7, got %d", d.Get())
	}
	// Both branches invalidated d, but one read recomputes once.
	if computes != 2 {
		t.Errorf("expected 2 computes, got %d", computes)
	}
}

func TestDerivedDynamicDependencies(t *testing.T) {
	g := NewGraph()
	useFirst := New(g, true)
	first := New(g, "a")
	second := New(g, "b")
	computes := 0
	pick := Derive(g, func() string {
		computes++
		if useFirst.Get() {
			return first.Get()
		}
		return second.Get()
	})

	if pick.Get() != "a" {
		t.Fatalf("expected a, got %q", pick.Get())
	}

	// While reading first, changes to second are irrelevant
	second.Set("bb")
	_ = pick.Get()
	if computes != 1 {
		t.Errorf("unread branch change recomputed: %d computes", computes)
	}

	useFirst.Set(false)
	if pick.Get() != "bb" {
		t.Errorf("expected bb, got %q", pick.Get())
	}
	if computes != 2 {
		t.Errorf("expected 2 computes, got %d", computes)
	}

	// Edges were replaced: first no longer invalidates
	first.Set("aa")
	_ = pick.Get()
	if computes != 2 {
		t.Errorf("stale edge recomputed: %d computes", computes)
	}

	second.Set("bbb")
	if pick.Get() != "bbb" {
		t.Errorf("expected bbb, got %q", pick.Get())
	}
	if computes != 3 {
		t.Errorf("expected 3 computes, got %d", computes)
	}
}

func TestDerivedPanicKeepsValue(t *testing.T) {
	g := NewGraph()
	n := New(g, 1)
	boom := New(g, false)
	val := Derive(g, func() int {
		if boom.Get() {
			panic("compute failed")
		}
		return n.Get() * 10
	})

	if val.Get() != 10 {
		t.Fatalf("expected 10, got %d", val.Get())
	}

	boom.Set(true)
	if val.Get() != 10 {
		t.Errorf("failed compute should keep previous value, got %d", val.Get())
	}

	select {
	case err := <-g.Errors():
		var ee *EvalError
		if !errors.As(err, &ee) {
			t.Errorf("expected EvalError, got %T", err)
		} else if ee.CellID != val.ID() {
			t.Errorf("expected cell %d in error, got %d", val.ID(), ee.CellID)
		}
	default:
		t.Error("expected an error on the graph error channel")
	}

	// Recovery on the next dependency change
	boom.Set(false)
	n.Set(2)
	if val.Get() != 20 {
		t.Errorf("expected 20 after recovery, got %d", val.Get())
	}
}

func TestDerivedCycleReported(t *testing.T) {
	g := NewGraph()
	var self *Derived[int]
	self = Derive(g, func() int {
		// Reading itself is a cycle; recompute refuses to recurse.
		return self.Peek() + 1
	})

	if v := self.Get(); v != 1 {
		t.Errorf("expected 1 from cycle-guarded compute, got %d", v)
	}

	select {
	case err := <-g.Errors():
		if !errors.Is(err, ErrCycle) {
			t.Errorf("expected ErrCycle, got %v", err)
		}
	default:
		t.Error("expected cycle error on the graph error channel")
	}
}

func TestDerivedDispose(t *testing.T) {
	g := NewGraph()
	n := New(g, 1)
	computes := 0
	val := Derive(g, func() int {
		computes++
		return n.Get()
	})
	_ = val.Get()

	val.Dispose()
	n.Set(2)
	if val.Peek() != 1 {
		t.Errorf("disposed cell should keep last value, got %d", val.Peek())
	}
	if computes != 1 {
		t.Errorf("disposed cell recomputed: %d computes", computes)
	}
}

func TestDerivedSubscribesDownstream(t *testing.T) {
	g := NewGraph()
	n := New(g, 1)
	val := Derive(g, func() int { return n.Get() })
	listener := newTestListener(g)

	withListener(g, listener, func() {
		_ = val.Get()
	})

	n.Set(2)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification through derived, got %d", listener.getDirtyCount())
	}

	// A second invalidation without a read in between stays coalesced
	n.Set(3)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected invalidation to coalesce, got %d", listener.getDirtyCount())
	}

	_ = val.Get()
	n.Set(4)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications after revalidation, got %d", listener.getDirtyCount())
	}
}
