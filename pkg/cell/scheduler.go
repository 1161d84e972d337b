package cell

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

const (
	// dispatchQueueSize bounds callbacks waiting for the scheduler loop.
	dispatchQueueSize = 64

	// errorQueueSize bounds undelivered evaluation errors.
	errorQueueSize = 16
)

// Scheduler coalesces watcher notifications into flushes. Cells mark
// watchers dirty synchronously; the watchers run together on the next
// flush, one run per watcher regardless of how many changes queued it.
//
// Two driving modes share one scheduler. Library and test code calls
// Graph.Flush (or Graph.Batch) at its own tick boundaries. Long-lived
// processes run the loop instead: Run flushes after every wakeup and every
// dispatched callback, so goroutines feeding cells hand their mutations to
// Dispatch and never touch the graph directly.
type Scheduler struct {
	graph *Graph

	// queue holds watchers awaiting the next flush.
	queue []*Watcher

	// mu protects the queue.
	mu sync.Mutex

	// wake signals the run loop that the queue is non-empty.
	wake chan struct{}

	// dispatchCh carries mutation callbacks onto the loop goroutine.
	dispatchCh chan func()

	// errs delivers evaluation failures to whoever drains Graph.Errors.
	errs chan error

	// flushing prevents re-entrant flushes.
	flushing atomic.Bool

	// closed marks the loop as stopped; Dispatch discards afterwards.
	closed atomic.Bool

	flushes  atomic.Uint64
	runs     atomic.Uint64
	failures atomic.Uint64
}

// SchedulerStats is a point-in-time snapshot of scheduler activity.
type SchedulerStats struct {
	// Flushes is the number of non-empty flush passes.
	Flushes uint64

	// Runs is the number of watcher notifications executed.
	Runs uint64

	// Failures counts evaluation errors and notify panics.
	Failures uint64
}

func newScheduler(g *Graph) *Scheduler {
	return &Scheduler{
		graph:      g,
		wake:       make(chan struct{}, 1),
		dispatchCh: make(chan func(), dispatchQueueSize),
		errs:       make(chan error, errorQueueSize),
	}
}

// enqueue adds a watcher to the pending queue and signals the loop.
func (s *Scheduler) enqueue(w *Watcher) {
	s.mu.Lock()
	s.queue = append(s.queue, w)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
		// Loop already signalled.
	}
}

// Flush runs every queued watcher. Watchers queued by the notifications
// themselves are drained in the same call, so the graph is quiescent when
// Flush returns. Re-entrant calls return immediately; the outer flush
// picks up whatever they would have drained.
func (s *Scheduler) Flush() {
	if !s.flushing.CompareAndSwap(false, true) {
		return
	}
	defer s.flushing.Store(false)

	flushed := false
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			if flushed {
				s.flushes.Add(1)
			}
			return
		}
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		flushed = true
		for _, w := range batch {
			// Clear before running so changes made inside notify requeue.
			w.queued.Store(false)
			if w.disposed.Load() {
				continue
			}
			s.runNotify(w)
		}
	}
}

// runNotify executes one watcher callback, converting a panic into a
// reported error so the rest of the flush proceeds.
func (s *Scheduler) runNotify(w *Watcher) {
	defer func() {
		if r := recover(); r != nil {
			s.graph.logger.Error("watcher panic",
				"watcher_id", w.id,
				"panic", r,
				"stack", string(debug.Stack()))
			s.report(&EvalError{CellID: w.target.ID(), Err: recoveredError(r)})
		}
	}()

	s.runs.Add(1)
	w.notify()
}

// Run drives the graph until ctx is cancelled: it flushes on every wakeup
// and runs every dispatched callback (followed by a flush) in arrival
// order. All cell mutations and evaluations happen on this goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.closed.Store(true)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.dispatchCh:
			fn()
			s.Flush()
		case <-s.wake:
			s.Flush()
		}
	}
}

// Dispatch hands a mutation callback to the loop goroutine. Safe to call
// from any goroutine. If the loop has stopped or the queue is full the
// callback is discarded with a log line rather than blocking the caller.
func (s *Scheduler) Dispatch(fn func()) {
	if s.closed.Load() {
		return
	}
	select {
	case s.dispatchCh <- fn:
		// Successfully queued
	default:
		s.graph.logger.Warn("dispatch queue full, discarding callback")
	}
}

// Errors exposes evaluation failures. Drain it to observe them; an
// undrained channel drops overflow with a debug log instead of blocking.
func (s *Scheduler) Errors() <-chan error {
	return s.errs
}

// Stats returns a snapshot of scheduler counters.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Flushes:  s.flushes.Load(),
		Runs:     s.runs.Load(),
		Failures: s.failures.Load(),
	}
}

// report records an evaluation failure and offers it to the error channel.
func (s *Scheduler) report(err error) {
	s.failures.Add(1)
	select {
	case s.errs <- err:
	default:
		s.graph.logger.Debug("error channel full, dropping", slog.Any("error", err))
	}
}
