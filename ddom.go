package ddom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
	"github.com/declarative-dom/ddom-sub003/pkg/collection"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
	"github.com/declarative-dom/ddom-sub003/pkg/host"
	"github.com/declarative-dom/ddom-sub003/pkg/reconcile"
	"github.com/declarative-dom/ddom-sub003/pkg/source"
)

// =============================================================================
// Engine
// =============================================================================

// Engine owns one reactive document: the signal graph, the providers
// feeding its source cells, and one reconciled host tree per declared
// collection.
//
// Construction is eager. Every source loads once and every collection
// evaluates against real data, so a bad path, an unreachable URL, or a
// broken pipeline config surfaces as an error from New rather than
// later at runtime.
type Engine struct {
	spec      *declare.Spec
	graph     *cell.Graph
	providers map[string]source.Provider
	units     []*Unit
	byName    map[string]*Unit
	watchers  []*cell.Watcher
	logger    *slog.Logger

	closeOnce sync.Once
}

// Unit is one collection wired to its own host tree. The reconciler
// keeps Host.Root in step with the collection's items; the journal in
// Host records every mutation of a pass until Sync drains it.
type Unit struct {
	Name       string
	Collection *collection.Collection
	Host       *host.Host
	Reconciler *reconcile.Reconciler
}

// Open loads a document from disk and builds its engine.
func Open(path string, cfg Config) (*Engine, error) {
	spec, err := declare.Load(path)
	if err != nil {
		return nil, err
	}
	return New(spec, cfg)
}

// New builds an engine for an already loaded document.
func New(spec *declare.Spec, cfg Config) (*Engine, error) {
	logger := cfg.logger()
	g := cell.NewGraph(cell.WithLogger(logger))

	srcOpts := []source.Option{source.WithLogger(logger)}
	if cfg.ObjectStore != nil {
		srcOpts = append(srcOpts, source.WithObjectStore(cfg.ObjectStore))
	}

	providers, scope, err := source.Bind(g, spec.Sources, srcOpts...)
	if err != nil {
		return nil, err
	}
	for name, v := range cfg.Scope {
		scope[name] = v
	}

	e := &Engine{
		spec:      spec,
		graph:     g,
		providers: providers,
		byName:    make(map[string]*Unit, len(spec.Collections)),
		logger:    logger,
	}

	for _, cs := range spec.Collections {
		col, err := collection.New(g, cs.Config,
			collection.WithScope(scope),
			collection.WithLogger(logger))
		if err != nil {
			e.stopProviders()
			return nil, fmt.Errorf("collection %q: %w", cs.Name, err)
		}

		h := host.NewHost()
		recOpts := []reconcile.Option{reconcile.WithLogger(logger)}
		if props, known := col.MutableProps(); known {
			recOpts = append(recOpts, reconcile.WithMutableProps(props))
		}

		u := &Unit{
			Name:       cs.Name,
			Collection: col,
			Host:       h,
			Reconciler: reconcile.New(h.Factory, h.Tree, h.Root, recOpts...),
		}
		e.units = append(e.units, u)
		e.byName[cs.Name] = u
	}

	return e, nil
}

// =============================================================================
// Accessors
// =============================================================================

// Spec returns the document this engine was built from.
func (e *Engine) Spec() *declare.Spec { return e.spec }

// Graph returns the engine's signal graph.
func (e *Engine) Graph() *cell.Graph { return e.graph }

// Units returns the engine's collections in document order.
func (e *Engine) Units() []*Unit { return e.units }

// Unit looks up a collection by name.
func (e *Engine) Unit(name string) (*Unit, bool) {
	u, ok := e.byName[name]
	return u, ok
}

// Provider looks up a source's provider by name, exposing its cell.
func (e *Engine) Provider(name string) (source.Provider, bool) {
	p, ok := e.providers[name]
	return p, ok
}

// Errors exposes evaluation failures from the graph. Drain it to
// observe them; overflow is dropped, never blocking the scheduler.
func (e *Engine) Errors() <-chan error { return e.graph.Errors() }

// =============================================================================
// Driving the engine
// =============================================================================

// Run starts every source poller and then drives the scheduler loop,
// blocking until ctx is cancelled. All cell writes and subscriber
// callbacks happen on this goroutine.
func (e *Engine) Run(ctx context.Context) error {
	for name, p := range e.providers {
		name, p := name, p
		go func() {
			err := p.Start(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Warn("source poller exited", "source", name, "error", err)
			}
		}()
	}
	return e.graph.Scheduler().Run(ctx)
}

// Subscribe arranges for fn to run after any collection's items
// settle, carrying the reconcile result and the host operations the
// pass recorded. Callbacks run on the scheduler goroutine during
// flush, in dependency order, never concurrently.
//
// Subscribing does not produce an initial callback; call Sync on each
// unit first when the current tree state is wanted up front.
func (e *Engine) Subscribe(fn func(u *Unit, res reconcile.Result, ops []host.Op)) {
	for _, u := range e.units {
		u := u
		w := e.graph.Watch(u.Collection.Items(), func() {
			res, ops := u.Sync()
			fn(u, res, ops)
		})
		e.watchers = append(e.watchers, w)
	}
}

// SyncAll reconciles every collection once and returns the results by
// name. Recorded host operations are discarded; use Subscribe or
// Unit.Sync to observe them.
func (e *Engine) SyncAll() map[string]reconcile.Result {
	results := make(map[string]reconcile.Result, len(e.units))
	for _, u := range e.units {
		res, _ := u.Sync()
		results[u.Name] = res
	}
	return results
}

// Close stops the source pollers and disposes the watchers and
// collections. Host trees stay readable after Close. Safe to call
// more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		for _, w := range e.watchers {
			w.Dispose()
		}
		for _, u := range e.units {
			u.Collection.Dispose()
		}
		e.stopProviders()
	})
}

func (e *Engine) stopProviders() {
	for _, p := range e.providers {
		p.Stop()
	}
}

// =============================================================================
// Unit operations
// =============================================================================

// Sync reconciles the collection's current items into its host tree
// and returns the pass result with the drained host operations. Must
// run on the scheduler goroutine once Run has started; before that,
// calling it directly is fine.
func (u *Unit) Sync() (reconcile.Result, []host.Op) {
	res := u.Reconciler.Apply(u.Collection.Snapshot())
	return res, u.Host.Journal.Drain()
}

// HTML renders the unit's current host tree.
func (u *Unit) HTML() string {
	return host.HTML(u.Host.Root)
}
