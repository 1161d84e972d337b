package collection

import (
	"fmt"
	"log/slog"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
	"github.com/declarative-dom/ddom-sub003/pkg/item"
	"github.com/declarative-dom/ddom-sub003/pkg/pipeline"
)

// ConfigError reports an invalid collection configuration. It is fatal
// for that collection's construction; nothing is mounted and no partial
// state is left behind.
type ConfigError struct {
	// Field names the offending config field.
	Field string

	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ddom: collection config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Config describes one derived collection: the input source plus the
// pipeline stages applied to it, in fixed filter, sort, map, compose
// order.
type Config struct {
	// Items names the input source.
	Items Source

	Filter []pipeline.FilterCriterion
	Sort   []pipeline.SortCriterion

	// Map is a func, string, or object template. See pipeline.Config.
	Map any

	// Prepend and Append are spliced after mapping, exempt from filter
	// and sort.
	Prepend []any
	Append  []any
}

// Option configures a Collection.
type Option func(*options)

type options struct {
	logger *slog.Logger
	scope  Scope
}

// WithLogger sets the logger for evaluation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScope supplies the lookup scope for Ref sources.
func WithScope(scope Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// Collection derives a display-ready item snapshot from a source through
// a pipeline. The snapshot is itself a derived cell: watch it through
// the graph, or read it from other derived computations.
type Collection struct {
	graph  *cell.Graph
	pipe   *pipeline.Pipeline
	source cell.Reader[[]any]
	items  *cell.Derived[[]item.Item]
	logger *slog.Logger
}

// New builds a collection on the given graph. Configuration problems
// are ConfigErrors; a successfully built collection never fails, it
// degrades.
func New(g *cell.Graph, cfg Config, opts ...Option) (*Collection, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Items == nil {
		return nil, &ConfigError{Field: "items", Err: ErrNilSource}
	}
	pipe, err := pipeline.New(pipeline.Config{
		Filter:  cfg.Filter,
		Sort:    cfg.Sort,
		Map:     cfg.Map,
		Prepend: cfg.Prepend,
		Append:  cfg.Append,
	})
	if err != nil {
		return nil, &ConfigError{Field: "pipeline", Err: err}
	}
	source, err := cfg.Items.resolve(g, o.scope)
	if err != nil {
		return nil, &ConfigError{Field: "items", Err: err}
	}

	c := &Collection{
		graph:  g,
		pipe:   pipe,
		source: source,
		logger: o.logger,
	}
	c.items = cell.Derive(g, c.evaluate)
	return c, nil
}

// evaluate runs the pipeline over the current source slice. The source
// read inside records the dependency edge. A stage failure publishes an
// empty snapshot with a warning; stale items must not outlive the input
// that produced them.
func (c *Collection) evaluate() []item.Item {
	raw := c.source.Get()
	out, err := c.pipe.Run(raw)
	if err != nil {
		c.logger.Warn("pipeline failed, publishing empty snapshot", "error", err)
		return []item.Item{}
	}
	return out
}

// Items returns the snapshot's derived cell handle, for watching or for
// composing into other derived values.
func (c *Collection) Items() *cell.Derived[[]item.Item] {
	return c.items
}

// Snapshot returns the current derived items, recomputing first if a
// dependency changed.
func (c *Collection) Snapshot() []item.Item {
	return c.items.Get()
}

// MutableProps forwards the pipeline's template analysis so a reconciler
// can bound its update cost.
func (c *Collection) MutableProps() (props map[string]bool, known bool) {
	return c.pipe.MutableProps()
}

// Dispose detaches the collection from the graph. The snapshot stops
// re-deriving; reads return the last value.
func (c *Collection) Dispose() {
	c.items.Dispose()
}
