package pipeline

import (
	"errors"
	"fmt"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
)

// ErrInvalidConfig reports a pipeline configuration that cannot be
// compiled: an unknown operator, a sort criterion without an accessor, or
// an unsupported template form.
var ErrInvalidConfig = errors.New("pipeline: invalid config")

// StageError wraps a failure inside one stage. The whole evaluation it
// belonged to is abandoned; no partial snapshot escapes.
type StageError struct {
	// Stage is the failing stage: filter, sort, map, or compose.
	Stage string

	// Err is the recovered failure.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Config describes the transformation applied to every snapshot.
type Config struct {
	// Filter keeps items satisfying every criterion.
	Filter []FilterCriterion

	// Sort orders items; later criteria break ties.
	Sort []SortCriterion

	// Map transforms each item: a function, a placeholder string, or an
	// object template. Nil passes items through.
	Map any

	// Prepend and Append are spliced around the mapped items untouched by
	// filter, sort, or map.
	Prepend []any
	Append  []any
}

// Pipeline is a compiled Config ready to transform snapshots.
type Pipeline struct {
	cfg Config

	// mutable is the analyzed set of data-derived output properties.
	mutable map[string]bool

	// analyzable is false when the template shape hides its outputs.
	analyzable bool
}

// New validates and compiles a config.
func New(cfg Config) (*Pipeline, error) {
	for i, c := range cfg.Filter {
		if !c.Op.Valid() {
			return nil, fmt.Errorf("filter criterion %d: unknown operator %q: %w", i, c.Op, ErrInvalidConfig)
		}
	}
	for i, c := range cfg.Sort {
		if c.By.Fn == nil && c.By.Prop == "" {
			return nil, fmt.Errorf("sort criterion %d: needs a property or accessor: %w", i, ErrInvalidConfig)
		}
	}
	switch cfg.Map.(type) {
	case nil, Accessor, func(any, int) any, string, map[string]any, item.Props:
	default:
		return nil, fmt.Errorf("map template %T unsupported: %w", cfg.Map, ErrInvalidConfig)
	}

	mutable, analyzable := analyzeTemplate(cfg.Map)
	return &Pipeline{
		cfg:        cfg,
		mutable:    mutable,
		analyzable: analyzable,
	}, nil
}

// MutableProps returns the output properties whose values derive from the
// item rather than static literals. known is false when the template
// could not be analyzed (nil, function, or string form); consumers then
// diff properties at update time instead.
func (p *Pipeline) MutableProps() (props map[string]bool, known bool) {
	if !p.analyzable {
		return nil, false
	}
	out := make(map[string]bool, len(p.mutable))
	for k, v := range p.mutable {
		out[k] = v
	}
	return out, true
}

// Run transforms one snapshot: filter, sort, map, then prepend/append,
// normalizing the result into items. If any stage fails the error wraps
// the stage name and Run returns no output at all.
func (p *Pipeline) Run(src []any) (out []item.Item, err error) {
	stage := "filter"
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &StageError{Stage: stage, Err: asError(r)}
		}
	}()

	filtered := applyFilter(p.cfg.Filter, src)

	stage = "sort"
	sorted := applySort(p.cfg.Sort, filtered)

	stage = "map"
	mapped := applyMapStage(p.cfg.Map, sorted)

	stage = "compose"
	out = make([]item.Item, 0, len(p.cfg.Prepend)+len(mapped)+len(p.cfg.Append))
	for _, v := range p.cfg.Prepend {
		out = append(out, item.Normalize(v))
	}
	for _, v := range mapped {
		out = append(out, item.Normalize(v))
	}
	for _, v := range p.cfg.Append {
		out = append(out, item.Normalize(v))
	}
	return out, nil
}

// asError normalizes a recovered panic value.
func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
