package source

import (
	"fmt"
	"log/slog"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/cell"
	"github.com/declarative-dom/ddom-sub003/pkg/collection"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
)

// Option configures FromSpec and Bind.
type Option func(*options)

type options struct {
	logger *slog.Logger
	store  ObjectStore
}

// WithLogger routes provider warnings through l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObjectStore supplies the client s3 sources need.
func WithObjectStore(c ObjectStore) Option {
	return func(o *options) { o.store = c }
}

// FromSpec constructs the provider a source declaration names.
func FromSpec(g *cell.Graph, spec declare.SourceSpec, opts ...Option) (Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch spec.Kind {
	case declare.KindLiteral:
		return NewStatic(g, spec.Items), nil
	case declare.KindFile:
		return NewFile(g, FileConfig{
			Path:     spec.Path,
			Interval: spec.Interval,
			Logger:   o.logger,
		})
	case declare.KindHTTP:
		return NewHTTP(g, HTTPConfig{
			URL:      spec.URL,
			Interval: spec.Interval,
			Logger:   o.logger,
		})
	case declare.KindBolt:
		return NewBolt(g, BoltConfig{
			Path:     spec.Path,
			Bucket:   spec.Bucket,
			Interval: spec.Interval,
			Logger:   o.logger,
		})
	case declare.KindS3:
		return NewS3(g, S3Config{
			Client:   o.store,
			Bucket:   spec.Bucket,
			Key:      spec.Key,
			Interval: spec.Interval,
			Logger:   o.logger,
		})
	default:
		return nil, diag.New("DDM007").
			WithDetail(fmt.Sprintf("source %q has kind %q", spec.Name, spec.Kind))
	}
}

// Bind constructs one provider per declared source and returns them
// keyed by name, together with a scope binding every source cell for
// collection.New. On failure the providers created so far are stopped.
func Bind(g *cell.Graph, specs []declare.SourceSpec, opts ...Option) (map[string]Provider, collection.Scope, error) {
	providers := make(map[string]Provider, len(specs))
	scope := make(collection.Scope, len(specs))

	for _, spec := range specs {
		p, err := FromSpec(g, spec, opts...)
		if err != nil {
			for _, prev := range providers {
				prev.Stop()
			}
			return nil, nil, fmt.Errorf("source %q: %w", spec.Name, err)
		}
		providers[spec.Name] = p
		scope[spec.Name] = p.Cell()
	}

	return providers, scope, nil
}
