package declare

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/collection"
	"github.com/declarative-dom/ddom-sub003/pkg/pipeline"
)

// SourceKind names where a source's items come from.
type SourceKind string

const (
	KindLiteral SourceKind = "literal"
	KindFile    SourceKind = "file"
	KindHTTP    SourceKind = "http"
	KindBolt    SourceKind = "bolt"
	KindS3      SourceKind = "s3"
)

// SourceSpec is a validated source declaration. Only the attributes the
// kind uses are set.
type SourceSpec struct {
	Name     string
	Kind     SourceKind
	Path     string
	URL      string
	Bucket   string
	Key      string
	Interval time.Duration
	Items    []any
}

// CollectionSpec is a validated collection declaration. Config is ready
// for collection.New once the caller supplies a scope binding Source.
type CollectionSpec struct {
	Name   string
	Source string
	Config collection.Config
}

// ServerSpec carries the optional server block. Zero values mean the
// caller's defaults apply.
type ServerSpec struct {
	Addr       string
	SessionTTL time.Duration
}

// Spec is the engine-ready form of a document.
type Spec struct {
	Sources     []SourceSpec
	Collections []CollectionSpec
	Server      ServerSpec
}

// Source returns the named source declaration.
func (s *Spec) Source(name string) (SourceSpec, bool) {
	for _, src := range s.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return SourceSpec{}, false
}

// Collection returns the named collection declaration.
func (s *Spec) Collection(name string) (CollectionSpec, bool) {
	for _, col := range s.Collections {
		if col.Name == name {
			return col, true
		}
	}
	return CollectionSpec{}, false
}

// Load reads and validates the document at path.
func Load(path string) (*Spec, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, diag.New("DDM080").WithDetail(path).Wrap(err)
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fromHCLDiags(diags)
	}
	return decode(file.Body)
}

// Parse validates a document held in memory. The filename only labels
// diagnostics.
func Parse(filename string, src []byte) (*Spec, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fromHCLDiags(diags)
	}
	return decode(file.Body)
}

func decode(body hcl.Body) (*Spec, error) {
	var doc Document
	if diags := gohcl.DecodeBody(body, nil, &doc); diags.HasErrors() {
		return nil, fromHCLDiags(diags)
	}
	return buildSpec(&doc)
}

// fromHCLDiags converts the first error diagnostic into a coded one,
// keeping the HCL detail and source position.
func fromHCLDiags(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		code := "DDM008"
		if strings.Contains(d.Summary, "Unsupported block type") {
			code = "DDM001"
		}
		e := diag.New(code).WithDetail(d.Detail)
		if d.Subject != nil {
			e = e.WithLocation(d.Subject.Filename, d.Subject.Start.Line, d.Subject.Start.Column)
		}
		return e
	}
	return nil
}

// locate points a diagnostic at an expression's position.
func locate(e *diag.Error, expr hcl.Expression) *diag.Error {
	r := expr.Range()
	return e.WithLocation(r.Filename, r.Start.Line, r.Start.Column)
}

func buildSpec(doc *Document) (*Spec, error) {
	if len(doc.Collections) == 0 {
		return nil, diag.New("DDM081")
	}

	spec := &Spec{}

	sources := make(map[string]bool, len(doc.Sources))
	for _, b := range doc.Sources {
		if sources[b.Name] {
			return nil, locate(diag.New("DDM004"), b.Kind).
				WithDetail(fmt.Sprintf("source %q declared twice", b.Name))
		}
		sources[b.Name] = true

		src, err := buildSource(b)
		if err != nil {
			return nil, err
		}
		spec.Sources = append(spec.Sources, src)
	}

	names := make(map[string]bool, len(doc.Collections))
	for _, b := range doc.Collections {
		if names[b.Name] {
			return nil, locate(diag.New("DDM004"), b.Items).
				WithDetail(fmt.Sprintf("collection %q declared twice", b.Name))
		}
		names[b.Name] = true

		col, err := buildCollection(sources, b)
		if err != nil {
			return nil, err
		}
		spec.Collections = append(spec.Collections, col)
	}

	if doc.Server != nil {
		spec.Server.Addr = doc.Server.Addr
		if doc.Server.SessionTTL != "" {
			ttl, err := time.ParseDuration(doc.Server.SessionTTL)
			if err != nil {
				return nil, diag.New("DDM008").
					WithDetail(fmt.Sprintf("server session_ttl %q is not a duration", doc.Server.SessionTTL)).
					Wrap(err)
			}
			spec.Server.SessionTTL = ttl
		}
	}

	return spec, nil
}

func buildSource(b *SourceBlock) (SourceSpec, error) {
	kindStr, err := evalString(b.Kind)
	if err != nil {
		return SourceSpec{}, locate(diag.New("DDM007"), b.Kind).Wrap(err)
	}

	spec := SourceSpec{
		Name:   b.Name,
		Kind:   SourceKind(kindStr),
		Path:   b.Path,
		URL:    b.URL,
		Bucket: b.Bucket,
		Key:    b.Key,
	}

	if b.Interval != "" {
		d, err := time.ParseDuration(b.Interval)
		if err != nil {
			return SourceSpec{}, locate(diag.New("DDM009"), b.Kind).
				WithDetail(fmt.Sprintf("source %q: interval %q is not a duration", b.Name, b.Interval)).
				Wrap(err)
		}
		spec.Interval = d
	}

	switch spec.Kind {
	case KindLiteral:
		if b.Items == nil {
			return missingAttr(b, spec.Kind, "items")
		}
		items, err := evalSlice(b.Items)
		if err != nil {
			return SourceSpec{}, locate(diag.New("DDM009"), b.Items).
				WithDetail(fmt.Sprintf("source %q: items did not evaluate", b.Name)).
				Wrap(err)
		}
		spec.Items = items
	case KindFile:
		if b.Path == "" {
			return missingAttr(b, spec.Kind, "path")
		}
	case KindHTTP:
		if b.URL == "" {
			return missingAttr(b, spec.Kind, "url")
		}
	case KindBolt:
		if b.Path == "" {
			return missingAttr(b, spec.Kind, "path")
		}
		if b.Bucket == "" {
			return missingAttr(b, spec.Kind, "bucket")
		}
	case KindS3:
		if b.Bucket == "" {
			return missingAttr(b, spec.Kind, "bucket")
		}
		if b.Key == "" {
			return missingAttr(b, spec.Kind, "key")
		}
	default:
		return SourceSpec{}, locate(diag.New("DDM007"), b.Kind).
			WithDetail(fmt.Sprintf("source %q has kind %q", b.Name, kindStr))
	}

	return spec, nil
}

func missingAttr(b *SourceBlock, kind SourceKind, attr string) (SourceSpec, error) {
	return SourceSpec{}, locate(diag.New("DDM009"), b.Kind).
		WithDetail(fmt.Sprintf("source %q of kind %q needs %s", b.Name, kind, attr))
}

func buildCollection(sources map[string]bool, b *CollectionBlock) (CollectionSpec, error) {
	itemsRef, err := evalString(b.Items)
	if err != nil {
		return CollectionSpec{}, locate(diag.New("DDM008"), b.Items).
			WithDetail(fmt.Sprintf("collection %q: items must name a source", b.Name)).
			Wrap(err)
	}
	if !sources[itemsRef] {
		return CollectionSpec{}, locate(diag.New("DDM003"), b.Items).
			WithDetail(fmt.Sprintf("collection %q references source %q", b.Name, itemsRef))
	}

	cfg := collection.Config{Items: collection.Ref(itemsRef)}

	for _, f := range b.Filters {
		crit, err := buildFilter(b.Name, f)
		if err != nil {
			return CollectionSpec{}, err
		}
		cfg.Filter = append(cfg.Filter, crit)
	}

	for _, s := range b.Sorts {
		if s.By == "" {
			return CollectionSpec{}, diag.New("DDM005").
				WithDetail(fmt.Sprintf("collection %q: sort needs a by property", b.Name))
		}
		cfg.Sort = append(cfg.Sort, pipeline.SortCriterion{By: pipeline.Prop(s.By), Desc: s.Desc})
	}

	if b.Template != nil {
		tv, err := evalExpr(b.Template)
		if err != nil {
			return CollectionSpec{}, locate(diag.New("DDM006"), b.Template).Wrap(err)
		}
		switch tv.(type) {
		case string, map[string]any:
			cfg.Map = tv
		default:
			return CollectionSpec{}, locate(diag.New("DDM006"), b.Template).
				WithDetail(fmt.Sprintf("collection %q: template must be a string or object, got %T", b.Name, tv))
		}
	}

	if b.Prepend != nil {
		if cfg.Prepend, err = evalSlice(b.Prepend); err != nil {
			return CollectionSpec{}, locate(diag.New("DDM008"), b.Prepend).
				WithDetail(fmt.Sprintf("collection %q: prepend did not evaluate", b.Name)).
				Wrap(err)
		}
	}
	if b.Append != nil {
		if cfg.Append, err = evalSlice(b.Append); err != nil {
			return CollectionSpec{}, locate(diag.New("DDM008"), b.Append).
				WithDetail(fmt.Sprintf("collection %q: append did not evaluate", b.Name)).
				Wrap(err)
		}
	}

	return CollectionSpec{Name: b.Name, Source: itemsRef, Config: cfg}, nil
}

func buildFilter(col string, f *FilterBlock) (pipeline.FilterCriterion, error) {
	opStr, err := evalString(f.Op)
	if err != nil {
		return pipeline.FilterCriterion{}, locate(diag.New("DDM002"), f.Op).
			WithDetail(fmt.Sprintf("collection %q: op must be a string", col)).
			Wrap(err)
	}
	op := pipeline.Operator(opStr)
	if !op.Valid() {
		return pipeline.FilterCriterion{}, locate(diag.New("DDM002"), f.Op).
			WithDetail(fmt.Sprintf("collection %q: unknown operator %q", col, opStr))
	}
	if f.Prop == "" {
		return pipeline.FilterCriterion{}, locate(diag.New("DDM002"), f.Op).
			WithDetail(fmt.Sprintf("collection %q: filter needs a prop", col))
	}

	crit := pipeline.FilterCriterion{Left: pipeline.Prop(f.Prop), Op: op}

	if f.Value != nil {
		rv, err := evalExpr(f.Value)
		if err != nil {
			return pipeline.FilterCriterion{}, locate(diag.New("DDM002"), f.Value).
				WithDetail(fmt.Sprintf("collection %q: filter value did not evaluate", col)).
				Wrap(err)
		}
		if rv == nil && !op.Unary() {
			return pipeline.FilterCriterion{}, locate(diag.New("DDM002"), f.Value).
				WithDetail(fmt.Sprintf("collection %q: operator %q needs a non-null value", col, opStr))
		}
		crit.Right = pipeline.Lit(rv)
	} else if !op.Unary() {
		return pipeline.FilterCriterion{}, locate(diag.New("DDM002"), f.Op).
			WithDetail(fmt.Sprintf("collection %q: operator %q needs a value", col, opStr))
	}

	return crit, nil
}
