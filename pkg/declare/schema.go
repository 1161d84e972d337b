package declare

import (
	"github.com/hashicorp/hcl/v2"
)

// FilterBlock is one `filter` block inside a collection. The operator and
// value stay unevaluated so diagnostics can point at them.
type FilterBlock struct {
	Prop  string         `hcl:"prop"`
	Op    hcl.Expression `hcl:"op"`
	Value hcl.Expression `hcl:"value,optional"`
}

// SortBlock is one `sort` block inside a collection. Later blocks break
// ties left by earlier ones.
type SortBlock struct {
	By   string `hcl:"by"`
	Desc bool   `hcl:"desc,optional"`
}

// CollectionBlock is a `collection` block from a document. Items stays
// unevaluated so unresolved-reference diagnostics can point at it.
type CollectionBlock struct {
	Name     string         `hcl:"name,label"`
	Items    hcl.Expression `hcl:"items"`
	Filters  []*FilterBlock `hcl:"filter,block"`
	Sorts    []*SortBlock   `hcl:"sort,block"`
	Template hcl.Expression `hcl:"template,optional"`
	Prepend  hcl.Expression `hcl:"prepend,optional"`
	Append   hcl.Expression `hcl:"append,optional"`
}

// SourceBlock is a `source` block from a document. Which attributes are
// required depends on the kind; buildSource enforces that.
type SourceBlock struct {
	Name     string         `hcl:"name,label"`
	Kind     hcl.Expression `hcl:"kind"`
	Path     string         `hcl:"path,optional"`
	URL      string         `hcl:"url,optional"`
	Bucket   string         `hcl:"bucket,optional"`
	Key      string         `hcl:"key,optional"`
	Interval string         `hcl:"interval,optional"`
	Items    hcl.Expression `hcl:"items,optional"`
}

// ServerBlock is the optional `server` block.
type ServerBlock struct {
	Addr       string `hcl:"addr,optional"`
	SessionTTL string `hcl:"session_ttl,optional"`
}

// Document is the top-level shape of a parsed file. It has no remain
// body, so unknown blocks and attributes fail the decode.
type Document struct {
	Sources     []*SourceBlock     `hcl:"source,block"`
	Collections []*CollectionBlock `hcl:"collection,block"`
	Server      *ServerBlock       `hcl:"server,block"`
}
