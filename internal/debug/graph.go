// Package debug renders a running engine's wiring as text: each source
// with its origin and current item count, each collection with its
// pipeline stages and host tree size. The graph subcommand prints it;
// tests use it to assert wiring without walking structs.
package debug

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	ddom "github.com/declarative-dom/ddom-sub003"
	"github.com/declarative-dom/ddom-sub003/pkg/collection"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
	"github.com/declarative-dom/ddom-sub003/pkg/host"
	"github.com/declarative-dom/ddom-sub003/pkg/item"
	"github.com/declarative-dom/ddom-sub003/pkg/pipeline"
)

// Dump writes the wiring of e to w. Counts reflect the moment of the
// call; run it after a sync for settled numbers.
func Dump(w io.Writer, e *ddom.Engine) error {
	_, err := io.WriteString(w, String(e))
	return err
}

// String renders the wiring of e.
func String(e *ddom.Engine) string {
	var sb strings.Builder
	spec := e.Spec()

	sb.WriteString("sources\n")
	if len(spec.Sources) == 0 {
		sb.WriteString("  (none)\n")
	}
	for i, src := range spec.Sources {
		branch := "├─> "
		if i == len(spec.Sources)-1 {
			branch = "└─> "
		}
		count := ""
		if p, ok := e.Provider(src.Name); ok {
			count = fmt.Sprintf("  (%d items)", len(p.Cell().Peek()))
		}
		sb.WriteString("  " + branch + src.Name + "  " + sourceDetail(src) + count + "\n")
	}

	sb.WriteString("collections\n")
	units := e.Units()
	if len(units) == 0 {
		sb.WriteString("  (none)\n")
	}
	for i, u := range units {
		branch, indent := "├─> ", "  │     "
		if i == len(units)-1 {
			branch, indent = "└─> ", "        "
		}

		cs, _ := spec.Collection(u.Name)
		items := u.Collection.Snapshot()
		nodes := countNodes(u.Host.Root) - 1
		sb.WriteString(fmt.Sprintf("  %s%s  items: %s  (%d items, %d nodes)\n",
			branch, u.Name, cs.Source, len(items), nodes))

		for _, line := range stageLines(cs.Config, u.Collection) {
			sb.WriteString(indent + line + "\n")
		}
	}

	return sb.String()
}

// sourceDetail describes where a source's items come from.
func sourceDetail(s declare.SourceSpec) string {
	var d string
	switch s.Kind {
	case declare.KindLiteral:
		d = "literal"
	case declare.KindFile:
		d = "file " + s.Path
	case declare.KindHTTP:
		d = "http " + s.URL
	case declare.KindBolt:
		d = "bolt " + s.Path + "#" + s.Bucket
	case declare.KindS3:
		d = "s3 " + s.Bucket + "/" + s.Key
	default:
		d = string(s.Kind)
	}
	if s.Interval > 0 {
		d += "  poll " + s.Interval.String()
	}
	return d
}

// stageLines describes a collection's pipeline, one stage per line.
func stageLines(cfg collection.Config, col *collection.Collection) []string {
	var lines []string

	if len(cfg.Filter) > 0 {
		parts := make([]string, len(cfg.Filter))
		for i, c := range cfg.Filter {
			parts[i] = criterionString(c)
		}
		lines = append(lines, "filter: "+strings.Join(parts, ", "))
	}
	if len(cfg.Sort) > 0 {
		parts := make([]string, len(cfg.Sort))
		for i, c := range cfg.Sort {
			s := operandString(c.By)
			if c.Desc {
				s = "-" + s
			}
			parts[i] = s
		}
		lines = append(lines, "sort: "+strings.Join(parts, ", "))
	}
	lines = append(lines, "map: "+templateString(cfg.Map))
	if len(cfg.Prepend) > 0 || len(cfg.Append) > 0 {
		lines = append(lines, fmt.Sprintf("splice: %d prepended, %d appended",
			len(cfg.Prepend), len(cfg.Append)))
	}

	if props, known := col.MutableProps(); known {
		if len(props) == 0 {
			lines = append(lines, "mutable: none")
		} else {
			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			sort.Strings(names)
			lines = append(lines, "mutable: "+strings.Join(names, ", "))
		}
	} else {
		lines = append(lines, "mutable: unknown")
	}

	return lines
}

func criterionString(c pipeline.FilterCriterion) string {
	if c.Op.Unary() {
		return string(c.Op) + " " + operandString(c.Left)
	}
	return operandString(c.Left) + " " + string(c.Op) + " " + operandString(c.Right)
}

func operandString(o pipeline.Operand) string {
	switch {
	case o.Fn != nil:
		return "fn()"
	case o.Prop != "":
		return o.Prop
	default:
		if s, ok := o.Value.(string); ok {
			return strconv.Quote(s)
		}
		return fmt.Sprintf("%v", o.Value)
	}
}

func templateString(tpl any) string {
	switch t := tpl.(type) {
	case nil:
		return "passthrough"
	case string:
		return strconv.Quote(t)
	case item.Props:
		return "template " + templateTag(t)
	case map[string]any:
		return "template " + templateTag(t)
	default:
		return "function"
	}
}

func templateTag(m map[string]any) string {
	if tag, ok := m[item.TagProperty].(string); ok && tag != "" {
		return tag
	}
	return "(no tag)"
}

// countNodes counts el and its descendants.
func countNodes(el *host.Element) int {
	n := 1
	for _, child := range el.Children() {
		n += countNodes(child)
	}
	return n
}
