package host

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/declarative-dom/ddom-sub003/pkg/item"
)

// RendererConfig configures the HTML snapshot renderer.
type RendererConfig struct {
	// Pretty enables indented output with one element per line.
	// Development and CLI use only; it changes whitespace semantics.
	Pretty bool

	// Indent is the string used per indentation level in pretty mode.
	// Defaults to two spaces.
	Indent string
}

// Renderer writes host elements as HTML. Attributes are emitted sorted
// for deterministic output; reconciliation-internal properties are
// skipped.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders an element subtree to an HTML string.
func (r *Renderer) RenderToString(e *Element) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, e); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams an element subtree to the given writer.
func (r *Renderer) RenderToWriter(w io.Writer, e *Element) error {
	return r.renderElement(w, e, 0)
}

// InnerHTML renders a container's children without the container
// itself, the form used for root containers.
func (r *Renderer) InnerHTML(e *Element) (string, error) {
	var buf bytes.Buffer
	for _, child := range e.children {
		if err := r.renderElement(&buf, child, 0); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// HTML renders an element with default configuration, swallowing
// errors. Convenient in test assertions.
func HTML(e *Element) string {
	s, err := NewRenderer(RendererConfig{}).RenderToString(e)
	if err != nil {
		return ""
	}
	return s
}

func (r *Renderer) renderElement(w io.Writer, e *Element, depth int) error {
	if e == nil {
		return nil
	}

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if e.tag == TextTag {
		if _, err := io.WriteString(w, escapeHTML(textString(e.text))); err != nil {
			return err
		}
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	if _, err := fmt.Fprintf(w, "<%s", e.tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, e); err != nil {
		return err
	}

	if isVoidElement(e.tag) {
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if e.text != nil {
		if _, err := io.WriteString(w, escapeHTML(textString(e.text))); err != nil {
			return err
		}
	}

	if r.config.Pretty && len(e.children) > 0 {
		io.WriteString(w, "\n")
	}
	for _, child := range e.children {
		if err := r.renderElement(w, child, depth+1); err != nil {
			return err
		}
	}
	if r.config.Pretty && len(e.children) > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "</%s>", e.tag); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

func (r *Renderer) renderAttributes(w io.Writer, e *Element) error {
	if len(e.props) == 0 {
		return nil
	}

	keys := make([]string, 0, len(e.props))
	for key := range e.props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if skipAttribute(key) {
			continue
		}
		value := e.props[key]

		if isBooleanAttr(key) {
			if b, ok := value.(bool); ok {
				if b {
					if _, err := fmt.Fprintf(w, " %s", key); err != nil {
						return err
					}
				}
				continue
			}
		}

		s := attrString(value)
		if s == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, key, escapeAttr(s)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writeIndent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		io.WriteString(w, r.config.Indent)
	}
}

// skipAttribute reports properties that drive reconciliation rather
// than presentation.
func skipAttribute(name string) bool {
	if name == item.KeyProperty || name == item.TagProperty {
		return true
	}
	return strings.HasPrefix(name, "_")
}

// textString converts a text payload for output.
func textString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// attrString converts an attribute value for output.
func attrString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#9;",
)

// escapeHTML escapes text content.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// escapeAttr escapes attribute values, including whitespace that could
// break attribute parsing.
func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// voidElements have no closing tag and cannot carry children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

func isVoidElement(tag string) bool {
	return voidElements[tag]
}

// booleanAttrs render as a bare name when true and vanish when false.
var booleanAttrs = map[string]bool{
	"async": true, "autofocus": true, "autoplay": true, "checked": true,
	"controls": true, "default": true, "defer": true, "disabled": true,
	"hidden": true, "loop": true, "multiple": true, "muted": true,
	"open": true, "readonly": true, "required": true, "reversed": true,
	"selected": true,
}

func isBooleanAttr(name string) bool {
	return booleanAttrs[name]
}
