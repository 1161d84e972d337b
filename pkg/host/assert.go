package host

import (
	"strings"
	"testing"
)

// ExpectContains asserts that the rendered HTML of e contains expected.
//
// Example:
//
//	host.ExpectContains(t, h.Root, "Welcome")
func ExpectContains(t *testing.T, e *Element, expected string) {
	t.Helper()
	html := rendered(e)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the rendered HTML of e does not
// contain unexpected.
func ExpectNotContains(t *testing.T, e *Element, unexpected string) {
	t.Helper()
	html := rendered(e)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the rendered HTML of e contains a specific
// tag.
func ExpectElement(t *testing.T, e *Element, tag string) {
	t.Helper()
	html := rendered(e)
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that the rendered HTML of e contains an
// attribute value.
func ExpectAttribute(t *testing.T, e *Element, attr, value string) {
	t.Helper()
	html := rendered(e)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// rendered renders e, using the inner form for containers so the root
// wrapper never appears in assertions.
func rendered(e *Element) string {
	r := NewRenderer(RendererConfig{})
	if e.id == 0 {
		s, err := r.InnerHTML(e)
		if err != nil {
			return ""
		}
		return s
	}
	s, err := r.RenderToString(e)
	if err != nil {
		return ""
	}
	return s
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
