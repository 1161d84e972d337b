package debug

import (
	"bytes"
	"strings"
	"testing"

	ddom "github.com/declarative-dom/ddom-sub003"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
)

const wiringDoc = `
source "users" {
  kind = "literal"
  items = [
    { id = "u1", name = "Ada", active = true },
    { id = "u2", name = "Linus", active = false },
    { id = "u3", name = "Grace", active = true },
  ]
}

source "banners" {
  kind = "literal"
  items = [
    { id = "b1", text = "welcome" },
  ]
}

collection "active" {
  items = "users"

  filter {
    prop = "active"
    op   = "?"
  }

  sort {
    by = "name"
  }

  template = { tagName = "li", key = "{id}", textContent = "{name}" }
}
`

func buildEngine(t *testing.T, doc string) *ddom.Engine {
	t.Helper()
	spec, err := declare.Parse("debug_test.ddom.hcl", []byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, err := ddom.New(spec, ddom.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestDumpWiring(t *testing.T) {
	e := buildEngine(t, wiringDoc)
	for _, u := range e.Units() {
		u.Sync()
	}

	var buf bytes.Buffer
	if err := Dump(&buf, e); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()

	wants := []string{
		"sources",
		"├─> users  literal  (3 items)",
		"└─> banners  literal  (1 items)",
		"collections",
		"└─> active  items: users  (2 items, 2 nodes)",
		"filter: ? active",
		"sort: name",
		"map: template li",
		"mutable: key, textContent",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDumpBeforeSync(t *testing.T) {
	e := buildEngine(t, wiringDoc)

	out := String(e)
	if !strings.Contains(out, "(2 items, 0 nodes)") {
		t.Errorf("host tree should be empty before the first sync:\n%s", out)
	}
}

func TestSourceDetail(t *testing.T) {
	tests := []struct {
		name string
		spec declare.SourceSpec
		want string
	}{
		{"literal", declare.SourceSpec{Kind: declare.KindLiteral}, "literal"},
		{"file", declare.SourceSpec{Kind: declare.KindFile, Path: "a.json"}, "file a.json"},
		{"http", declare.SourceSpec{Kind: declare.KindHTTP, URL: "http://x/y"}, "http http://x/y"},
		{"bolt", declare.SourceSpec{Kind: declare.KindBolt, Path: "db", Bucket: "b"}, "bolt db#b"},
		{"s3", declare.SourceSpec{Kind: declare.KindS3, Bucket: "b", Key: "k"}, "s3 b/k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceDetail(tt.spec); got != tt.want {
				t.Errorf("sourceDetail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDumpSortDescending(t *testing.T) {
	doc := strings.Replace(wiringDoc, "by = \"name\"", "by = \"name\"\n    desc = true", 1)
	e := buildEngine(t, doc)

	out := String(e)
	if !strings.Contains(out, "sort: -name") {
		t.Errorf("descending sort not marked:\n%s", out)
	}
}
