package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
)

// Config carries the values substituted into scaffold files.
type Config struct {
	// ProjectName is the project name, used in the config and README.
	ProjectName string

	// Description is a short project description.
	Description string

	// Addr is the serve address written into the project config.
	Addr string
}

// Template is a named project scaffold.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files maps relative paths to file contents. Contents run through
	// text/template with Config as the data.
	Files map[string]string
}

// Available templates.
var templates = map[string]*Template{
	"minimal":   minimalTemplate(),
	"dashboard": dashboardTemplate(),
	"bucket":    bucketTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, diag.New("DDM082").
			WithDetail("Template '" + name + "' not found").
			WithSuggestion("Available templates: " + strings.Join(List(), ", "))
	}
	return tmpl, nil
}

// List returns all available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create generates a project from the template.
func (t *Template) Create(dir string, cfg Config) error {
	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Parse(content)
		if err != nil {
			return diag.Newf(diag.CategoryCLI, "invalid template %s: %v", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return diag.Newf(diag.CategoryCLI, "template execute error %s: %v", relPath, err)
		}

		fullPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return err
		}

		if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			return err
		}
	}

	return nil
}

// minimalTemplate returns the minimal template.
func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "A single in-memory collection",
		Files: map[string]string{
			"ddom.hcl": `source "items" {
  kind = "literal"
  items = [
    { id = 1, name = "First" },
    { id = 2, name = "Second" },
    { id = 3, name = "Third" },
  ]
}

collection "items" {
  items = "items"

  sort {
    by = "name"
  }

  template = {
    tagName     = "li"
    key         = "{id}"
    textContent = "{name}"
  }
}
`,
			"ddom.json": `{
  "name": "{{.ProjectName}}",
  "document": "ddom.hcl",
  "server": {
    "addr": "{{.Addr}}"
  }
}
`,
		},
	}
}

// dashboardTemplate returns the dashboard template.
func dashboardTemplate() *Template {
	return &Template{
		Name:        "dashboard",
		Description: "Collections over a polled data file, with seed data",
		Files: map[string]string{
			"ddom.hcl": `source "tasks" {
  kind     = "file"
  path     = "data/tasks.json"
  interval = "2s"
}

collection "open" {
  items = "tasks"

  filter {
    prop = "done"
    op   = "!"
  }

  sort {
    by = "title"
  }

  template = {
    tagName     = "li"
    key         = "{id}"
    textContent = "{title}"
  }
}

collection "done" {
  items = "tasks"

  filter {
    prop = "done"
    op   = "?"
  }

  sort {
    by   = "id"
    desc = true
  }

  template = {
    tagName     = "li"
    key         = "{id}"
    textContent = "{title}"
  }
}
`,
			"data/tasks.json": `[
  { "id": 1, "title": "Edit data/tasks.json and watch the page follow", "done": false },
  { "id": 2, "title": "Run ddom serve", "done": true },
  { "id": 3, "title": "Read the document in ddom.hcl", "done": false }
]
`,
			"ddom.json": `{
  "name": "{{.ProjectName}}",
  "document": "ddom.hcl",
  "server": {
    "addr": "{{.Addr}}"
  },
  "log": {
    "level": "info",
    "format": "auto"
  }
}
`,
			"README.md": `# {{.ProjectName}}

{{.Description}}

## Getting Started

` + "```" + `bash
# Serve the document with live updates
ddom serve

# One-shot HTML render to stdout
ddom render

# Validate the document and config
ddom check

# Print the source and collection wiring
ddom graph
` + "```" + `

## Project Structure

` + "```" + `
{{.ProjectName}}/
├── ddom.hcl        # The document: sources and collections
├── ddom.json       # Project configuration
├── data/
│   └── tasks.json  # Polled by the "tasks" source
└── README.md
` + "```" + `

## How It Works

The "tasks" source re-reads data/tasks.json every two seconds. The
"open" and "done" collections filter and sort its items, and every
connected browser receives the difference as a patch.

Edit data/tasks.json while ddom serve is running to see it.
`,
		},
	}
}

// bucketTemplate returns the bucket template.
func bucketTemplate() *Template {
	return &Template{
		Name:        "bucket",
		Description: "Collections over an S3-compatible object store",
		Files: map[string]string{
			"ddom.hcl": `source "reports" {
  kind     = "s3"
  bucket   = "reports"
  key      = "latest.json"
  interval = "30s"
}

collection "reports" {
  items = "reports"

  sort {
    by   = "created"
    desc = true
  }

  template = {
    tagName     = "li"
    key         = "{id}"
    textContent = "{title}"
  }
}
`,
			"ddom.json": `{
  "name": "{{.ProjectName}}",
  "document": "ddom.hcl",
  "server": {
    "addr": "{{.Addr}}"
  },
  "s3": {
    "endpoint": "http://localhost:9000",
    "region": "us-east-1",
    "accessKey": "minioadmin",
    "secretKey": "minioadmin",
    "pathStyle": true
  }
}
`,
			"README.md": `# {{.ProjectName}}

{{.Description}}

## Getting Started

The "reports" source polls an object in an S3-compatible store. The
ddom.json s3 block points at a local MinIO by default:

` + "```" + `bash
# Start a local MinIO and create the bucket
docker run -p 9000:9000 minio/minio server /data
mc mb local/reports

# Upload a JSON array of items
mc cp latest.json local/reports/latest.json

# Serve
ddom serve
` + "```" + `

Point the s3 block at real S3 by clearing "endpoint" and setting
credentials, or leave accessKey empty for anonymous access.
`,
		},
	}
}
