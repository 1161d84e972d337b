// Package templates provides project scaffolding for ddom init.
//
// Each template is a named set of files making up a runnable project:
// a document, a config, and seed data where the template needs it.
//
// # Available Templates
//
//   - minimal: a single in-memory collection
//   - dashboard: collections over a polled data file, with seed data
//   - bucket: collections over an S3-compatible object store
//
// # Usage
//
//	tmpl, err := templates.Get("dashboard")
//	if err != nil {
//	    return err
//	}
//	if err := tmpl.Create(projectDir, cfg); err != nil {
//	    return err
//	}
//
// # Template Variables
//
// File contents support variable substitution:
//
//	{{.ProjectName}}  - project name
//	{{.Description}}  - short project description
//	{{.Addr}}         - serve address written into ddom.json
package templates
