// Package declare loads collection documents written in HCL.
//
// A document declares named sources, the collections derived from them,
// and optionally a server block:
//
//	source "users" {
//	  kind = "file"
//	  path = "users.json"
//	}
//
//	collection "active" {
//	  items = "users"
//
//	  filter {
//	    prop  = "active"
//	    op    = "?"
//	  }
//
//	  sort {
//	    by   = "name"
//	  }
//
//	  template = { tagName = "li", textContent = "{name}" }
//	}
//
// Load parses a document into a Spec whose collection configs are ready
// for collection.New; the caller supplies a scope binding each source
// name to a live reader.
//
// Filter values are always literals. Comparing one item property against
// another is a code-level construction and has no document syntax.
// Failures surface as coded diagnostics with source locations.
package declare
