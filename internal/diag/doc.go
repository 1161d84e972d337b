// Package diag provides coded diagnostics for the document loader, the
// configuration layer, and the CLI.
//
// Every registered code carries a category, a message, a longer detail,
// and a documentation link. Diagnostics render three ways: Format for
// rich terminal output with source context, FormatCompact for single
// lines, and FormatJSON for tooling.
//
// Engine-internal failures do not use this package; they follow the
// sentinel-plus-wrapping convention of their own packages. Diagnostics
// exist for the surfaces where a person reads the error: loading a
// document, starting the server, running a CLI command.
package diag
