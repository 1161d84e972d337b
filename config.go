package ddom

import (
	"log/slog"

	"github.com/declarative-dom/ddom-sub003/pkg/collection"
	"github.com/declarative-dom/ddom-sub003/pkg/source"
)

// Config is the engine configuration. The zero value works for
// documents whose sources are literal, file, http, or bolt blocks.
type Config struct {
	// Scope supplies extra named values visible to collection items
	// references beyond the document's own sources. A scope entry with
	// the same name as a source wins, which lets callers substitute a
	// source in tests.
	Scope collection.Scope

	// ObjectStore backs source blocks of kind "s3". Usually an
	// *s3.Client from the AWS SDK; engines for documents with s3
	// sources fail to build without one.
	ObjectStore source.ObjectStore

	// Logger is the structured logger for the engine. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
