package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

// Provider is a running feed behind one source cell.
type Provider interface {
	// Cell exposes the items. Bind it into a collection scope or watch
	// it directly.
	Cell() *cell.Cell[[]any]

	// Start blocks polling for changes until ctx is cancelled. Providers
	// without an interval return immediately.
	Start(ctx context.Context) error

	// Stop ends a running poll loop.
	Stop()
}

// decodeItems parses a JSON array payload.
func decodeItems(data []byte) ([]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("payload is %T, want a JSON array", v)
	}
	return arr, nil
}

// Static serves a fixed item slice. The cell stays writable, so callers
// may still drive it programmatically.
type Static struct {
	data *cell.Cell[[]any]
}

// NewStatic wraps items in a cell.
func NewStatic(g *cell.Graph, items []any) *Static {
	return &Static{data: cell.New(g, items)}
}

func (s *Static) Cell() *cell.Cell[[]any] { return s.data }

func (s *Static) Start(ctx context.Context) error { return nil }

func (s *Static) Stop() {}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
