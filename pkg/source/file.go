package source

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

// FileConfig configures a file provider.
type FileConfig struct {
	// Path of the JSON array file.
	Path string

	// Interval between modification checks. Zero disables polling.
	Interval time.Duration

	Logger *slog.Logger
}

// File polls a JSON file and republishes its items when the file's
// modification time or size changes. A partially written file fails
// decoding on one tick and is picked up complete on a later one.
type File struct {
	graph  *cell.Graph
	path   string
	every  time.Duration
	logger *slog.Logger
	data   *cell.Cell[[]any]

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	modTime time.Time
	size    int64
}

// NewFile loads the file once and returns the provider.
func NewFile(g *cell.Graph, cfg FileConfig) (*File, error) {
	f := &File{
		graph:  g,
		path:   cfg.Path,
		every:  cfg.Interval,
		logger: orDefault(cfg.Logger),
	}

	items, err := f.load()
	if err != nil {
		return nil, err
	}
	f.data = cell.New(g, items)
	return f, nil
}

func (f *File) Cell() *cell.Cell[[]any] { return f.data }

// Start polls until ctx is cancelled or Stop is called.
func (f *File) Start(ctx context.Context) error {
	if f.every <= 0 {
		return nil
	}

	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return nil
	}
	f.running = true
	f.stopCh = make(chan struct{})
	f.mu.Unlock()

	ticker := time.NewTicker(f.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.stopCh:
			return nil
		case <-ticker.C:
			f.check()
		}
	}
}

// Stop ends the poll loop.
func (f *File) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		close(f.stopCh)
		f.running = false
	}
}

// load reads and decodes the file, recording its stamp.
func (f *File) load() ([]any, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, diag.New("DDM040").WithDetail(f.path).Wrap(err)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, diag.New("DDM040").WithDetail(f.path).Wrap(err)
	}

	items, err := decodeItems(data)
	if err != nil {
		return nil, diag.New("DDM044").WithDetail(f.path).Wrap(err)
	}

	f.mu.Lock()
	f.modTime = info.ModTime()
	f.size = info.Size()
	f.mu.Unlock()

	return items, nil
}

// check reloads when the file stamp moved. Failures keep the previous
// items.
func (f *File) check() {
	info, err := os.Stat(f.path)
	if err != nil {
		f.logger.Warn("source file unreadable, keeping previous items",
			"path", f.path, "error", err)
		return
	}

	f.mu.Lock()
	changed := info.ModTime().After(f.modTime) || info.Size() != f.size
	f.mu.Unlock()
	if !changed {
		return
	}

	items, err := f.load()
	if err != nil {
		f.logger.Warn("source file reload failed, keeping previous items",
			"path", f.path, "error", err)
		return
	}

	f.graph.Scheduler().Dispatch(func() {
		f.data.Set(items)
	})
}
