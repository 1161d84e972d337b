package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

// errNoBucket distinguishes a missing bucket from other read failures.
var errNoBucket = errors.New("bucket not found")

// BoltConfig configures a bolt provider.
type BoltConfig struct {
	// Path of the bbolt database file.
	Path string

	// Bucket holding one JSON item per key.
	Bucket string

	// Interval between modification checks. Zero disables polling.
	Interval time.Duration

	Logger *slog.Logger
}

// Bolt reads a bucket from a bbolt file. The database is opened read-only
// per read and closed again, so a writer process keeps its exclusive lock
// between our polls. Items arrive in key order.
type Bolt struct {
	graph  *cell.Graph
	path   string
	bucket string
	every  time.Duration
	logger *slog.Logger
	data   *cell.Cell[[]any]

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	modTime time.Time
	size    int64
}

// NewBolt reads the bucket once and returns the provider.
func NewBolt(g *cell.Graph, cfg BoltConfig) (*Bolt, error) {
	b := &Bolt{
		graph:  g,
		path:   cfg.Path,
		bucket: cfg.Bucket,
		every:  cfg.Interval,
		logger: orDefault(cfg.Logger),
	}

	items, err := b.load()
	if err != nil {
		return nil, err
	}
	b.data = cell.New(g, items)
	return b, nil
}

func (b *Bolt) Cell() *cell.Cell[[]any] { return b.data }

// Start polls until ctx is cancelled or Stop is called.
func (b *Bolt) Start(ctx context.Context) error {
	if b.every <= 0 {
		return nil
	}

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = true
	b.stopCh = make(chan struct{})
	b.mu.Unlock()

	ticker := time.NewTicker(b.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.stopCh:
			return nil
		case <-ticker.C:
			b.check()
		}
	}
}

// Stop ends the poll loop.
func (b *Bolt) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		close(b.stopCh)
		b.running = false
	}
}

// load reads the bucket, recording the file stamp.
func (b *Bolt) load() ([]any, error) {
	info, err := os.Stat(b.path)
	if err != nil {
		return nil, diag.New("DDM040").WithDetail(b.path).Wrap(err)
	}

	items, err := readBucket(b.path, b.bucket)
	switch {
	case errors.Is(err, errNoBucket):
		return nil, diag.New("DDM042").
			WithDetail(fmt.Sprintf("bucket %q in %s", b.bucket, b.path)).
			Wrap(err)
	case err != nil:
		var jsonErr *json.SyntaxError
		if errors.As(err, &jsonErr) {
			return nil, diag.New("DDM044").WithDetail(b.path).Wrap(err)
		}
		return nil, diag.New("DDM040").WithDetail(b.path).Wrap(err)
	}

	b.mu.Lock()
	b.modTime = info.ModTime()
	b.size = info.Size()
	b.mu.Unlock()

	return items, nil
}

// check reloads when the database file stamp moved.
func (b *Bolt) check() {
	info, err := os.Stat(b.path)
	if err != nil {
		b.logger.Warn("source store unreadable, keeping previous items",
			"path", b.path, "error", err)
		return
	}

	b.mu.Lock()
	changed := info.ModTime().After(b.modTime) || info.Size() != b.size
	b.mu.Unlock()
	if !changed {
		return
	}

	items, err := b.load()
	if err != nil {
		b.logger.Warn("source store reload failed, keeping previous items",
			"path", b.path, "bucket", b.bucket, "error", err)
		return
	}

	b.graph.Scheduler().Dispatch(func() {
		b.data.Set(items)
	})
}

// readBucket opens the database read-only, decodes every value in the
// bucket, and closes it again. The open times out instead of waiting
// indefinitely on a writer's lock.
func readBucket(path, bucket string) ([]any, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout:  time.Second,
		ReadOnly: true,
	})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var items []any
	err = db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk == nil {
			return fmt.Errorf("%w: %q", errNoBucket, bucket)
		}
		return bk.ForEach(func(k, v []byte) error {
			var it any
			if err := json.Unmarshal(v, &it); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			items = append(items, it)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
