package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"resty.dev/v3"

	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/cell"
)

// defaultHTTPTimeout bounds one polling request.
const defaultHTTPTimeout = 10 * time.Second

// HTTPConfig configures an HTTP provider.
type HTTPConfig struct {
	// URL serving a JSON array.
	URL string

	// Interval between polls. Zero disables polling after the initial
	// fetch.
	Interval time.Duration

	// Timeout per request. Defaults to ten seconds.
	Timeout time.Duration

	Logger *slog.Logger
}

// HTTP polls a JSON endpoint. Polls are conditional: the provider replays
// the last ETag via If-None-Match and treats 304 as no change.
type HTTP struct {
	graph  *cell.Graph
	url    string
	every  time.Duration
	logger *slog.Logger
	client *resty.Client
	data   *cell.Cell[[]any]

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	etag    string
}

// NewHTTP fetches the endpoint once and returns the provider.
func NewHTTP(g *cell.Graph, cfg HTTPConfig) (*HTTP, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	h := &HTTP{
		graph:  g,
		url:    cfg.URL,
		every:  cfg.Interval,
		logger: orDefault(cfg.Logger),
		client: resty.New().SetTimeout(timeout),
	}

	items, err := h.fetch(context.Background())
	if err != nil {
		h.client.Close()
		return nil, err
	}
	h.data = cell.New(g, items)
	return h, nil
}

func (h *HTTP) Cell() *cell.Cell[[]any] { return h.data }

// Start polls until ctx is cancelled or Stop is called.
func (h *HTTP) Start(ctx context.Context) error {
	if h.every <= 0 {
		return nil
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.stopCh = make(chan struct{})
	h.mu.Unlock()

	ticker := time.NewTicker(h.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case <-ticker.C:
			h.check(ctx)
		}
	}
}

// Stop ends the poll loop and releases the client.
func (h *HTTP) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		close(h.stopCh)
		h.running = false
	}
	h.client.Close()
}

// fetch performs one conditional GET. It returns nil items with a nil
// error when the endpoint answers 304.
func (h *HTTP) fetch(ctx context.Context) ([]any, error) {
	h.mu.Lock()
	etag := h.etag
	h.mu.Unlock()

	req := h.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if etag != "" {
		req.SetHeader("If-None-Match", etag)
	}

	resp, err := req.Get(h.url)
	if err != nil {
		return nil, diag.New("DDM041").WithDetail(h.url).Wrap(err)
	}
	if resp.StatusCode() == http.StatusNotModified {
		return nil, nil
	}
	if resp.IsError() {
		return nil, diag.New("DDM041").
			WithDetail(fmt.Sprintf("%s answered %s", h.url, resp.Status()))
	}

	items, err := decodeItems(resp.Bytes())
	if err != nil {
		return nil, diag.New("DDM044").WithDetail(h.url).Wrap(err)
	}

	h.mu.Lock()
	h.etag = resp.Header().Get("ETag")
	h.mu.Unlock()

	return items, nil
}

// check runs one poll. Failures keep the previous items.
func (h *HTTP) check(ctx context.Context) {
	items, err := h.fetch(ctx)
	if err != nil {
		h.logger.Warn("source poll failed, keeping previous items",
			"url", h.url, "error", err)
		return
	}
	if items == nil {
		return
	}

	h.graph.Scheduler().Dispatch(func() {
		h.data.Set(items)
	})
}
