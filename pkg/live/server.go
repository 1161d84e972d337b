package live

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	ddom "github.com/declarative-dom/ddom-sub003"
	"github.com/declarative-dom/ddom-sub003/internal/diag"
	"github.com/declarative-dom/ddom-sub003/pkg/declare"
)

// Config configures a live Server.
type Config struct {
	// Addr is the listen address.
	// Default: ":8090"
	Addr string

	// SessionTTL is how long a detached session waits for a resume
	// before it is evicted.
	// Default: 5 minutes
	SessionTTL time.Duration

	// HeartbeatInterval is how often the server pings each connection.
	// Default: 30 seconds
	HeartbeatInterval time.Duration

	// ReadTimeout bounds each WebSocket read. It must exceed the
	// heartbeat interval or idle connections get cut.
	// Default: 60 seconds
	ReadTimeout time.Duration

	// WriteTimeout bounds each WebSocket write.
	// Default: 10 seconds
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10 seconds
	ShutdownTimeout time.Duration

	// MaxMessageSize caps inbound WebSocket messages in bytes.
	// Default: 1 MB
	MaxMessageSize int64

	// HistorySize is the per-session patch frame history depth used
	// for resumes.
	// Default: 256
	HistorySize int

	// CheckOrigin overrides the WebSocket origin check. Nil keeps the
	// same-host default.
	CheckOrigin func(*http.Request) bool

	// Namespace prefixes the Prometheus metric names.
	// Default: "ddom"
	Namespace string

	// Registry receives the metrics. Nil uses the default registerer.
	Registry prometheus.Registerer

	// TracerName names the OpenTelemetry tracer.
	// Default: "ddom/live"
	TracerName string

	// Logger receives server logs. Nil uses slog.Default.
	Logger *slog.Logger

	// Engine configures the per-session engines.
	Engine ddom.Config
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:              ":8090",
		SessionTTL:        5 * time.Minute,
		HeartbeatInterval: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxMessageSize:    1 << 20,
		HistorySize:       256,
		Namespace:         "ddom",
		TracerName:        defaultTracerName,
	}
}

// Server serves a document over HTTP and WebSocket. Every WebSocket
// connection gets its own engine, so every client sees its own graph;
// the HTTP surface exposes health, metrics, and server-rendered
// snapshots of the collections.
type Server struct {
	spec   *declare.Spec
	config *Config
	logger *slog.Logger

	metrics *metrics
	tracer  trace.Tracer

	store    *Store
	upgrader websocket.Upgrader
	router   chi.Router

	httpServer *http.Server

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// NewServer creates a server for the given document. The spec is
// validated by building a throwaway engine, so a document that cannot
// bind its sources fails here instead of on the first connection.
func NewServer(spec *declare.Spec, config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	} else {
		defaults := DefaultConfig()
		if config.Addr == "" {
			config.Addr = defaults.Addr
		}
		if config.SessionTTL == 0 {
			config.SessionTTL = defaults.SessionTTL
		}
		if config.HeartbeatInterval == 0 {
			config.HeartbeatInterval = defaults.HeartbeatInterval
		}
		if config.ReadTimeout == 0 {
			config.ReadTimeout = defaults.ReadTimeout
		}
		if config.WriteTimeout == 0 {
			config.WriteTimeout = defaults.WriteTimeout
		}
		if config.ShutdownTimeout == 0 {
			config.ShutdownTimeout = defaults.ShutdownTimeout
		}
		if config.MaxMessageSize == 0 {
			config.MaxMessageSize = defaults.MaxMessageSize
		}
		if config.HistorySize == 0 {
			config.HistorySize = defaults.HistorySize
		}
		if config.Namespace == "" {
			config.Namespace = defaults.Namespace
		}
		if config.TracerName == "" {
			config.TracerName = defaults.TracerName
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "live")

	probe, err := ddom.New(spec, config.Engine)
	if err != nil {
		return nil, err
	}
	probe.Close()

	baseCtx, baseCancel := context.WithCancel(context.Background())
	s := &Server{
		spec:    spec,
		config:  config,
		logger:  logger,
		metrics: metricsFor(config),
		tracer:  otel.Tracer(config.TracerName),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}

	cleanupInterval := config.SessionTTL / 4
	if cleanupInterval > 30*time.Second {
		cleanupInterval = 30 * time.Second
	}
	s.store = NewStore(config.SessionTTL, cleanupInterval, s.evict)

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(Tracing(s.config.TracerName))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metricsHandler())
	r.Get("/collections", s.handleCollections)
	r.Get("/collections/{name}", s.handleCollection)
	r.Get("/live", s.handleLive)

	return r
}

func (s *Server) metricsHandler() http.Handler {
	if g, ok := s.config.Registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// Handler returns the server's HTTP handler for mounting in an
// external router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the session store.
func (s *Server) Sessions() *Store {
	return s.store
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.store.Count(),
	})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.spec.Collections))
	for _, c := range s.spec.Collections {
		names = append(names, c.Name)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"collections": names})
}

// handleCollection renders one collection to HTML with a throwaway
// engine. One synchronous pass over current source data, no
// subscription.
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.spec.Collection(name); !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	engine, err := ddom.New(s.spec, s.config.Engine)
	if err != nil {
		s.writeDiagnostic(w, err)
		return
	}
	defer engine.Close()

	u, ok := engine.Unit(name)
	if !ok {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}
	u.Sync()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, u.HTML())
}

func (s *Server) writeDiagnostic(w http.ResponseWriter, err error) {
	var derr *diag.Error
	if errors.As(err, &derr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, derr.FormatJSON())
		return
	}
	http.Error(w, err.Error(), http.StatusBadGateway)
}

// handleLive upgrades the connection and attaches it to a session. A
// ?session= query resumes an existing session when it is still inside
// the TTL; anything else gets a fresh engine, and the hello frame
// tells the client which one happened.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		s.metrics.wsErrorsTotal.WithLabelValues("upgrade").Inc()
		return
	}

	if id := r.URL.Query().Get("session"); id != "" {
		if sess, ok := s.store.Get(id); ok {
			lastSeq, _ := strconv.ParseUint(r.URL.Query().Get("seq"), 10, 64)
			s.metrics.resumesTotal.Inc()
			sess.resume(conn, lastSeq)
			return
		}
		s.logger.Info("resume rejected, starting fresh", "session", id)
	}

	sess, err := s.newSession(conn)
	if err != nil {
		s.logger.Error("session create failed", "error", err)
		s.writeConnError(conn, err)
		conn.Close()
		return
	}

	s.store.Put(sess)
	s.metrics.sessionsTotal.Inc()
	s.metrics.sessionsActive.Inc()
	sess.start()
}

// writeConnError sends a coded error frame before the connection is
// dropped.
func (s *Server) writeConnError(conn *websocket.Conn, err error) {
	var code string
	var derr *diag.Error
	if errors.As(err, &derr) {
		code = derr.Code
	}
	payload := EncodeError(&ErrorFrame{Code: code, Message: err.Error()})
	data, encErr := NewFrame(FrameError, payload).Encode()
	if encErr != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	conn.WriteMessage(websocket.BinaryMessage, data)
}

// dropSession removes a session from the store and terminates it.
func (s *Server) dropSession(sess *Session, reason CloseReason, message string) {
	s.store.Delete(sess.ID)
	sess.terminate(reason, message)
}

// evict is the store's TTL callback.
func (s *Server) evict(sess *Session) {
	s.logger.Info("session expired", "session", sess.ID)
	sess.terminate(CloseExpired, "resume window elapsed")
}

// ListenAndServe starts the HTTP server and blocks until the context
// is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("live server starting", "addr", s.config.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown terminates every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	for _, sess := range s.store.Close() {
		sess.terminate(CloseShutdown, "server shutting down")
	}
	s.baseCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
