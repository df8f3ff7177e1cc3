package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/releaseboard/pkg/observability"
)

// ServerOption configures the router.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger      *log.Logger
	metrics     *observability.Metrics
	middlewares []func(http.Handler) http.Handler
}

// WithServerLogger sets the access logger (default: log.Default()).
func WithServerLogger(l *log.Logger) ServerOption {
	return func(cfg *serverConfig) { cfg.logger = l }
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(cfg *serverConfig) { cfg.metrics = m }
}

// WithMiddlewares appends middleware after the defaults.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// NewServer creates the HTTP router serving gate on "/".
func NewServer(gate http.Handler, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}

	r := chi.NewRouter()
	r.Use(
		MetricsMiddleware(cfg.metrics),
		RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		LoggingMiddleware(cfg.logger),
		middleware.GetHead,
	)
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/", gate.ServeHTTP)
	r.Get("/healthz", healthHandler)
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics.Handler())
	}
	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("ok\n"))
}
