// Package handler provides HTTP request handling for the MCP server.
package handler

import (
	"net/http"
	"time"

	"github.com/brizzai/auto-xhr/internal/auth"
	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler assembles the HTTP routes served next to the MCP endpoint.
type Handler struct {
	metrics  *config.MetricsConfig
	gatherer prometheus.Gatherer
	auth     *auth.Service
}

// NewHandler creates a new HTTP handler. gatherer may be nil when metrics are
// disabled and authService nil when OAuth is.
func NewHandler(metrics *config.MetricsConfig, gatherer prometheus.Gatherer, authService *auth.Service) *Handler {
	return &Handler{
		metrics:  metrics,
		gatherer: gatherer,
		auth:     authService,
	}
}

// CreateHTTPHandler mounts mcpHandler at the root and, when enabled, the
// Prometheus endpoint at the configured path. With OAuth the MCP endpoint
// requires a token and the discovery routes are added.
func (h *Handler) CreateHTTPHandler(mcpHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	if h.metrics != nil && h.metrics.Enabled && h.gatherer != nil {
		path := h.metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
		logger.Info("Serving metrics", zap.String("path", path))
	}

	if h.auth == nil {
		mux.Handle("/", LoggingMiddleware(mcpHandler))
		return mux
	}

	h.auth.RegisterRoutes(mux)
	mux.Handle("/", LoggingMiddleware(h.auth.Protect(mcpHandler)))
	logger.Info("Enabled authentication for the MCP endpoint")
	return h.auth.WrapWithCORS(mux)
}

// LoggingMiddleware logs information about each incoming request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
