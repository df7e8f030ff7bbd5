package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brizzai/auto-xhr/internal/auth"
	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

func TestCreateHTTPHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	tests := []struct {
		name        string
		metrics     *config.MetricsConfig
		gatherer    prometheus.Gatherer
		path        string
		wantStatus  int
		wantMetrics bool
	}{
		{
			name:        "metrics enabled",
			metrics:     &config.MetricsConfig{Enabled: true, Path: "/metrics"},
			gatherer:    reg,
			path:        "/metrics",
			wantStatus:  http.StatusOK,
			wantMetrics: true,
		},
		{
			name:        "custom path",
			metrics:     &config.MetricsConfig{Enabled: true, Path: "/internal/prom"},
			gatherer:    reg,
			path:        "/internal/prom",
			wantStatus:  http.StatusOK,
			wantMetrics: true,
		},
		{
			name:       "metrics disabled",
			metrics:    &config.MetricsConfig{Enabled: false, Path: "/metrics"},
			gatherer:   reg,
			path:       "/metrics",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "mcp endpoint",
			metrics:    nil,
			path:       "/mcp",
			wantStatus: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.metrics, tt.gatherer, nil).CreateHTTPHandler(mcpHandler)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMetrics {
				assert.Contains(t, rec.Body.String(), "test_total 1")
			}
		})
	}
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Flusher)
		assert.True(t, ok, "wrapped writer should still flush")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("body"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "body", rec.Body.String())
}

type stubProvider struct{}

func (stubProvider) AuthURL(state, _, _, _ string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (stubProvider) Exchange(context.Context, string, string, string) (*oauth2.Token, error) {
	return nil, errors.New("not used")
}

func (stubProvider) UserInfo(_ context.Context, token string) (*auth.UserInfo, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.UserInfo{ID: "1"}, nil
}

func TestCreateHTTPHandler_WithAuth(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := auth.NewService(&config.OAuthConfig{BaseURL: "https://xhr.example.com"}, stubProvider{})
	h := NewHandler(&config.MetricsConfig{Enabled: true, Path: "/metrics"}, reg, svc).
		CreateHTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "mcp without token", method: http.MethodPost, path: "/mcp", wantStatus: http.StatusUnauthorized},
		{name: "mcp with token", method: http.MethodPost, path: "/mcp", token: "good", wantStatus: http.StatusAccepted},
		{name: "discovery is public", method: http.MethodGet, path: "/.well-known/oauth-authorization-server", wantStatus: http.StatusOK},
		{name: "metrics are public", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, path: "/mcp", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
