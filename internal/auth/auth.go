// Package auth protects the HTTP server modes with OAuth. It publishes the
// discovery documents MCP clients look for and proxies the authorization
// code flow to an upstream provider.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"go.uber.org/zap"
)

// Service holds the OAuth routes and middleware.
type Service struct {
	baseURL  string
	scopes   []string
	origins  []string
	provider Provider
}

// NewService creates a Service delegating to provider.
func NewService(cfg *config.OAuthConfig, provider Provider) *Service {
	return &Service{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		scopes:   cfg.Scopes,
		origins:  cfg.AllowOrigins,
		provider: provider,
	}
}

// NewFromConfig returns nil when OAuth is disabled.
func NewFromConfig(cfg *config.OAuthConfig) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	provider, err := NewProvider(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("OAuth enabled",
		zap.String("provider", cfg.Provider),
		zap.String("base_url", cfg.BaseURL),
	)
	return NewService(cfg, provider), nil
}

// RegisterRoutes adds the discovery and OAuth endpoints to mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /.well-known/oauth-protected-resource", s.handleProtectedResource)
	mux.HandleFunc("GET /.well-known/oauth-authorization-server", s.handleAuthorizationServer)
	mux.HandleFunc("GET /oauth/authorize", s.handleAuthorize)
	mux.HandleFunc("POST /oauth/token", s.handleToken)
	mux.HandleFunc("POST /oauth/register", s.handleRegister)
	mux.HandleFunc("GET /oauth/callback", s.handleCallback)
}

// Protect requires a valid access token for next.
func (s *Service) Protect(next http.Handler) http.Handler {
	return Authenticate(s.provider)(next)
}

// WrapWithCORS applies the configured CORS policy to next.
func (s *Service) WrapWithCORS(next http.Handler) http.Handler {
	return CORS(s.origins)(next)
}
