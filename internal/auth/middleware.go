package auth

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/brizzai/auto-xhr/internal/logger"
	"go.uber.org/zap"
)

const (
	tokenType       = "Bearer"
	tokenQueryParam = "token"
)

type contextKey struct{}

// Info is the authenticated caller stored in the request context.
type Info struct {
	User  *UserInfo
	Token string
}

// FromContext returns the caller stored by Authenticate.
func FromContext(ctx context.Context) (*Info, bool) {
	info, ok := ctx.Value(contextKey{}).(*Info)
	return info, ok
}

// Authenticate rejects requests without a valid bearer token. The token is
// read from the Authorization header or the token query parameter.
func Authenticate(provider Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			user, err := provider.UserInfo(r.Context(), token)
			if err != nil {
				logger.Debug("Rejected access token", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "invalid_token", "access token is invalid or expired")
				return
			}
			logger.Debug("Authenticated request",
				zap.String("user_id", user.ID),
				zap.String("path", r.URL.Path),
			)

			ctx := context.WithValue(r.Context(), contextKey{}, &Info{User: user, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORS answers preflight requests and sets the CORS headers MCP clients
// need. An empty origins list allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(origins) == 0 || slices.Contains(origins, "*"):
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id")
			w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id, WWW-Authenticate")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), tokenType+" "); ok {
		return token
	}
	return r.URL.Query().Get(tokenQueryParam)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="auto-xhr", error=%q, error_description=%q`, code, message))
	}
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}
