package xhr

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"go.uber.org/zap"
)

// Authorizer adds credentials to the headers of an outgoing request. target
// is the resolved request URL, or nil when it cannot be parsed.
type Authorizer interface {
	Authorize(target *url.URL, headers map[string]string) error
}

// EndpointAuthorizer applies the headers and auth settings of an endpoint
// config. Both are only added to requests for the origin of the endpoint's
// base URL.
type EndpointAuthorizer struct {
	origin     string
	authType   config.AuthType
	authConfig map[string]string
	headers    map[string]string
}

// NewEndpointAuthorizer creates an EndpointAuthorizer for cfg.
func NewEndpointAuthorizer(cfg *config.EndpointConfig) *EndpointAuthorizer {
	a := &EndpointAuthorizer{
		authType:   cfg.AuthType,
		authConfig: cfg.AuthConfig,
		headers:    cfg.Headers,
	}
	if base, err := url.Parse(cfg.BaseURL); err == nil {
		a.origin = origin(base)
	}
	if a.origin == "" && (a.hasCredentials() || len(a.headers) > 0) {
		logger.Warn("Endpoint headers and credentials are not sent without endpoint.base_url",
			zap.String("auth_type", string(cfg.AuthType)),
		)
	}
	return a
}

func (a *EndpointAuthorizer) hasCredentials() bool {
	return a.authType != "" && a.authType != config.AuthTypeNone
}

// Authorize sets the endpoint headers and the credential header for the
// configured auth type when target shares the endpoint's origin.
func (a *EndpointAuthorizer) Authorize(target *url.URL, headers map[string]string) error {
	if a.origin == "" || target == nil || origin(target) != a.origin {
		return nil
	}
	for k, v := range a.headers {
		headers[k] = v
	}

	switch a.authType {
	case config.AuthTypeNone, "":
		return nil
	case config.AuthTypeBasic:
		creds := a.authConfig["username"] + ":" + a.authConfig["password"]
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
	case config.AuthTypeBearer, config.AuthTypeOAuth2:
		headers["Authorization"] = "Bearer " + a.authConfig["token"]
	case config.AuthTypeAPIKey:
		header := a.authConfig["header"]
		if header == "" {
			header = "X-API-Key"
		}
		headers[header] = a.authConfig["key"]
	default:
		return fmt.Errorf("unsupported auth type: %s", a.authType)
	}
	return nil
}

// origin returns scheme://host:port with the default port filled in, or ""
// for URLs without a host.
func origin(u *url.URL) string {
	if u.Host == "" {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port == "" {
		switch scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return scheme + "://" + strings.ToLower(u.Hostname()) + ":" + port
}
