package auth

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type protectedResource struct {
	Resource             string   `json:"resource"`
	AuthorizationServers []string `json:"authorization_servers"`
	ScopesSupported      []string `json:"scopes_supported,omitempty"`
	BearerMethods        []string `json:"bearer_methods_supported"`
}

type authorizationServer struct {
	Issuer                 string   `json:"issuer"`
	AuthorizationEndpoint  string   `json:"authorization_endpoint"`
	TokenEndpoint          string   `json:"token_endpoint"`
	RegistrationEndpoint   string   `json:"registration_endpoint"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported []string `json:"response_types_supported"`
	ResponseModesSupported []string `json:"response_modes_supported"`
	GrantTypesSupported    []string `json:"grant_types_supported"`
	TokenAuthMethods       []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethods   []string `json:"code_challenge_methods_supported"`
}

func (s *Service) handleProtectedResource(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protectedResource{
		Resource:             s.baseURL,
		AuthorizationServers: []string{s.baseURL},
		ScopesSupported:      s.scopes,
		BearerMethods:        []string{"header", "query"},
	})
}

func (s *Service) handleAuthorizationServer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, authorizationServer{
		Issuer:                 s.baseURL,
		AuthorizationEndpoint:  s.baseURL + "/oauth/authorize",
		TokenEndpoint:          s.baseURL + "/oauth/token",
		RegistrationEndpoint:   s.baseURL + "/oauth/register",
		ScopesSupported:        s.scopes,
		ResponseTypesSupported: []string{"code"},
		ResponseModesSupported: []string{"query"},
		GrantTypesSupported:    []string{"authorization_code"},
		TokenAuthMethods:       []string{"none"},
		CodeChallengeMethods:   []string{"S256"},
	})
}

// handleAuthorize sends the user to the upstream provider.
func (s *Service) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if rt := q.Get("response_type"); rt != "" && rt != "code" {
		writeError(w, http.StatusBadRequest, "unsupported_response_type", "only the code response type is supported")
		return
	}
	authURL := s.provider.AuthURL(q.Get("state"), q.Get("code_challenge"), q.Get("code_challenge_method"), q.Get("redirect_uri"))
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Service) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse form")
		return
	}
	if r.FormValue("grant_type") != "authorization_code" {
		writeError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
		return
	}
	code := r.FormValue("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	token, err := s.provider.Exchange(r.Context(), code, r.FormValue("code_verifier"), r.FormValue("redirect_uri"))
	if err != nil {
		logger.Warn("Failed to exchange authorization code", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid_grant", "authorization code exchange failed")
		return
	}

	resp := map[string]any{
		"access_token": token.AccessToken,
		"token_type":   tokenType,
	}
	if token.RefreshToken != "" {
		resp["refresh_token"] = token.RefreshToken
	}
	if token.ExpiresIn > 0 {
		resp["expires_in"] = token.ExpiresIn
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		resp["id_token"] = idToken
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRegister implements dynamic client registration for public clients.
// The upstream provider's client is shared, so the id is informational.
func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientName   string   `json:"client_name"`
		RedirectURIs []string `json:"redirect_uris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_client_metadata", "invalid request body")
		return
	}
	if req.ClientName == "" {
		writeError(w, http.StatusBadRequest, "invalid_client_metadata", "client_name is required")
		return
	}

	clientID := "client-" + uuid.NewString()
	logger.Info("Registered OAuth client",
		zap.String("client_name", req.ClientName),
		zap.String("client_id", clientID),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"client_id":                  clientID,
		"client_name":                req.ClientName,
		"token_endpoint_auth_method": "none",
		"redirect_uris":              req.RedirectURIs,
	})
}

func (s *Service) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"code":  code,
		"state": r.URL.Query().Get("state"),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
