package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer      = "https://accounts.google.com"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	githubUserURL     = "https://api.github.com/user"
)

// ErrUnsupportedProvider means the configured provider name is unknown.
var ErrUnsupportedProvider = errors.New("unsupported OAuth provider")

// UserInfo identifies the caller behind an access token.
type UserInfo struct {
	ID    string
	Email string
	Name  string
	Login string
}

// Provider is an upstream identity provider the server delegates to.
type Provider interface {
	// AuthURL returns the provider URL the user is sent to.
	AuthURL(state, codeChallenge, codeChallengeMethod, redirectURI string) string
	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (*oauth2.Token, error)
	// UserInfo validates a raw access token.
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

// NewProvider creates the provider named in cfg.
func NewProvider(ctx context.Context, cfg *config.OAuthConfig) (Provider, error) {
	switch cfg.Provider {
	case "google":
		return NewGoogleProvider(ctx, cfg)
	case "github":
		return NewGitHubProvider(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// oauth2Provider holds what the code flow needs from any provider.
type oauth2Provider struct {
	config *oauth2.Config
}

func (p *oauth2Provider) AuthURL(state, codeChallenge, codeChallengeMethod, redirectURI string) string {
	var opts []oauth2.AuthCodeOption
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}
	if codeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", codeChallengeMethod),
		)
	}
	return p.config.AuthCodeURL(state, opts...)
}

func (p *oauth2Provider) Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (*oauth2.Token, error) {
	cfg := *p.config
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}
	return cfg.Exchange(ctx, code, opts...)
}

// getJSON fetches url with accessToken and decodes the body into v.
func getJSON(ctx context.Context, url, accessToken string, v any) error {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   tokenType,
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// GoogleProvider authenticates with Google's OpenID Connect endpoints.
type GoogleProvider struct {
	oauth2Provider
	verifier    *oidc.IDTokenVerifier
	userInfoURL string
}

// NewGoogleProvider discovers Google's OIDC configuration.
func NewGoogleProvider(ctx context.Context, cfg *config.OAuthConfig) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	userInfoURL := googleUserInfoURL
	var claims struct {
		UserInfoURL string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&claims); err == nil && claims.UserInfoURL != "" {
		userInfoURL = claims.UserInfoURL
	}

	return &GoogleProvider{
		oauth2Provider: oauth2Provider{config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       cfg.Scopes,
		}},
		verifier:    provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		userInfoURL: userInfoURL,
	}, nil
}

// VerifyIDToken checks the id_token of a token response.
func (p *GoogleProvider) VerifyIDToken(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	raw, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token in token response")
	}
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}
	return &UserInfo{ID: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
}

func (p *GoogleProvider) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	var info struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, p.userInfoURL, accessToken, &info); err != nil {
		return nil, err
	}
	return &UserInfo{ID: info.Sub, Email: info.Email, Name: info.Name}, nil
}

// GitHubProvider authenticates with GitHub OAuth apps.
type GitHubProvider struct {
	oauth2Provider
	userURL string
}

func NewGitHubProvider(cfg *config.OAuthConfig) *GitHubProvider {
	return &GitHubProvider{
		oauth2Provider: oauth2Provider{config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       cfg.Scopes,
		}},
		userURL: githubUserURL,
	}
}

func (p *GitHubProvider) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	var gh struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, p.userURL, accessToken, &gh); err != nil {
		return nil, err
	}
	return &UserInfo{
		ID:    strconv.FormatInt(gh.ID, 10),
		Email: gh.Email,
		Name:  gh.Name,
		Login: gh.Login,
	}, nil
}
