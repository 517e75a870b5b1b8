package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-nagbot/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubOAuthConfig struct {
	issuer, authURL, tokenURL, clientID string
}

func (s stubOAuthConfig) GetIssuerURL() string     { return s.issuer }
func (s stubOAuthConfig) GetAuthURL() string       { return s.authURL }
func (s stubOAuthConfig) GetTokenURL() string      { return s.tokenURL }
func (s stubOAuthConfig) GetClientID() string      { return s.clientID }
func (s stubOAuthConfig) GetClientSecret() string  { return "secret" }
func (s stubOAuthConfig) GetRedirectURL() string   { return "https://bot.example.com/auth/callback" }
func (s stubOAuthConfig) GetScopes() []string      { return []string{"Tasks.ReadWrite"} }
func (s stubOAuthConfig) GetSessionKeyLength() int { return 32 }

func TestNewOAuth2Config_ExplicitEndpoints(t *testing.T) {
	cfg, err := auth.NewOAuth2Config(context.Background(), stubOAuthConfig{
		authURL:  "https://idp.example.com/authorize",
		tokenURL: "https://idp.example.com/token",
		clientID: "client-1",
	})
	require.NoError(t, err)
	require.Equal(t, "https://idp.example.com/token", cfg.Endpoint.TokenURL)
	require.Equal(t, oauth2.AuthStyleInParams, cfg.Endpoint.AuthStyle)
	require.Equal(t, []string{"openid", "profile", "offline_access", "Tasks.ReadWrite"}, cfg.Scopes)
}

func TestNewOAuth2Config_Discovery(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/oauth2/authorize",
			"token_endpoint":         srv.URL + "/oauth2/token",
			"jwks_uri":               srv.URL + "/.well-known/jwks.json",
		})
	}))
	defer srv.Close()

	cfg, err := auth.NewOAuth2Config(context.Background(), stubOAuthConfig{issuer: srv.URL, clientID: "client-1"})
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/oauth2/authorize", cfg.Endpoint.AuthURL)
	require.Equal(t, srv.URL+"/oauth2/token", cfg.Endpoint.TokenURL)
}

func TestNewOAuth2Config_Invalid(t *testing.T) {
	_, err := auth.NewOAuth2Config(context.Background(), stubOAuthConfig{clientID: "client-1"})
	require.Error(t, err)

	_, err = auth.NewOAuth2Config(context.Background(), stubOAuthConfig{authURL: "a", tokenURL: "b"})
	require.Error(t, err)
}
