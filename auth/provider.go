package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-nagbot/internal/config"
	"golang.org/x/oauth2"
)

// NewOAuth2Config builds the client configuration for the identity provider.
// With an issuer URL the endpoints come from OIDC discovery, otherwise the
// explicitly configured authorization and token URLs are used.
func NewOAuth2Config(ctx context.Context, c config.OAuthConfig) (*oauth2.Config, error) {
	if c.GetClientID() == "" {
		return nil, errors.New("[NewOAuth2Config] client id is required")
	}

	endpoint := oauth2.Endpoint{
		AuthURL:   c.GetAuthURL(),
		TokenURL:  c.GetTokenURL(),
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if issuer := c.GetIssuerURL(); issuer != "" {
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("[NewOAuth2Config] failed to create OIDC provider: %w", err)
		}
		endpoint = provider.Endpoint()
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		return nil, errors.New("[NewOAuth2Config] authorization and token endpoints are required")
	}

	if err := ValidateRedirectURI(c.GetRedirectURL()); err != nil {
		return nil, fmt.Errorf("[NewOAuth2Config] %w", err)
	}
	if err := ValidateScopes(c.GetScopes()); err != nil {
		return nil, fmt.Errorf("[NewOAuth2Config] %w", err)
	}

	scopes := []string{oidc.ScopeOpenID, "profile", oidc.ScopeOfflineAccess}
	scopes = append(scopes, c.GetScopes()...)

	return &oauth2.Config{
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		Endpoint:     endpoint,
		RedirectURL:  c.GetRedirectURL(),
		Scopes:       scopes,
	}, nil
}
