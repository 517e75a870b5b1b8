package config

type OAuthConfig interface {
	GetIssuerURL() string
	GetAuthURL() string
	GetTokenURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetScopes() []string
	GetSessionKeyLength() int
}

type OAuth struct {
	file oauthFile
}

var _ OAuthConfig = OAuth{}

// GetIssuerURL enables OIDC discovery when set; the explicit endpoint URLs are then ignored
func (o OAuth) GetIssuerURL() string {
	return pick("OAUTH_ISSUER_URL", o.file.IssuerURL, "")
}

func (o OAuth) GetAuthURL() string {
	return pick("OAUTH_AUTH_URL", o.file.AuthURL, "")
}

func (o OAuth) GetTokenURL() string {
	return pick("OAUTH_TOKEN_URL", o.file.TokenURL, "")
}

func (o OAuth) GetClientID() string {
	return pick("OAUTH_CLIENT_ID", o.file.ClientID, "")
}

func (o OAuth) GetClientSecret() string {
	return pick("OAUTH_CLIENT_SECRET", o.file.ClientSecret, "")
}

func (o OAuth) GetRedirectURL() string {
	return pick("OAUTH_REDIRECT_URL", o.file.RedirectURL, "http://localhost:8080/auth/callback")
}

// GetScopes returns the API scopes requested in addition to openid, profile and offline_access
func (o OAuth) GetScopes() []string {
	return pickList("OAUTH_SCOPES", o.file.Scopes, []string{"Tasks.ReadWrite"})
}

func (OAuth) GetSessionKeyLength() int {
	return 32 // 32 bytes = 256 bits
}
