package oauthtest

// GrantType is the grant_type form value sent to the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a renewed bundle.
	RefreshTokenGrant GrantType = "refresh_token"

	// ClientCredentialsGrant is used by the bot connector for its own bearer token.
	ClientCredentialsGrant GrantType = "client_credentials"
)

// TokenResponse is the JSON body of a successful token endpoint reply (RFC 6749 5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in"` // always sent, zero included
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ErrorResponse is the JSON body of a failed token request (RFC 6749 5.2).
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
