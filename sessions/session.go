package sessions

import (
	"maps"
	"time"
)

// Session is the token bundle held for one signed-in user.
// The Key is handed to the browser; everything else stays server side.
type Session struct {
	Key          string         // Opaque session key (random, base64url)
	Identity     string         // Subject claim of the id token
	AccessToken  string         // Bearer token for the upstream APIs
	RefreshToken string         // Used to renew AccessToken once it expires
	IDToken      string         // Raw id token as returned by the token endpoint
	Claims       map[string]any // Unverified id token claims
	ExpiresAt    time.Time      // Absolute expiry of AccessToken
	CreatedAt    time.Time
}

// Usable reports whether the access token can still be presented at now.
func (s Session) Usable(now time.Time) bool {
	return s.AccessToken != "" && now.Before(s.ExpiresAt)
}

// SameTokens compares the token fields by value.
func (s Session) SameTokens(other Session) bool {
	return s.AccessToken == other.AccessToken &&
		s.RefreshToken == other.RefreshToken &&
		s.IDToken == other.IDToken &&
		s.ExpiresAt.Equal(other.ExpiresAt)
}

func (s Session) clone() Session {
	s.Claims = maps.Clone(s.Claims)
	return s
}

// Repo stores sessions keyed by Session.Key.
type Repo interface {
	Upsert(session Session) error
	Get(key string) (Session, error)
	List() ([]Session, error)
}
