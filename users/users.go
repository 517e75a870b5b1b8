package users

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// Profile is what the bot remembers about a signed-in user
type Profile struct {
	Identity     string    `json:"identity"`                // Subject claim of the user's id token
	Name         string    `json:"name,omitempty"`          // Display name from the id token
	Email        string    `json:"email,omitempty"`         // Email or preferred_username claim
	SessionKey   string    `json:"session_key,omitempty"`   // Most recent auth session
	DateJoined   time.Time `json:"date_joined,omitempty"`   // First sign-in
	LastLogin    time.Time `json:"last_login,omitempty"`    // Latest sign-in
	TokenRenewed time.Time `json:"token_renewed,omitempty"` // Latest access token refresh
}

// ProfileFromClaims builds a profile from id token claims
func ProfileFromClaims(identity string, claims map[string]any) Profile {
	p := Profile{Identity: identity}
	p.Name, _ = claims["name"].(string)
	if email, ok := claims["email"].(string); ok && email != "" {
		p.Email = email
	} else {
		p.Email, _ = claims["preferred_username"].(string)
	}
	return p
}

// Merge copies sign-in details onto an existing profile, keeping DateJoined
func (p Profile) Merge(signIn Profile, now time.Time) Profile {
	if p.DateJoined.IsZero() {
		p.DateJoined = now
	}
	p.Identity = signIn.Identity
	if signIn.Name != "" {
		p.Name = signIn.Name
	}
	if signIn.Email != "" {
		p.Email = signIn.Email
	}
	if signIn.SessionKey != "" {
		p.SessionKey = signIn.SessionKey
	}
	p.LastLogin = now
	return p
}
