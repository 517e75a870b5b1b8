package server

import (
	"context"
	"net/http"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyIdentity stores the signed-in user's identity
const ContextKeyIdentity ContextKey = "identity"

// RequireSession resolves the session cookie to an identity and rejects the request otherwise
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil {
				http.Error(w, "not signed in", http.StatusUnauthorized)
				return
			}

			identity, ok := s.auth.ResolveIdentity(cookie.Value)
			if !ok {
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next(w, r.WithContext(ctx))
		}
	}
}

// IdentityFromContext returns the identity stored by RequireSession
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).(string)
	return identity, ok && identity != ""
}
