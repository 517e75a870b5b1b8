package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-nagbot/server/authflowrepo"
	"github.com/jrsteele09/go-nagbot/users"
	"golang.org/x/oauth2"
)

const sessionCookieMaxAge = 30 * 24 * time.Hour

// OAuthCallbackHandler redeems the authorization code, records the user and binds the
// staged conversation to them. Every failure ends on the generic failure page.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		state := r.FormValue("state")
		code := r.FormValue("code")
		logger := s.logger.With().Str("handler", "callback").Logger()

		if errorParam := r.FormValue("error"); errorParam != "" {
			logger.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("Provider returned an error")
			redirectWithError(w, r, RouteSignInFailed, "The sign-in was cancelled or refused")
			return
		}
		if code == "" || state == "" {
			redirectWithError(w, r, RouteSignInFailed, "Missing code or state")
			return
		}

		authState, err := authflowrepo.Take(r.Context(), s.authState, state)
		if err != nil {
			if !errors.Is(err, authflowrepo.ErrStateNotFound) {
				logger.Err(err).Msg("Failed to load auth flow state")
			}
			redirectWithError(w, r, RouteSignInFailed, "The sign-in expired")
			return
		}

		key, err := s.auth.Exchange(r.Context(), code, oauth2.VerifierOption(authState.CodeVerifier))
		if err != nil {
			logger.Err(err).Msg("Code exchange failed")
			redirectWithError(w, r, RouteSignInFailed, "The identity provider rejected the sign-in")
			return
		}

		session, err := s.auth.Session(key)
		if err != nil {
			logger.Err(err).Msg("Session missing after exchange")
			redirectWithError(w, r, RouteSignInFailed, "Something went wrong")
			return
		}
		logger = logger.With().Str("identity", session.Identity).Logger()

		if err := s.recordSignIn(r, session.Identity, session.Claims, key); err != nil {
			logger.Err(err).Msg("Failed to record user profile")
			redirectWithError(w, r, RouteSignInFailed, "Something went wrong")
			return
		}

		ref, err := s.directory.Promote(authState.TempKey, session.Identity)
		if err != nil {
			logger.Err(err).Str("tempKey", authState.TempKey).Msg("Failed to bind conversation")
			redirectWithError(w, r, RouteSignInFailed, "This chat could not be linked")
			return
		}
		logger.Info().Str("conversation", ref.ConversationID).Msg("Conversation linked")

		s.SetSessionCookie(w, r, key, sessionCookieMaxAge)
		redirectSuccess(w, r, RouteSignedIn)
	}
}

func (s *Server) recordSignIn(r *http.Request, identity string, claims map[string]any, sessionKey string) error {
	existing, err := s.users.Get(r.Context(), identity)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return err
	}

	signIn := users.ProfileFromClaims(identity, claims)
	signIn.SessionKey = sessionKey
	return s.users.Upsert(r.Context(), existing.Merge(signIn, s.nowFunc()))
}
