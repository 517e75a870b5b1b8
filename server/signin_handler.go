package server

import (
	"net/http"

	"github.com/jrsteele09/go-nagbot/server/authflowrepo"
	"golang.org/x/oauth2"
)

const stateLength = 32

// SignInHandler starts the authorization code flow for a staged conversation
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tempKey := r.URL.Query().Get(signInKeyParam)
		if tempKey == "" {
			redirectWithError(w, r, RouteSignInFailed, "The sign-in link is incomplete")
			return
		}
		if _, ok := s.directory.Pending(tempKey); !ok {
			redirectWithError(w, r, RouteSignInFailed, "The sign-in link has already been used")
			return
		}

		state, err := generateRandomString(stateLength)
		if err != nil {
			s.logger.Err(err).Msg("Failed to generate state")
			redirectWithError(w, r, RouteSignInFailed, "Something went wrong")
			return
		}
		verifier := oauth2.GenerateVerifier()

		err = s.authState.Upsert(r.Context(), state, &authflowrepo.AuthFlowState{
			TempKey:      tempKey,
			CodeVerifier: verifier,
			CreatedAt:    s.nowFunc(),
		})
		if err != nil {
			s.logger.Err(err).Msg("Failed to store auth flow state")
			redirectWithError(w, r, RouteSignInFailed, "Something went wrong")
			return
		}

		http.Redirect(w, r, s.auth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), http.StatusFound)
	}
}
