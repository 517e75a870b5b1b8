package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-nagbot/conversations"
	"github.com/jrsteele09/go-nagbot/users"
)

type meResponse struct {
	Identity      string                    `json:"identity"`
	Name          string                    `json:"name,omitempty"`
	Email         string                    `json:"email,omitempty"`
	DateJoined    time.Time                 `json:"dateJoined"`
	LastLogin     time.Time                 `json:"lastLogin"`
	Conversations []conversations.Reference `json:"conversations"`
}

// MeHandler describes the signed-in user and the chats linked to them
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())

		profile, err := s.users.Get(r.Context(), identity)
		if err != nil && !errors.Is(err, users.ErrNotFound) {
			s.logger.Err(err).Str("identity", identity).Msg("Failed to load profile")
			http.Error(w, "failed to load profile", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, meResponse{
			Identity:      identity,
			Name:          profile.Name,
			Email:         profile.Email,
			DateJoined:    profile.DateJoined,
			LastLogin:     profile.LastLogin,
			Conversations: s.directory.FindAll(identity),
		})
	}
}

// UnlinkHandler removes every chat linked to the signed-in user
func (s *Server) UnlinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())

		if err := s.directory.ClearIdentity(identity); err != nil {
			if errors.Is(err, conversations.ErrUnknownIdentity) {
				http.Error(w, "no linked conversations", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to unlink", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
