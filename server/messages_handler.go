package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-nagbot/bot"
	"github.com/jrsteele09/go-nagbot/conversations"
)

const (
	maxActivityBody = 1 << 20

	unlinkCommand = "unlink"
)

// MessagesHandler receives bot connector activities. Unknown conversations are staged
// and answered with a sign-in link; linked ones get an acknowledgement.
func (s *Server) MessagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var activity bot.Activity
		if err := json.NewDecoder(io.LimitReader(r.Body, maxActivityBody)).Decode(&activity); err != nil {
			http.Error(w, "invalid activity", http.StatusBadRequest)
			return
		}
		if !s.bot.Trusted(activity.ServiceURL) {
			s.logger.Warn().Str("serviceUrl", activity.ServiceURL).Msg("Activity from untrusted service url")
			http.Error(w, "untrusted service url", http.StatusForbidden)
			return
		}
		if activity.Type != bot.MessageActivity || activity.Conversation.ID == "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		reply, err := s.handleMessage(activity)
		if err != nil {
			s.logger.Err(err).Str("conversation", activity.Conversation.ID).Msg("Failed to handle message")
			http.Error(w, "failed to handle message", http.StatusInternalServerError)
			return
		}

		if err := s.bot.Reply(r.Context(), activity, reply); err != nil {
			s.logger.Err(err).Str("conversation", activity.Conversation.ID).Msg("Failed to reply")
			http.Error(w, "failed to reply", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleMessage(activity bot.Activity) (string, error) {
	ref := activity.Reference()
	owner, linked := s.directory.Owner(ref)

	if activity.Command() == unlinkCommand {
		if !linked {
			return "This chat isn't linked to an account.", nil
		}
		if err := s.directory.ClearIdentity(owner); err != nil && !errors.Is(err, conversations.ErrUnknownIdentity) {
			return "", err
		}
		return "Unlinked. I'll stop sending reminders to your chats.", nil
	}

	if linked {
		return fmt.Sprintf("You're all set. %s will remind you here about tasks tagged for nagging.", s.appName), nil
	}

	tempKey, err := s.directory.StageOrReuse(uuid.NewString(), ref)
	if err != nil {
		return "", err
	}
	link := s.baseURL + RouteSignIn + "?" + signInKeyParam + "=" + url.QueryEscape(tempKey)
	return fmt.Sprintf("Sign in to link this chat with your tasks: %s", link), nil
}
