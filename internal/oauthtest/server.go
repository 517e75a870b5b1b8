// Package oauthtest provides an in-process OAuth2 token endpoint for tests.
package oauthtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const signingSecret = "oauthtest-signing-secret"

// Reply decides the status and body for one token request.
type Reply func(form url.Values) (int, any)

// TokenServer is an httptest server speaking the token endpoint protocol.
type TokenServer struct {
	*httptest.Server

	mu       sync.Mutex
	replies  map[GrantType]Reply
	counts   map[GrantType]int
	requests []url.Values
}

// NewTokenServer starts a server that is closed when the test finishes.
func NewTokenServer(t *testing.T) *TokenServer {
	t.Helper()

	s := &TokenServer{
		replies: make(map[GrantType]Reply),
		counts:  make(map[GrantType]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", s.handleToken)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Handle installs reply for every request with the given grant type.
func (s *TokenServer) Handle(grant GrantType, reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[grant] = reply
}

// Respond always answers grant with a 200 and resp.
func (s *TokenServer) Respond(grant GrantType, resp TokenResponse) {
	s.Handle(grant, func(url.Values) (int, any) { return http.StatusOK, resp })
}

// Fail always answers grant with status and an invalid_grant error body.
func (s *TokenServer) Fail(grant GrantType, status int) {
	s.Handle(grant, func(url.Values) (int, any) {
		return status, ErrorResponse{Error: "invalid_grant"}
	})
}

// Count returns how many requests arrived for grant.
func (s *TokenServer) Count(grant GrantType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[grant]
}

// Requests returns the decoded forms of every request received so far.
func (s *TokenServer) Requests() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.requests...)
}

// Endpoint points an oauth2.Config at this server.
func (s *TokenServer) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   s.URL + "/authorize",
		TokenURL:  s.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func (s *TokenServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	grant := GrantType(r.PostForm.Get("grant_type"))

	s.mu.Lock()
	s.counts[grant]++
	s.requests = append(s.requests, r.PostForm)
	reply, ok := s.replies[grant]
	s.mu.Unlock()

	status, body := http.StatusBadRequest, any(ErrorResponse{Error: "unsupported_grant_type"})
	if ok {
		status, body = reply(r.PostForm)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// IDToken mints an HS256 id token carrying claims. Nothing in the bot verifies
// signatures, so the key only has to be stable.
func IDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		t.Fatalf("sign id token: %v", err)
	}
	return signed
}
