package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-nagbot/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultSessionKeyLength = 32 // 32 bytes = 256 bits
	defaultTokenLifetime    = time.Hour
)

// RefreshListener is called after a refresh replaced a session's tokens.
type RefreshListener func(session sessions.Session)

// Manager owns the session key -> token bundle mapping. It redeems authorization
// codes, renews expired access tokens and hands out usable bearer tokens.
type Manager struct {
	oauth      *oauth2.Config
	repo       sessions.Repo
	httpClient *http.Client
	keyLength  int
	lifetime   time.Duration // assumed when the provider sends no expires_in
	nowFunc    func() time.Time
	logger     zerolog.Logger

	refreshes singleflight.Group // keyed by session key

	listenersLock sync.RWMutex
	listeners     []RefreshListener
}

type ManagerOption func(*Manager)

// WithNowFunc sets the clock used for expiry decisions (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithHTTPClient sets the client used to reach the token endpoint
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithSessionKeyLength(length int) ManagerOption {
	return func(m *Manager) {
		m.keyLength = length
	}
}

// WithDefaultTokenLifetime sets how long an access token is trusted when the
// token endpoint does not say
func WithDefaultTokenLifetime(lifetime time.Duration) ManagerOption {
	return func(m *Manager) {
		m.lifetime = lifetime
	}
}

// NewManager creates a Manager that talks to the provider described by oauthConfig
func NewManager(oauthConfig *oauth2.Config, repo sessions.Repo, options ...ManagerOption) (*Manager, error) {
	if oauthConfig == nil {
		return nil, errors.New("[NewManager] oauth config is required")
	}
	if repo == nil {
		return nil, errors.New("[NewManager] session repo is required")
	}

	m := &Manager{
		oauth:     oauthConfig,
		repo:      repo,
		keyLength: defaultSessionKeyLength,
		lifetime:  defaultTokenLifetime,
		nowFunc:   time.Now,
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// OnRefreshed registers a listener for token refreshes that changed the bundle
func (m *Manager) OnRefreshed(listener RefreshListener) {
	m.listenersLock.Lock()
	defer m.listenersLock.Unlock()
	m.listeners = append(m.listeners, listener)
}

// AuthCodeURL returns the provider sign-in URL carrying state back to the callback
func (m *Manager) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return m.oauth.AuthCodeURL(state, opts...)
}

// Exchange redeems an authorization code and stores the resulting session.
// The returned session key is safe to hand to the browser.
func (m *Manager) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (string, error) {
	tok, err := m.oauth.Exchange(m.clientContext(ctx), code, opts...)
	if err != nil {
		return "", fmt.Errorf("[Manager Exchange] %w: %w", ErrExchangeFailed, err)
	}

	key, err := generateSessionKey(m.keyLength)
	if err != nil {
		return "", fmt.Errorf("[Manager Exchange] %w: %w", ErrExchangeFailed, err)
	}

	session, err := m.applyToken(sessions.Session{Key: key, CreatedAt: m.nowFunc()}, tok)
	if err != nil {
		return "", fmt.Errorf("[Manager Exchange] %w: %w", ErrExchangeFailed, err)
	}
	if session.Identity == "" {
		return "", fmt.Errorf("[Manager Exchange] %w: no id_token subject in response", ErrExchangeFailed)
	}

	if err := m.repo.Upsert(session); err != nil {
		return "", fmt.Errorf("[Manager Exchange] failed to store session: %w", err)
	}
	return key, nil
}

// Session returns a copy of the stored session for key
func (m *Manager) Session(key string) (sessions.Session, error) {
	session, err := m.repo.Get(key)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[Manager Session] %w: %w", ErrNoSession, err)
	}
	return session, nil
}

// ResolveIdentity returns the identity bound to key
func (m *Manager) ResolveIdentity(key string) (string, bool) {
	session, err := m.repo.Get(key)
	if err != nil {
		return "", false
	}
	return session.Identity, true
}

// AccessToken returns a usable access token for key, refreshing it first if it expired.
func (m *Manager) AccessToken(ctx context.Context, key string) (string, error) {
	session, err := m.repo.Get(key)
	if err != nil {
		return "", fmt.Errorf("[Manager AccessToken] %w", ErrNoSession)
	}
	if session.Usable(m.nowFunc()) {
		return session.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, key)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// AccessTokenForIdentity finds a session for identity and returns a usable token from it.
// Newer sessions are tried first. Refresh failures are logged and reported as !ok.
func (m *Manager) AccessTokenForIdentity(ctx context.Context, identity string) (string, bool) {
	list, err := m.repo.List()
	if err != nil {
		m.logger.Err(err).Msg("Failed to list sessions")
		return "", false
	}

	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Identity != identity {
			continue
		}
		token, err := m.AccessToken(ctx, list[i].Key)
		if err != nil {
			m.logger.Warn().Err(err).Str("identity", identity).Msg("Session has no usable access token")
			continue
		}
		return token, true
	}
	return "", false
}

// refresh renews the session's tokens. Concurrent callers for the same key share
// one token endpoint request.
func (m *Manager) refresh(ctx context.Context, key string) (sessions.Session, error) {
	v, err, _ := m.refreshes.Do(key, func() (any, error) {
		current, err := m.repo.Get(key)
		if err != nil {
			return nil, fmt.Errorf("[Manager refresh] %w", ErrNoSession)
		}
		// Another caller may have finished a refresh while we waited
		if current.Usable(m.nowFunc()) {
			return current, nil
		}
		if current.RefreshToken == "" {
			return nil, fmt.Errorf("[Manager refresh] %w: no refresh token", ErrRefreshFailed)
		}

		src := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
		tok, err := src.Token()
		if err != nil {
			return nil, fmt.Errorf("[Manager refresh] %w: %w", ErrRefreshFailed, err)
		}

		updated, err := m.applyToken(current, tok)
		if err != nil {
			return nil, fmt.Errorf("[Manager refresh] %w: %w", ErrRefreshFailed, err)
		}
		if updated.Identity != current.Identity {
			return nil, fmt.Errorf("[Manager refresh] %w: subject changed from %q to %q", ErrRefreshFailed, current.Identity, updated.Identity)
		}
		if err := m.repo.Upsert(updated); err != nil {
			return nil, fmt.Errorf("[Manager refresh] failed to store session: %w", err)
		}

		if !updated.SameTokens(current) {
			m.notifyRefreshed(updated)
		}
		return updated, nil
	})
	if err != nil {
		return sessions.Session{}, err
	}
	return v.(sessions.Session), nil
}

// applyToken copies the token endpoint reply onto session. Fields the provider
// omitted on refresh (refresh token, id token) keep their previous values.
func (m *Manager) applyToken(session sessions.Session, tok *oauth2.Token) (sessions.Session, error) {
	session.AccessToken = tok.AccessToken
	session.ExpiresAt = m.expiry(tok)
	if tok.RefreshToken != "" {
		session.RefreshToken = tok.RefreshToken
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return session, nil
	}
	claims, subject, err := parseIDToken(rawIDToken)
	if err != nil {
		return session, err
	}
	session.IDToken = rawIDToken
	session.Claims = claims
	session.Identity = subject
	return session, nil
}

// expiry converts expires_in into an absolute time using the manager's clock
func (m *Manager) expiry(tok *oauth2.Token) time.Time {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return m.nowFunc().Add(time.Duration(v) * time.Second)
	case string:
		if secs, err := strconv.Atoi(v); err == nil {
			return m.nowFunc().Add(time.Duration(secs) * time.Second)
		}
	}
	if tok.Expiry.IsZero() {
		return m.nowFunc().Add(m.lifetime)
	}
	return tok.Expiry
}

func (m *Manager) notifyRefreshed(session sessions.Session) {
	m.listenersLock.RLock()
	listeners := append([]RefreshListener(nil), m.listeners...)
	m.listenersLock.RUnlock()

	for _, l := range listeners {
		l(session)
	}
}

func (m *Manager) clientContext(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// parseIDToken extracts the claims without checking the signature; the token
// arrived directly from the token endpoint over TLS.
func parseIDToken(raw string) (map[string]any, string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse id_token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", errors.New("error extracting id_token claims")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, "", errors.New("id_token has no subject")
	}
	return map[string]any(claims), subject, nil
}

// generateSessionKey creates a random base64url string
func generateSessionKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
