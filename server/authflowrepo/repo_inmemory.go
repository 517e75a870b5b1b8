package authflowrepo

import (
	"context"
	"errors"
	"sync"
	"time"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Entries older than ttl are treated as missing.
type InMemoryRepo struct {
	mu      sync.RWMutex
	states  map[string]AuthFlowState
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		states:  make(map[string]AuthFlowState),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// WithNowFunc replaces the clock used for expiry
func (r *InMemoryRepo) WithNowFunc(now func() time.Time) *InMemoryRepo {
	r.nowFunc = now
	return r
}

// Upsert stores or updates an auth flow state
func (r *InMemoryRepo) Upsert(_ context.Context, state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune()
	r.states[state] = *authState
	return nil
}

// Get retrieves an auth flow state by state parameter
func (r *InMemoryRepo) Get(_ context.Context, state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	authState, exists := r.states[state]
	if !exists || r.expired(authState) {
		return nil, ErrStateNotFound
	}
	return &authState, nil
}

// Delete removes an auth flow state
func (r *InMemoryRepo) Delete(_ context.Context, state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

func (r *InMemoryRepo) expired(s AuthFlowState) bool {
	return r.ttl > 0 && r.nowFunc().Sub(s.CreatedAt) > r.ttl
}

// prune drops expired entries, caller holds the write lock
func (r *InMemoryRepo) prune() {
	for k, s := range r.states {
		if r.expired(s) {
			delete(r.states, k)
		}
	}
}
