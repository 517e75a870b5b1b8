package sessions

import (
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("session not found")

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewInMemoryRepo creates an empty session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]Session),
	}
}

// Upsert creates or replaces the session stored under session.Key
func (r *InMemoryRepo) Upsert(session Session) error {
	if session.Key == "" {
		return errors.New("session key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy so callers can't mutate the claims map behind our back
	r.sessions[session.Key] = session.clone()
	return nil
}

// Get returns a copy of the session stored under key
func (r *InMemoryRepo) Get(key string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[key]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session.clone(), nil
}

// List returns every session, oldest first
func (r *InMemoryRepo) List() ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s.clone())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}
