package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jrsteele09/go-nagbot/sessions"
	"github.com/redis/go-redis/v9"
)

const sessionOpTimeout = 5 * time.Second

var _ sessions.Repo = (*SessionRepo)(nil)

// SessionRepo keeps auth sessions in a hash keyed by session key.
// sessions.Repo carries no context, so every call gets its own timeout.
type SessionRepo struct {
	client *redis.Client
	hash   string
}

func NewSessionRepo(client *redis.Client, prefix string) *SessionRepo {
	return &SessionRepo{client: client, hash: key(prefix, "sessions")}
}

func (r *SessionRepo) Upsert(session sessions.Session) error {
	if session.Key == "" {
		return errors.New("session key is required")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionOpTimeout)
	defer cancel()
	return r.client.HSet(ctx, r.hash, session.Key, raw).Err()
}

func (r *SessionRepo) Get(sessionKey string) (sessions.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionOpTimeout)
	defer cancel()

	raw, err := r.client.HGet(ctx, r.hash, sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sessions.Session{}, sessions.ErrNotFound
		}
		return sessions.Session{}, err
	}
	var s sessions.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return sessions.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// List returns every session, oldest first
func (r *SessionRepo) List() ([]sessions.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionOpTimeout)
	defer cancel()

	fields, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, err
	}

	list := make([]sessions.Session, 0, len(fields))
	for _, raw := range fields {
		var s sessions.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}
