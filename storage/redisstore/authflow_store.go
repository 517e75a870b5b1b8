package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jrsteele09/go-nagbot/server/authflowrepo"
	"github.com/redis/go-redis/v9"
)

var _ authflowrepo.Repo = (*AuthFlowStore)(nil)

// AuthFlowStore keeps short-lived sign-in state with a Redis TTL
type AuthFlowStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewAuthFlowStore(client *redis.Client, prefix string, ttl time.Duration) *AuthFlowStore {
	return &AuthFlowStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *AuthFlowStore) Upsert(ctx context.Context, state string, authState *authflowrepo.AuthFlowState) error {
	if state == "" || authState == nil {
		return errors.New("state and authState are required")
	}
	raw, err := json.Marshal(authState)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(s.prefix, "authflow", state), raw, s.ttl).Err()
}

func (s *AuthFlowStore) Get(ctx context.Context, state string) (*authflowrepo.AuthFlowState, error) {
	raw, err := s.client.Get(ctx, key(s.prefix, "authflow", state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authflowrepo.ErrStateNotFound
		}
		return nil, err
	}
	var out authflowrepo.AuthFlowState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AuthFlowStore) Delete(ctx context.Context, state string) error {
	return s.client.Del(ctx, key(s.prefix, "authflow", state)).Err()
}
