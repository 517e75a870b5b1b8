package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jrsteele09/go-nagbot/users"
	"github.com/redis/go-redis/v9"
)

var _ users.Repo = (*UserRepo)(nil)

// UserRepo stores profiles as JSON fields of a single hash keyed by identity
type UserRepo struct {
	client *redis.Client
	hash   string
}

func NewUserRepo(client *redis.Client, prefix string) *UserRepo {
	return &UserRepo{client: client, hash: key(prefix, "users")}
}

func (r *UserRepo) Upsert(ctx context.Context, profile users.Profile) error {
	if profile.Identity == "" {
		return errors.New("identity is required")
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.hash, profile.Identity, raw).Err()
}

func (r *UserRepo) Get(ctx context.Context, identity string) (users.Profile, error) {
	raw, err := r.client.HGet(ctx, r.hash, identity).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return users.Profile{}, users.ErrNotFound
		}
		return users.Profile{}, err
	}
	var p users.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return users.Profile{}, fmt.Errorf("decode profile %s: %w", identity, err)
	}
	return p, nil
}

func (r *UserRepo) List(ctx context.Context) ([]users.Profile, error) {
	fields, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, err
	}

	list := make([]users.Profile, 0, len(fields))
	for identity, raw := range fields {
		var p users.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", identity, err)
		}
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Identity < list[j].Identity
	})
	return list, nil
}
