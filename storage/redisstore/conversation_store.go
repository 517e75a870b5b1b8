package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-nagbot/conversations"
	"github.com/redis/go-redis/v9"
)

var _ conversations.Store = (*ConversationStore)(nil)

// ConversationStore keeps every identity's bindings as one JSON field of a hash
type ConversationStore struct {
	client *redis.Client
	hash   string
}

func NewConversationStore(client *redis.Client, prefix string) *ConversationStore {
	return &ConversationStore{client: client, hash: key(prefix, "conversations")}
}

func (s *ConversationStore) Save(ctx context.Context, identity string, refs []conversations.Reference) error {
	raw, err := json.Marshal(refs)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.hash, identity, raw).Err()
}

func (s *ConversationStore) Delete(ctx context.Context, identity string) error {
	return s.client.HDel(ctx, s.hash, identity).Err()
}

func (s *ConversationStore) LoadAll(ctx context.Context) (map[string][]conversations.Reference, error) {
	fields, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]conversations.Reference, len(fields))
	for identity, raw := range fields {
		var refs []conversations.Reference
		if err := json.Unmarshal([]byte(raw), &refs); err != nil {
			return nil, fmt.Errorf("decode bindings for %s: %w", identity, err)
		}
		out[identity] = refs
	}
	return out, nil
}
