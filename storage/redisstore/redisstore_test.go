package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-nagbot/conversations"
	"github.com/jrsteele09/go-nagbot/server/authflowrepo"
	"github.com/jrsteele09/go-nagbot/sessions"
	"github.com/jrsteele09/go-nagbot/storage/redisstore"
	"github.com/jrsteele09/go-nagbot/users"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redisstore.Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := redisstore.Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = redisstore.Connect(context.Background(), "redis://:bad port")
	require.Error(t, err)

	addr := mr.Addr()
	mr.Close()
	_, err = redisstore.Connect(context.Background(), addr)
	require.Error(t, err)
}

func TestConversationStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := redisstore.NewConversationStore(client, "test")

	ref := conversations.Reference{ServiceURL: "https://smba.example.test/", ChannelID: "msteams", ConversationID: "conv-1", TenantID: "t1"}
	require.NoError(t, store.Save(ctx, "alice", []conversations.Reference{ref}))
	require.True(t, mr.Exists("test:conversations"))

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string][]conversations.Reference{"alice": {ref}}, all)

	require.NoError(t, store.Delete(ctx, "alice"))
	all, err = store.LoadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestConversationStore_RoundTripThroughDirectory(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	store := redisstore.NewConversationStore(client, "")

	dir := conversations.NewDirectory()
	conversations.NewPersister(dir, store, zerolog.Nop()).Attach()
	require.NoError(t, dir.Insert("alice", conversations.Reference{ServiceURL: "https://s/", ConversationID: "c1"}))
	require.NoError(t, dir.Insert("alice", conversations.Reference{ServiceURL: "https://s/", ConversationID: "c2"}))

	restored := conversations.NewDirectory()
	require.NoError(t, conversations.NewPersister(restored, store, zerolog.Nop()).Restore(ctx))
	require.Equal(t, dir.FindAll("alice"), restored.FindAll("alice"))
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	repo := redisstore.NewUserRepo(client, "test")

	joined := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	require.Error(t, repo.Upsert(ctx, users.Profile{}))
	require.NoError(t, repo.Upsert(ctx, users.Profile{Identity: "bob", Name: "Bob", DateJoined: joined}))
	require.NoError(t, repo.Upsert(ctx, users.Profile{Identity: "alice", Email: "alice@example.com"}))

	bob, err := repo.Get(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "Bob", bob.Name)
	require.True(t, joined.Equal(bob.DateJoined))

	_, err = repo.Get(ctx, "nobody")
	require.ErrorIs(t, err, users.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "alice", list[0].Identity)
	require.Equal(t, "bob", list[1].Identity)
}

func TestAuthFlowStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	store := redisstore.NewAuthFlowStore(client, "test", 10*time.Minute)

	require.NoError(t, store.Upsert(ctx, "state-1", &authflowrepo.AuthFlowState{TempKey: "temp-1", CodeVerifier: "verifier"}))
	require.Equal(t, 10*time.Minute, mr.TTL("test:authflow:state-1"))

	got, err := authflowrepo.Take(ctx, store, "state-1")
	require.NoError(t, err)
	require.Equal(t, "temp-1", got.TempKey)
	require.Equal(t, "verifier", got.CodeVerifier)

	_, err = store.Get(ctx, "state-1")
	require.ErrorIs(t, err, authflowrepo.ErrStateNotFound)

	require.NoError(t, store.Upsert(ctx, "state-2", &authflowrepo.AuthFlowState{TempKey: "temp-2"}))
	mr.FastForward(11 * time.Minute)
	_, err = store.Get(ctx, "state-2")
	require.ErrorIs(t, err, authflowrepo.ErrStateNotFound)
}

func TestSessionRepo(t *testing.T) {
	_, client := newRedis(t)
	repo := redisstore.NewSessionRepo(client, "test")

	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := sessions.Session{Key: "k2", Identity: "alice", AccessToken: "a2", CreatedAt: created.Add(time.Hour)}
	older := sessions.Session{
		Key:          "k1",
		Identity:     "alice",
		AccessToken:  "a1",
		RefreshToken: "r1",
		Claims:       map[string]any{"name": "Alice"},
		ExpiresAt:    created.Add(time.Hour),
		CreatedAt:    created,
	}
	require.Error(t, repo.Upsert(sessions.Session{}))
	require.NoError(t, repo.Upsert(newer))
	require.NoError(t, repo.Upsert(older))

	got, err := repo.Get("k1")
	require.NoError(t, err)
	require.Equal(t, "r1", got.RefreshToken)
	require.Equal(t, "Alice", got.Claims["name"])
	require.True(t, older.ExpiresAt.Equal(got.ExpiresAt))

	_, err = repo.Get("missing")
	require.ErrorIs(t, err, sessions.ErrNotFound)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "k1", list[0].Key)
	require.Equal(t, "k2", list[1].Key)
}
