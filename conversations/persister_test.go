package conversations_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-nagbot/conversations"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPersister_MirrorsUpdates(t *testing.T) {
	ctx := context.Background()
	dir := conversations.NewDirectory()
	store := conversations.NewMemoryStore()
	conversations.NewPersister(dir, store, zerolog.Nop()).Attach()

	require.NoError(t, dir.Insert("alice", testRef("conv-1")))
	require.NoError(t, dir.StagePending("temp-1", testRef("conv-2")))
	_, err := dir.Promote("temp-1", "alice")
	require.NoError(t, err)

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all["alice"], 2)

	require.NoError(t, dir.ClearIdentity("alice"))
	all, err = store.LoadAll(ctx)
	require.NoError(t, err)
	require.NotContains(t, all, "alice")
}

func TestPersister_Restore(t *testing.T) {
	ctx := context.Background()
	store := conversations.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "alice", []conversations.Reference{testRef("conv-1")}))
	require.NoError(t, store.Save(ctx, "bob", []conversations.Reference{testRef("conv-2"), testRef("conv-3")}))

	dir, rec := newDirectory(t)
	p := conversations.NewPersister(dir, store, zerolog.Nop())
	require.NoError(t, p.Restore(ctx))

	require.Len(t, dir.FindAll("alice"), 1)
	require.Len(t, dir.FindAll("bob"), 2)
	require.Empty(t, rec.all(), "rehydration does not notify")
}

// gatedStore blocks the first Save until released
type gatedStore struct {
	*conversations.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) Save(ctx context.Context, identity string, refs []conversations.Reference) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.Save(ctx, identity, refs)
}

func TestPersister_ConcurrentUpdatesKeepLatest(t *testing.T) {
	store := &gatedStore{
		MemoryStore: conversations.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	dir := conversations.NewDirectory()
	conversations.NewPersister(dir, store, zerolog.Nop()).Attach()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = dir.Insert("alice", testRef("conv-1"))
	}()
	<-store.entered

	go func() {
		defer wg.Done()
		_ = dir.Insert("alice", testRef("conv-2"))
	}()
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	all, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all["alice"], 2)
}
