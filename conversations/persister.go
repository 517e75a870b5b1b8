package conversations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store keeps each identity's bindings across restarts.
type Store interface {
	Save(ctx context.Context, identity string, refs []Reference) error
	Delete(ctx context.Context, identity string) error
	LoadAll(ctx context.Context) (map[string][]Reference, error)
}

// Persister mirrors directory changes into a Store.
type Persister struct {
	dir     *Directory
	store   Store
	timeout time.Duration
	logger  zerolog.Logger

	// writeMu orders read-then-save so the store ends on the latest directory state
	writeMu sync.Mutex
}

func NewPersister(dir *Directory, store Store, logger zerolog.Logger) *Persister {
	return &Persister{
		dir:     dir,
		store:   store,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Restore loads every stored binding into the directory
func (p *Persister) Restore(ctx context.Context) error {
	all, err := p.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("[Persister Restore] %w", err)
	}
	for identity, refs := range all {
		p.dir.BulkLoad(identity, refs)
	}
	p.logger.Info().Int("identities", len(all)).Msg("Restored conversation bindings")
	return nil
}

// Attach starts writing every directory update to the store
func (p *Persister) Attach() {
	p.dir.OnUpdated(p.handleUpdate)
}

func (p *Persister) handleUpdate(identity string, _ *Reference) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	refs := p.dir.FindAll(identity)
	var err error
	if len(refs) == 0 {
		err = p.store.Delete(ctx, identity)
	} else {
		err = p.store.Save(ctx, identity, refs)
	}
	if err != nil {
		p.logger.Err(err).Str("identity", identity).Msg("Failed to persist conversation bindings")
	}
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu       sync.RWMutex
	bindings map[string][]Reference
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bindings: make(map[string][]Reference)}
}

func (s *MemoryStore) Save(_ context.Context, identity string, refs []Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[identity] = append([]Reference(nil), refs...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, identity)
	return nil
}

func (s *MemoryStore) LoadAll(context.Context) (map[string][]Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]Reference, len(s.bindings))
	for identity, refs := range s.bindings {
		out[identity] = append([]Reference(nil), refs...)
	}
	return out, nil
}
