package conversations

import (
	"fmt"
	"sync"
	"time"
)

const defaultPendingTTL = 24 * time.Hour

// UpdateListener is told which identity's bindings changed. ref is the reference
// that was added, or nil when references were removed. Listeners run after the
// change is visible, so they may read the directory back.
type UpdateListener func(identity string, ref *Reference)

// Directory maps identities to the conversations they are reachable in, and
// holds conversations seen before their user signed in.
type Directory struct {
	mu       sync.RWMutex
	bindings map[string][]Reference // identity -> references
	owners   map[Key]string         // reference key -> identity
	pending  map[string]stagedRef   // temp key -> staged reference
	staged   map[Key]string         // reference key -> latest temp key

	pendingTTL time.Duration
	nowFunc    func() time.Time

	listenersLock sync.RWMutex
	listeners     []UpdateListener
}

type stagedRef struct {
	ref      Reference
	stagedAt time.Time
}

type DirectoryOption func(*Directory)

// WithPendingTTL bounds how long a staged conversation waits for its user. Zero keeps it forever.
func WithPendingTTL(ttl time.Duration) DirectoryOption {
	return func(d *Directory) {
		d.pendingTTL = ttl
	}
}

func WithNowFunc(now func() time.Time) DirectoryOption {
	return func(d *Directory) {
		d.nowFunc = now
	}
}

func NewDirectory(options ...DirectoryOption) *Directory {
	d := &Directory{
		bindings:   make(map[string][]Reference),
		owners:     make(map[Key]string),
		pending:    make(map[string]stagedRef),
		staged:     make(map[Key]string),
		pendingTTL: defaultPendingTTL,
		nowFunc:    time.Now,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// OnUpdated registers a listener for Insert, Promote and ClearIdentity
func (d *Directory) OnUpdated(listener UpdateListener) {
	d.listenersLock.Lock()
	defer d.listenersLock.Unlock()
	d.listeners = append(d.listeners, listener)
}

// FindAll returns a copy of the references bound to identity
func (d *Directory) FindAll(identity string) []Reference {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Reference{}, d.bindings[identity]...)
}

// Find returns the first reference bound to identity that satisfies match
func (d *Directory) Find(identity string, match func(Reference) bool) (Reference, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, ref := range d.bindings[identity] {
		if match(ref) {
			return ref, true
		}
	}
	return Reference{}, false
}

// Owner returns the identity a conversation is bound to
func (d *Directory) Owner(ref Reference) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	identity, ok := d.owners[ref.Key()]
	return identity, ok
}

// Insert binds ref to identity. A reference bound to another identity is moved.
func (d *Directory) Insert(identity string, ref Reference) error {
	d.mu.Lock()
	previous, err := d.insertLocked(identity, ref)
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("[Directory Insert] %w", err)
	}

	if previous != "" {
		d.notify(previous, nil)
	}
	d.notify(identity, &ref)
	return nil
}

// BulkLoad replaces identity's references without notifying listeners.
// It is meant for rehydrating the directory from storage at startup.
func (d *Directory) BulkLoad(identity string, refs []Reference) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeLocked(identity)
	for _, ref := range refs {
		// Duplicates in storage collapse to one binding
		_, _ = d.insertLocked(identity, ref)
	}
}

// StagePending parks ref under tempKey until its user signs in
func (d *Directory) StagePending(tempKey string, ref Reference) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pruneLocked()
	if _, exists := d.pending[tempKey]; exists {
		return fmt.Errorf("[Directory StagePending] %w", ErrDuplicateTempKey)
	}
	d.stageLocked(tempKey, ref)
	return nil
}

// StageOrReuse returns the temp key ref is already staged under, or stages it under tempKey.
func (d *Directory) StageOrReuse(tempKey string, ref Reference) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pruneLocked()
	if existing, ok := d.staged[ref.Key()]; ok {
		return existing, nil
	}
	if _, exists := d.pending[tempKey]; exists {
		return "", fmt.Errorf("[Directory StageOrReuse] %w", ErrDuplicateTempKey)
	}
	d.stageLocked(tempKey, ref)
	return tempKey, nil
}

// Pending returns the reference staged under tempKey without consuming it
func (d *Directory) Pending(tempKey string) (Reference, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.pending[tempKey]
	if !ok || d.expired(entry) {
		return Reference{}, false
	}
	return entry.ref, true
}

// PendingCount reports how many conversations are waiting for sign-in, expired ones included
func (d *Directory) PendingCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.pending)
}

// Promote consumes the staged reference and binds it to identity. The temp key is
// gone afterwards even if the binding fails.
func (d *Directory) Promote(tempKey, identity string) (Reference, error) {
	d.mu.Lock()
	entry, ok := d.pending[tempKey]
	if ok {
		d.unstageLocked(tempKey)
	}
	if !ok || d.expired(entry) {
		d.mu.Unlock()
		return Reference{}, fmt.Errorf("[Directory Promote] %w", ErrUnknownTempKey)
	}
	ref := entry.ref
	previous, err := d.insertLocked(identity, ref)
	d.mu.Unlock()

	if err != nil {
		return Reference{}, fmt.Errorf("[Directory Promote] %w", err)
	}
	if previous != "" {
		d.notify(previous, nil)
	}
	d.notify(identity, &ref)
	return ref, nil
}

// ClearIdentity removes every reference bound to identity. Other identities are untouched.
func (d *Directory) ClearIdentity(identity string) error {
	d.mu.Lock()
	removed := d.removeLocked(identity)
	d.mu.Unlock()

	if removed == 0 {
		return fmt.Errorf("[Directory ClearIdentity] %w", ErrUnknownIdentity)
	}
	d.notify(identity, nil)
	return nil
}

// insertLocked returns the identity ref was moved away from, if any
func (d *Directory) insertLocked(identity string, ref Reference) (string, error) {
	key := ref.Key()
	owner, bound := d.owners[key]
	if bound && owner == identity {
		return "", ErrDuplicateConversation
	}

	previous := ""
	if bound {
		d.unbindLocked(owner, key)
		previous = owner
	}
	d.bindings[identity] = append(d.bindings[identity], ref)
	d.owners[key] = identity
	return previous, nil
}

func (d *Directory) unbindLocked(identity string, key Key) {
	refs := d.bindings[identity]
	for i, ref := range refs {
		if ref.Key() == key {
			refs = append(refs[:i:i], refs[i+1:]...)
			break
		}
	}
	if len(refs) == 0 {
		delete(d.bindings, identity)
	} else {
		d.bindings[identity] = refs
	}
	delete(d.owners, key)
}

func (d *Directory) stageLocked(tempKey string, ref Reference) {
	d.pending[tempKey] = stagedRef{ref: ref, stagedAt: d.nowFunc()}
	d.staged[ref.Key()] = tempKey
}

func (d *Directory) unstageLocked(tempKey string) {
	entry, ok := d.pending[tempKey]
	if !ok {
		return
	}
	delete(d.pending, tempKey)
	if d.staged[entry.ref.Key()] == tempKey {
		delete(d.staged, entry.ref.Key())
	}
}

func (d *Directory) pruneLocked() {
	if d.pendingTTL <= 0 {
		return
	}
	for tempKey, entry := range d.pending {
		if d.expired(entry) {
			d.unstageLocked(tempKey)
		}
	}
}

func (d *Directory) expired(entry stagedRef) bool {
	return d.pendingTTL > 0 && d.nowFunc().Sub(entry.stagedAt) >= d.pendingTTL
}

func (d *Directory) removeLocked(identity string) int {
	refs := d.bindings[identity]
	for _, ref := range refs {
		delete(d.owners, ref.Key())
	}
	delete(d.bindings, identity)
	return len(refs)
}

func (d *Directory) notify(identity string, ref *Reference) {
	d.listenersLock.RLock()
	listeners := append([]UpdateListener(nil), d.listeners...)
	d.listenersLock.RUnlock()

	for _, l := range listeners {
		l(identity, ref)
	}
}
