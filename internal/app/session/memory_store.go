package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state   *State
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Used when redis is disabled.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore returns a MemoryStore whose sessions expire ttl after their last update.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.state.clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*State) error) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var working *State
	if e, ok := m.live(id); ok {
		working = e.state.clone()
	} else {
		working = NewState(id)
	}

	if err := fn(working); err != nil {
		return nil, err
	}

	now := m.now()
	working.UpdatedAt = now
	m.entries[id] = memoryEntry{state: working, expires: now.Add(m.ttl)}
	return working.clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// live must be called with mu held.
func (m *MemoryStore) live(id string) (memoryEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		delete(m.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}
