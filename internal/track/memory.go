package track

import (
	"sync"

	"github.com/fwagner/gtswatch/internal/listing"
)

// MemoryStore keeps listing state in a map. Used in tests and wherever
// durability is not needed.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[listing.Key]*State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[listing.Key]*State)}
}

func (m *MemoryStore) Get(key listing.Key) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[key]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (m *MemoryStore) Put(state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[state.Key] = &cp
	return nil
}

func (m *MemoryStore) All() ([]*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*State, 0, len(m.states))
	for _, st := range m.states {
		cp := *st
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
