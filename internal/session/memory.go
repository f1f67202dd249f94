package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wolfman30/symptom-scout/internal/triage"
)

// MemoryStore keeps sessions in process. Sessions are copied on the way in
// and out so callers never share a pointer with the store.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[string][]byte
	transcripts map[string][]Message
	locks       map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string][]byte),
		transcripts: make(map[string][]Message),
		locks:       make(map[string]struct{}),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*triage.Session, error) {
	m.mu.Lock()
	data, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var s triage.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *triage.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.transcripts, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Lock(_ context.Context, id string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return nil, ErrLocked
	}
	m.locks[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locks, id)
			m.mu.Unlock()
		})
	}, nil
}
