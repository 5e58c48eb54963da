package state

import "sync"

type memoryStore[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
}

// NewMemoryStore constructs a process-local Store. Sessions are lost on restart.
func NewMemoryStore[S any]() Store[S] {
	return &memoryStore[S]{sessions: make(map[int64]S)}
}

func (m *memoryStore[S]) Get(userID int64) (S, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *memoryStore[S]) Put(userID int64, s S) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}
