package state

import (
	"context"
	"sync"

	"voipshop/internal/domain"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemory returns a process-local store, used in development and tests.
func NewMemory() Store {
	return &memoryStore{data: make(map[string]map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, session, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[session][key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *memoryStore) Put(_ context.Context, session, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[session]
	if !ok {
		m = make(map[string][]byte)
		s.data[session] = m
	}
	m[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, session string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[session]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(m, k)
	}
	if len(m) == 0 {
		delete(s.data, session)
	}
	return nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }
