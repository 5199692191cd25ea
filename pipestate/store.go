package pipestate

import (
	"sync"

	"github.com/glimte/flowline-go/contracts"
)

// Store is the point read/write contract the accessor layer builds on.
// Implementations must make individual Get and Set calls atomic; the
// accessor requires nothing stronger because each key has exactly one
// writer.
type Store interface {
	// Get returns the value for key. The second result is false when the
	// key was never written.
	Get(key string) (any, bool)
	// Set writes the value for key, replacing any previous value.
	Set(key string, value any)
}

// InMemoryStore is a mutex-guarded map Store for pipelines whose stages
// run as goroutines in one process.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]any),
	}
}

// Get implements Store.
func (s *InMemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	return v, ok
}

// Set implements Store.
func (s *InMemoryStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value
}

// Len returns the number of entries, mostly useful in tests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

var _ Store = (*InMemoryStore)(nil)

// get is a shared helper that turns an absent key into a MissingRecordError.
func get(s Store, key string) (any, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, &contracts.MissingRecordError{Key: key}
	}
	return v, nil
}
