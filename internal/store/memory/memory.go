package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/followup/internal/store"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memory store closed")

// Store is an in-process store.KV. Nothing survives a restart,
// so it suits tests and single-session use.
type Store struct {
	mu      sync.RWMutex
	values  map[string][]byte
	closed  bool
	changes store.Broadcaster
}

// NewStore creates an empty memory store
func NewStore() *Store {
	return &Store{
		values: make(map[string][]byte),
	}
}

// Get returns copies of the stored values
func (s *Store) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = slices.Clone(v)
		}
	}
	return out, nil
}

// Set stores copies of entries and notifies watchers
func (s *Store) Set(_ context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	for k, v := range entries {
		s.values[k] = slices.Clone(v)
	}
	s.mu.Unlock()

	s.changes.Publish(store.Change{Keys: store.KeysOf(entries)})
	return nil
}

// Remove deletes keys and notifies watchers
func (s *Store) Remove(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	for _, k := range keys {
		delete(s.values, k)
	}
	s.mu.Unlock()

	s.changes.Publish(store.Change{Keys: slices.Clone(keys)})
	return nil
}

// Watch subscribes to changes until ctx is done
func (s *Store) Watch(ctx context.Context) (<-chan store.Change, error) {
	return s.changes.Subscribe(ctx), nil
}

// Ping fails only once the store is closed
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close drops all values
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.values = nil
	return nil
}

// Len returns the number of stored keys
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values)
}
