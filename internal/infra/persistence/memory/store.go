// Package memory provides an in-memory storage backend for tests and
// ephemeral environments.
package memory

import (
	"context"
	"errors"
	"familycore/pkg/domain"
	"sync"
)

// Compile-time contract assertion ensuring memory.Store adheres to the backend interface.
var _ domain.Backend = (*Store)(nil)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memory store closed")

// Store keeps storage records in a map. Values are copied on the way in and
// out so callers never share buffers with the store.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
	closed  bool
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{records: make(map[string][]byte)}
}

// Get returns a copy of the record stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	data, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(data), true, nil
}

// Put replaces the record stored under key.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records[key] = cloneBytes(data)
	return nil
}

// Delete removes the record stored under key. Missing keys are not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.records, key)
	return nil
}

// Keys returns the stored keys, mostly for tests.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for k := range s.records {
		out = append(out, k)
	}
	return out
}

// Close marks the store closed. Later calls fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return []byte{}
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
