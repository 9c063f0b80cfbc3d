// Package memory is an in-process result store
package memory

import (
	"context"
	"sync"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/storage"
)

// Store keeps results in a map. Stored and returned results are copies.
type Store struct {
	mu      sync.RWMutex
	results map[string]*engine.Result
	closed  bool
}

// New creates an empty store
func New() *Store {
	return &Store{results: make(map[string]*engine.Result)}
}

func (s *Store) Get(_ context.Context, key string) (*engine.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, storage.ErrClosed
	}
	res, ok := s.results[key]
	if !ok {
		return nil, false, nil
	}
	return res.Clone(), true, nil
}

func (s *Store) Put(_ context.Context, key string, res *engine.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.results[key] = res.Clone()
	return nil
}

// Len returns the number of cached results
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.results = nil
	return nil
}
