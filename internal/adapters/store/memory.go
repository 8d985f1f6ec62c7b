package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps the weights in process memory. It backs the simulator
// and tests.
type MemoryStore struct {
	mu      sync.Mutex
	weights []int
	saves   int
}

// NewMemoryStore creates a store holding initial, or nothing when nil.
func NewMemoryStore(initial []int) *MemoryStore {
	s := &MemoryStore{}
	if initial != nil {
		s.weights = append([]int(nil), initial...)
	}
	return s
}

// Load returns the held weights or defaults when none are held.
func (s *MemoryStore) Load(ctx context.Context, size int) LoadResult {
	if err := ctx.Err(); err != nil {
		return fallback(size, fmt.Errorf("%w: %w", ErrLoad, err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.weights == nil {
		return Defaults(size)
	}
	if err := validate(s.weights, size); err != nil {
		return fallback(size, err)
	}
	return LoadResult{Weights: append([]int(nil), s.weights...), Source: SourceStore}
}

// Save replaces the held weights.
func (s *MemoryStore) Save(ctx context.Context, weights []int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.weights = append([]int{}, weights...)
	s.saves++
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Saved returns a copy of the held weights.
func (s *MemoryStore) Saved() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.weights...)
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
