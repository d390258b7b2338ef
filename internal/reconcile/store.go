package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
)

type tableLoader interface {
	Load(ctx context.Context) (*Result, error)
}

// Store memoizes the first successful load for the lifetime of the process.
// After that the result is shared read-only and disk is never read again.
type Store struct {
	loader tableLoader

	mu     sync.Mutex
	result atomic.Pointer[Result]
}

func NewStore(loader tableLoader) *Store {
	return &Store{loader: loader}
}

// GetOrLoad returns the cached result, loading it on first use. A failed
// load is not cached.
func (s *Store) GetOrLoad(ctx context.Context) (*Result, error) {
	if r := s.result.Load(); r != nil {
		return r, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.result.Load(); r != nil {
		return r, nil
	}

	r, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.result.Store(r)
	return r, nil
}

// Loaded reports whether a result is cached.
func (s *Store) Loaded() bool {
	return s.result.Load() != nil
}
