package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (s *stubLoader) Load(context.Context) (*Result, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return nil, errors.New("disk on fire")
	}
	return &Result{}, nil
}

func TestStoreMemoizes(t *testing.T) {
	loader := &stubLoader{}
	store := NewStore(loader)
	assert.False(t, store.Loaded())

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := store.GetOrLoad(context.Background())
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, loader.calls.Load())
	assert.True(t, store.Loaded())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestStoreDoesNotCacheFailures(t *testing.T) {
	loader := &stubLoader{}
	loader.fail.Store(true)
	store := NewStore(loader)

	_, err := store.GetOrLoad(context.Background())
	require.Error(t, err)
	assert.False(t, store.Loaded())

	loader.fail.Store(false)
	r, err := store.GetOrLoad(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.EqualValues(t, 2, loader.calls.Load())
}
