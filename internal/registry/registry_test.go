package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrAdd(t *testing.T) {
	r := New[int]()

	_, ok := r.Get("input_text")
	assert.False(t, ok)

	v, loaded := r.GetOrAdd("input_text", func() int { return 1 })
	assert.False(t, loaded)
	assert.Equal(t, 1, v)

	v, loaded = r.GetOrAdd("input_text", func() int { return 2 })
	assert.True(t, loaded)
	assert.Equal(t, 1, v)

	got, ok := r.Get("input_text")
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestGetOrAddConcurrent(t *testing.T) {
	r := New[*int]()

	var wg sync.WaitGroup
	results := make([]*int, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = r.GetOrAdd("model", func() *int { v := i; return &v })
		}()
	}
	wg.Wait()

	for _, p := range results {
		assert.Same(t, results[0], p)
	}
}
