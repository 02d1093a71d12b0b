package lru

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, size int) *LRU[string, int] {
	t.Helper()
	c := New[string, int](&Config{
		MaxSize:         size,
		DefaultTTL:      time.Minute,
		CleanupInterval: 10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetSetDelete(t *testing.T) {
	c := newTestCache(t, 10)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, int](&Config{MaxSize: 2, DefaultTTL: time.Minute},
		WithOnEvict(func(k string, _ int) { evicted = append(evicted, k) }))
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestExpiry(t *testing.T) {
	c := newTestCache(t, 10)

	c.SetWithTTL("short", 1, 20*time.Millisecond)
	c.Set("long", 2)

	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)
	_, ok := c.Get("short")
	assert.False(t, ok)
	v, ok := c.Get("long")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	c := newTestCache(t, 10)

	var (
		mu      sync.Mutex
		created int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrCreate("k", func() int {
				mu.Lock()
				created++
				mu.Unlock()
				return 42
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	v, _ := c.Get("k")
	assert.Equal(t, 42, v)
}

func TestCloseIdempotent(t *testing.T) {
	c := New[string, int](nil)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
