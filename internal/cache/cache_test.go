package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](2, 0)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", "1")
	c.Set("b", "2")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// "b" is now the least recently used entry.
	c.Set("c", "3")
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Size())

	c.Set("a", "updated")
	v, _ = c.Get("a")
	assert.Equal(t, "updated", v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, int64(2), st.Hits)
	assert.Equal(t, int64(3), st.Misses)
	assert.Equal(t, 1, st.Entries)
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("x", 1)
	c.Set("y", 2)
	now = now.Add(30 * time.Second)
	c.Set("z", 3)

	_, ok := c.Get("x")
	assert.True(t, ok)

	now = now.Add(45 * time.Second)
	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 1, c.Size())

	now = now.Add(time.Minute)
	_, ok = c.Get("z")
	assert.False(t, ok, "expired entries are dropped on read")
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheNoTTLNeverExpires(t *testing.T) {
	c := NewLRUCache[int](1, 0)
	c.Set("k", 1)
	assert.Equal(t, 0, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}

func TestLRUCacheConcurrent(t *testing.T) {
	c := NewLRUCache[int](16, time.Minute)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := string(rune('a' + (i+j)%20))
				c.Set(key, j)
				c.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), 16)
}

func TestManagerSweep(t *testing.T) {
	c := NewLRUCache[int](4, time.Second)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	m := NewManager(nil)
	m.Register("charts", c)
	assert.Equal(t, 0, m.Sweep())

	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())
}

func TestManagerStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(nil)
	m.Register("downloads", NewLRUCache[[]byte](2, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)
	NewManager(nil).Stop()
}
