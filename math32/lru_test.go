package math32

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Basic(t *testing.T) {
	t.Run("get and put", func(t *testing.T) {
		c := NewCache[uint64, int32](4)
		c.Put(1, 10)
		c.Put(2, 20)

		v, ok := c.Get(1)
		require.True(t, ok)
		assert.Equal(t, int32(10), v)

		_, ok = c.Get(3)
		assert.False(t, ok)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c := NewCache[uint64, int32](2)
		c.Put(1, 10)
		c.Put(2, 20)
		_, _ = c.Get(1)
		c.Put(3, 30)

		_, ok := c.Get(2)
		assert.False(t, ok, "2 was the oldest entry")
		_, ok = c.Get(1)
		assert.True(t, ok)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("clear resets stats", func(t *testing.T) {
		c := NewCache[uint64, int32](2)
		c.Put(1, 10)
		_, _ = c.Get(1)
		_, _ = c.Get(5)
		stats := c.Stats()
		assert.Equal(t, int64(1), stats.Hits)
		assert.Equal(t, int64(1), stats.Misses)
		assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

		c.Clear()
		assert.Equal(t, CacheStats{Capacity: 2}, c.Stats())
	})

	t.Run("zero capacity panics", func(t *testing.T) {
		assert.Panics(t, func() { NewCache[int, int](0) })
	})
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache[uint64, int32](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := uint64(i % 100)
				c.Put(key, int32(g))
				_, _ = c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 64)
}

func TestBitmap(t *testing.T) {
	var b Bitmap
	b.Set(3)
	b.Set(130)
	assert.True(t, b.Contains(3))
	assert.True(t, b.Contains(130))
	assert.False(t, b.Contains(4))
	assert.False(t, b.Contains(10_000))
	assert.Equal(t, 2, b.Count())

	b.Remove(3)
	assert.False(t, b.Contains(3))
	assert.Equal(t, 1, b.Count())
}

func TestVector3i_Pack(t *testing.T) {
	a := Vector3i{X: 1, Y: 2, Z: 3}
	b := Vector3i{X: 3, Y: 2, Z: 1}
	assert.NotEqual(t, a.Pack(), b.Pack())
	assert.Equal(t, a.Pack(), Vector3i{X: 1, Y: 2, Z: 3}.Pack())
}

func TestVector3_Floor(t *testing.T) {
	assert.Equal(t, Vector3i{X: 1, Y: -1, Z: 0}, Vector3{X: 1.7, Y: -0.2, Z: 0.99}.Floor())
}
