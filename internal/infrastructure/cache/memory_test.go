package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcsite/backend/internal/domain"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	t.Run("string value", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k1", "value", time.Minute))

		got, err := cache.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	})

	t.Run("struct values come back in JSON form", func(t *testing.T) {
		review := &domain.Review{Review: "조용하고 시원함", SpecSummary: "8GB GDDR6"}
		require.NoError(t, cache.Set(ctx, "review:graphics-card:RTX 4060", review, time.Minute))

		got, err := cache.Get(ctx, "review:graphics-card:RTX 4060")
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{
			"review":      "조용하고 시원함",
			"specSummary": "8GB GDDR6",
		}, got)
	})

	t.Run("numbers come back as float64", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "n", 14000, time.Minute))

		got, err := cache.Get(ctx, "n")
		require.NoError(t, err)
		assert.Equal(t, float64(14000), got)
	})

	t.Run("expired value is a miss", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "short", "expires-soon", time.Millisecond))
		time.Sleep(10 * time.Millisecond)

		_, err := cache.Get(ctx, "short")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("unencodable value", func(t *testing.T) {
		err := cache.Set(ctx, "bad", make(chan int), time.Minute)
		assert.Error(t, err)
	})
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()

	_, err := cache.Get(context.Background(), "non-existent-key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_DeleteAndExists(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	exists, err = cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "k"))
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "short", "v", time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	exists, err = cache.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_SweepsExpiredEntries(t *testing.T) {
	cache := NewMemoryCacheWithInterval(5 * time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", 1, time.Millisecond))
	require.NoError(t, cache.Set(ctx, "b", 2, time.Minute))

	assert.Eventually(t, func() bool { return cache.Size() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache()
	assert.NoError(t, cache.Close())
	assert.NoError(t, cache.Close())
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			assert.NoError(t, cache.Set(ctx, key, id, time.Minute))
			_, err := cache.Get(ctx, key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, cache.Size())
}
