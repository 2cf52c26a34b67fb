package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/redis"
)

func newTestCache(t *testing.T) (*RefCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	// Unique connection name per test, the adapter registry is global.
	connName := fmt.Sprintf("refcache-test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return NewRefCache(adapter, time.Minute), mr
}

func TestRefCacheMissThenHit(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok := cache.Get(model.DatasetCustomers)
	require.False(t, ok)

	cache.Put(model.DatasetCustomers, []int64{1, 2, 3})

	ids, ok := cache.Get(model.DatasetCustomers)
	require.True(t, ok)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestRefCacheEmptySetIsNotAMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	cache.Put(model.DatasetProducts, nil)

	ids, ok := cache.Get(model.DatasetProducts)
	require.True(t, ok)
	assert.Empty(t, ids)
}

func TestRefCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)

	cache.Put(model.DatasetCustomers, []int64{1})
	cache.Invalidate(model.DatasetCustomers)

	_, ok := cache.Get(model.DatasetCustomers)
	assert.False(t, ok)
}

func TestRefCachePoisonedEntryDropsKey(t *testing.T) {
	cache, mr := newTestCache(t)

	mr.SAdd("refs:customers", "not-a-number")

	_, ok := cache.Get(model.DatasetCustomers)
	require.False(t, ok)
	assert.False(t, mr.Exists("refs:customers"))
}

func TestRefCacheKindsAreIsolated(t *testing.T) {
	cache, _ := newTestCache(t)

	cache.Put(model.DatasetCustomers, []int64{1})
	cache.Put(model.DatasetProducts, []int64{1001})
	cache.Invalidate(model.DatasetCustomers)

	_, ok := cache.Get(model.DatasetCustomers)
	assert.False(t, ok)

	skus, ok := cache.Get(model.DatasetProducts)
	require.True(t, ok)
	assert.Equal(t, []int64{1001}, skus)
}
