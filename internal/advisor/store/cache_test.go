package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/loan-advisor/pkg/infra/pool"
)

func newTestCache(t *testing.T, inner Catalog, withPool bool) (*CachedCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	var p *pool.Pool
	if withPool {
		var err error
		p, err = pool.NewPool("cache-test", pool.BackgroundPoolConfig())
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Release(time.Second) })
	}

	return NewCachedCatalog(inner, rdb, CacheConfig{TTL: time.Minute, KeyPrefix: "test:catalog:"}, p), mr
}

func TestCachedCatalogHitAfterMiss(t *testing.T) {
	ctx := context.Background()
	inner := &fakeCatalog{products: sampleProducts()}
	c, mr := newTestCache(t, inner, true)
	key := c.cacheKey("list_all")

	first, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	assert.Eventually(t, func() bool { return mr.Exists(key) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, time.Minute, mr.TTL(key))

	second, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), inner.calls.Load())
	require.Len(t, second, 3)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.Equal(t, first[1].FAQ, second[1].FAQ)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCachedCatalogCorruptEntryIsReloaded(t *testing.T) {
	ctx := context.Background()
	inner := &fakeCatalog{products: sampleProducts()}
	c, mr := newTestCache(t, inner, false)
	require.NoError(t, mr.Set(c.cacheKey("list_all"), "not json"))

	products, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedCatalogDegradesWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	inner := &fakeCatalog{products: sampleProducts()}
	c, mr := newTestCache(t, inner, false)
	mr.Close()

	products, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, int64(1), c.Stats().Errors)
}

func TestCachedCatalogInnerError(t *testing.T) {
	inner := &fakeCatalog{err: errors.New("db down")}
	c, mr := newTestCache(t, inner, false)

	_, err := c.ListAll(context.Background())
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists(c.cacheKey("list_all")))
}

func TestCachedCatalogGetByIDBypassesCache(t *testing.T) {
	ctx := context.Background()
	inner := &fakeCatalog{products: sampleProducts()}
	c, _ := newTestCache(t, inner, false)

	_, err := c.ListAll(ctx)
	require.NoError(t, err)

	inner.products[0].Name = "Renamed"
	p, err := c.GetByID(ctx, inner.products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)
}

func TestCachedCatalogInvalidate(t *testing.T) {
	ctx := context.Background()
	inner := &fakeCatalog{products: sampleProducts()}
	c, mr := newTestCache(t, inner, false)

	_, err := c.ListAll(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(c.cacheKey("list_all")))

	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists(c.cacheKey("list_all")))
}

func TestCachedCatalogConcurrentMisses(t *testing.T) {
	inner := &fakeCatalog{products: sampleProducts()}
	c, _ := newTestCache(t, inner, false)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := c.ListAll(context.Background())
			assert.NoError(t, err)
			assert.Len(t, products, 3)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, inner.calls.Load(), int32(8))
}
