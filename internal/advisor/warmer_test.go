package advisor

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/loan-advisor/internal/advisor/store"
	"github.com/kart-io/loan-advisor/internal/model"
)

type countingCatalog struct {
	products []*model.LoanProduct
	calls    int
}

func (c *countingCatalog) ListAll(context.Context) ([]*model.LoanProduct, error) {
	c.calls++
	return c.products, nil
}

func (c *countingCatalog) GetByID(_ context.Context, id string) (*model.LoanProduct, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrProductNotFound
}

func TestCacheWarmerReplacesStaleEntries(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingCatalog{products: []*model.LoanProduct{{ID: fixtureProductID, Name: "Green Auto Loan"}}}
	cached := store.NewCachedCatalog(inner, rdb, store.CacheConfig{TTL: time.Minute, KeyPrefix: "warm:"}, nil)

	w := &cacheWarmer{cache: cached}
	assert.Equal(t, "catalog-cache-warmer", w.Name())
	require.NoError(t, w.Start(ctx))
	assert.Equal(t, 1, inner.calls)

	// 目录更新后缓存仍返回旧列表
	inner.products = append(inner.products, &model.LoanProduct{ID: "other", Name: "Flex Credit Line"})
	products, err := cached.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, inner.calls)

	// 重新预热后读到新列表
	require.NoError(t, w.Start(ctx))
	assert.Equal(t, 2, inner.calls)
	products, err = cached.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 2, inner.calls)
	require.NoError(t, w.Stop(ctx))
}

func TestCacheWarmerToleratesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	cached := store.NewCachedCatalog(&countingCatalog{}, rdb, store.CacheConfig{TTL: time.Minute, KeyPrefix: "warm:"}, nil)
	assert.NoError(t, (&cacheWarmer{cache: cached}).Start(context.Background()))
}

func TestNewServerWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.CacheOptions.Enabled = true
	cfg.CacheOptions.Redis.Host = mr.Host()
	cfg.CacheOptions.Redis.Port = port

	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(s.cleanup)

	assert.Equal(t, []string{"catalog", "cache"}, s.storage.List())

	w := serve(s, "GET", "/metrics", "")
	assert.Contains(t, w.Body.String(), "catalog_cache_misses_total")
}
