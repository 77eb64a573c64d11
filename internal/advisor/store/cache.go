package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/kart-io/loan-advisor/internal/model"
	"github.com/kart-io/loan-advisor/pkg/infra/pool"
	"github.com/kart-io/loan-advisor/pkg/utils/json"
)

const cacheWriteTimeout = 2 * time.Second

// CacheConfig 目录缓存配置。
type CacheConfig struct {
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// CacheStats 缓存命中统计。
type CacheStats struct {
	Hits   int64
	Misses int64
	Errors int64
}

// CachedCatalog caches the full listing in Redis.
// GetByID always reads through so a chat never sees a stale product.
// Redis errors fall back to the inner catalog.
type CachedCatalog struct {
	inner  Catalog
	rdb    *goredis.Client
	config CacheConfig
	pool   *pool.Pool
	group  singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

var _ Catalog = (*CachedCatalog)(nil)

// NewCachedCatalog wraps inner with a Redis cache. Writes run on p when it is
// not nil, otherwise inline.
func NewCachedCatalog(inner Catalog, rdb *goredis.Client, config CacheConfig, p *pool.Pool) *CachedCatalog {
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	return &CachedCatalog{
		inner:  inner,
		rdb:    rdb,
		config: config,
		pool:   p,
	}
}

// cacheKey 对操作名做 SHA256，键长度固定。
func (c *CachedCatalog) cacheKey(op string) string {
	hash := sha256.Sum256([]byte(op))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// ListAll returns the cached listing, loading it from the inner catalog on a miss.
func (c *CachedCatalog) ListAll(ctx context.Context) ([]*model.LoanProduct, error) {
	key := c.cacheKey("list_all")

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var products []*model.LoanProduct
		if err := json.Unmarshal(data, &products); err == nil {
			c.hits.Add(1)
			logger.Debugw("catalog cache hit", "key", key, "count", len(products))
			return products, nil
		}
		logger.Warnw("failed to unmarshal cached catalog", "key", key)
		_ = c.rdb.Del(ctx, key).Err()
		c.misses.Add(1)
	case errors.Is(err, goredis.Nil):
		c.misses.Add(1)
		logger.Debugw("catalog cache miss", "key", key)
	default:
		c.failures.Add(1)
		logger.Warnw("catalog cache unavailable, reading through", "error", err.Error())
		return c.inner.ListAll(ctx)
	}

	// 并发未命中只回源一次
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.inner.ListAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	products := v.([]*model.LoanProduct)
	c.store(key, products)
	return products, nil
}

// GetByID reads through to the inner catalog.
func (c *CachedCatalog) GetByID(ctx context.Context, id string) (*model.LoanProduct, error) {
	return c.inner.GetByID(ctx, id)
}

// Invalidate drops the cached listing.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, c.cacheKey("list_all")).Err()
}

// Stats returns a snapshot of the hit counters.
func (c *CachedCatalog) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.failures.Load(),
	}
}

func (c *CachedCatalog) store(key string, products []*model.LoanProduct) {
	data, err := json.Marshal(products)
	if err != nil {
		logger.Warnw("failed to marshal catalog for caching", "error", err.Error())
		return
	}

	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		if err := c.rdb.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
			c.failures.Add(1)
			logger.Warnw("failed to write catalog cache", "error", err.Error(), "key", key)
		}
	}

	if c.pool == nil {
		write()
		return
	}
	if err := c.pool.Submit(write); err != nil {
		logger.Debugw("catalog cache write skipped", "error", err.Error())
	}
}
