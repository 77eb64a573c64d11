package advisor

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/internal/advisor/store"
)

// cacheWarmer 在 HTTP 服务启动后丢弃旧的目录缓存并重新加载，
// 保证导入的 fixtures 立即可见。
type cacheWarmer struct {
	cache *store.CachedCatalog
}

func (w *cacheWarmer) Name() string {
	return "catalog-cache-warmer"
}

// Start 预热失败只记录日志，请求会回源到数据库。
func (w *cacheWarmer) Start(ctx context.Context) error {
	if err := w.cache.Invalidate(ctx); err != nil {
		logger.Warnw("failed to invalidate catalog cache", "error", err.Error())
		return nil
	}
	products, err := w.cache.ListAll(ctx)
	if err != nil {
		logger.Warnw("failed to warm catalog cache", "error", err.Error())
		return nil
	}
	logger.Infow("Catalog cache warmed", "products", len(products))
	return nil
}

func (w *cacheWarmer) Stop(context.Context) error {
	return nil
}
