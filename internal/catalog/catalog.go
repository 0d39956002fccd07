// Package catalog pages through the product listing with a cache-aside
// read path, mirroring how the history viewer loads its pages. Search
// results are never cached; their keyspace is unbounded.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/cache"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

// Source is the backend query for catalog pages.
type Source interface {
	Products(ctx context.Context, page, limit int) (*domain.ProductPage, error)
	SearchProducts(ctx context.Context, search string, page, limit int) (*domain.ProductPage, error)
}

type Browser struct {
	api   Source
	cache cache.PageCache
	log   *zap.Logger
}

func NewBrowser(api Source, pageCache cache.PageCache, log *zap.Logger) *Browser {
	return &Browser{
		api:   api,
		cache: pageCache,
		log:   log,
	}
}

// Page returns one catalog page, trying the cache first.
func (b *Browser) Page(ctx context.Context, page, limit int) (*domain.ProductPage, error) {
	key := fmt.Sprintf("page_%d_%d", page, limit)

	cached, err := b.cache.GetProductPage(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		b.log.Warn("catalog cache read failed", zap.Error(err))
	}

	fetched, err := b.api.Products(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	if err := b.cache.SetProductPage(ctx, key, fetched); err != nil {
		b.log.Warn("catalog cache write failed", zap.Error(err))
	}
	return fetched, nil
}

// Search queries the backend directly.
func (b *Browser) Search(ctx context.Context, search string, page, limit int) (*domain.ProductPage, error) {
	return b.api.SearchProducts(ctx, search, page, limit)
}

// Invalidate drops the cached copy of one catalog page, e.g. after a
// purchase changes stock.
func (b *Browser) Invalidate(ctx context.Context, page, limit int) {
	key := fmt.Sprintf("page_%d_%d", page, limit)
	if err := b.cache.Delete(ctx, key); err != nil {
		b.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
