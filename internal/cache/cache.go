package cache

import (
	"context"
	"errors"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

// PageCache holds short-lived copies of backend pages so repeated browsing
// does not refetch. It is a read cache only; durable state lives in storage.
type PageCache interface {
	GetProductPage(ctx context.Context, key string) (*domain.ProductPage, error)
	SetProductPage(ctx context.Context, key string, page *domain.ProductPage) error
	GetHistoryPage(ctx context.Context, key string) (*domain.HistoryPage, error)
	SetHistoryPage(ctx context.Context, key string, page *domain.HistoryPage) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
