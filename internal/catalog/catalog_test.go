package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/cache"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

type mockSource struct {
	mu          sync.Mutex
	calls       int
	searchCalls int
	err         error
}

func (m *mockSource) Products(_ context.Context, page, limit int) (*domain.ProductPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ProductPage{
		Products: []domain.Product{{ID: "p1", Name: "Keyboard", Price: 120000, Stock: 5}},
		Page:     page,
		Limit:    limit,
		Total:    1,
	}, nil
}

func (m *mockSource) SearchProducts(_ context.Context, _ string, page, limit int) (*domain.ProductPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	return &domain.ProductPage{Page: page, Limit: limit}, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCache struct {
	mu       sync.Mutex
	products map[string]*domain.ProductPage
}

func newMockCache() *mockCache {
	return &mockCache{products: make(map[string]*domain.ProductPage)}
}

func (m *mockCache) GetProductPage(_ context.Context, key string) (*domain.ProductPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *p
	return &cp, nil
}

func (m *mockCache) SetProductPage(_ context.Context, key string, page *domain.ProductPage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *page
	m.products[key] = &cp
	return nil
}

func (m *mockCache) GetHistoryPage(context.Context, string) (*domain.HistoryPage, error) {
	return nil, cache.ErrCacheMiss
}

func (m *mockCache) SetHistoryPage(context.Context, string, *domain.HistoryPage) error {
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, key)
	return nil
}

func TestPage_SecondLoadServedFromCache(t *testing.T) {
	src := &mockSource{}
	b := NewBrowser(src, newMockCache(), zap.NewNop())

	first, err := b.Page(context.Background(), 1, 20)
	require.NoError(t, err)
	second, err := b.Page(context.Background(), 1, 20)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.callCount())
}

func TestPage_DistinctPagesFetchedSeparately(t *testing.T) {
	src := &mockSource{}
	b := NewBrowser(src, newMockCache(), zap.NewNop())

	_, err := b.Page(context.Background(), 1, 20)
	require.NoError(t, err)
	_, err = b.Page(context.Background(), 2, 20)
	require.NoError(t, err)

	assert.Equal(t, 2, src.callCount())
}

func TestPage_BackendErrorSurfaces(t *testing.T) {
	src := &mockSource{err: errors.New("connection refused")}
	b := NewBrowser(src, newMockCache(), zap.NewNop())

	_, err := b.Page(context.Background(), 1, 20)
	assert.Error(t, err)
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	src := &mockSource{}
	b := NewBrowser(src, newMockCache(), zap.NewNop())

	_, err := b.Page(context.Background(), 1, 20)
	require.NoError(t, err)

	b.Invalidate(context.Background(), 1, 20)

	_, err = b.Page(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, src.callCount())
}

func TestSearch_BypassesCache(t *testing.T) {
	src := &mockSource{}
	b := NewBrowser(src, newMockCache(), zap.NewNop())

	_, err := b.Search(context.Background(), "teclado", 1, 20)
	require.NoError(t, err)
	_, err = b.Search(context.Background(), "teclado", 1, 20)
	require.NoError(t, err)

	assert.Equal(t, 2, src.searchCalls)
	assert.Equal(t, 0, src.callCount())
}
