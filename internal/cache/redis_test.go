package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client), mr
}

func TestGetProductPage_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	page := &domain.ProductPage{
		Products: []domain.Product{
			{ID: "p1", Name: "Keyboard", Price: 120000, Stock: 10},
			{ID: "p2", Name: "Mouse", Price: 45000, Stock: 3},
		},
		Total:   2,
		Page:    1,
		HasNext: false,
	}

	pageJSON, _ := json.Marshal(page)
	mr.Set(productKey("page:1:limit:20"), string(pageJSON))

	result, err := cache.GetProductPage(ctx, "page:1:limit:20")
	require.NoError(t, err)
	assert.Len(t, result.Products, 2)
	assert.Equal(t, "p1", result.Products[0].ID)
	assert.Equal(t, int64(120000), result.Products[0].Price)
}

func TestGetProductPage_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	result, err := cache.GetProductPage(context.Background(), "page:99")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGetProductPage_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	mr.Set(productKey("page:1"), "{not json")

	_, err := cache.GetProductPage(context.Background(), "page:1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSetProductPage_RoundTrip(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	page := &domain.ProductPage{
		Products: []domain.Product{{ID: "p1", Name: "Keyboard", Price: 120000}},
		Total:    1,
		Page:     2,
		HasPrev:  true,
	}

	require.NoError(t, cache.SetProductPage(ctx, "page:2", page))

	result, err := cache.GetProductPage(ctx, "page:2")
	require.NoError(t, err)
	assert.Equal(t, page, result)
}

func TestSetProductPage_HasTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, cache.SetProductPage(context.Background(), "page:1", &domain.ProductPage{}))

	ttl := mr.TTL(productKey("page:1"))
	assert.Greater(t, ttl.Seconds(), 0.0)
}

func TestHistoryPage_RoundTrip(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	page := &domain.HistoryPage{
		Transactions: []domain.Transaction{
			{ID: "txn_1", Status: domain.StatusApproved, Amount: 65000},
		},
		Total:   1,
		Page:    1,
		HasNext: true,
	}

	require.NoError(t, cache.SetHistoryPage(ctx, "page:1:status:ALL", page))

	result, err := cache.GetHistoryPage(ctx, "page:1:status:ALL")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, result.Transactions[0].Status)
	assert.True(t, result.HasNext)
}

func TestDelete_RemovesBothNamespaces(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.SetProductPage(ctx, "page:1", &domain.ProductPage{Page: 1}))
	require.NoError(t, cache.SetHistoryPage(ctx, "page:1", &domain.HistoryPage{Page: 1}))

	require.NoError(t, cache.Delete(ctx, "page:1"))

	_, err := cache.GetProductPage(ctx, "page:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.GetHistoryPage(ctx, "page:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
