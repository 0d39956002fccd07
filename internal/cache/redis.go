package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 5 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) GetProductPage(ctx context.Context, key string) (*domain.ProductPage, error) {
	var page domain.ProductPage
	if err := r.get(ctx, productKey(key), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *RedisCache) SetProductPage(ctx context.Context, key string, page *domain.ProductPage) error {
	return r.set(ctx, productKey(key), page)
}

func (r *RedisCache) GetHistoryPage(ctx context.Context, key string) (*domain.HistoryPage, error) {
	var page domain.HistoryPage
	if err := r.get(ctx, historyKey(key), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *RedisCache) SetHistoryPage(ctx context.Context, key string, page *domain.HistoryPage) error {
	return r.set(ctx, historyKey(key), page)
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, productKey(key), historyKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal page failed: %w", err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, page any) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func productKey(key string) string {
	return fmt.Sprintf("products:%s", key)
}

func historyKey(key string) string {
	return fmt.Sprintf("historial:%s", key)
}
