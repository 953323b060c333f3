package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexlic0001/EquipmentShop/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client), mr
}

func TestGet_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{
		ID:     "cart-1",
		UserID: "user123",
		Items: []domain.CartLine{
			{ProductID: 1, Price: decimal.RequireFromString("19.99"), Quantity: 2},
			{ProductID: 2, Price: decimal.RequireFromString("5.00"), Quantity: 3},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	cartJSON, _ := json.Marshal(cart)
	mr.Set(cacheKey(cart.ID), string(cartJSON))

	result, err := cache.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "cart-1", result.ID)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(1), result.Items[0].ProductID)
	assert.True(t, result.Items[0].Price.Equal(decimal.RequireFromString("19.99")))
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	result, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(cacheKey("cart-1"), `{"id":"cart-1`))

	_, err := cache.Get(ctx, "cart-1")
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestSet_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{
		ID:     "cart-2",
		UserID: "user456",
		Items: []domain.CartLine{
			{ProductID: 10, Price: decimal.RequireFromString("49.50"), Quantity: 5},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err := cache.Set(ctx, cart.ID, cart)
	require.NoError(t, err)

	stored, err := mr.Get(cacheKey(cart.ID))
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	var storedCart domain.Cart
	require.NoError(t, json.Unmarshal([]byte(stored), &storedCart))
	assert.Equal(t, "user456", storedCart.UserID)
	assert.Len(t, storedCart.Items, 1)
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{ID: "cart-3", Items: []domain.CartLine{}}

	err := cache.Set(ctx, cart.ID, cart)
	require.NoError(t, err)

	ttl := mr.TTL(cacheKey(cart.ID))
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl <= 20*time.Minute, "TTL should be base + max jitter")
}

func TestDelete_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &domain.Cart{ID: "cart-4"}
	cartJSON, _ := json.Marshal(cart)
	mr.Set(cacheKey(cart.ID), string(cartJSON))
	assert.True(t, mr.Exists(cacheKey(cart.ID)))

	require.NoError(t, cache.Delete(ctx, cart.ID))
	assert.False(t, mr.Exists(cacheKey(cart.ID)))
}

func TestDelete_NonExistentKey(t *testing.T) {
	cache, _ := setupTestRedis(t)

	err := cache.Delete(context.Background(), "nonexistent")
	assert.NoError(t, err)
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "cart:abc", cacheKey("abc"))
}
