package cache

import (
	"context"
	"fmt"
	"testing"

	"gramsetu/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_SetGet(t *testing.T) {
	c := NewLRUCache(2)
	ctx := context.Background()

	order := &model.Order{ID: "order-1", Status: model.OrderPending}
	c.Set(ctx, order.ID, order)

	got, found := c.Get(ctx, "order-1")
	assert.True(t, found)
	assert.Equal(t, order, got)
}

func TestLRUCache_Miss(t *testing.T) {
	c := NewLRUCache(2)

	got, found := c.Get(context.Background(), "missing")
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache(2)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Set(ctx, "c", 3) // Вытесняет "a" как самый старый

	_, found := c.Get(ctx, "a")
	assert.False(t, found)

	_, found = c.Get(ctx, "b")
	assert.True(t, found)
	_, found = c.Get(ctx, "c")
	assert.True(t, found)
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := NewLRUCache(2)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)

	// Обращение к "a" делает его свежим, вытеснен будет "b"
	_, _ = c.Get(ctx, "a")
	c.Set(ctx, "c", 3)

	_, found := c.Get(ctx, "a")
	assert.True(t, found)
	_, found = c.Get(ctx, "b")
	assert.False(t, found)
}

func TestLRUCache_Invalidate(t *testing.T) {
	c := NewLRUCache(2)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Invalidate(ctx, "a")

	_, found := c.Get(ctx, "a")
	assert.False(t, found)

	// Инвалидация отсутствующего ключа не паникует
	c.Invalidate(ctx, "missing")
}

func TestLRUCache_ZeroCapacity(t *testing.T) {
	c := NewLRUCache(0)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	_, found := c.Get(ctx, "a")
	assert.False(t, found)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := NewLRUCache(2)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "a", 2)

	got, found := c.Get(ctx, "a")
	assert.True(t, found)
	assert.Equal(t, 2, got)
}

func TestLRUCache_ManyKeys(t *testing.T) {
	c := NewLRUCache(10)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		c.Set(ctx, fmt.Sprintf("key-%d", i), i)
	}

	// В кэше остаются только последние 10
	for i := 0; i < 90; i++ {
		_, found := c.Get(ctx, fmt.Sprintf("key-%d", i))
		assert.False(t, found)
	}
	for i := 90; i < 100; i++ {
		got, found := c.Get(ctx, fmt.Sprintf("key-%d", i))
		assert.True(t, found)
		assert.Equal(t, i, got)
	}
}
