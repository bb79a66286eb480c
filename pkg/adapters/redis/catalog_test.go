package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sessiond/pkg/adapters/redis"
	"github.com/aretw0/sessiond/pkg/domain"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Catalog) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return mr, redis.NewFromClient(client, redis.WithPrefix("test:"))
}

func TestRedisCatalog_PutGet(t *testing.T) {
	mr, catalog := setup(t)
	ctx := context.Background()

	err := catalog.Put(ctx, domain.Product{ID: "p1", Name: "Keyboard", Category: "peripherals", Price: 999, Available: true})
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:product:p1"), "product hash should be set in Redis")

	p, err := catalog.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", p.Name)
	assert.Equal(t, int64(999), p.Price)
	assert.True(t, p.Available)

	_, err = catalog.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestRedisCatalog_SeededByHand(t *testing.T) {
	mr, catalog := setup(t)

	// Hashes written by another tool without an availability field default to available.
	mr.HSet("test:product:p9", "name", "Mug", "price", "1250")

	p, err := catalog.Get(context.Background(), "p9")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), p.Price)
	assert.True(t, p.Available)
}

func TestRedisCatalog_InvalidPrice(t *testing.T) {
	mr, catalog := setup(t)
	mr.HSet("test:product:bad", "name", "Broken", "price", "cheap")

	_, err := catalog.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}

func TestRedisCatalog_List(t *testing.T) {
	mr, catalog := setup(t)
	ctx := context.Background()

	require.NoError(t, catalog.Put(ctx, domain.Product{ID: "b", Name: "B", Price: 2, Available: true}))
	require.NoError(t, catalog.Put(ctx, domain.Product{ID: "a", Name: "A", Price: 1, Available: false}))

	// Stale index entry.
	mr.SAdd("test:products", "ghost")

	products, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "a", products[0].ID)
	assert.False(t, products[0].Available)
	assert.Equal(t, "b", products[1].ID)
}

func TestRedisCatalog_BackendErrorIsNotNotFound(t *testing.T) {
	mr, catalog := setup(t)
	ctx := context.Background()
	require.NoError(t, catalog.Put(ctx, domain.Product{ID: "p1", Price: 1, Available: true}))

	mr.SetError("LOADING")
	defer mr.SetError("")

	ctxTimeout, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	_, err := catalog.Get(ctxTimeout, "p1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}

func TestRedisCatalog_Ping(t *testing.T) {
	mr, catalog := setup(t)
	require.NoError(t, catalog.Ping(context.Background()))

	mr.Close()
	assert.Error(t, catalog.Ping(context.Background()))
}
