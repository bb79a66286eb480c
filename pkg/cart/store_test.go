package cart_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/sessiond/internal/testutils"
	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/cart"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...cart.Option) (*session.Registry, *memory.Catalog, *cart.Store, string) {
	t.Helper()
	reg := testutils.NewRegistry(t, testutils.NewClock())
	catalog := testutils.Catalog()
	store := cart.NewStore(reg, catalog, opts...)

	s, err := reg.Create(context.Background(), "u1", domain.Payload{})
	require.NoError(t, err)
	return reg, catalog, store, s.ID
}

func requireConsistent(t *testing.T, c *domain.Cart) {
	t.Helper()
	var sum int64
	for _, item := range c.Items {
		sum += item.UnitPrice * int64(item.Quantity)
	}
	require.Equal(t, sum, c.Total())
}

func TestStore_Scenario(t *testing.T) {
	_, _, store, sid := setup(t)
	ctx := context.Background()

	c, err := store.AddItem(ctx, sid, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1998), c.Total())

	c, err = store.AddItem(ctx, sid, "p2", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2047), c.Total())

	c, err = store.RemoveItem(ctx, sid, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(49), c.Total())
	requireConsistent(t, c)
}

func TestStore_GetOrCreatePersists(t *testing.T) {
	reg, _, store, sid := setup(t)
	ctx := context.Background()

	c, err := store.GetOrCreate(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Total())

	s, err := reg.Peek(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, s.Payload.Cart, "empty cart should be attached to the session")
}

func TestStore_AddSameProductIncrements(t *testing.T) {
	_, _, store, sid := setup(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, sid, "p1", 1)
	require.NoError(t, err)
	c, err := store.AddItem(ctx, sid, "p1", 2)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, int64(2997), c.Total())
}

func TestStore_PriceFrozenAtAdd(t *testing.T) {
	_, catalog, store, sid := setup(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, sid, "p1", 1)
	require.NoError(t, err)

	catalog.Put(domain.Product{ID: "p1", Name: "Keyboard", Price: 5000, Available: true})

	c, err := store.GetOrCreate(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, int64(999), c.Total(), "catalog price changes are not retroactive")

	c, err = store.AddItem(ctx, sid, "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1998), c.Total())
}

func TestStore_Errors(t *testing.T) {
	_, _, store, sid := setup(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, sid, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = store.AddItem(ctx, sid, "p3", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound, "unavailable products cannot be added")

	_, err = store.AddItem(ctx, sid, "p1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = store.AddItem(ctx, "no-such-session", "p1", 1)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = store.Clear(ctx, "no-such-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	_, _, store, sid := setup(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, sid, "p2", 3)
	require.NoError(t, err)
	c, err := store.RemoveItem(ctx, sid, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(147), c.Total())
}

func TestStore_SetQuantityAndClear(t *testing.T) {
	_, _, store, sid := setup(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, sid, "p1", 1)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, sid, "p2", 1)
	require.NoError(t, err)

	c, err := store.SetQuantity(ctx, sid, "p2", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(999+4*49), c.Total())

	c, err = store.SetQuantity(ctx, sid, "p1", 0)
	require.NoError(t, err)
	require.Len(t, c.Items, 1, "quantity zero removes the line")
	assert.Equal(t, int64(196), c.Total())

	c, err = store.Clear(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Total())
}

// slowCatalog blocks until released, ignoring its context.
type slowCatalog struct {
	release chan struct{}
}

func (c *slowCatalog) Get(ctx context.Context, productID string) (*domain.Product, error) {
	<-c.release
	return &domain.Product{ID: productID, Price: 1, Available: true}, nil
}

func TestStore_LookupTimeout(t *testing.T) {
	reg := testutils.NewRegistry(t, testutils.NewClock())
	catalog := &slowCatalog{release: make(chan struct{})}
	defer close(catalog.release)

	store := cart.NewStore(reg, catalog, cart.WithLookupTimeout(50*time.Millisecond))
	ctx := context.Background()
	s, err := reg.Create(ctx, "u1", domain.Payload{})
	require.NoError(t, err)

	start := time.Now()
	_, err = store.AddItem(ctx, s.ID, "p1", 1)
	assert.ErrorIs(t, err, domain.ErrProductLookupTimeout)
	assert.Less(t, time.Since(start), time.Second)

	// The session was never locked by the slow lookup.
	_, err = reg.Update(ctx, s.ID, domain.Payload{Counters: map[string]int64{"x": 1}})
	assert.NoError(t, err)
}

func TestStore_ConcurrentAddsLoseNothing(t *testing.T) {
	_, _, store, sid := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			product := "p1"
			if i%2 == 0 {
				product = "p2"
			}
			_, err := store.AddItem(ctx, sid, product, 1)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	c, err := store.GetOrCreate(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Quantity("p1"))
	assert.Equal(t, 20, c.Quantity("p2"))
	assert.Equal(t, int64(20*999+20*49), c.Total())
}

func TestStore_HooksReportTotals(t *testing.T) {
	var events []*domain.CartEvent
	_, _, store, sid := setup(t, cart.WithHooks(domain.LifecycleHooks{
		OnCartChanged: func(ctx context.Context, e *domain.CartEvent) { events = append(events, e) },
	}))
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, sid)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, sid, "p1", 2)
	require.NoError(t, err)
	_, err = store.Clear(ctx, sid)
	require.NoError(t, err)

	require.Len(t, events, 2, "reads do not emit events")
	assert.Equal(t, "add", events[0].Op)
	assert.Equal(t, int64(1998), events[0].Total)
	assert.Equal(t, "clear", events[1].Op)
	assert.Zero(t, events[1].Total)
}

func TestStore_QuantityCeiling(t *testing.T) {
	reg, _, store, sid := setup(t)
	ctx := context.Background()

	_, err := store.AddItem(ctx, sid, "p1", math.MaxInt)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	c, err := store.AddItem(ctx, sid, "p1", domain.MaxLineQuantity)
	require.NoError(t, err)
	assert.Equal(t, int64(domain.MaxLineQuantity)*999, c.Total())

	_, err = store.AddItem(ctx, sid, "p1", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = store.SetQuantity(ctx, sid, "p1", math.MaxInt)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Rejected changes are never persisted.
	s, err := reg.Peek(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, s.Payload.Cart)
	assert.Equal(t, domain.MaxLineQuantity, s.Payload.Cart.Quantity("p1"))
	assert.NoError(t, s.Payload.Cart.Validate())
	requireConsistent(t, s.Payload.Cart)
}

func TestStore_EventsUseClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var events []*domain.CartEvent
	_, _, store, sid := setup(t,
		cart.WithClock(func() time.Time { return at }),
		cart.WithHooks(domain.LifecycleHooks{
			OnCartChanged: func(ctx context.Context, e *domain.CartEvent) { events = append(events, e) },
		}),
	)

	_, err := store.AddItem(context.Background(), sid, "p1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, at, events[0].Timestamp)
}
