package testutils

import (
	"sync"
	"testing"
	"time"

	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/ports"
	"github.com/aretw0/sessiond/pkg/session"
	"github.com/stretchr/testify/require"
)

// Clock is a manually driven clock, safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewRegistry builds an in-memory registry driven by clock with a one hour TTL.
// Extra options are applied after the defaults.
func NewRegistry(t *testing.T, clock *Clock, opts ...session.Option) *session.Registry {
	t.Helper()
	return NewRegistryWithStore(t, clock, memory.NewStore(), opts...)
}

// NewRegistryWithStore is NewRegistry over a caller-supplied store.
func NewRegistryWithStore(t *testing.T, clock *Clock, store ports.SessionStore, opts ...session.Option) *session.Registry {
	t.Helper()

	base := []session.Option{
		session.WithTTL(time.Hour),
		session.WithClock(clock.Now),
	}
	reg, err := session.NewRegistry(store, append(base, opts...)...)
	require.NoError(t, err, "Failed to create registry")
	return reg
}

// Catalog returns the two-product catalog used by the cart scenarios:
// p1 costs 999 and p2 costs 49.
func Catalog() *memory.Catalog {
	return memory.NewCatalog(
		domain.Product{ID: "p1", Name: "Keyboard", Category: "peripherals", Price: 999, Available: true},
		domain.Product{ID: "p2", Name: "Cable", Category: "accessories", Price: 49, Available: true},
		domain.Product{ID: "p3", Name: "Discontinued", Price: 10, Available: false},
	)
}
