// Package cart keeps a shopping cart inside each session's payload.
//
// Every operation is a single read-modify-write through the session registry,
// and every mutation leaves the cart with a total derived from its items.
// Callers are expected to have resolved the session first; the store performs
// no identity checks of its own.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sessiond/internal/logging"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/ports"
)

// DefaultLookupTimeout bounds a single catalog lookup.
const DefaultLookupTimeout = 2 * time.Second

// Sessions is the slice of the registry the cart needs.
type Sessions interface {
	Mutate(ctx context.Context, sessionID string, fn func(*domain.Session) error) (*domain.Session, error)
}

// Store manages the cart sub-state of sessions.
type Store struct {
	sessions      Sessions
	catalog       ports.ProductCatalog
	lookupTimeout time.Duration
	now           func() time.Time
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLookupTimeout bounds catalog lookups.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lookupTimeout = d
	}
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a cart store over the given sessions and catalog.
func NewStore(sessions Sessions, catalog ports.ProductCatalog, opts ...Option) *Store {
	s := &Store{
		sessions:      sessions,
		catalog:       catalog,
		lookupTimeout: DefaultLookupTimeout,
		now:           time.Now,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the session's cart, attaching an empty one if absent.
func (s *Store) GetOrCreate(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, "get", "", func(c *domain.Cart) error { return nil })
}

// AddItem adds quantity units of a product. A product already in the cart has
// its quantity incremented and keeps the price it was first added at; a new
// line snapshots the catalog's current price.
func (s *Store) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 || quantity > domain.MaxLineQuantity {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}

	// Lookup happens before the session lock is taken so a slow catalog never
	// holds up other operations on the same session.
	product, err := s.lookup(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, "add", productID, func(c *domain.Cart) error {
		return c.Add(*product, quantity)
	})
}

// RemoveItem drops a product's line. Removing an absent product is a no-op.
func (s *Store) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, "remove", productID, func(c *domain.Cart) error {
		c.Remove(productID)
		return nil
	})
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
// Setting the quantity of an absent product is a no-op.
// Quantities above domain.MaxLineQuantity, or that would overflow the total,
// fail with domain.ErrInvalidQuantity.
func (s *Store) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	if quantity > domain.MaxLineQuantity {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}
	return s.mutate(ctx, sessionID, "set_quantity", productID, func(c *domain.Cart) error {
		c.SetQuantity(productID, quantity)
		return c.CheckTotal()
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, "clear", "", func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
}

// mutate applies fn to the session's cart. An error from fn discards the change.
func (s *Store) mutate(ctx context.Context, sessionID, op, productID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *domain.Session) error {
		if sess.Payload.Cart == nil {
			sess.Payload.Cart = domain.NewCart()
		}
		return fn(sess.Payload.Cart)
	})
	if err != nil {
		return nil, err
	}

	cart := sess.Payload.Cart
	if op != "get" {
		s.logger.Debug("Cart Changed", "session_id", sessionID, "op", op, "product_id", productID, "total", cart.Total())
		s.hooks.CartChanged(ctx, &domain.CartEvent{
			EventBase: domain.EventBase{Timestamp: s.now(), Type: domain.EventCartChanged, SessionID: sessionID},
			Op:        op,
			ProductID: productID,
			Items:     len(cart.Items),
			Total:     cart.Total(),
		})
	}
	return cart, nil
}

// lookup resolves a product within the lookup timeout. Catalogs that ignore
// the context are still bounded: the call runs in its own goroutine.
func (s *Store) lookup(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	type result struct {
		product *domain.Product
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := s.catalog.Get(ctx, productID)
		ch <- result{p, err}
	}()

	select {
	case res := <-ch:
		switch {
		case res.err == nil:
		case errors.Is(res.err, domain.ErrProductNotFound):
			return nil, res.err
		case errors.Is(res.err, context.DeadlineExceeded):
			return nil, s.timeout(productID)
		default:
			return nil, fmt.Errorf("product lookup failed: %w", res.err)
		}
		if res.product == nil || !res.product.Available {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
		}
		return res.product, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, s.timeout(productID)
		}
		return nil, ctx.Err()
	}
}

func (s *Store) timeout(productID string) error {
	s.logger.Warn("Product lookup timed out", "product_id", productID, "timeout", s.lookupTimeout)
	return fmt.Errorf("%w: %s after %s", domain.ErrProductLookupTimeout, productID, s.lookupTimeout)
}
