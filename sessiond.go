package sessiond

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sessiond/internal/logging"
	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/cart"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/ports"
	"github.com/aretw0/sessiond/pkg/resolver"
	"github.com/aretw0/sessiond/pkg/session"
	"github.com/aretw0/sessiond/pkg/workflow"
)

// Version is the release of this module.
const Version = "0.4.0"

// Service is the high-level entry point: one registry shared by the cart
// store, the workflow engine and the resolver.
type Service struct {
	Registry  *session.Registry
	Carts     *cart.Store
	Workflows *workflow.Engine
	Resolver  *resolver.Resolver
}

type config struct {
	store         ports.SessionStore
	catalog       ports.ProductCatalog
	ttl           time.Duration
	sweepInterval time.Duration
	lookupTimeout time.Duration
	now           func() time.Time
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
}

// Option defines a functional option for configuring the Service.
type Option func(*config)

// WithStore injects a custom SessionStore. Defaults to the in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithCatalog sets the product catalog the cart prices items from.
// Defaults to an empty in-memory catalog.
func WithCatalog(catalog ports.ProductCatalog) Option {
	return func(c *config) {
		c.catalog = catalog
	}
}

// WithTTL sets the sliding session expiration window.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithSweepInterval sets how often expired sessions are swept.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *config) {
		c.sweepInterval = interval
	}
}

// WithLookupTimeout bounds a single catalog lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(c *config) {
		c.lookupTimeout = d
	}
}

// WithClock overrides time.Now across all components.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New builds a Service. The sweep does not run until Start is called.
func New(opts ...Option) (*Service, error) {
	cfg := &config{
		ttl:           session.DefaultTTL,
		sweepInterval: session.DefaultSweepInterval,
		lookupTimeout: cart.DefaultLookupTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.store == nil {
		cfg.store = memory.NewStore()
	}
	if cfg.catalog == nil {
		cfg.catalog = memory.NewCatalog()
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	if cfg.lookupTimeout <= 0 {
		return nil, fmt.Errorf("lookup timeout must be positive, got %s", cfg.lookupTimeout)
	}

	reg, err := session.NewRegistry(cfg.store,
		session.WithTTL(cfg.ttl),
		session.WithSweepInterval(cfg.sweepInterval),
		session.WithClock(cfg.now),
		session.WithHooks(cfg.hooks),
		session.WithLogger(cfg.logger.With("component", "registry")),
	)
	if err != nil {
		return nil, err
	}

	return &Service{
		Registry: reg,
		Carts: cart.NewStore(reg, cfg.catalog,
			cart.WithLookupTimeout(cfg.lookupTimeout),
			cart.WithClock(cfg.now),
			cart.WithHooks(cfg.hooks),
			cart.WithLogger(cfg.logger.With("component", "cart")),
		),
		Workflows: workflow.NewEngine(reg,
			workflow.WithClock(cfg.now),
			workflow.WithHooks(cfg.hooks),
			workflow.WithLogger(cfg.logger.With("component", "workflow")),
		),
		Resolver: resolver.New(reg,
			resolver.WithLogger(cfg.logger.With("component", "resolver")),
		),
	}, nil
}

// Start launches the background expiry sweep.
func (s *Service) Start(ctx context.Context) {
	s.Registry.Start(ctx)
}

// Stop halts the sweep and waits for it to return.
func (s *Service) Stop() {
	s.Registry.Stop()
}
