package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/sessiond"
	"github.com/aretw0/sessiond/internal/config"
	"github.com/aretw0/sessiond/internal/logging"
	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/adapters/redis"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/ports"
)

// Catalog is a product catalog that can also enumerate its products.
type Catalog interface {
	ports.ProductCatalog
	ports.ProductLister
}

// NewLogger builds the application logger from the configuration.
func NewLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format := logging.FormatText
	if cfg.LogJSON {
		format = logging.FormatJSON
	}
	return logging.NewWithWriter(w, level, format), nil
}

// OpenCatalog selects the product catalog: Redis when an address is
// configured, else the YAML seed file, else an empty in-memory catalog.
// The returned close function is never nil.
func OpenCatalog(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger) (Catalog, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.Redis.Addr != "":
		c := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix))
		if err := c.Ping(ctx); err != nil {
			c.Close()
			return nil, noop, err
		}
		logger.Info("Using Redis catalog", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
		return c, c.Close, nil

	case cfg.File != "":
		c, err := memory.LoadCatalogFile(cfg.File)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using catalog file", "file", cfg.File)
		return c, noop, nil

	default:
		logger.Warn("No catalog configured; every product lookup will fail")
		return memory.NewCatalog(), noop, nil
	}
}

// NewService builds the service from the configuration.
func NewService(cfg config.Config, store ports.SessionStore, catalog ports.ProductCatalog, hooks domain.LifecycleHooks, logger *slog.Logger) (*sessiond.Service, error) {
	svc, err := sessiond.New(
		sessiond.WithStore(store),
		sessiond.WithCatalog(catalog),
		sessiond.WithTTL(cfg.Session.TTL),
		sessiond.WithSweepInterval(cfg.Session.SweepInterval),
		sessiond.WithLookupTimeout(cfg.Catalog.LookupTimeout),
		sessiond.WithLifecycleHooks(hooks),
		sessiond.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing service: %w", err)
	}
	return svc, nil
}
