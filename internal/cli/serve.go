package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/aretw0/sessiond/internal/config"
	httpAdapter "github.com/aretw0/sessiond/pkg/adapters/http"
	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/observability"
	"github.com/aretw0/sessiond/pkg/persistence/middleware"
	"github.com/aretw0/sessiond/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve listens on cfg.Listen until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}
	return ServeListener(ctx, ln, cfg, logger)
}

// ServeListener runs the HTTP API on ln and the expiry sweep until ctx is
// cancelled, then shuts both down gracefully.
func ServeListener(ctx context.Context, ln net.Listener, cfg config.Config, logger *slog.Logger) error {
	catalog, closeCatalog, err := OpenCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		ln.Close()
		return err
	}
	defer closeCatalog()

	streams := httpAdapter.NewStreamManager(logger.With("component", "sse"))
	hooks := []domain.LifecycleHooks{observability.LogHooks(logger), streams.Hooks()}
	var store ports.SessionStore = memory.NewStore()
	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithLogger(logger.With("component", "http")),
		httpAdapter.WithStreams(streams),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)
		hooks = append(hooks, metrics.Hooks())
		store = middleware.Chain(store, middleware.NewInstrumentation(metrics.StoreDuration, metrics.StoreFailures))
		handlerOpts = append(handlerOpts, httpAdapter.WithMetricsHandler(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	svc, err := NewService(cfg, store, catalog, domain.ChainHooks(hooks...), logger)
	if err != nil {
		ln.Close()
		return err
	}
	svc.Start(ctx)
	defer svc.Stop()

	srv := &http.Server{
		Handler: httpAdapter.NewHandler(svc, handlerOpts...),
	}
	// Open event streams never go idle on their own.
	srv.RegisterOnShutdown(streams.CloseAll)

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting sessiond server", "addr", ln.Addr().String(), "ttl", cfg.Session.TTL)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Start shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", cfg.Shutdown.Timeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("sessiond server stopped gracefully")
		return nil
	}
}
