// Package resolver is the single entry point that turns an inbound session
// token into a live session or a rejection.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/sessiond/internal/logging"
	"github.com/aretw0/sessiond/pkg/domain"
)

// MaxTokenLength bounds the tokens accepted for lookup.
// Generated session IDs are 43 characters long.
const MaxTokenLength = 256

// Sessions is the slice of the registry the resolver needs.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Resolver gates access to session-scoped operations.
type Resolver struct {
	sessions Sessions
	logger   *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger configures a logger for the Resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver.
func New(sessions Sessions, opts ...Option) *Resolver {
	r := &Resolver{
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks the token up and refreshes the session it names.
// A missing, malformed, unknown or expired token yields domain.ErrRejected,
// which is deliberately not domain.ErrSessionNotFound. Any other failure is
// returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no session token", domain.ErrRejected)
	}
	if len(token) > MaxTokenLength {
		return nil, fmt.Errorf("%w: token too long", domain.ErrRejected)
	}

	s, err := r.sessions.Get(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		r.logger.Debug("Rejected unknown session token")
		return nil, fmt.Errorf("%w: unknown or expired session", domain.ErrRejected)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
