package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/sessiond/internal/logging"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/ports"
)

const (
	// DefaultTTL is the sliding expiration window.
	DefaultTTL = 30 * time.Minute
	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = time.Minute

	maxIDAttempts = 5
)

var errIDCollision = errors.New("session id collision")

// Registry owns every live session record.
// It is safe for concurrent use; see Start and Stop for the sweep lifecycle.
type Registry struct {
	store ports.SessionStore
	locks *keyedLocks

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	newID         func() (string, error)

	hooks  domain.LifecycleHooks
	logger *slog.Logger

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures the Registry.
type Option func(*Registry)

// WithTTL sets the sliding expiration window.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// WithSweepInterval sets how often the background sweep runs.
func WithSweepInterval(interval time.Duration) Option {
	return func(r *Registry) {
		r.sweepInterval = interval
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator overrides GenerateID.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(r *Registry) {
		r.newID = gen
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a Registry over store. The sweep does not run until Start is called.
func NewRegistry(store ports.SessionStore, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, errors.New("session: store is required")
	}
	r := &Registry{
		store:         store,
		locks:         newKeyedLocks(),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		newID:         GenerateID,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ttl <= 0 {
		return nil, fmt.Errorf("session: ttl must be positive, got %s", r.ttl)
	}
	if r.sweepInterval <= 0 {
		return nil, fmt.Errorf("session: sweep interval must be positive, got %s", r.sweepInterval)
	}
	return r, nil
}

// TTL returns the configured sliding expiration window.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create stores a new session for ownerID. Owners may hold any number of sessions.
func (r *Registry) Create(ctx context.Context, ownerID string, initial domain.Payload) (*domain.Session, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return nil, err
		}

		var created *domain.Session
		err = r.locks.with(id, func() error {
			_, err := r.store.Load(ctx, id)
			if err == nil {
				return errIDCollision
			}
			if !errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("failed to check session existence: %w", err)
			}

			s := domain.NewSession(id, ownerID, initial.Clone(), r.now(), r.ttl)
			if err := r.store.Save(ctx, s); err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
			created = s
			return nil
		})
		if errors.Is(err, errIDCollision) {
			r.logger.Warn("Session ID collision, regenerating", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		r.logger.Debug("Session Created", "session_id", created.ID, "owner_id", ownerID)
		r.hooks.SessionCreated(ctx, &domain.SessionEvent{
			EventBase: r.event(domain.EventSessionCreated, created.ID),
			OwnerID:   ownerID,
		})
		return created.Clone(), nil
	}
	return nil, fmt.Errorf("session: no unique id after %d attempts", maxIDAttempts)
}

// Get resolves a live session and slides its expiration forward.
// Unknown, deleted and expired IDs all yield domain.ErrSessionNotFound.
func (r *Registry) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return r.Mutate(ctx, sessionID, nil)
}

// Update shallow-merges partial into the session payload at the top level
// and slides the expiration forward.
func (r *Registry) Update(ctx context.Context, sessionID string, partial domain.Payload) (*domain.Session, error) {
	if err := partial.Validate(); err != nil {
		return nil, err
	}
	return r.Mutate(ctx, sessionID, func(s *domain.Session) error {
		s.Payload = s.Payload.Merge(partial)
		s.VisitCount++
		return nil
	})
}

// UpdateRaw decodes an untyped mapping into a partial payload and applies it.
// Anything that is not a mapping of known blocks yields domain.ErrInvalidPayload.
func (r *Registry) UpdateRaw(ctx context.Context, sessionID string, partial map[string]any) (*domain.Session, error) {
	p, err := domain.DecodePayload(partial)
	if err != nil {
		return nil, err
	}
	return r.Update(ctx, sessionID, p)
}

// Mutate runs fn as an atomic read-modify-write on one live session.
// If fn returns an error nothing is persisted and the error is returned as is.
// On success the expiration slides forward and the updated record is returned.
// A nil fn only refreshes the expiration.
func (r *Registry) Mutate(ctx context.Context, sessionID string, fn func(*domain.Session) error) (*domain.Session, error) {
	var out *domain.Session
	err := r.locks.with(sessionID, func() error {
		s, err := r.loadLive(ctx, sessionID)
		if err != nil {
			return err
		}
		if fn != nil {
			if err := fn(s); err != nil {
				return err
			}
		}
		s.Touch(r.now(), r.ttl)
		if err := r.store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Peek reads a live session without refreshing its expiration.
func (r *Registry) Peek(ctx context.Context, sessionID string) (*domain.Session, error) {
	var out *domain.Session
	err := r.locks.with(sessionID, func() error {
		s, err := r.loadLive(ctx, sessionID)
		out = s
		return err
	})
	return out, err
}

// loadLive loads a record and enforces the terminal state. Must be called with
// the record's lock held. An expired record the sweep has not reached yet is
// removed on the spot, so it is never observable.
func (r *Registry) loadLive(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := r.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := s.Validate(); err != nil {
		r.logger.Error("Invariant violation in session record", "session_id", sessionID, "err", err)
		return nil, err
	}
	if s.IsExpired(r.now()) {
		r.expire(ctx, s)
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// Delete removes a session. It is idempotent: it returns false when the
// session was already absent and never returns an error.
func (r *Registry) Delete(ctx context.Context, sessionID string) bool {
	var deleted bool
	_ = r.locks.with(sessionID, func() error {
		s, err := r.store.Load(ctx, sessionID)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionNotFound) {
				r.logger.Error("Failed to load session for delete", "session_id", sessionID, "err", err)
			}
			return nil
		}
		if err := r.store.Delete(ctx, sessionID); err != nil {
			r.logger.Error("Failed to delete session", "session_id", sessionID, "err", err)
			return nil
		}
		deleted = true
		r.logger.Debug("Session Deleted", "session_id", sessionID)
		r.hooks.SessionDeleted(ctx, &domain.SessionEvent{
			EventBase: r.event(domain.EventSessionDeleted, sessionID),
			OwnerID:   s.OwnerID,
		})
		return nil
	})
	return deleted
}

// expire removes an expired record. Must be called with the record's lock held.
func (r *Registry) expire(ctx context.Context, s *domain.Session) bool {
	if err := r.store.Delete(ctx, s.ID); err != nil {
		r.logger.Error("Failed to remove expired session", "session_id", s.ID, "err", err)
		return false
	}
	r.logger.Debug("Session Expired", "session_id", s.ID)
	r.hooks.SessionExpired(ctx, &domain.SessionEvent{
		EventBase: r.event(domain.EventSessionExpired, s.ID),
		OwnerID:   s.OwnerID,
	})
	return true
}

// List returns the IDs of live sessions, without refreshing them.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	ids, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	now := r.now()
	live := ids[:0]
	for _, id := range ids {
		s, err := r.store.Load(ctx, id)
		if err != nil || s.IsExpired(now) {
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// ListByOwner returns copies of the live sessions held by ownerID, without refreshing them.
func (r *Registry) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Session, error) {
	ids, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	now := r.now()
	var out []*domain.Session
	for _, id := range ids {
		s, err := r.store.Load(ctx, id)
		if err != nil || s.OwnerID != ownerID || s.IsExpired(now) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len(ctx context.Context) (int, error) {
	ids, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *Registry) event(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{
		Timestamp: r.now(),
		Type:      t,
		SessionID: sessionID,
	}
}
