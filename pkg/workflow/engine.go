// Package workflow drives the forward-only step machine held in a session payload.
//
// A session carries at most one workflow. Start replaces whatever was there;
// Advance moves exactly one step and becomes a no-op once the terminal
// domain.StepCompleted sentinel is reached. There is no rollback.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sessiond/internal/logging"
	"github.com/aretw0/sessiond/pkg/domain"
)

// Sessions is the slice of the registry the engine needs.
type Sessions interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Mutate(ctx context.Context, sessionID string, fn func(*domain.Session) error) (*domain.Session, error)
}

// Engine starts and advances workflows.
type Engine struct {
	sessions Sessions
	now      func() time.Time
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithClock overrides time.Now for the StartedAt and CompletedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a workflow engine over the given sessions.
func NewEngine(sessions Sessions, opts ...Option) *Engine {
	e := &Engine{
		sessions: sessions,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a workflow at steps[0], replacing any workflow already in flight.
func (e *Engine) Start(ctx context.Context, sessionID string, steps []string) (*domain.Workflow, error) {
	wf, err := domain.NewWorkflow(steps, e.now())
	if err != nil {
		return nil, err
	}

	sess, err := e.sessions.Mutate(ctx, sessionID, func(s *domain.Session) error {
		if s.Payload.Workflow != nil && !s.Payload.Workflow.IsCompleted() {
			e.logger.Debug("Replacing in-flight workflow", "session_id", sessionID, "step", s.Payload.Workflow.CurrentStep)
		}
		s.Payload.Workflow = wf.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := sess.Payload.Workflow
	e.logger.Debug("Workflow Started", "session_id", sessionID, "steps", len(out.Steps))
	e.emit(ctx, sessionID, out, false)
	return out, nil
}

// Advance moves the workflow one step forward. Passing the last step sets the
// terminal sentinel and stamps CompletedAt; advancing a completed workflow
// returns it unchanged.
func (e *Engine) Advance(ctx context.Context, sessionID string) (*domain.Workflow, error) {
	var noop bool
	sess, err := e.sessions.Mutate(ctx, sessionID, func(s *domain.Session) error {
		wf := s.Payload.Workflow
		if wf == nil {
			return fmt.Errorf("%w: session %s", domain.ErrNoActiveWorkflow, sessionID)
		}
		if err := wf.Validate(); err != nil {
			return err
		}
		noop = wf.IsCompleted()
		return wf.Advance(e.now())
	})
	if err != nil {
		if errors.Is(err, domain.ErrCorruptWorkflow) || errors.Is(err, domain.ErrInvalidWorkflow) {
			e.logger.Error("Invariant violation in workflow state", "session_id", sessionID, "err", err)
		}
		return nil, err
	}

	out := sess.Payload.Workflow
	e.logger.Debug("Workflow Advanced", "session_id", sessionID, "step", out.CurrentStep, "noop", noop)
	e.emit(ctx, sessionID, out, noop)
	return out, nil
}

// Current returns the session's workflow. It refreshes the session like any
// other read but never changes the workflow.
func (e *Engine) Current(ctx context.Context, sessionID string) (*domain.Workflow, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Payload.Workflow == nil {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNoActiveWorkflow, sessionID)
	}
	return sess.Payload.Workflow, nil
}

func (e *Engine) emit(ctx context.Context, sessionID string, wf *domain.Workflow, noop bool) {
	e.hooks.WorkflowStep(ctx, &domain.WorkflowEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventWorkflowStep, SessionID: sessionID},
		Step:      wf.CurrentStep,
		Completed: wf.IsCompleted(),
		Noop:      noop,
	})
}
