package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionCreated EventType = "session_created"
	EventSessionDeleted EventType = "session_deleted"
	EventSessionExpired EventType = "session_expired"
	EventCartChanged    EventType = "cart_changed"
	EventWorkflowStep   EventType = "workflow_step"
	EventSweep          EventType = "sweep"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// SessionEvent marks a session entering or leaving the registry.
type SessionEvent struct {
	EventBase
	OwnerID string `json:"owner_id"`
}

// CartEvent reports a cart mutation and the recomputed total.
type CartEvent struct {
	EventBase
	Op        string `json:"op"`
	ProductID string `json:"product_id,omitempty"`
	Items     int    `json:"items"`
	Total     int64  `json:"total"`
}

// WorkflowEvent reports a workflow start or advance.
type WorkflowEvent struct {
	EventBase
	Step      string `json:"step"`
	Completed bool   `json:"completed"`
	// Noop is set when Advance hit an already completed workflow.
	Noop bool `json:"noop,omitempty"`
}

// SweepEvent summarizes one pass of the expiry sweep.
type SweepEvent struct {
	EventBase
	Scanned  int           `json:"scanned"`
	Removed  int           `json:"removed"`
	Corrupt  int           `json:"corrupt"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for observability. Any field may be nil.
type LifecycleHooks struct {
	OnSessionCreated func(context.Context, *SessionEvent)
	OnSessionDeleted func(context.Context, *SessionEvent)
	OnSessionExpired func(context.Context, *SessionEvent)
	OnCartChanged    func(context.Context, *CartEvent)
	OnWorkflowStep   func(context.Context, *WorkflowEvent)
	OnSweep          func(context.Context, *SweepEvent)
}

func (h LifecycleHooks) SessionCreated(ctx context.Context, e *SessionEvent) {
	if h.OnSessionCreated != nil {
		h.OnSessionCreated(ctx, e)
	}
}

func (h LifecycleHooks) SessionDeleted(ctx context.Context, e *SessionEvent) {
	if h.OnSessionDeleted != nil {
		h.OnSessionDeleted(ctx, e)
	}
}

func (h LifecycleHooks) SessionExpired(ctx context.Context, e *SessionEvent) {
	if h.OnSessionExpired != nil {
		h.OnSessionExpired(ctx, e)
	}
}

func (h LifecycleHooks) CartChanged(ctx context.Context, e *CartEvent) {
	if h.OnCartChanged != nil {
		h.OnCartChanged(ctx, e)
	}
}

func (h LifecycleHooks) WorkflowStep(ctx context.Context, e *WorkflowEvent) {
	if h.OnWorkflowStep != nil {
		h.OnWorkflowStep(ctx, e)
	}
}

func (h LifecycleHooks) Sweep(ctx context.Context, e *SweepEvent) {
	if h.OnSweep != nil {
		h.OnSweep(ctx, e)
	}
}

// ChainHooks fans every event out to each of the given hook sets, in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSessionCreated: func(ctx context.Context, e *SessionEvent) {
			for _, h := range hooks {
				h.SessionCreated(ctx, e)
			}
		},
		OnSessionDeleted: func(ctx context.Context, e *SessionEvent) {
			for _, h := range hooks {
				h.SessionDeleted(ctx, e)
			}
		},
		OnSessionExpired: func(ctx context.Context, e *SessionEvent) {
			for _, h := range hooks {
				h.SessionExpired(ctx, e)
			}
		},
		OnCartChanged: func(ctx context.Context, e *CartEvent) {
			for _, h := range hooks {
				h.CartChanged(ctx, e)
			}
		},
		OnWorkflowStep: func(ctx context.Context, e *WorkflowEvent) {
			for _, h := range hooks {
				h.WorkflowStep(ctx, e)
			}
		},
		OnSweep: func(ctx context.Context, e *SweepEvent) {
			for _, h := range hooks {
				h.Sweep(ctx, e)
			}
		},
	}
}
