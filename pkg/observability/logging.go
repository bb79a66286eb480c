package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/sessiond/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured record per event.
// Sweeps that removed nothing are logged at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionCreated: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_created", "session_id", e.SessionID, "owner_id", e.OwnerID)
		},
		OnSessionDeleted: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_deleted", "session_id", e.SessionID, "owner_id", e.OwnerID)
		},
		OnSessionExpired: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_expired", "session_id", e.SessionID, "owner_id", e.OwnerID)
		},
		OnCartChanged: func(ctx context.Context, e *domain.CartEvent) {
			logger.InfoContext(ctx, "cart_changed",
				"session_id", e.SessionID,
				"op", e.Op,
				"product_id", e.ProductID,
				"items", e.Items,
				"total", e.Total,
			)
		},
		OnWorkflowStep: func(ctx context.Context, e *domain.WorkflowEvent) {
			logger.InfoContext(ctx, "workflow_step",
				"session_id", e.SessionID,
				"step", e.Step,
				"completed", e.Completed,
				"noop", e.Noop,
			)
		},
		OnSweep: func(ctx context.Context, e *domain.SweepEvent) {
			level := slog.LevelDebug
			if e.Removed > 0 {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "sweep",
				"scanned", e.Scanned,
				"removed", e.Removed,
				"corrupt", e.Corrupt,
				"duration", e.Duration,
			)
		},
	}
}
