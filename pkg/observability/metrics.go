package observability

import (
	"context"

	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sessiond"

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	SessionsCreated prometheus.Counter
	SessionsDeleted prometheus.Counter
	SessionsExpired prometheus.Counter
	SessionsActive  prometheus.Gauge

	CartOps       *prometheus.CounterVec
	WorkflowSteps *prometheus.CounterVec

	SweepDuration prometheus.Histogram
	SweepCorrupt  prometheus.Counter

	StoreDuration *prometheus.HistogramVec
	StoreFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// It panics if registration fails, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Total number of sessions created",
		}),
		SessionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_deleted_total",
			Help:      "Total number of sessions explicitly deleted",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Total number of sessions removed after their TTL elapsed",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently held",
		}),
		CartOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_operations_total",
				Help:      "Total number of cart mutations",
			},
			[]string{"op"},
		),
		WorkflowSteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_transitions_total",
				Help:      "Total number of workflow starts and advances",
			},
			[]string{"outcome"},
		),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of expiry sweeps",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		SweepCorrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_corrupt_records_total",
			Help:      "Total number of corrupt records removed by the sweep",
		}),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Duration of session store calls",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"op"},
		),
		StoreFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_failures_total",
				Help:      "Total number of failed session store calls",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(
		m.SessionsCreated,
		m.SessionsDeleted,
		m.SessionsExpired,
		m.SessionsActive,
		m.CartOps,
		m.WorkflowSteps,
		m.SweepDuration,
		m.SweepCorrupt,
		m.StoreDuration,
		m.StoreFailures,
	)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionCreated: func(ctx context.Context, e *domain.SessionEvent) {
			m.SessionsCreated.Inc()
			m.SessionsActive.Inc()
		},
		OnSessionDeleted: func(ctx context.Context, e *domain.SessionEvent) {
			m.SessionsDeleted.Inc()
			m.SessionsActive.Dec()
		},
		OnSessionExpired: func(ctx context.Context, e *domain.SessionEvent) {
			m.SessionsExpired.Inc()
			m.SessionsActive.Dec()
		},
		OnCartChanged: func(ctx context.Context, e *domain.CartEvent) {
			m.CartOps.WithLabelValues(e.Op).Inc()
		},
		OnWorkflowStep: func(ctx context.Context, e *domain.WorkflowEvent) {
			m.WorkflowSteps.WithLabelValues(workflowOutcome(e)).Inc()
		},
		OnSweep: func(ctx context.Context, e *domain.SweepEvent) {
			m.SweepDuration.Observe(e.Duration.Seconds())
			if e.Corrupt > 0 {
				m.SweepCorrupt.Add(float64(e.Corrupt))
				// Corrupt records never fired an expired event.
				m.SessionsActive.Sub(float64(e.Corrupt))
			}
		},
	}
}

func workflowOutcome(e *domain.WorkflowEvent) string {
	switch {
	case e.Noop:
		return "noop"
	case e.Completed:
		return "completed"
	default:
		return "step"
	}
}
