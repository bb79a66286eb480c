package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

type instrumentedStore struct {
	next     ports.SessionStore
	duration prometheus.ObserverVec
	failures *prometheus.CounterVec
}

// NewInstrumentation records the latency of every store call in duration and
// counts failed calls in failures, both labelled by "op". A Load that finds
// nothing is not a failure.
func NewInstrumentation(duration prometheus.ObserverVec, failures *prometheus.CounterVec) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &instrumentedStore{next: next, duration: duration, failures: failures}
	}
}

func (m *instrumentedStore) observe(op string, start time.Time, err error) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		m.failures.WithLabelValues(op).Inc()
	}
}

func (m *instrumentedStore) Save(ctx context.Context, session *domain.Session) error {
	start := time.Now()
	err := m.next.Save(ctx, session)
	m.observe("save", start, err)
	return err
}

func (m *instrumentedStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	start := time.Now()
	s, err := m.next.Load(ctx, sessionID)
	m.observe("load", start, err)
	return s, err
}

func (m *instrumentedStore) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := m.next.Delete(ctx, sessionID)
	m.observe("delete", start, err)
	return err
}

func (m *instrumentedStore) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.observe("list", start, err)
	return ids, err
}
