package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/sessiond/internal/logging"
	"github.com/aretw0/sessiond/internal/testutils"
	"github.com/aretw0/sessiond/pkg/cart"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/observability"
	"github.com/aretw0/sessiond/pkg/session"
	"github.com/aretw0/sessiond/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_FromLifecycle(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	hooks := metrics.Hooks()

	clock := testutils.NewClock()
	reg := testutils.NewRegistry(t, clock, session.WithHooks(hooks))
	carts := cart.NewStore(reg, testutils.Catalog(), cart.WithHooks(hooks))
	flows := workflow.NewEngine(reg, workflow.WithHooks(hooks))
	ctx := context.Background()

	a, err := reg.Create(ctx, "u1", domain.Payload{})
	require.NoError(t, err)
	b, err := reg.Create(ctx, "u1", domain.Payload{})
	require.NoError(t, err)
	_, err = reg.Create(ctx, "u2", domain.Payload{})
	require.NoError(t, err)

	_, err = carts.AddItem(ctx, a.ID, "p1", 1)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, a.ID, "p2", 1)
	require.NoError(t, err)
	_, err = carts.Clear(ctx, a.ID)
	require.NoError(t, err)

	_, err = flows.Start(ctx, a.ID, []string{"x"})
	require.NoError(t, err)
	_, err = flows.Advance(ctx, a.ID)
	require.NoError(t, err)
	_, err = flows.Advance(ctx, a.ID)
	require.NoError(t, err)

	require.True(t, reg.Delete(ctx, b.ID))

	// Keep a alive, let the third session lapse.
	clock.Advance(50 * time.Minute)
	_, err = reg.Get(ctx, a.ID)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)
	assert.Equal(t, 1, reg.Sweep(ctx))

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.SessionsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsActive))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CartOps.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CartOps.WithLabelValues("clear")))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkflowSteps.WithLabelValues("step")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkflowSteps.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkflowSteps.WithLabelValues("noop")))

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.SweepDuration))
}

func TestMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatJSON)
	hooks := observability.LogHooks(logger)
	ctx := context.Background()

	hooks.SessionCreated(ctx, &domain.SessionEvent{EventBase: domain.EventBase{SessionID: "s1"}, OwnerID: "u1"})
	hooks.Sweep(ctx, &domain.SweepEvent{Scanned: 4})
	hooks.CartChanged(ctx, &domain.CartEvent{EventBase: domain.EventBase{SessionID: "s1"}, Op: "add", Total: 1998})

	out := buf.String()
	assert.Contains(t, out, `"msg":"session_created"`)
	assert.Contains(t, out, `"owner_id":"u1"`)
	assert.Contains(t, out, `"total":1998`)
	assert.NotContains(t, out, `"msg":"sweep"`, "empty sweeps log at debug")
}
