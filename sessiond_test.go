package sessiond_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sessiond"
	"github.com/aretw0/sessiond/internal/testutils"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_EndToEnd(t *testing.T) {
	clock := testutils.NewClock()
	svc, err := sessiond.New(
		sessiond.WithCatalog(testutils.Catalog()),
		sessiond.WithTTL(10*time.Minute),
		sessiond.WithClock(clock.Now),
	)
	require.NoError(t, err)
	ctx := context.Background()

	s, err := svc.Registry.Create(ctx, "u1", domain.Payload{})
	require.NoError(t, err)

	resolved, err := svc.Resolver.Resolve(ctx, s.ID)
	require.NoError(t, err)

	c, err := svc.Carts.AddItem(ctx, resolved.ID, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1998), c.Total())

	wf, err := svc.Workflows.Start(ctx, resolved.ID, []string{"cart", "pay"})
	require.NoError(t, err)
	assert.Equal(t, "cart", wf.CurrentStep)

	got, err := svc.Registry.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.PayloadKind{domain.KindCart, domain.KindWorkflow}, got.Payload.Kinds())

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 1, svc.Registry.Sweep(ctx))

	_, err = svc.Resolver.Resolve(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrRejected)
}

func TestService_InvalidOptions(t *testing.T) {
	_, err := sessiond.New(sessiond.WithTTL(0))
	assert.Error(t, err)

	_, err = sessiond.New(sessiond.WithLookupTimeout(-time.Second))
	assert.Error(t, err)
}

func TestService_StartStop(t *testing.T) {
	svc, err := sessiond.New(sessiond.WithSweepInterval(time.Millisecond))
	require.NoError(t, err)

	svc.Start(context.Background())
	svc.Start(context.Background())
	svc.Stop()
	svc.Stop()
}
