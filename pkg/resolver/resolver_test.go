package resolver_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/sessiond/internal/testutils"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	clock := testutils.NewClock()
	reg := testutils.NewRegistry(t, clock)
	res := resolver.New(reg)
	ctx := context.Background()

	s, err := reg.Create(ctx, "u1", domain.Payload{})
	require.NoError(t, err)

	t.Run("live session", func(t *testing.T) {
		clock.Advance(time.Minute)
		got, err := res.Resolve(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, clock.Now().Add(time.Hour), got.ExpiresAt, "resolve refreshes the session")
	})

	for name, token := range map[string]string{
		"empty":    "",
		"too long": strings.Repeat("x", resolver.MaxTokenLength+1),
		"unknown":  "does-not-exist",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := res.Resolve(ctx, token)
			assert.ErrorIs(t, err, domain.ErrRejected)
			assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
		})
	}

	t.Run("deleted", func(t *testing.T) {
		other, err := reg.Create(ctx, "u2", domain.Payload{})
		require.NoError(t, err)
		require.True(t, reg.Delete(ctx, other.ID))

		_, err = res.Resolve(ctx, other.ID)
		assert.ErrorIs(t, err, domain.ErrRejected)
	})

	t.Run("expired", func(t *testing.T) {
		other, err := reg.Create(ctx, "u3", domain.Payload{})
		require.NoError(t, err)
		clock.Advance(2 * time.Hour)

		_, err = res.Resolve(ctx, other.ID)
		assert.ErrorIs(t, err, domain.ErrRejected)
	})
}

type failingSessions struct{ err error }

func (f failingSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	return nil, f.err
}

func TestResolve_OtherErrorsPassThrough(t *testing.T) {
	boom := errors.New("store unavailable")
	res := resolver.New(failingSessions{err: boom})

	_, err := res.Resolve(context.Background(), "token")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrRejected)

	res = resolver.New(failingSessions{err: domain.ErrCorruptSession})
	_, err = res.Resolve(context.Background(), "token")
	assert.ErrorIs(t, err, domain.ErrCorruptSession)
}
