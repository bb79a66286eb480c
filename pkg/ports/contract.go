package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, "u1", domain.Payload{
			Preferences: map[string]string{"theme": "dark"},
		}, now, time.Hour)

		err := store.Save(ctx, s)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.ID, loaded.ID)
		assert.Equal(t, "u1", loaded.OwnerID)
		assert.Equal(t, "dark", loaded.Payload.Preferences["theme"])
		assert.True(t, s.ExpiresAt.Equal(loaded.ExpiresAt))
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Payload.Preferences["theme"] = "light"
		loaded.OwnerID = "someone-else"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "dark", again.Payload.Preferences["theme"], "store must not hand out aliases")
		assert.Equal(t, "u1", again.OwnerID)
	})

	t.Run("Save Stores A Copy", func(t *testing.T) {
		s := domain.NewSession(sessionID, "u1", domain.Payload{Cart: domain.NewCart()}, now, time.Hour)
		require.NoError(t, store.Save(ctx, s))
		s.Payload.Cart.Add(domain.Product{ID: "p1", Price: 1}, 1)

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, loaded.Payload.Cart)
		assert.Empty(t, loaded.Payload.Cart.Items)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, domain.NewSession(sessionID, "u1", domain.Payload{}, now, time.Hour))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete of an absent session is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewSession(id1, "u1", domain.Payload{}, now, time.Hour))
		_ = store.Save(ctx, domain.NewSession(id2, "u2", domain.Payload{}, now, time.Hour))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
