package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_MergeIsShallow(t *testing.T) {
	base := Payload{Preferences: map[string]string{"a": "1"}}

	merged := base.Merge(Payload{Counters: map[string]int64{"b": 2}})
	assert.Equal(t, "1", merged.Preferences["a"])
	assert.Equal(t, int64(2), merged.Counters["b"])

	// A present block replaces wholesale; it is not merged key by key.
	merged = merged.Merge(Payload{Preferences: map[string]string{"theme": "dark"}})
	assert.Equal(t, map[string]string{"theme": "dark"}, merged.Preferences)
	assert.Equal(t, int64(2), merged.Counters["b"], "absent blocks are untouched")

	// The base value is never modified in place.
	assert.Equal(t, map[string]string{"a": "1"}, base.Preferences)
	assert.Nil(t, base.Counters)
}

func TestPayload_Kinds(t *testing.T) {
	p := Payload{Cart: NewCart(), Counters: map[string]int64{}}
	assert.Equal(t, []PayloadKind{KindCart, KindCounters}, p.Kinds())
	assert.True(t, Payload{}.IsEmpty())
}

func TestDecodePayload(t *testing.T) {
	t.Run("Known blocks", func(t *testing.T) {
		p, err := DecodePayload(map[string]any{
			"preferences": map[string]any{"theme": "dark"},
			"counters":    map[string]any{"visits": float64(3)},
			"cart": map[string]any{
				"items": []any{
					map[string]any{"product_id": "p1", "name": "Keyboard", "quantity": float64(2), "unit_price": float64(999)},
				},
				"total": float64(1),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "dark", p.Preferences["theme"])
		assert.Equal(t, int64(3), p.Counters["visits"])
		require.NotNil(t, p.Cart)
		assert.Equal(t, int64(1998), p.Cart.Total())
	})

	t.Run("Workflow with timestamps", func(t *testing.T) {
		p, err := DecodePayload(map[string]any{
			"workflow": map[string]any{
				"steps":        []any{"a", "b"},
				"current_step": "b",
				"started_at":   "2026-01-01T10:00:00Z",
			},
		})
		require.NoError(t, err)
		require.NotNil(t, p.Workflow)
		assert.Equal(t, "b", p.Workflow.CurrentStep)
		assert.Equal(t, 2026, p.Workflow.StartedAt.Year())
	})

	invalid := map[string]map[string]any{
		"Unknown key":        {"a": 1},
		"Scalar block":       {"preferences": "dark"},
		"Mistyped counter":   {"counters": map[string]any{"visits": "many"}},
		"Zero quantity line": {"cart": map[string]any{"items": []any{map[string]any{"product_id": "p1", "quantity": 0}}}},
		"Bad workflow":       {"workflow": map[string]any{"steps": []any{"a"}, "current_step": "x"}},
		"Mistyped quantity": {"cart": map[string]any{"items": []any{
			map[string]any{"product_id": "p1", "quantity": 2.9, "unit_price": float64(999)},
		}}},
		"Fractional counter": {"counters": map[string]any{"visits": 1.5}},
		"Fractional price":   {"cart": map[string]any{"items": []any{map[string]any{"product_id": "p1", "quantity": float64(1), "unit_price": 9.99}}}},
		"Oversized quantity": {"cart": map[string]any{"items": []any{map[string]any{"product_id": "p1", "quantity": float64(MaxLineQuantity + 1)}}}},
		"Overflowing total":  {"cart": map[string]any{"items": []any{map[string]any{"product_id": "p1", "quantity": float64(MaxLineQuantity), "unit_price": float64(math.MaxInt64 / 2)}}}},
	}
	for name, raw := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePayload(raw)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}

	t.Run("Nil mapping", func(t *testing.T) {
		_, err := DecodePayload(nil)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}
