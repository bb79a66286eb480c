package domain

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// PayloadKind names one of the closed set of sub-state blocks a session may carry.
type PayloadKind string

const (
	KindCart        PayloadKind = "cart"
	KindWorkflow    PayloadKind = "workflow"
	KindPreferences PayloadKind = "preferences"
	KindCounters    PayloadKind = "counters"
)

// Payload holds the named sub-state blocks attached to a session.
// Each field is one variant; a nil field means the block is absent.
type Payload struct {
	Cart        *Cart             `json:"cart,omitempty" mapstructure:"cart"`
	Workflow    *Workflow         `json:"workflow,omitempty" mapstructure:"workflow"`
	Preferences map[string]string `json:"preferences,omitempty" mapstructure:"preferences"`
	Counters    map[string]int64  `json:"counters,omitempty" mapstructure:"counters"`
}

// Kinds lists the blocks present, in a stable order.
func (p Payload) Kinds() []PayloadKind {
	var kinds []PayloadKind
	if p.Cart != nil {
		kinds = append(kinds, KindCart)
	}
	if p.Workflow != nil {
		kinds = append(kinds, KindWorkflow)
	}
	if p.Preferences != nil {
		kinds = append(kinds, KindPreferences)
	}
	if p.Counters != nil {
		kinds = append(kinds, KindCounters)
	}
	return kinds
}

// IsEmpty reports whether no block is present.
func (p Payload) IsEmpty() bool {
	return len(p.Kinds()) == 0
}

// Merge performs a shallow, top-level merge: every block present in partial
// replaces the corresponding block, every absent block is left untouched.
func (p Payload) Merge(partial Payload) Payload {
	out := p.Clone()
	if partial.Cart != nil {
		out.Cart = partial.Cart.Clone()
	}
	if partial.Workflow != nil {
		out.Workflow = partial.Workflow.Clone()
	}
	if partial.Preferences != nil {
		out.Preferences = maps.Clone(partial.Preferences)
	}
	if partial.Counters != nil {
		out.Counters = maps.Clone(partial.Counters)
	}
	return out
}

// Validate checks every present block.
func (p Payload) Validate() error {
	if p.Cart != nil {
		if err := p.Cart.Validate(); err != nil {
			return err
		}
	}
	if p.Workflow != nil {
		if err := p.Workflow.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p Payload) Clone() Payload {
	return Payload{
		Cart:        p.Cart.Clone(),
		Workflow:    p.Workflow.Clone(),
		Preferences: maps.Clone(p.Preferences),
		Counters:    maps.Clone(p.Counters),
	}
}

// DecodePayload turns an untyped key/value mapping (as decoded from a request
// body) into a typed Payload. Unknown top-level keys, unknown fields inside a
// block, and mistyped values are all rejected with ErrInvalidPayload.
func DecodePayload(raw map[string]any) (Payload, error) {
	var p Payload
	if raw == nil {
		return p, fmt.Errorf("%w: payload must be a key/value mapping", ErrInvalidPayload)
	}

	// total is a projection of the items; never trust it on input.
	if cart, ok := raw[string(KindCart)].(map[string]any); ok {
		if _, has := cart["total"]; has {
			cart = maps.Clone(cart)
			delete(cart, "total")
			raw = maps.Clone(raw)
			raw[string(KindCart)] = cart
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &p,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			integralFloatHook,
		),
	})
	if err != nil {
		return Payload{}, fmt.Errorf("payload decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// integralFloatHook stops mapstructure from truncating JSON numbers such as 2.9
// into integer fields.
func integralFloatHook(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.Float32 && from != reflect.Float64 {
		return data, nil
	}
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return nil, fmt.Errorf("%v is not an integer", data)
	}
	return data, nil
}
