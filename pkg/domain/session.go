package domain

import (
	"fmt"
	"time"
)

// Session is the server-held record that ties a sequence of interactions together.
type Session struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`

	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	// ExpiresAt slides forward on every touch: it is always LastAccessedAt + TTL.
	ExpiresAt time.Time `json:"expires_at"`

	// VisitCount counts payload updates.
	VisitCount int `json:"visit_count"`

	Payload Payload `json:"payload"`
}

// NewSession creates a fresh record whose expiry starts at now + ttl.
func NewSession(id, ownerID string, payload Payload, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:             id,
		OwnerID:        ownerID,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(ttl),
		Payload:        payload,
	}
}

// Touch refreshes the sliding expiration.
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.LastAccessedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// IsExpired reports whether the record is past its expiry at the given instant.
func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// Validate checks the structural invariants of a stored record.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil record", ErrCorruptSession)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: empty id", ErrCorruptSession)
	}
	if s.ExpiresAt.Before(s.LastAccessedAt) {
		return fmt.Errorf("%w: %s expires before its last access", ErrCorruptSession, s.ID)
	}
	return nil
}

// Clone returns a deep copy so callers never alias stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Payload = s.Payload.Clone()
	return &c
}
