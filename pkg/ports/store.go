package ports

import (
	"context"

	"github.com/aretw0/sessiond/pkg/domain"
)

// SessionStore defines the interface for holding session records.
// Implementations must be safe for concurrent use and must not let callers
// alias stored records: Save stores a copy and Load returns a copy.
// Read-modify-write atomicity is the registry's job, not the store's.
type SessionStore interface {
	// Save inserts or replaces the record under s.ID.
	Save(ctx context.Context, s *domain.Session) error

	// Load retrieves the record for a session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the record. Deleting an absent ID is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of every stored record.
	List(ctx context.Context) ([]string, error)
}
