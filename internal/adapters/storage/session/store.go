package session

import (
	"context"
	"errors"

	domain "ays/internal/domain/session"
)

// ErrNotFound is returned when no live session exists for an id.
var ErrNotFound = errors.New("session not found")

// Store persists browser sessions between requests.
type Store interface {
	// Get returns the session for id, or ErrNotFound when absent or expired.
	Get(ctx context.Context, id string) (domain.Session, error)
	// Save creates or replaces the session.
	Save(ctx context.Context, s domain.Session) error
	// Delete removes the session; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
