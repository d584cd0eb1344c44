package repository

import (
	"context"
	"time"

	"casevault/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	// GetByID returns the session for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// PersistHeartbeat stores the session's last activity and refreshed idle
	// expiry so state survives process restarts and can be inspected externally.
	PersistHeartbeat(ctx context.Context, sessionID string, lastActivity, newExpiry time.Time) error
	// Revoke marks the session inactive. Idempotent.
	Revoke(ctx context.Context, sessionID string) error
}
