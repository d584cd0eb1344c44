// Package domain holds the authenticated session record.
package domain

import "time"

// Session represents one authenticated principal's session. Active becomes
// false exactly once, at termination, and never flips back.
type Session struct {
	ID             string
	PrincipalID    string
	StartedAt      time.Time
	LastActivityAt time.Time
	// ExpiresAt is the persisted idle expiry (last activity + idle timeout);
	// refreshed by the heartbeat so session state survives process restarts.
	ExpiresAt time.Time
	Active    bool
	RevokedAt *time.Time // nil when not revoked
	IPAddress string
	CreatedAt time.Time
}
