package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"casevault/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	const q = `SELECT id, principal_id, started_at, last_activity_at, expires_at, active, revoked_at, ip_address, created_at
		FROM sessions WHERE id = $1`
	var (
		s         domain.Session
		revokedAt sql.NullTime
		ip        sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.PrincipalID, &s.StartedAt, &s.LastActivityAt, &s.ExpiresAt,
		&s.Active, &revokedAt, &ip, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	s.IPAddress = ip.String
	return &s, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	const q = `INSERT INTO sessions
		(id, principal_id, started_at, last_activity_at, expires_at, active, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	ip := sql.NullString{String: s.IPAddress, Valid: s.IPAddress != ""}
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.PrincipalID, s.StartedAt, s.LastActivityAt, s.ExpiresAt, s.Active, ip, s.CreatedAt)
	return err
}

// PersistHeartbeat stores last activity and the refreshed idle expiry for the session.
func (r *PostgresRepository) PersistHeartbeat(ctx context.Context, sessionID string, lastActivity, newExpiry time.Time) error {
	const q = `UPDATE sessions SET last_activity_at = $2, expires_at = $3 WHERE id = $1 AND active`
	_, err := r.db.ExecContext(ctx, q, sessionID, lastActivity, newExpiry)
	return err
}

// Revoke marks the session inactive. Idempotent: revoking twice keeps the
// first revocation timestamp.
func (r *PostgresRepository) Revoke(ctx context.Context, sessionID string) error {
	const q = `UPDATE sessions SET active = FALSE, revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, sessionID, time.Now().UTC())
	return err
}
