package repository

import (
	"context"
	"database/sql"
	"errors"

	"casevault/backend/internal/identity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByEmail returns the principal for email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	const q = `SELECT id, email, name, password_hash, active, created_at
		FROM staff_accounts WHERE email = $1`
	var p domain.Principal
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetRoles returns the role set for principalID. A principal with no role
// rows gets an empty set.
func (r *PostgresRepository) GetRoles(ctx context.Context, principalID string) (domain.RoleSet, error) {
	const q = `SELECT role FROM staff_roles WHERE principal_id = $1`
	rows, err := r.db.QueryContext(ctx, q, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make(domain.RoleSet)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles[domain.Role(role)] = true
	}
	return roles, rows.Err()
}
