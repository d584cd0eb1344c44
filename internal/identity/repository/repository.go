package repository

import (
	"context"

	"casevault/backend/internal/identity/domain"
)

// Repository defines persistence for staff principals and their roles.
// Role assignments are owned by the identity collaborator; this core only
// reads them.
type Repository interface {
	// GetByEmail returns the principal for email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	// GetRoles returns the role set for principalID. Missing principals yield
	// an empty set, not an error.
	GetRoles(ctx context.Context, principalID string) (domain.RoleSet, error)
}
