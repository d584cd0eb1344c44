package repository

import (
	"context"

	"casevault/backend/internal/client/domain"
)

// Repository defines read-only persistence for protected client records.
// The secure access gateway is the only consumer; nothing in this core
// mutates client records.
type Repository interface {
	// ReadFull returns the full projection for id, or nil if not found.
	ReadFull(ctx context.Context, id string) (*domain.Record, error)
	// ReadSummary returns the minimized projection for id, or nil if not found.
	ReadSummary(ctx context.Context, id string) (*domain.Summary, error)
	// FindByText returns ids of records whose first name, last name, email, or
	// phone contains term (case-insensitive), up to limit.
	FindByText(ctx context.Context, term string, limit int) ([]string, error)
}
