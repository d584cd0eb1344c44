package repository

import (
	"context"
	"time"

	"casevault/backend/internal/audit/domain"
)

// Repository defines persistence for access log entries. The log is
// append-only: there is no update or delete.
type Repository interface {
	// Append writes one entry. A failed append on a record read must fail the
	// read itself (fail-closed); callers decide whether they are best-effort.
	Append(ctx context.Context, e *domain.Entry) error
	// ListByRecord returns entries for recordID (all records when empty) with
	// CreatedAt at or after since, newest first.
	ListByRecord(ctx context.Context, recordID string, since time.Time) ([]*domain.Entry, error)
}
