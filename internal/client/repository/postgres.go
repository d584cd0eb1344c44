package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"casevault/backend/internal/client/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a client record repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ReadFull returns the full record for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) ReadFull(ctx context.Context, id string) (*domain.Record, error) {
	const q = `SELECT id, first_name, last_name, email, phone, address, date_of_birth,
		case_notes, financial_notes, assigned_staff_id, created_at, updated_at
		FROM clients WHERE id = $1`
	var (
		rec       domain.Record
		address   sql.NullString
		dob       sql.NullTime
		caseNotes sql.NullString
		finNotes  sql.NullString
		staffID   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone,
		&address, &dob, &caseNotes, &finNotes, &staffID,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.Address = address.String
	rec.CaseNotes = caseNotes.String
	rec.FinancialNotes = finNotes.String
	rec.AssignedStaffID = staffID.String
	rec.DateOfBirth = nullTimeToPtr(dob)
	return &rec, nil
}

// ReadSummary returns the minimized projection for id, or nil if not found.
func (r *PostgresRepository) ReadSummary(ctx context.Context, id string) (*domain.Summary, error) {
	const q = `SELECT id, first_name, last_name, email, phone FROM clients WHERE id = $1`
	var s domain.Summary
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindByText returns ids of records matching term against the indexed fields
// (first name, last name, email, phone), case-insensitive, up to limit.
func (r *PostgresRepository) FindByText(ctx context.Context, term string, limit int) ([]string, error) {
	const q = `SELECT id FROM clients
		WHERE first_name ILIKE '%' || $1 || '%'
		   OR last_name  ILIKE '%' || $1 || '%'
		   OR email      ILIKE '%' || $1 || '%'
		   OR phone      ILIKE '%' || $1 || '%'
		ORDER BY last_name, first_name
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
