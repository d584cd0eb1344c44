package repository

import (
	"context"
	"database/sql"
	"time"

	"casevault/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an access log repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append persists the entry. The entry must have ID set.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.Entry) error {
	const q = `INSERT INTO access_logs
		(id, principal_id, access_type, record_id, ip, user_agent, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	recordID := sql.NullString{String: e.RecordID, Valid: e.RecordID != ""}
	detail := sql.NullString{String: e.Detail, Valid: e.Detail != ""}
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.PrincipalID, string(e.AccessType), recordID, e.IP, e.UserAgent, detail, e.CreatedAt)
	return err
}

// ListByRecord returns entries for recordID (all records when empty) created
// at or after since, newest first.
func (r *PostgresRepository) ListByRecord(ctx context.Context, recordID string, since time.Time) ([]*domain.Entry, error) {
	const base = `SELECT id, principal_id, access_type, record_id, ip, user_agent, detail, created_at
		FROM access_logs WHERE created_at >= $1`

	var (
		rows *sql.Rows
		err  error
	)
	if recordID == "" {
		rows, err = r.db.QueryContext(ctx, base+` ORDER BY created_at DESC`, since)
	} else {
		rows, err = r.db.QueryContext(ctx, base+` AND record_id = $2 ORDER BY created_at DESC`, since, recordID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		var (
			e      domain.Entry
			at     string
			rec    sql.NullString
			detail sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.PrincipalID, &at, &rec, &e.IP, &e.UserAgent, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.AccessType = domain.AccessType(at)
		e.RecordID = rec.String
		e.Detail = detail.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
