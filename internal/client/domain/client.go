// Package domain holds the protected client record and its projections.
package domain

import "time"

// Record is the full projection of a client record. Access to it is always
// mediated by the secure access gateway and audited.
type Record struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	DateOfBirth     *time.Time // nil when not recorded
	CaseNotes       string
	FinancialNotes  string
	AssignedStaffID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Summary is the minimized projection of a client record: the fixed subset of
// fields needed for lists and search results. It never carries case or
// financial notes.
type Summary struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Summarize returns the minimized projection of r.
func (r *Record) Summarize() *Summary {
	if r == nil {
		return nil
	}
	return &Summary{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
	}
}
