// Package domain holds principals and their role sets.
package domain

import "time"

// Role is a role tag granted to a principal.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Principal is an authenticated staff account.
type Principal struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// RoleSet is the set of role tags held by one principal.
type RoleSet map[Role]bool

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool { return s[r] }

// IsStaff reports whether the principal holds staff or admin.
func (s RoleSet) IsStaff() bool { return s[RoleStaff] || s[RoleAdmin] }

// IsAdmin reports whether the principal holds admin.
func (s RoleSet) IsAdmin() bool { return s[RoleAdmin] }

// Roles returns the set as a slice, for policy input. Order is unspecified.
func (s RoleSet) Roles() []string {
	out := make([]string, 0, len(s))
	for r, ok := range s {
		if ok {
			out = append(out, string(r))
		}
	}
	return out
}
