// Package domain holds the append-only access log entry.
package domain

import "time"

// AccessType classifies one audited event.
type AccessType string

const (
	// Gateway record accesses. Exactly one entry is written per gateway
	// invocation, including denied ones.
	AccessFull    AccessType = "full"
	AccessSummary AccessType = "summary"
	AccessSearch  AccessType = "search"
	AccessDenied  AccessType = "denied"

	// Session lifecycle events, written best-effort by the audit logger.
	AccessLogin      AccessType = "login"
	AccessLogout     AccessType = "logout"
	AccessTerminated AccessType = "session_terminated"
)

// Entry is one immutable access log record. Entries are appended exactly once
// and never mutated or deleted by this core.
type Entry struct {
	ID          string
	PrincipalID string
	AccessType  AccessType
	RecordID    string // empty for search-level and session events
	IP          string
	UserAgent   string
	Detail      string
	CreatedAt   time.Time
}
