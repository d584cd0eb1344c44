// Package telemetry defines the security event stream: session lifecycle
// events serialized as JSON and delivered best-effort to a broker.
package telemetry

import "time"

// Event kinds published to the security event stream.
const (
	KindSessionWarning    = "session_warning"
	KindSessionTerminated = "session_terminated"
)

// Event is one security event. Events carry identifiers only, never record
// contents or credentials.
type Event struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	SessionID   string    `json:"session_id"`
	PrincipalID string    `json:"principal_id"`
	// Reason is set on termination events (idle, absolute, logout).
	Reason string `json:"reason,omitempty"`
	// TimeLeftMS is set on warning events.
	TimeLeftMS int64     `json:"time_left_ms,omitempty"`
	At         time.Time `json:"at"`
}
