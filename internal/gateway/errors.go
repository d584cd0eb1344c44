package gateway

import "errors"

// Sentinel errors for gateway operations; the HTTP layer maps them to status
// codes. External denial messaging must not distinguish ErrAccessDenied from
// a record that does not exist; ErrNotFound is only ever produced after the
// role check has passed.
var (
	// ErrAccessDenied means the role check failed. Audited.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound means the store confirmed no such record to an authorized caller.
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable means a store operation failed, including a failed
	// audit append on an otherwise successful read (fail-closed). Transient;
	// safe to retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrSessionTerminated means the caller's session has ended; the store is
	// never contacted.
	ErrSessionTerminated = errors.New("session terminated")
)
