// Package engine decides record-access capability from a principal's role set.
package engine

import "context"

// Decision holds the result of access policy evaluation for one principal.
type Decision struct {
	AllowFull      bool
	AllowSummary   bool
	AllowAuditRead bool
}

// Evaluator evaluates record-access policy using OPA or other engines.
// Implementations must fail closed: on any evaluation problem the zero
// Decision (deny everything) is returned alongside the error.
type Evaluator interface {
	// EvaluateAccess returns the capabilities granted by the given role tags.
	EvaluateAccess(ctx context.Context, roles []string) (Decision, error)
}
