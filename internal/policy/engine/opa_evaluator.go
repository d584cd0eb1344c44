package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Record-access policy: staff and admin may read full and summary
// projections; only admin may read the access log.
const defaultRegoPolicy = `package casevault.record_access

default allow_full = false
default allow_summary = false
default allow_audit_read = false

allow_full if {
	input.roles[_] == "staff"
}

allow_full if {
	input.roles[_] == "admin"
}

allow_summary if {
	allow_full
}

allow_audit_read if {
	input.roles[_] == "admin"
}
`

// OPAEvaluator evaluates record-access policy using OPA Rego.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator returns an OPA-based access evaluator with the default
// policy compiled once up front.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{"record_access.rego": defaultRegoPolicy})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// EvaluateAccess returns the capabilities the policy grants to roles.
// Any query failure returns the zero Decision (deny all) with the error;
// callers must not fall back to a permissive default.
func (e *OPAEvaluator) EvaluateAccess(ctx context.Context, roles []string) (Decision, error) {
	input := map[string]interface{}{"roles": roles}

	var out Decision
	queries := []struct {
		query string
		dst   *bool
	}{
		{"data.casevault.record_access.allow_full", &out.AllowFull},
		{"data.casevault.record_access.allow_summary", &out.AllowSummary},
		{"data.casevault.record_access.allow_audit_read", &out.AllowAuditRead},
	}
	for _, q := range queries {
		r := rego.New(
			rego.Query(q.query),
			rego.Compiler(e.compiler),
			rego.Input(input),
		)
		rs, err := r.Eval(ctx)
		if err != nil {
			return Decision{}, fmt.Errorf("eval %s: %w", q.query, err)
		}
		if len(rs) == 0 || len(rs[0].Expressions) == 0 {
			return Decision{}, fmt.Errorf("eval %s: no result", q.query)
		}
		v, ok := rs[0].Expressions[0].Value.(bool)
		if !ok {
			return Decision{}, fmt.Errorf("eval %s: non-boolean result", q.query)
		}
		*q.dst = v
	}
	return out, nil
}

// HealthCheck verifies the in-process Rego engine can evaluate the compiled
// policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.EvaluateAccess(ctx, []string{"staff"})
	return err
}
