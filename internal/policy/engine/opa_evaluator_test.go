package engine

import (
	"context"
	"testing"
)

func TestEvaluateAccess_Staff(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}

	d, err := e.EvaluateAccess(context.Background(), []string{"staff"})
	if err != nil {
		t.Fatalf("EvaluateAccess: %v", err)
	}
	if !d.AllowFull {
		t.Error("staff should be allowed full access")
	}
	if !d.AllowSummary {
		t.Error("staff should be allowed summary access")
	}
	if d.AllowAuditRead {
		t.Error("staff should not be allowed audit read")
	}
}

func TestEvaluateAccess_Admin(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}

	d, err := e.EvaluateAccess(context.Background(), []string{"admin"})
	if err != nil {
		t.Fatalf("EvaluateAccess: %v", err)
	}
	if !d.AllowFull || !d.AllowSummary || !d.AllowAuditRead {
		t.Errorf("admin decision = %+v, want all capabilities", d)
	}
}

func TestEvaluateAccess_DefaultDeny(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}

	for _, roles := range [][]string{nil, {}, {"volunteer"}, {"intern", "guest"}} {
		d, err := e.EvaluateAccess(context.Background(), roles)
		if err != nil {
			t.Fatalf("EvaluateAccess(%v): %v", roles, err)
		}
		if d.AllowFull || d.AllowSummary || d.AllowAuditRead {
			t.Errorf("roles %v decision = %+v, want deny all", roles, d)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}
