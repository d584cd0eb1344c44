// Package gateway mediates every read of a protected client record through a
// role-gated, audited access path with full and minimized projection tiers.
package gateway

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	auditdomain "casevault/backend/internal/audit/domain"
	clientdomain "casevault/backend/internal/client/domain"
	identitydomain "casevault/backend/internal/identity/domain"
	"casevault/backend/internal/policy/engine"
)

const (
	// searchHitLimit caps store matches per search.
	searchHitLimit = 50
	// searchFanOut bounds concurrent per-hit summary reads.
	searchFanOut = 8
	// searchTermMaxLen bounds the search term after trimming.
	searchTermMaxLen = 100
	// defaultLogWindowDays is used when GetAccessLog gets a non-positive window.
	defaultLogWindowDays = 30
)

// Caller identifies the principal behind one gateway invocation, with the
// network metadata recorded on every access log entry.
type Caller struct {
	PrincipalID string
	SessionID   string
	IP          string
	UserAgent   string
}

// RoleRepo is the minimal identity repository needed by the gateway.
type RoleRepo interface {
	GetRoles(ctx context.Context, principalID string) (identitydomain.RoleSet, error)
}

// ClientRepo is the minimal client record repository needed by the gateway.
type ClientRepo interface {
	ReadFull(ctx context.Context, id string) (*clientdomain.Record, error)
	ReadSummary(ctx context.Context, id string) (*clientdomain.Summary, error)
	FindByText(ctx context.Context, term string, limit int) ([]string, error)
}

// AuditRepo is the minimal access log repository needed by the gateway.
type AuditRepo interface {
	Append(ctx context.Context, e *auditdomain.Entry) error
	ListByRecord(ctx context.Context, recordID string, since time.Time) ([]*auditdomain.Entry, error)
}

// SessionChecker reports whether a session is still live. Calls made after
// termination fail immediately without contacting the store.
type SessionChecker interface {
	IsLive(sessionID string) bool
}

// Gateway implements the audited read operations over protected records.
type Gateway struct {
	roles    RoleRepo
	clients  ClientRepo
	audit    AuditRepo
	policy   engine.Evaluator
	sessions SessionChecker

	accessCounter metric.Int64Counter
}

// New returns a Gateway with the given dependencies.
func New(roles RoleRepo, clients ClientRepo, audit AuditRepo, policy engine.Evaluator, sessions SessionChecker) *Gateway {
	meter := otel.Meter("casevault/backend/internal/gateway")
	counter, err := meter.Int64Counter("record_access_total",
		metric.WithDescription("Protected record accesses by type, including denials."))
	if err != nil {
		log.Printf("gateway: access counter unavailable: %v", err)
	}
	return &Gateway{
		roles:         roles,
		clients:       clients,
		audit:         audit,
		policy:        policy,
		sessions:      sessions,
		accessCounter: counter,
	}
}

// GetFull returns the full projection of recordID for an authorized caller.
// Exactly one audit entry is appended: type full on an authorized attempt
// (even when the record does not exist or the read fails), type denied
// otherwise. The entry is written before the read so failed attempts still
// show in the log.
func (g *Gateway) GetFull(ctx context.Context, caller Caller, recordID string) (*clientdomain.Record, error) {
	if err := g.authorize(ctx, caller, recordID, func(d engine.Decision) bool { return d.AllowFull }); err != nil {
		return nil, err
	}
	if err := g.append(ctx, caller, auditdomain.AccessFull, recordID, ""); err != nil {
		return nil, err
	}
	rec, err := g.clients.ReadFull(ctx, recordID)
	if err != nil {
		log.Printf("gateway: read full %s: %v", recordID, err)
		return nil, ErrStoreUnavailable
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// GetSummary returns the minimized projection of recordID for an authorized
// caller, with the same audit guarantee as GetFull.
func (g *Gateway) GetSummary(ctx context.Context, caller Caller, recordID string) (*clientdomain.Summary, error) {
	if err := g.authorize(ctx, caller, recordID, func(d engine.Decision) bool { return d.AllowSummary }); err != nil {
		return nil, err
	}
	return g.readSummaryAudited(ctx, caller, recordID)
}

// Search matches term case-insensitively against the indexed fields and
// returns the summaries the caller may see, in store match order. The search
// itself is audited once; each per-hit summary read is audited individually.
// Hits that fail lookup or audit are omitted, not retried.
func (g *Gateway) Search(ctx context.Context, caller Caller, term string) ([]*clientdomain.Summary, error) {
	if err := g.authorize(ctx, caller, "", func(d engine.Decision) bool { return d.AllowSummary }); err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if len(term) > searchTermMaxLen {
		// Back up to a rune boundary so the store never sees invalid UTF-8.
		cut := searchTermMaxLen
		for cut > 0 && !utf8.RuneStart(term[cut]) {
			cut--
		}
		term = term[:cut]
	}

	ids, err := g.clients.FindByText(ctx, term, searchHitLimit)
	if err != nil {
		log.Printf("gateway: search %q: %v", term, err)
		return nil, ErrStoreUnavailable
	}
	if err := g.append(ctx, caller, auditdomain.AccessSearch, "", "hits="+strconv.Itoa(len(ids))); err != nil {
		return nil, err
	}

	// Bounded fan-out with a full collection barrier: no partial results are
	// returned before every hit has resolved.
	results := make([]*clientdomain.Summary, len(ids))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(searchFanOut)
	for i, id := range ids {
		grp.Go(func() error {
			s, err := g.readSummaryAudited(grpCtx, caller, id)
			if err != nil {
				// Omit silently; each hit was already audited or failed closed.
				return nil
			}
			results[i] = s
			return nil
		})
	}
	_ = grp.Wait()

	out := make([]*clientdomain.Summary, 0, len(ids))
	for _, s := range results {
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// GetAccessLog returns audit entries for recordID (all records when empty)
// within windowDays of now, newest first. Requires the audit-read capability
// (admin). This operation never appends to the log.
func (g *Gateway) GetAccessLog(ctx context.Context, caller Caller, recordID string, windowDays int) ([]*auditdomain.Entry, error) {
	if g.sessions != nil && !g.sessions.IsLive(caller.SessionID) {
		return nil, ErrSessionTerminated
	}
	decision, err := g.decide(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !decision.AllowAuditRead {
		return nil, ErrAccessDenied
	}

	if windowDays <= 0 {
		windowDays = defaultLogWindowDays
	}
	since := time.Now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)
	entries, err := g.audit.ListByRecord(ctx, recordID, since)
	if err != nil {
		log.Printf("gateway: list access log: %v", err)
		return nil, ErrStoreUnavailable
	}
	return entries, nil
}

// authorize runs the session and role gates shared by the read operations.
// On denial it appends exactly one denied entry and returns ErrAccessDenied;
// the caller never learns whether the record exists.
func (g *Gateway) authorize(ctx context.Context, caller Caller, recordID string, allowed func(engine.Decision) bool) error {
	if g.sessions != nil && !g.sessions.IsLive(caller.SessionID) {
		return ErrSessionTerminated
	}
	decision, err := g.decide(ctx, caller)
	if err != nil {
		return err
	}
	if !allowed(decision) {
		if err := g.append(ctx, caller, auditdomain.AccessDenied, recordID, ""); err != nil {
			return err
		}
		return ErrAccessDenied
	}
	return nil
}

// decide resolves the caller's roles and evaluates access policy.
// Policy evaluation failure fails closed as a denial, not an open default.
func (g *Gateway) decide(ctx context.Context, caller Caller) (engine.Decision, error) {
	roles, err := g.roles.GetRoles(ctx, caller.PrincipalID)
	if err != nil {
		log.Printf("gateway: role lookup for %s: %v", caller.PrincipalID, err)
		return engine.Decision{}, ErrStoreUnavailable
	}
	decision, err := g.policy.EvaluateAccess(ctx, roles.Roles())
	if err != nil {
		log.Printf("gateway: policy evaluation for %s failed closed: %v", caller.PrincipalID, err)
		return engine.Decision{}, nil
	}
	return decision, nil
}

// readSummaryAudited appends the audit entry for one summary access, then
// reads it. Used by GetSummary and by the search fan-out after authorization
// has passed. Appending first keeps failed reads visible in the log.
func (g *Gateway) readSummaryAudited(ctx context.Context, caller Caller, recordID string) (*clientdomain.Summary, error) {
	if err := g.append(ctx, caller, auditdomain.AccessSummary, recordID, ""); err != nil {
		return nil, err
	}
	s, err := g.clients.ReadSummary(ctx, recordID)
	if err != nil {
		log.Printf("gateway: read summary %s: %v", recordID, err)
		return nil, ErrStoreUnavailable
	}
	if s == nil {
		return nil, ErrNotFound
	}
	return s, nil
}

// append writes one access log entry. A failed append fails the whole access
// attempt closed: auditability is a security invariant, not best-effort
// logging.
func (g *Gateway) append(ctx context.Context, caller Caller, accessType auditdomain.AccessType, recordID, detail string) error {
	entry := &auditdomain.Entry{
		ID:          uuid.New().String(),
		PrincipalID: caller.PrincipalID,
		AccessType:  accessType,
		RecordID:    recordID,
		IP:          caller.IP,
		UserAgent:   caller.UserAgent,
		Detail:      detail,
		CreatedAt:   time.Now().UTC(),
	}
	if err := g.audit.Append(ctx, entry); err != nil {
		log.Printf("gateway: audit append %s for %s failed, denying: %v", accessType, caller.PrincipalID, err)
		return ErrStoreUnavailable
	}
	if g.accessCounter != nil {
		g.accessCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("access_type", string(accessType))))
	}
	return nil
}
