package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	auditdomain "casevault/backend/internal/audit/domain"
	identitydomain "casevault/backend/internal/identity/domain"
	"casevault/backend/internal/security"
	"casevault/backend/internal/session"
	sessiondomain "casevault/backend/internal/session/domain"
)

type memIdentityRepo struct {
	byEmail map[string]*identitydomain.Principal
}

func (r *memIdentityRepo) GetByEmail(_ context.Context, email string) (*identitydomain.Principal, error) {
	return r.byEmail[email], nil
}

type memSessionRepo struct {
	mu      sync.Mutex
	created []*sessiondomain.Session
	revoked []string
}

func (r *memSessionRepo) Create(_ context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, s)
	return nil
}

func (r *memSessionRepo) PersistHeartbeat(_ context.Context, _ string, _, _ time.Time) error {
	return nil
}

func (r *memSessionRepo) Revoke(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, sessionID)
	return nil
}

type memEvents struct {
	mu     sync.Mutex
	events []auditdomain.AccessType
}

func (e *memEvents) LogEvent(_ context.Context, _ string, accessType auditdomain.AccessType, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, accessType)
}

func (e *memEvents) has(t auditdomain.AccessType) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, got := range e.events {
		if got == t {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T) (*Service, *memSessionRepo, *memEvents, *session.Registry) {
	t.Helper()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte("opensesame"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	identities := &memIdentityRepo{byEmail: map[string]*identitydomain.Principal{
		"alice@example.org": {ID: "staff-1", Email: "alice@example.org", PasswordHash: hash, Active: true},
		"bob@example.org":   {ID: "staff-2", Email: "bob@example.org", PasswordHash: hash, Active: false},
	}}
	sessions := &memSessionRepo{}
	registry := session.NewRegistry()
	events := &memEvents{}
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	svc := NewService(identities, sessions, registry, hasher, tokens, events, nil, session.Config{
		IdleTimeout:     time.Minute,
		AbsoluteTimeout: time.Hour,
		WarningTime:     time.Second,
		HeartbeatPeriod: time.Minute,
	})
	return svc, sessions, events, registry
}

func TestLoginSuccess(t *testing.T) {
	svc, sessions, events, registry := newTestService(t)

	res, err := svc.Login(context.Background(), "Alice@Example.org ", "opensesame", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.SessionID == "" {
		t.Fatal("login result missing token or session id")
	}
	if res.PrincipalID != "staff-1" {
		t.Errorf("principal = %q, want %q", res.PrincipalID, "staff-1")
	}
	if len(sessions.created) != 1 {
		t.Fatalf("sessions created = %d, want 1", len(sessions.created))
	}
	if got := sessions.created[0].IPAddress; got != "10.0.0.1" {
		t.Errorf("session ip = %q, want %q", got, "10.0.0.1")
	}
	if !registry.IsLive(res.SessionID) {
		t.Error("session not live after login")
	}
	if !events.has(auditdomain.AccessLogin) {
		t.Error("login event not recorded")
	}

	registry.Get(res.SessionID).Logout()
}

func TestLoginTokenBoundToSession(t *testing.T) {
	svc, _, _, registry := newTestService(t)

	res, err := svc.Login(context.Background(), "alice@example.org", "opensesame", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	defer registry.Get(res.SessionID).Logout()

	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	sid, pid, err := tokens.ValidateAccess(res.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if sid != res.SessionID || pid != res.PrincipalID {
		t.Errorf("token claims sessionID=%q principalID=%q, want %q/%q", sid, pid, res.SessionID, res.PrincipalID)
	}
}

func TestLoginRejections(t *testing.T) {
	svc, sessions, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.org", "opensesame"},
		{"wrong password", "alice@example.org", "wrong"},
		{"inactive account", "bob@example.org", "opensesame"},
		{"empty password", "alice@example.org", ""},
		{"empty email", "", "opensesame"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tc.email, tc.password, ""); err != ErrInvalidCredentials {
				t.Errorf("Login = %v, want ErrInvalidCredentials", err)
			}
		})
	}
	if len(sessions.created) != 0 {
		t.Errorf("sessions created on failed logins = %d, want 0", len(sessions.created))
	}
}

func TestLogoutTerminatesSession(t *testing.T) {
	svc, sessions, events, registry := newTestService(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "alice@example.org", "opensesame", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(ctx, res.SessionID, res.PrincipalID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if registry.IsLive(res.SessionID) {
		t.Error("session still live after logout")
	}
	if !events.has(auditdomain.AccessLogout) {
		t.Error("logout event not recorded")
	}
	// Monitor termination revokes the durable session.
	deadline := time.Now().Add(time.Second)
	for {
		sessions.mu.Lock()
		n := len(sessions.revoked)
		sessions.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("revoked sessions = %d, want 1", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Repeated logout is safe.
	if err := svc.Logout(ctx, res.SessionID, res.PrincipalID); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestIdleTerminationRecordsEvent(t *testing.T) {
	hasher := security.NewHasher(4)
	hash, _ := hasher.Hash([]byte("opensesame"))
	identities := &memIdentityRepo{byEmail: map[string]*identitydomain.Principal{
		"alice@example.org": {ID: "staff-1", Email: "alice@example.org", PasswordHash: hash, Active: true},
	}}
	sessions := &memSessionRepo{}
	registry := session.NewRegistry()
	events := &memEvents{}
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	svc := NewService(identities, sessions, registry, hasher, tokens, events, nil, session.Config{
		IdleTimeout:     60 * time.Millisecond,
		AbsoluteTimeout: time.Hour,
		WarningTime:     20 * time.Millisecond,
		HeartbeatPeriod: time.Minute,
	})

	res, err := svc.Login(context.Background(), "alice@example.org", "opensesame", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for registry.IsLive(res.SessionID) {
		if time.Now().After(deadline) {
			t.Fatal("session never idled out")
		}
		time.Sleep(10 * time.Millisecond)
	}
	deadline = time.Now().Add(time.Second)
	for !events.has(auditdomain.AccessTerminated) {
		if time.Now().After(deadline) {
			t.Fatal("terminated event not recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
