// Package auth implements staff login and logout: password verification,
// session creation, monitor startup, and access token issuance.
package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"casevault/backend/internal/audit"
	auditdomain "casevault/backend/internal/audit/domain"
	identitydomain "casevault/backend/internal/identity/domain"
	"casevault/backend/internal/security"
	"casevault/backend/internal/session"
	sessiondomain "casevault/backend/internal/session/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP codes.
var (
	// ErrInvalidCredentials covers unknown email, wrong password, and
	// deactivated accounts. One error so responses cannot be used to probe
	// which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// LoginResult holds the outcome of a successful login.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	SessionID   string
	PrincipalID string
}

// IdentityRepo is the minimal staff account repository needed by the auth service.
type IdentityRepo interface {
	GetByEmail(ctx context.Context, email string) (*identitydomain.Principal, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
// It is a superset of session.Store so the monitor can share it.
type SessionRepo interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	PersistHeartbeat(ctx context.Context, sessionID string, lastActivity, newExpiry time.Time) error
	Revoke(ctx context.Context, sessionID string) error
}

// Notifier receives session lifecycle notifications for out-of-band delivery
// (security event stream, operator alerting). May be nil.
type Notifier interface {
	SessionWarning(sessionID, principalID string, timeLeft time.Duration)
	SessionTerminated(sessionID, principalID string, reason session.Reason)
}

// Service implements login and logout over staff accounts and monitored sessions.
type Service struct {
	identities IdentityRepo
	sessions   SessionRepo
	registry   *session.Registry
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	events     audit.EventLogger
	notifier   Notifier
	monCfg     session.Config
}

// NewService returns an auth Service with the given dependencies. events and
// notifier may be nil.
func NewService(
	identities IdentityRepo,
	sessions SessionRepo,
	registry *session.Registry,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	events audit.EventLogger,
	notifier Notifier,
	monCfg session.Config,
) *Service {
	return &Service{
		identities: identities,
		sessions:   sessions,
		registry:   registry,
		hasher:     hasher,
		tokens:     tokens,
		events:     events,
		notifier:   notifier,
		monCfg:     monCfg,
	}
}

// Login authenticates with email/password, creates and persists a session,
// starts its security monitor, and returns a session-bound access token.
func (s *Service) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	principal, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if principal == nil || !principal.Active || principal.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(principal.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:             uuid.New().String(),
		PrincipalID:    principal.ID,
		StartedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.monCfg.IdleTimeout),
		Active:         true,
		IPAddress:      ip,
		CreatedAt:      now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	sessionID, principalID := sess.ID, principal.ID
	monitor := session.StartMonitor(sess, s.monCfg, s.sessions, session.Hooks{
		OnWarning: func(timeLeft time.Duration) {
			log.Printf("auth: session %s expires in %s without activity", sessionID, timeLeft)
			if s.notifier != nil {
				s.notifier.SessionWarning(sessionID, principalID, timeLeft)
			}
		},
		OnTerminated: func(reason session.Reason) {
			s.registry.Remove(sessionID)
			if reason != session.ReasonLogout && s.events != nil {
				s.events.LogEvent(context.Background(), principalID, auditdomain.AccessTerminated, "reason="+string(reason))
			}
			if s.notifier != nil {
				s.notifier.SessionTerminated(sessionID, principalID, reason)
			}
		},
	})
	s.registry.Add(monitor)

	token, expiresAt, err := s.tokens.IssueAccess(sess.ID, principal.ID)
	if err != nil {
		monitor.Logout()
		return nil, err
	}

	if s.events != nil {
		s.events.LogEvent(ctx, principal.ID, auditdomain.AccessLogin, "")
	}
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		SessionID:   sess.ID,
		PrincipalID: principal.ID,
	}, nil
}

// Logout terminates the session. Terminating an already terminated or unknown
// session is a no-op apart from a durable revoke, so repeated logouts are safe.
func (s *Service) Logout(ctx context.Context, sessionID, principalID string) error {
	if m := s.registry.Get(sessionID); m != nil {
		m.Logout()
	} else if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	if s.events != nil {
		s.events.LogEvent(ctx, principalID, auditdomain.AccessLogout, "")
	}
	return nil
}
