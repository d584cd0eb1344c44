// Package audit records access attempts against protected records and
// session lifecycle events.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"casevault/backend/internal/audit/domain"
	auditrepo "casevault/backend/internal/audit/repository"
)

// OriginExtractor returns the caller's network origin and agent string from
// the request context (e.g. HTTP headers or peer address).
type OriginExtractor func(context.Context) (ip, userAgent string)

// EventLogger writes a single session lifecycle event. Used by the auth
// service and session monitor. LogEvent is best-effort: failures are logged
// and do not affect the caller. Gateway record accesses do NOT go through
// this type; they append to the repository directly and fail closed.
type EventLogger interface {
	LogEvent(ctx context.Context, principalID string, accessType domain.AccessType, detail string)
}

// Logger implements EventLogger using the access log repository and an
// optional origin extractor.
type Logger struct {
	repo   auditrepo.Repository
	origin OriginExtractor
}

// NewLogger returns an EventLogger that persists to repo and uses origin for
// caller metadata. origin may be nil; then ip and agent are recorded as "unknown".
func NewLogger(repo auditrepo.Repository, origin OriginExtractor) *Logger {
	return &Logger{repo: repo, origin: origin}
}

// LogEvent writes one access log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, principalID string, accessType domain.AccessType, detail string) {
	if l.repo == nil {
		return
	}
	ip, agent := "unknown", "unknown"
	if l.origin != nil {
		ip, agent = l.origin(ctx)
	}
	entry := &domain.Entry{
		ID:          uuid.New().String(),
		PrincipalID: principalID,
		AccessType:  accessType,
		IP:          ip,
		UserAgent:   agent,
		Detail:      detail,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.repo.Append(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s for %s: %v", accessType, principalID, err)
	}
}
