package telemetry

import (
	"time"

	"github.com/google/uuid"

	"casevault/backend/internal/session"
)

// SessionNotifier publishes session lifecycle notifications to the security
// event stream. Satisfies the auth service's Notifier.
type SessionNotifier struct {
	emitter EventEmitter
}

// NewSessionNotifier returns a SessionNotifier over emitter. emitter may be
// nil; then all notifications are dropped.
func NewSessionNotifier(emitter EventEmitter) *SessionNotifier {
	return &SessionNotifier{emitter: emitter}
}

// SessionWarning publishes a warning event with the time left until idle termination.
func (n *SessionNotifier) SessionWarning(sessionID, principalID string, timeLeft time.Duration) {
	EmitAsync(n.emitter, &Event{
		ID:          uuid.New().String(),
		Kind:        KindSessionWarning,
		SessionID:   sessionID,
		PrincipalID: principalID,
		TimeLeftMS:  timeLeft.Milliseconds(),
		At:          time.Now().UTC(),
	})
}

// SessionTerminated publishes a termination event with its reason.
func (n *SessionNotifier) SessionTerminated(sessionID, principalID string, reason session.Reason) {
	EmitAsync(n.emitter, &Event{
		ID:          uuid.New().String(),
		Kind:        KindSessionTerminated,
		SessionID:   sessionID,
		PrincipalID: principalID,
		Reason:      string(reason),
		At:          time.Now().UTC(),
	})
}
