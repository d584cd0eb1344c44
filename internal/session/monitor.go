// Package session owns the timed security state machine around one
// authenticated session: idle timeout with a warning period, an absolute
// lifetime cap, and a periodic heartbeat that persists session state.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"casevault/backend/internal/session/domain"
)

// Defaults applied when a Config field is non-positive.
const (
	DefaultIdleTimeout     = 30 * time.Minute
	DefaultAbsoluteTimeout = 8 * time.Hour
	DefaultWarningTime     = 5 * time.Minute
	DefaultHeartbeatPeriod = 5 * time.Minute

	// storeTimeout bounds revoke and heartbeat calls so a slow store cannot
	// wedge a timer goroutine.
	storeTimeout = 5 * time.Second
)

// State is the monitor's position in the session lifecycle.
type State int

const (
	// StateActive means the session is live and no warning is pending.
	StateActive State = iota
	// StateWarned means the warning fired; activity returns the session to Active.
	StateWarned
	// StateTerminated is terminal: further activity events are ignored.
	StateTerminated
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWarned:
		return "warned"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Reason explains why a session terminated.
type Reason string

const (
	ReasonIdle     Reason = "idle"
	ReasonAbsolute Reason = "absolute"
	ReasonLogout   Reason = "logout"
)

// Store is the minimal session persistence needed by the monitor.
type Store interface {
	PersistHeartbeat(ctx context.Context, sessionID string, lastActivity, newExpiry time.Time) error
	Revoke(ctx context.Context, sessionID string) error
}

// Hooks are the lifecycle callbacks the monitor raises. Both are invoked
// outside the monitor's lock and may be nil.
type Hooks struct {
	// OnWarning fires once per warning period with the time left until idle
	// termination.
	OnWarning func(timeLeft time.Duration)
	// OnTerminated fires exactly once, with the termination reason.
	OnTerminated func(reason Reason)
}

// Config holds the monitor's timing parameters.
type Config struct {
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration
	WarningTime     time.Duration
	HeartbeatPeriod time.Duration
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.AbsoluteTimeout <= 0 {
		c.AbsoluteTimeout = DefaultAbsoluteTimeout
	}
	if c.WarningTime <= 0 || c.WarningTime >= c.IdleTimeout {
		c.WarningTime = DefaultWarningTime
		if c.WarningTime >= c.IdleTimeout {
			c.WarningTime = c.IdleTimeout / 2
		}
	}
	if c.HeartbeatPeriod <= 0 {
		c.HeartbeatPeriod = DefaultHeartbeatPeriod
	}
	return c
}

// Monitor drives one session's timeout state machine. All state mutations run
// under one mutex (single-writer discipline per session); timers are explicit
// and torn down deterministically on termination, never left to garbage
// collection.
type Monitor struct {
	cfg   Config
	store Store
	hooks Hooks

	mu            sync.Mutex
	sess          *domain.Session
	state         State
	warningTimer  *time.Timer
	idleTimer     *time.Timer
	absoluteTimer *time.Timer
	stopHeartbeat chan struct{}
}

// StartMonitor begins monitoring sess: schedules the idle deadline at
// now+IdleTimeout, the warning at IdleTimeout-WarningTime, the absolute
// deadline at now+AbsoluteTimeout, and starts the heartbeat task.
func StartMonitor(sess *domain.Session, cfg Config, store Store, hooks Hooks) *Monitor {
	m := &Monitor{
		cfg:           cfg.withDefaults(),
		store:         store,
		hooks:         hooks,
		sess:          sess,
		state:         StateActive,
		stopHeartbeat: make(chan struct{}),
	}

	m.mu.Lock()
	m.rescheduleIdleLocked(time.Now().UTC())
	m.absoluteTimer = time.AfterFunc(m.cfg.AbsoluteTimeout, func() { m.terminate(ReasonAbsolute) })
	m.mu.Unlock()

	go m.heartbeatLoop()
	return m
}

// Activity records a qualifying user interaction: the idle deadline and the
// warning point move to now+IdleTimeout, and a Warned session returns to
// Active. The absolute deadline never moves. Activity after termination is
// ignored.
func (m *Monitor) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateTerminated {
		return
	}
	now := time.Now().UTC()
	m.state = StateActive
	m.sess.LastActivityAt = now
	m.sess.ExpiresAt = now.Add(m.cfg.IdleTimeout)
	m.rescheduleIdleLocked(now)
}

// rescheduleIdleLocked stops any pending warning/idle timers and schedules
// fresh ones from now. Caller must hold m.mu.
func (m *Monitor) rescheduleIdleLocked(now time.Time) {
	if m.warningTimer != nil {
		m.warningTimer.Stop()
	}
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	m.warningTimer = time.AfterFunc(m.cfg.IdleTimeout-m.cfg.WarningTime, m.fireWarning)
	m.idleTimer = time.AfterFunc(m.cfg.IdleTimeout, func() { m.terminate(ReasonIdle) })
}

func (m *Monitor) fireWarning() {
	m.mu.Lock()
	if m.state != StateActive {
		m.mu.Unlock()
		return
	}
	m.state = StateWarned
	cb := m.hooks.OnWarning
	m.mu.Unlock()

	if cb != nil {
		cb(m.cfg.WarningTime)
	}
}

// terminate moves the monitor to StateTerminated, tears down timers and the
// heartbeat, revokes the durable session, and raises OnTerminated. Idempotent
// and irreversible.
func (m *Monitor) terminate(reason Reason) {
	m.mu.Lock()
	if m.state == StateTerminated {
		m.mu.Unlock()
		return
	}
	m.state = StateTerminated
	m.sess.Active = false
	if m.warningTimer != nil {
		m.warningTimer.Stop()
	}
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	if m.absoluteTimer != nil {
		m.absoluteTimer.Stop()
	}
	close(m.stopHeartbeat)
	sessionID := m.sess.ID
	cb := m.hooks.OnTerminated
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Revoke(ctx, sessionID); err != nil {
		log.Printf("session: revoke %s: %v", sessionID, err)
	}

	if cb != nil {
		cb(reason)
	}
}

// Logout terminates the session explicitly. Safe to call more than once.
func (m *Monitor) Logout() {
	m.terminate(ReasonLogout)
}

// State returns the monitor's current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsLive reports whether the session may still be used (Active or Warned).
func (m *Monitor) IsLive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != StateTerminated
}

// SessionID returns the monitored session's id.
func (m *Monitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.ID
}

func (m *Monitor) heartbeatLoop() {
	ticker := time.NewTicker(m.cfg.HeartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopHeartbeat:
			return
		case <-ticker.C:
			m.heartbeat()
		}
	}
}

// heartbeat persists last activity and the refreshed idle expiry. Failures
// are logged and never affect in-memory state.
func (m *Monitor) heartbeat() {
	m.mu.Lock()
	if m.state == StateTerminated {
		m.mu.Unlock()
		return
	}
	sessionID := m.sess.ID
	lastActivity := m.sess.LastActivityAt
	newExpiry := lastActivity.Add(m.cfg.IdleTimeout)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.PersistHeartbeat(ctx, sessionID, lastActivity, newExpiry); err != nil {
		log.Printf("session: heartbeat %s: %v", sessionID, err)
	}
}
