package session

import "sync"

// Registry tracks the live monitors for this process, keyed by session id.
// Unknown sessions are treated as not live.
type Registry struct {
	mu       sync.RWMutex
	monitors map[string]*Monitor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{monitors: make(map[string]*Monitor)}
}

// Add registers a monitor under its session id, replacing any previous entry.
func (r *Registry) Add(m *Monitor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monitors[m.SessionID()] = m
}

// Remove drops the monitor for sessionID. It does not terminate the monitor.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.monitors, sessionID)
}

// Get returns the monitor for sessionID, or nil if none is registered.
func (r *Registry) Get(sessionID string) *Monitor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.monitors[sessionID]
}

// IsLive reports whether sessionID has a registered, non-terminated monitor.
func (r *Registry) IsLive(sessionID string) bool {
	m := r.Get(sessionID)
	return m != nil && m.IsLive()
}

// Len returns the number of registered monitors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.monitors)
}
