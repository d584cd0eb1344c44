package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"casevault/backend/internal/session"
)

type stubEmitter struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (s *stubEmitter) Emit(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *stubEmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEmitAsyncDelivers(t *testing.T) {
	emitter := &stubEmitter{}
	EmitAsync(emitter, &Event{ID: "e1", Kind: KindSessionWarning})
	waitFor(t, func() bool { return emitter.count() == 1 })
}

func TestEmitAsyncNilSafe(t *testing.T) {
	EmitAsync(nil, &Event{ID: "e1"})
	EmitAsync(&stubEmitter{}, nil)
}

func TestEmitAsyncErrorDoesNotPanic(t *testing.T) {
	emitter := &stubEmitter{err: errors.New("broker down")}
	EmitAsync(emitter, &Event{ID: "e1"})
	waitFor(t, func() bool { return emitter.count() == 1 })
}

func TestSessionNotifierEvents(t *testing.T) {
	emitter := &stubEmitter{}
	n := NewSessionNotifier(emitter)

	n.SessionWarning("s1", "staff-1", 5*time.Minute)
	n.SessionTerminated("s1", "staff-1", session.ReasonIdle)
	waitFor(t, func() bool { return emitter.count() == 2 })

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	kinds := map[string]*Event{}
	for _, e := range emitter.events {
		kinds[e.Kind] = e
	}
	warning := kinds[KindSessionWarning]
	if warning == nil || warning.TimeLeftMS != (5*time.Minute).Milliseconds() {
		t.Errorf("warning event = %+v, want time_left_ms for 5m", warning)
	}
	terminated := kinds[KindSessionTerminated]
	if terminated == nil || terminated.Reason != string(session.ReasonIdle) {
		t.Errorf("terminated event = %+v, want reason idle", terminated)
	}
	for _, e := range emitter.events {
		if e.SessionID != "s1" || e.PrincipalID != "staff-1" || e.ID == "" {
			t.Errorf("event missing identifiers: %+v", e)
		}
	}
}
