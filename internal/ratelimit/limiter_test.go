package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(start time.Time) (*Limiter, *time.Time) {
	clock := start
	l := New()
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestAllow_QuotaExhaustion(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < 3; i++ {
		if !l.Allow("ip:1.2.3.4", 3, time.Minute) {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if l.Allow("ip:1.2.3.4", 3, time.Minute) {
		t.Error("4th call within the window should be denied")
	}
}

func TestAllow_WindowReset(t *testing.T) {
	l, clock := newTestLimiter(time.Unix(1000, 0))

	if !l.Allow("ip:1.2.3.4", 1, time.Minute) {
		t.Fatal("first call should be allowed")
	}
	if l.Allow("ip:1.2.3.4", 1, time.Minute) {
		t.Fatal("second call should be denied")
	}

	*clock = clock.Add(time.Minute)
	if !l.Allow("ip:1.2.3.4", 1, time.Minute) {
		t.Fatal("call after window elapsed should be allowed")
	}
	// Count reset to 1: the very next call is over quota again.
	if l.Allow("ip:1.2.3.4", 1, time.Minute) {
		t.Error("call after reset should count against the fresh window")
	}
}

func TestAllow_IndependentIdentifiers(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	if !l.Allow("ip:1.1.1.1", 1, time.Minute) {
		t.Fatal("first identifier should be allowed")
	}
	if !l.Allow("ip:2.2.2.2", 1, time.Minute) {
		t.Error("second identifier must not share the first one's window")
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
}

func TestAllow_Defaults(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	allowed := 0
	for i := 0; i < DefaultMaxRequests+5; i++ {
		if l.Allow("caller", 0, 0) {
			allowed++
		}
	}
	if allowed != DefaultMaxRequests {
		t.Errorf("allowed = %d, want %d", allowed, DefaultMaxRequests)
	}
}

func TestAllow_ConcurrentSingleSlot(t *testing.T) {
	l := New()

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Allow("ip:1.2.3.4", 1, time.Minute)
		}(i)
	}
	wg.Wait()

	if results[0] == results[1] {
		t.Errorf("concurrent calls = (%v, %v), want exactly one true", results[0], results[1])
	}
}
