package core

import (
	"testing"
	"time"
)

func TestPriorityRoundTrip(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical} {
		if got := ParsePriority(p.String()); got != p {
			t.Errorf("ParsePriority(%q) = %v, want %v", p.String(), got, p)
		}
	}
	if got := ParsePriority("bogus"); got != PriorityNormal {
		t.Errorf("unknown priority should map to normal, got %v", got)
	}
}

func TestEventExpired(t *testing.T) {
	now := time.Now()
	ev := NewEvent("task.due", PriorityNormal, nil)
	if ev.Expired(now) {
		t.Fatalf("event without deadline must not expire")
	}
	ev.ExpiresAt = now.Add(-time.Second)
	if !ev.Expired(now) {
		t.Fatalf("event with past deadline must be expired")
	}
	ev.ExpiresAt = now.Add(time.Second)
	if ev.Expired(now) {
		t.Fatalf("event with future deadline must not be expired")
	}
}

func TestNewEventIDsUnique(t *testing.T) {
	a := NewEvent("x", PriorityLow, nil)
	b := NewEvent("x", PriorityLow, nil)
	if a.ID == b.ID {
		t.Fatalf("expected unique event ids")
	}
}
